// Package typehint reads declared types, both from their source-like string
// form (`?int`, `list<T>`, `'a'|'b'`, `int<0, max>`) and from AST hints, into unions
package typehint

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/pkg/errors"
)

// Parse reads a type hint from its string form
func Parse(s string) (*ast.TypeHint, error) {
	p := &parser{src: s}
	hint, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return hint, nil
}

// MustParse is Parse for hints known to be valid
func MustParse(s string) *ast.TypeHint {
	hint, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return hint
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.Wrapf(errors.Errorf(format, args...), "parsing type %q at offset %d", p.src, p.pos)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) union() (*ast.TypeHint, error) {
	hint := &ast.TypeHint{}
	if p.peek() == '?' {
		p.pos++
		hint.Nullable = true
	}
	for {
		part, err := p.part()
		if err != nil {
			return nil, err
		}
		hint.Parts = append(hint.Parts, part)
		if p.peek() != '|' {
			return hint, nil
		}
		p.pos++
	}
}

func (p *parser) part() (ast.HintPart, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.stringLiteral(c)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.numberLiteral()
	}

	start := p.pos
	for p.pos < len(p.src) && isNameChar(rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return ast.HintPart{}, p.errorf("expected a type")
	}
	part := ast.HintPart{Name: p.src[start:p.pos]}
	if p.peek() != '<' {
		return part, nil
	}
	p.pos++
	for {
		arg, err := p.union()
		if err != nil {
			return ast.HintPart{}, err
		}
		part.Args = append(part.Args, arg)
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return part, nil
		default:
			return ast.HintPart{}, p.errorf("expected , or >")
		}
	}
}

func (p *parser) stringLiteral(quote byte) (ast.HintPart, error) {
	end := strings.IndexByte(p.src[p.pos+1:], quote)
	if end < 0 {
		return ast.HintPart{}, p.errorf("unterminated string literal")
	}
	value := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return ast.HintPart{Literal: &ast.StringLiteral{Value: value}}, nil
}

func (p *parser) numberLiteral() (ast.HintPart, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
		p.pos++
	}
	text := p.src[start:p.pos]
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ast.HintPart{Literal: &ast.IntLiteral{Value: i}}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return ast.HintPart{}, p.errorf("invalid number %q", text)
	}
	return ast.HintPart{Literal: &ast.FloatLiteral{Value: f}}, nil
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\\' || r == '-'
}
