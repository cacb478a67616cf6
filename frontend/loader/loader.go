// Package loader decodes files to analyse from their YAML form, in which every
// node of the syntax tree is a mapping with a single key naming its kind:
//
//	name: greet.php
//	stmts:
//	  - if:
//	      cond: {identical: [$name, null]}
//	      then:
//	        - return
//	  - echo: [{concat: ["hello ", $name]}]
//
// Plain scalars are literals, and unquoted strings starting with $ are variables.
// Positions of nodes are those of the YAML they were decoded from.
package loader

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/typehint"
	"github.com/cottand/narrow/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.DefaultLogger.With("section", "loader")

// SyntaxError is a YAML document that does not describe a valid file
type SyntaxError struct {
	File         string
	Line, Column int
	Message      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// Load reads the file at path, registering it with fset so that the positions of
// the nodes returned resolve to it
func Load(fset *token.FileSet, path string) (*ast.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Decode(fset, path, content)
}

// Decode reads a file from content, named name when the document does not name it
func Decode(fset *token.FileSet, name string, content []byte) (*ast.File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	tf := fset.AddFile(name, -1, len(content))
	tf.SetLinesForContent(content)
	d := &decoder{name: name, file: tf}

	file := &ast.File{Name: name}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return file, nil
	}
	top := resolve(doc.Content[0])
	file.Range = d.rangeOf(top)

	body := top
	if top.Kind == yaml.MappingNode {
		fields, err := d.fields(top, "name", "stmts")
		if err != nil {
			return nil, err
		}
		if n, ok := fields["name"]; ok {
			if file.Name, err = d.scalarString(n); err != nil {
				return nil, err
			}
		}
		body = fields["stmts"]
	}
	stmts, err := d.stmts(body)
	if err != nil {
		return nil, err
	}
	file.Stmts = stmts
	logger.Debug("decoded file", "file", file.Name, "statements", len(stmts))
	return file, nil
}

type decoder struct {
	name string
	file *token.File
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return errors.WithStack(&SyntaxError{
		File:    d.name,
		Line:    n.Line,
		Column:  n.Column,
		Message: fmt.Sprintf(format, args...),
	})
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func (d *decoder) pos(n *yaml.Node) token.Pos {
	if n.Line < 1 || n.Line > d.file.LineCount() {
		return token.NoPos
	}
	offset := int(d.file.LineStart(n.Line)) - d.file.Base() + n.Column - 1
	offset = min(max(offset, 0), d.file.Size())
	return d.file.Pos(offset)
}

// rangeOf spans n up to the end of its last descendant
func (d *decoder) rangeOf(n *yaml.Node) ast.Range {
	start := d.pos(n)
	last := n
	for len(last.Content) > 0 {
		last = resolve(last.Content[len(last.Content)-1])
	}
	end := d.pos(last) + token.Pos(len(last.Value))
	if end <= start {
		end = start + 1
	}
	return ast.Range{PosStart: start, PosEnd: end}
}

// single splits a mapping with one key into that key and its value
func (d *decoder) single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, d.errorf(n, "expected a mapping with a single key")
	}
	return n.Content[0].Value, resolve(n.Content[1]), nil
}

// fields reads a mapping whose keys must be among allowed
func (d *decoder) fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping with keys %s", strings.Join(allowed, ", "))
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		known := false
		for _, a := range allowed {
			known = known || a == key
		}
		if !known {
			return nil, d.errorf(n.Content[i], "unexpected key %q", key)
		}
		out[key] = resolve(n.Content[i+1])
	}
	return out, nil
}

// items is the content of a sequence, or n alone when it is not one
func items(n *yaml.Node) []*yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return []*yaml.Node{n}
	}
	out := make([]*yaml.Node, len(n.Content))
	for i, item := range n.Content {
		out[i] = resolve(item)
	}
	return out
}

// tuple is the content of a sequence of between least and most items
func (d *decoder) tuple(n *yaml.Node, least, most int) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < least || len(n.Content) > most {
		if least == most {
			return nil, d.errorf(n, "expected a sequence of %d items", least)
		}
		return nil, d.errorf(n, "expected a sequence of %d to %d items", least, most)
	}
	return items(n), nil
}

func (d *decoder) scalarString(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a scalar")
	}
	return n.Value, nil
}

func (d *decoder) hint(n *yaml.Node) (*ast.TypeHint, error) {
	if n == nil {
		return nil, nil
	}
	s, err := d.scalarString(n)
	if err != nil {
		return nil, err
	}
	hint, err := typehint.Parse(s)
	if err != nil {
		return nil, d.errorf(n, "invalid type %q: %v", s, err)
	}
	hint.Range = d.rangeOf(n)
	return hint, nil
}
