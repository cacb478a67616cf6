package ast

import "strings"

// TypeHint is a declared type, covering native hints (int, ?Foo, int|string) as well as the
// docblock forms the analyser understands: literals ('a', 5), list<T>, array<K, V> and
// template parameter references.
type TypeHint struct {
	Range
	Parts    []HintPart
	Nullable bool
}

// HintPart is one member of a union type hint. Exactly one of Name and Literal is set.
type HintPart struct {
	Name    string
	Literal Expr // *StringLiteral, *IntLiteral, *FloatLiteral or *BoolLiteral
	Args    []*TypeHint
}

func (t *TypeHint) Hash() uint64 {
	h := newHasher("TypeHint", t.Range).bool(t.Nullable)
	for _, part := range t.Parts {
		h.str(part.Name).node(part.Literal)
		for _, arg := range part.Args {
			h.node(arg)
		}
	}
	return h.sum()
}

func (t *TypeHint) String() string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, len(t.Parts))
	for _, part := range t.Parts {
		var sb strings.Builder
		if part.Literal != nil {
			sb.WriteString(ExprString(part.Literal))
		} else {
			sb.WriteString(part.Name)
		}
		if len(part.Args) > 0 {
			sb.WriteString("<")
			for i, arg := range part.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.String())
			}
			sb.WriteString(">")
		}
		parts = append(parts, sb.String())
	}
	s := strings.Join(parts, "|")
	if t.Nullable {
		return "?" + s
	}
	return s
}
