package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// VarKey returns the identifier under which the analyser tracks the value of expr:
// "$x", "$a['k']", "$a[0]", "$a[$i]", "$o->p" and compositions of those.
// ok is false for expressions that do not denote a trackable storage location.
func VarKey(expr Expr) (key string, ok bool) {
	switch expr := Unwrap(expr).(type) {
	case *Variable:
		return "$" + expr.Name, true
	case *ArrayAccess:
		if expr.Index == nil {
			return "", false
		}
		base, ok := VarKey(expr.Array)
		if !ok {
			return "", false
		}
		switch index := expr.Index.(type) {
		case *StringLiteral:
			return base + "['" + index.Value + "']", true
		case *IntLiteral:
			return base + "[" + strconv.FormatInt(index.Value, 10) + "]", true
		case *Variable:
			return base + "[$" + index.Name + "]", true
		}
		return "", false
	case *PropertyFetch:
		base, ok := VarKey(expr.Object)
		if !ok {
			return "", false
		}
		return base + "->" + expr.Name, true
	}
	return "", false
}

// ExprKey is the synthetic key used for conditions which do not refer to a variable,
// so that the truthiness of the expression itself can still take part in clauses.
// Synthetic keys always start with '*'.
func ExprKey(expr Positioner) string {
	return fmt.Sprintf("*%d-%d", expr.Pos(), expr.End())
}

// IsSyntheticKey is true for keys created by ExprKey
func IsSyntheticKey(key string) bool {
	return strings.HasPrefix(key, "*")
}

// IsDerivedKey reports whether key denotes a location nested inside parent,
// e.g. "$a['k']['j']" and "$a->p" are derived from "$a"
func IsDerivedKey(key, parent string) bool {
	if len(key) <= len(parent) || !strings.HasPrefix(key, parent) {
		return false
	}
	rest := key[len(parent):]
	return strings.HasPrefix(rest, "[") || strings.HasPrefix(rest, "->")
}

// ParentKey splits off the last array offset or property access of key.
// "$a['k']['j']" gives ("$a['k']", "['j']", true).
func ParentKey(key string) (parent string, last string, ok bool) {
	depth := 0
	inQuote := false
	for i := len(key) - 1; i > 0; i-- {
		c := key[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == ']':
			depth++
		case c == '[':
			depth--
			if depth == 0 {
				return key[:i], key[i:], true
			}
		case c == '>' && depth == 0 && key[i-1] == '-':
			return key[:i-1], key[i-1:], true
		}
	}
	return "", "", false
}
