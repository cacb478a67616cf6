package typehint

import (
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
)

// Template is a template parameter in scope where a hint is written
type Template struct {
	DefiningEntity string
	Constraint     *types.Union
}

// Templates maps the template parameter names in scope to their declarations
type Templates map[string]Template

// ToUnion converts a declared type into the union it denotes. A nil hint is mixed.
func ToUnion(hint *ast.TypeHint, templates Templates) *types.Union {
	if hint == nil {
		return types.GetMixed()
	}
	atomics := make([]types.Atomic, 0, len(hint.Parts)+1)
	for _, part := range hint.Parts {
		atomics = append(atomics, partToAtomic(part, templates))
	}
	if hint.Nullable {
		atomics = append(atomics, types.TNull{})
	}
	return types.NewUnion(types.Combine(atomics)...)
}

// FromString parses and converts s, falling back to mixed for invalid hints
func FromString(s string, templates Templates) (*types.Union, error) {
	hint, err := Parse(s)
	if err != nil {
		return types.GetMixed(), err
	}
	return ToUnion(hint, templates), nil
}

func arg(part ast.HintPart, i int, templates Templates) *types.Union {
	if i >= len(part.Args) {
		return types.GetMixed()
	}
	return ToUnion(part.Args[i], templates)
}

// keyValueArgs reads the <V> and <K, V> forms of array-like hints
func keyValueArgs(part ast.HintPart, templates Templates, defaultKey *types.Union) (key, value *types.Union) {
	switch len(part.Args) {
	case 0:
		return defaultKey, types.GetMixed()
	case 1:
		return defaultKey, arg(part, 0, templates)
	}
	return arg(part, 0, templates), arg(part, 1, templates)
}

func partToAtomic(part ast.HintPart, templates Templates) types.Atomic {
	if part.Literal != nil {
		return literalAtomic(part.Literal)
	}
	name := strings.TrimPrefix(part.Name, "\\")
	if tmpl, ok := templates[name]; ok {
		return types.TGenericParameter{
			ParameterName:  name,
			DefiningEntity: tmpl.DefiningEntity,
			Constraint:     tmpl.Constraint,
		}
	}

	switch strings.ToLower(name) {
	case "int", "integer":
		if len(part.Args) == 2 {
			return intRange(part)
		}
		return types.Int()
	case "positive-int":
		return types.IntFrom(1)
	case "non-negative-int":
		return types.IntFrom(0)
	case "negative-int":
		return types.IntTo(-1)
	case "float", "double":
		return types.TFloat{}
	case "string":
		return types.Str()
	case "non-empty-string":
		return types.TString{IsNonEmpty: true}
	case "truthy-string", "non-falsy-string":
		return types.TString{IsTruthy: true}
	case "numeric-string":
		return types.TString{IsNumeric: true}
	case "lowercase-string":
		return types.TString{IsLowercase: true}
	case "literal-string":
		return types.TString{Literal: types.StrLiteralUnspecified}
	case "bool", "boolean":
		return types.TBool{}
	case "true":
		return types.BoolLiteral(true)
	case "false":
		return types.BoolLiteral(false)
	case "null":
		return types.TNull{}
	case "void":
		return types.TVoid{}
	case "never", "no-return", "never-return":
		return types.TNever{}
	case "mixed":
		return types.TMixed{}
	case "nonnull":
		return types.TMixed{IsNonNull: true}
	case "object":
		return types.TObjectAny{}
	case "array-key":
		return types.TArrayKey{}
	case "scalar":
		return types.TScalar{}
	case "numeric":
		return types.TNumeric{}
	case "callable":
		return types.TCallable{}
	case "closure":
		return types.TCallable{IsClosure: true}
	case "resource":
		return types.TResource{}
	case "closed-resource":
		return types.TResource{State: types.ResourceClosed}
	case "iterable":
		key, value := keyValueArgs(part, templates, types.GetMixed())
		return types.TIterable{Key: key, Value: value}
	case "array":
		key, value := keyValueArgs(part, templates, types.GetArrayKey())
		return types.ArrayOf(key, value)
	case "non-empty-array":
		key, value := keyValueArgs(part, templates, types.GetArrayKey())
		a := types.ArrayOf(key, value)
		a.NonEmpty = true
		return a
	case "list":
		return types.ListOf(arg(part, 0, templates))
	case "non-empty-list":
		l := types.ListOf(arg(part, 0, templates))
		l.NonEmpty = true
		return l
	case "class-string":
		return classString(part, templates)
	}

	obj := types.NamedObject(name)
	for i := range part.Args {
		obj.TypeParameters = append(obj.TypeParameters, arg(part, i, templates))
	}
	return obj
}

func classString(part ast.HintPart, templates Templates) types.Atomic {
	if len(part.Args) != 1 || len(part.Args[0].Parts) != 1 {
		return types.TClassLikeString{}
	}
	name := strings.TrimPrefix(part.Args[0].Parts[0].Name, "\\")
	if tmpl, ok := templates[name]; ok {
		return types.TClassLikeString{
			ClassKind:      types.ClassStringGeneric,
			ParameterName:  name,
			DefiningEntity: tmpl.DefiningEntity,
			Constraint:     tmpl.Constraint,
		}
	}
	return types.TClassLikeString{ClassKind: types.ClassStringOfType, Name: name}
}

// intRange reads int<lo, hi> where either bound may be min or max
func intRange(part ast.HintPart) types.Atomic {
	bound := func(h *ast.TypeHint) (int64, bool) {
		if len(h.Parts) != 1 {
			return 0, false
		}
		if lit, ok := h.Parts[0].Literal.(*ast.IntLiteral); ok {
			return lit.Value, true
		}
		return 0, false
	}
	lo, hasLo := bound(part.Args[0])
	hi, hasHi := bound(part.Args[1])
	switch {
	case hasLo && hasHi:
		if r, ok := types.IntRangeOf(lo, hi); ok {
			return r
		}
		return types.TNever{}
	case hasLo:
		return types.IntFrom(lo)
	case hasHi:
		return types.IntTo(hi)
	}
	return types.Int()
}

func literalAtomic(lit ast.Expr) types.Atomic {
	switch lit := lit.(type) {
	case *ast.StringLiteral:
		return types.StringLit(lit.Value)
	case *ast.IntLiteral:
		return types.IntLit(lit.Value)
	case *ast.FloatLiteral:
		return types.FloatLit(lit.Value)
	case *ast.BoolLiteral:
		return types.BoolLiteral(lit.Value)
	case *ast.NullLiteral:
		return types.TNull{}
	}
	return types.TMixed{}
}
