package assertion

import (
	"strconv"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
)

// TypeOf returns the type already inferred for an expression, if it has one
type TypeOf func(ast.Expr) (*types.Union, bool)

// Found maps variable keys to the assertions a condition makes about them,
// as a conjunction of disjunctions
type Found map[string][][]Assertion

func (f Found) add(key string, assertions ...Assertion) {
	f[key] = append(f[key], assertions)
}

// typeCheckFunctions maps is_* functions to the type they assert
var typeCheckFunctions = map[string]func() Assertion{
	"is_int":      func() Assertion { return OfType(types.Int()) },
	"is_integer":  func() Assertion { return OfType(types.Int()) },
	"is_long":     func() Assertion { return OfType(types.Int()) },
	"is_float":    func() Assertion { return OfType(types.TFloat{}) },
	"is_double":   func() Assertion { return OfType(types.TFloat{}) },
	"is_string":   func() Assertion { return OfType(types.Str()) },
	"is_bool":     func() Assertion { return OfType(types.TBool{}) },
	"is_null":     func() Assertion { return OfType(types.TNull{}) },
	"is_numeric":  func() Assertion { return OfType(types.TNumeric{}) },
	"is_scalar":   func() Assertion { return OfType(types.TScalar{}) },
	"is_object":   func() Assertion { return OfType(types.TObjectAny{}) },
	"is_callable": func() Assertion { return OfType(types.TCallable{}) },
	"is_resource": func() Assertion { return OfType(types.TResource{}) },
	"is_array": func() Assertion {
		return OfType(types.ArrayOf(types.GetArrayKey(), types.GetMixed()))
	},
	"is_iterable": func() Assertion {
		return OfType(types.TIterable{Key: types.GetMixed(), Value: types.GetMixed()})
	},
	"is_countable": func() Assertion { return Simple(Countable) },
}

// Find extracts the assertions that hold when expr is truthy. It does not
// look through && || and !, which are handled when building formulas.
func Find(expr ast.Expr, typeOf TypeOf) Found {
	if typeOf == nil {
		typeOf = func(ast.Expr) (*types.Union, bool) { return nil, false }
	}
	expr = ast.Unwrap(expr)
	found := Found{}
	if key, ok := ast.VarKey(expr); ok {
		found.add(key, Simple(Truthy))
		return found
	}
	switch e := expr.(type) {
	case *ast.Assign:
		if key, ok := ast.VarKey(e.Target); ok {
			found.add(key, Simple(Truthy))
		}
	case *ast.Isset:
		for _, v := range e.Values {
			if key, ok := ast.VarKey(v); ok {
				found.add(key, Simple(IsIsset))
			}
		}
	case *ast.Empty:
		if key, ok := ast.VarKey(e.Value); ok {
			found.add(key, Simple(Empty))
		}
	case *ast.Instanceof:
		if key, ok := ast.VarKey(e.Expr); ok {
			found.add(key, OfType(types.NamedObject(e.Class)))
		}
	case *ast.Binary:
		findInBinary(found, e, typeOf)
	case *ast.Call:
		findInCall(found, e, typeOf)
	}
	return found
}

func findInBinary(found Found, e *ast.Binary, typeOf TypeOf) {
	switch e.Op {
	case ast.OpIdentical, ast.OpNotIdentical, ast.OpEqual, ast.OpNotEqual:
		findInEquality(found, e, typeOf)
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual:
		findInOrdering(found, e, typeOf)
	}
}

func findInEquality(found Found, e *ast.Binary, typeOf TypeOf) {
	identity := e.Op == ast.OpIdentical || e.Op == ast.OpNotIdentical
	negated := e.Op == ast.OpNotIdentical || e.Op == ast.OpNotEqual

	subject, other := e.Left, e.Right
	lit, hasLit := literalOf(other, typeOf)
	if _, isVar := ast.VarKey(subject); !isVar || !hasLit {
		if l, ok := literalOf(subject, typeOf); ok {
			subject, other, lit, hasLit = other, subject, l, true
		}
	}
	if !hasLit {
		return
	}

	// count($x) === n
	if countOf, ok := countArgument(subject); ok {
		n, isInt := intValue(lit)
		if key, hasKey := ast.VarKey(countOf); hasKey && isInt {
			a := ExactCount(n)
			if n == 0 {
				a = Simple(Empty)
			}
			if negated {
				a = a.Negate()
			}
			found.add(key, a)
		}
		return
	}

	key, isVar := ast.VarKey(subject)
	if !isVar {
		// is_int($x) === true
		if b, ok := lit.(types.TBool); ok && identity && !b.IsGeneral() {
			inner := Find(subject, typeOf)
			if b.IsTrue() != negated {
				for k, groups := range inner {
					found[k] = append(found[k], groups...)
				}
			} else if k, a, single := singleAssertion(inner); single {
				found.add(k, a.Negate())
			}
		}
		return
	}

	var a Assertion
	switch {
	case identity:
		a = OfType(lit)
	case lit.Kind() == types.KindNull:
		a = Simple(Falsy)
	case lit.Kind() == types.KindBool:
		if b := lit.(types.TBool); b.IsTrue() {
			a = Simple(Truthy)
		} else {
			a = Simple(Falsy)
		}
	default:
		a = EqualTo(lit)
	}
	if negated {
		a = a.Negate()
	}
	found.add(key, a)
}

func findInOrdering(found Found, e *ast.Binary, typeOf TypeOf) {
	op := e.Op
	subject, other := e.Left, e.Right
	if _, ok := intLiteralOf(other, typeOf); !ok {
		subject, other = other, subject
		op = flipOrdering(op)
	}
	v, ok := intLiteralOf(other, typeOf)
	if !ok {
		return
	}

	if countOf, ok := countArgument(subject); ok {
		key, hasKey := ast.VarKey(countOf)
		if !hasKey {
			return
		}
		switch {
		case (op == ast.OpGreater && v == 0) || (op == ast.OpGreaterEqual && v == 1):
			found.add(key, Simple(NonEmpty))
		case (op == ast.OpLess && v == 1) || (op == ast.OpLessEqual && v == 0):
			found.add(key, Simple(Empty))
		}
		return
	}

	key, hasKey := ast.VarKey(subject)
	if !hasKey {
		return
	}
	switch op {
	case ast.OpLess:
		found.add(key, LessThan(v))
	case ast.OpLessEqual:
		if v < maxInt64 {
			found.add(key, LessThan(v+1))
		}
	case ast.OpGreater:
		if v < maxInt64 {
			found.add(key, GreaterThanOrEqual(v+1))
		}
	case ast.OpGreaterEqual:
		found.add(key, GreaterThanOrEqual(v))
	}
}

const maxInt64 = 1<<63 - 1

func flipOrdering(op ast.BinaryOperator) ast.BinaryOperator {
	switch op {
	case ast.OpLess:
		return ast.OpGreater
	case ast.OpLessEqual:
		return ast.OpGreaterEqual
	case ast.OpGreater:
		return ast.OpLess
	case ast.OpGreaterEqual:
		return ast.OpLessEqual
	}
	return op
}

func findInCall(found Found, call *ast.Call, typeOf TypeOf) {
	name := strings.ToLower(strings.TrimPrefix(call.Name, "\\"))
	if mk, ok := typeCheckFunctions[name]; ok && len(call.Args) == 1 {
		if key, ok := ast.VarKey(call.Args[0]); ok {
			found.add(key, mk())
		}
		return
	}
	switch name {
	case "count", "sizeof":
		if len(call.Args) == 1 {
			if key, ok := ast.VarKey(call.Args[0]); ok {
				found.add(key, Simple(NonEmpty))
			}
		}
	case "array_key_exists", "key_exists":
		if len(call.Args) != 2 {
			return
		}
		base, ok := ast.VarKey(call.Args[1])
		if !ok {
			return
		}
		if offset, ok := offsetKey(call.Args[0], typeOf); ok {
			found.add(base+offset, Simple(ArrayKeyExists))
		}
	case "in_array":
		if len(call.Args) != 3 {
			return
		}
		strict, ok := literalOf(call.Args[2], typeOf)
		if b, isBool := strict.(types.TBool); !ok || !isBool || !b.IsTrue() {
			return
		}
		key, ok := ast.VarKey(call.Args[0])
		if !ok {
			return
		}
		if values, ok := haystackValues(call.Args[1], typeOf); ok {
			found.add(key, InValues(values))
		}
	}
}

// offsetKey renders an array offset the way ast.VarKey does
func offsetKey(expr ast.Expr, typeOf TypeOf) (string, bool) {
	lit, ok := literalOf(expr, typeOf)
	if !ok {
		return "", false
	}
	switch lit := lit.(type) {
	case types.TString:
		if v, ok := lit.LiteralValue(); ok {
			return "['" + v + "']", true
		}
	case types.TInteger:
		if v, ok := lit.LiteralValue(); ok {
			return "[" + strconv.FormatInt(v, 10) + "]", true
		}
	}
	return "", false
}

// haystackValues is the union of the values of an array whose every value is known
func haystackValues(expr ast.Expr, typeOf TypeOf) (*types.Union, bool) {
	if arr, ok := expr.(*ast.ArrayLiteral); ok {
		var atomics []types.Atomic
		for _, item := range arr.Items {
			lit, ok := literalOf(item.Value, typeOf)
			if !ok {
				return nil, false
			}
			atomics = append(atomics, lit)
		}
		return types.NewUnion(types.Combine(atomics)...), len(atomics) > 0
	}
	t, ok := typeOf(expr)
	if !ok || !t.IsArray() {
		return nil, false
	}
	var values []*types.Union
	for a := range t.All() {
		values = append(values, types.ArrayValueType(a))
	}
	combined := types.CombineUnions(values...)
	return combined, !combined.IsNever() && combined.IsLiteral()
}

func countArgument(expr ast.Expr) (ast.Expr, bool) {
	call, ok := ast.Unwrap(expr).(*ast.Call)
	if !ok || len(call.Args) != 1 {
		return nil, false
	}
	switch strings.ToLower(call.Name) {
	case "count", "sizeof":
		return call.Args[0], true
	}
	return nil, false
}

// literalOf returns the single literal value of expr, from syntax or its inferred type
func literalOf(expr ast.Expr, typeOf TypeOf) (types.Atomic, bool) {
	switch e := ast.Unwrap(expr).(type) {
	case *ast.NullLiteral:
		return types.TNull{}, true
	case *ast.BoolLiteral:
		return types.BoolLiteral(e.Value), true
	case *ast.IntLiteral:
		return types.IntLit(e.Value), true
	case *ast.FloatLiteral:
		return types.FloatLit(e.Value), true
	case *ast.StringLiteral:
		return types.StringLit(e.Value), true
	case *ast.ClassConstFetch:
		if strings.EqualFold(e.Name, "class") {
			return types.ClassStringLit(e.Class), true
		}
	}
	if _, isVar := ast.VarKey(expr); isVar {
		// a variable compared with a variable asserts nothing about either
		return nil, false
	}
	if t, ok := typeOf(expr); ok {
		if single, ok := t.Single(); ok && types.IsLiteralAtomic(single) {
			return single, true
		}
	}
	return nil, false
}

func intLiteralOf(expr ast.Expr, typeOf TypeOf) (int64, bool) {
	lit, ok := literalOf(expr, typeOf)
	if !ok {
		return 0, false
	}
	return intValue(lit)
}

func intValue(a types.Atomic) (int64, bool) {
	if i, ok := a.(types.TInteger); ok {
		return i.LiteralValue()
	}
	return 0, false
}

func singleAssertion(found Found) (string, Assertion, bool) {
	if len(found) != 1 {
		return "", Assertion{}, false
	}
	for key, groups := range found {
		if len(groups) == 1 && len(groups[0]) == 1 {
			return key, groups[0][0], true
		}
	}
	return "", Assertion{}, false
}
