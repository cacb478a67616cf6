package analyzer

import (
	"math"
	"strconv"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
)

// analyzeCast is the type of e, which casts a value of type operand
func (a *Analyzer) analyzeCast(e *ast.UnaryPrefix, operand *types.Union) (*types.Union, error) {
	if castIsRedundant(e.Op, operand) {
		a.report(ilerr.RedundantCast, e, "redundant cast", "Redundant cast of %s to %s", operand, strings.Trim(e.Op.String(), "()"))
		return operand.WithPossiblyUndefined(false), nil
	}
	return a.castUnion(e, e.Op, operand)
}

func castIsRedundant(op ast.UnaryOperator, t *types.Union) bool {
	if t.IsNever() {
		return false
	}
	switch op {
	case ast.OpIntCast:
		return t.IsInt()
	case ast.OpFloatCast:
		return t.IsFloat()
	case ast.OpStringCast:
		return t.IsString()
	case ast.OpBoolCast:
		return t.IsBool()
	case ast.OpArrayCast:
		return t.IsArray()
	case ast.OpObjectCast:
		return t.OnlyKinds(types.KindObject, types.KindNamedObject, types.KindEnum)
	}
	return false
}

// toStringOperand is the string t turns into where a string is expected, as the
// operand of echo or of concatenation
func (a *Analyzer) toStringOperand(at ast.Expr, t *types.Union) (*types.Union, error) {
	return a.castUnion(at, ast.OpStringCast, t)
}

// castUnion casts every atomic of t. Every cast is defined for every atomic.
func (a *Analyzer) castUnion(at ast.Expr, op ast.UnaryOperator, t *types.Union) (*types.Union, error) {
	var out *types.Union
	for atomic := range t.All() {
		var cast *types.Union
		switch op {
		case ast.OpIntCast:
			cast = a.castToInt(at, atomic)
		case ast.OpFloatCast:
			cast = a.castToFloat(at, atomic)
		case ast.OpBoolCast:
			cast = castToBool(atomic)
		case ast.OpArrayCast:
			cast = castToArray(atomic)
		case ast.OpObjectCast:
			cast = a.castToObject(at, atomic)
		case ast.OpStringCast:
			var err error
			if cast, err = a.castToString(at, atomic); err != nil {
				return nil, err
			}
		default:
			return nil, ilerr.NewAnalysisError(at, "%s is not a cast", op)
		}
		out = types.CombineUnionTypes(out, cast)
	}
	if out == nil {
		return types.GetNever(), nil
	}
	return out, nil
}

// castConstraint casts what a template parameter stands for
func (a *Analyzer) castConstraint(at ast.Expr, op ast.UnaryOperator, tp types.TGenericParameter, general *types.Union) *types.Union {
	if tp.Constraint == nil || tp.Constraint.IsMixed() {
		return general
	}
	out, err := a.castUnion(at, op, tp.Constraint)
	if err != nil {
		return general
	}
	return out
}

func (a *Analyzer) castToInt(at ast.Expr, atomic types.Atomic) *types.Union {
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever()
	case types.TInteger:
		return types.NewUnion(c)
	case types.TFloat:
		if c.IsLiteral && !math.IsNaN(c.Value) && c.Value >= math.MinInt64 && c.Value < math.MaxInt64 {
			return types.GetLiteralInt(int64(c.Value))
		}
		return types.GetInt()
	case types.TBool:
		switch {
		case c.IsTrue():
			return types.GetLiteralInt(1)
		case c.IsFalse():
			return types.GetLiteralInt(0)
		}
		return types.NewUnion(types.IntLit(0), types.IntLit(1))
	case types.TNull, types.TVoid:
		return types.GetLiteralInt(0)
	case types.TString:
		if v, ok := c.LiteralValue(); ok {
			if i, ok := stringToInt(v); ok {
				return types.GetLiteralInt(i)
			}
		}
		return types.GetInt()
	case types.TList, types.TKeyedArray:
		return arrayToNumber(atomic, types.IntLit(0), types.IntLit(1))
	case types.TNamedObject, types.TObjectAny, types.TEnum:
		a.report(ilerr.InvalidTypeCast, at, "object cast to int", "%s cannot be cast to int", atomic)
		return types.GetLiteralInt(1)
	case types.TCallable:
		if c.IsClosure {
			a.report(ilerr.InvalidTypeCast, at, "closure cast to int", "Closure cannot be cast to int")
			return types.GetLiteralInt(1)
		}
	case types.TResource:
		return types.NewUnion(types.IntFrom(1))
	case types.TGenericParameter:
		return a.castConstraint(at, ast.OpIntCast, c, types.GetInt())
	}
	return types.GetInt()
}

func (a *Analyzer) castToFloat(at ast.Expr, atomic types.Atomic) *types.Union {
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever()
	case types.TFloat:
		return types.NewUnion(c)
	case types.TInteger:
		if v, ok := c.LiteralValue(); ok {
			return types.GetLiteralFloat(float64(v))
		}
	case types.TBool:
		switch {
		case c.IsTrue():
			return types.GetLiteralFloat(1)
		case c.IsFalse():
			return types.GetLiteralFloat(0)
		}
	case types.TNull, types.TVoid:
		return types.GetLiteralFloat(0)
	case types.TString:
		if v, ok := c.LiteralValue(); ok {
			return types.GetLiteralFloat(stringToFloat(v))
		}
	case types.TList, types.TKeyedArray:
		return arrayToNumber(atomic, types.FloatLit(0), types.FloatLit(1))
	case types.TNamedObject, types.TObjectAny, types.TEnum:
		a.report(ilerr.InvalidTypeCast, at, "object cast to float", "%s cannot be cast to float", atomic)
		return types.GetLiteralFloat(1)
	case types.TCallable:
		if c.IsClosure {
			a.report(ilerr.InvalidTypeCast, at, "closure cast to float", "Closure cannot be cast to float")
			return types.GetLiteralFloat(1)
		}
	case types.TGenericParameter:
		return a.castConstraint(at, ast.OpFloatCast, c, types.GetFloat())
	}
	return types.GetFloat()
}

// arrayToNumber is empty for arrays known to be empty, nonEmpty for those known not
// to be, and either otherwise
func arrayToNumber(array, empty, nonEmpty types.Atomic) *types.Union {
	switch c := array.(type) {
	case types.TList:
		if c.NonEmpty || c.HasDefiniteElement() {
			return types.NewUnion(nonEmpty)
		}
		if c.IsSealed() && len(c.KnownElements) == 0 {
			return types.NewUnion(empty)
		}
	case types.TKeyedArray:
		if c.NonEmpty || c.HasDefiniteItem() {
			return types.NewUnion(nonEmpty)
		}
		if c.IsEmptyArray() {
			return types.NewUnion(empty)
		}
	}
	return types.NewUnion(empty, nonEmpty)
}

func castToBool(atomic types.Atomic) *types.Union {
	if _, ok := atomic.(types.TNever); ok {
		return types.GetNever()
	}
	switch types.AtomicTruthiness(atomic) {
	case types.Truthy:
		return types.GetTrue()
	case types.Falsy:
		return types.GetFalse()
	}
	return types.GetBool()
}

func castToArray(atomic types.Atomic) *types.Union {
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever()
	case types.TList, types.TKeyedArray:
		return types.NewUnion(c)
	case types.TNull, types.TVoid:
		return types.GetEmptyArray()
	case types.TMixed:
		return types.GetMixedArray()
	case types.TIterable:
		return types.NewUnion(types.ArrayOf(arrayKeyPart(c.Key), c.Value))
	case types.TNamedObject, types.TObjectAny, types.TEnum:
		return types.NewUnion(types.ArrayOf(types.GetArrayKey(), types.GetMixed()))
	case types.TCallable:
		if c.IsClosure {
			return types.NewUnion(types.ArrayOf(types.GetArrayKey(), types.GetMixed()))
		}
	case types.TGenericParameter:
		if c.Constraint != nil && c.Constraint.IsArray() {
			return types.NewUnion(c)
		}
		return types.GetMixedArray()
	}
	return types.NewUnion(types.TList{KnownElements: map[int]types.KnownItem{0: {Type: types.NewUnion(atomic)}}})
}

func (a *Analyzer) castToObject(at ast.Expr, atomic types.Atomic) *types.Union {
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever()
	case types.TNamedObject, types.TObjectAny, types.TEnum:
		return types.NewUnion(c)
	case types.TCallable:
		if c.IsClosure {
			return types.NewUnion(c)
		}
	case types.TMixed:
		return types.GetObject()
	case types.TResource:
		a.report(ilerr.InvalidTypeCast, at, "resource cast to object", "%s cannot be cast to object", atomic)
	case types.TGenericParameter:
		return a.castConstraint(at, ast.OpObjectCast, c, types.GetObject())
	}
	return types.GetNamedObject("stdClass")
}

func (a *Analyzer) castToString(at ast.Expr, atomic types.Atomic) (*types.Union, error) {
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever(), nil
	case types.TString, types.TClassLikeString:
		return types.NewUnion(c), nil
	case types.TInteger:
		if v, ok := c.LiteralValue(); ok {
			return types.GetLiteralString(strconv.FormatInt(v, 10)), nil
		}
		return types.GetNumericString(), nil
	case types.TFloat:
		if c.IsLiteral {
			if s, ok := floatToString(c.Value); ok {
				return types.GetLiteralString(s), nil
			}
		}
		return types.GetNumericString(), nil
	case types.TBool:
		switch {
		case c.IsTrue():
			return types.GetLiteralString("1"), nil
		case c.IsFalse():
			return types.GetLiteralString(""), nil
		}
		return types.NewUnion(types.StringLit(""), types.StringLit("1")), nil
	case types.TNull, types.TVoid:
		return types.GetLiteralString(""), nil
	case types.TList, types.TKeyedArray:
		a.report(ilerr.ArrayToStringConversion, at, "array to string", "Array to string conversion")
		return types.GetLiteralString("Array"), nil
	case types.TMixed:
		a.report(ilerr.MixedOperand, at, "mixed", "Mixed operand converted to string")
	case types.TNamedObject:
		if declaring, ok := a.stringable(c); ok {
			return a.callMethod(at, declaring, "__toString", nil, nil), nil
		}
		a.report(ilerr.InvalidTypeCast, at, "not Stringable", "%s cannot be converted to string", c)
	case types.TEnum:
		a.report(ilerr.InvalidTypeCast, at, "enum to string", "%s cannot be converted to string", c)
	case types.TCallable:
		if c.IsClosure {
			a.report(ilerr.InvalidTypeCast, at, "closure to string", "Closure cannot be converted to string")
		}
	case types.TResource:
		return types.GetNonEmptyString(), nil
	case types.TNumeric:
		return types.GetNumericString(), nil
	case types.TGenericParameter:
		if c.Constraint != nil && !c.Constraint.IsMixed() {
			return a.castUnion(at, ast.OpStringCast, c.Constraint)
		}
	}
	return types.GetString(), nil
}

// stringable finds the part of obj, itself or one of its intersections, that
// declares __toString
func (a *Analyzer) stringable(obj types.TNamedObject) (types.TNamedObject, bool) {
	if _, _, ok := a.codebase.GetMethod(obj.Name, "__toString"); ok {
		return obj, true
	}
	for _, part := range obj.IntersectionTypes {
		named, ok := part.(types.TNamedObject)
		if !ok {
			continue
		}
		if _, _, ok := a.codebase.GetMethod(named.Name, "__toString"); ok {
			return named, true
		}
	}
	return types.TNamedObject{}, false
}

// floatToString formats v the way string conversion does, when that is short
// enough to be known exactly
func floatToString(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NAN", true
	case math.IsInf(v, 1):
		return "INF", true
	case math.IsInf(v, -1):
		return "-INF", true
	case math.Abs(v) < 1e15:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

// leadingNumber is the numeric prefix conversion reads from s, after leading
// whitespace, and whether it is written as an integer
func leadingNumber(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := func() int {
		start := end
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		return end - start
	}
	intDigits := digits()
	isInt := true
	if end < len(s) && s[end] == '.' {
		save := end
		end++
		if digits() == 0 && intDigits == 0 {
			end = save
		} else {
			isInt = false
		}
	}
	if intDigits == 0 && isInt {
		return "", false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		save := end
		end++
		if end < len(s) && (s[end] == '+' || s[end] == '-') {
			end++
		}
		if digits() == 0 {
			end = save
		} else {
			isInt = false
		}
	}
	return s[:end], isInt
}

func stringToInt(s string) (int64, bool) {
	prefix, isInt := leadingNumber(s)
	switch {
	case prefix == "":
		return 0, true
	case isInt:
		i, err := strconv.ParseInt(prefix, 10, 64)
		return i, err == nil
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func stringToFloat(s string) float64 {
	prefix, _ := leadingNumber(s)
	if prefix == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(prefix, 64)
	return f
}
