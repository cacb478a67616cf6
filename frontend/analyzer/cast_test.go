package analyzer

import (
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var casts = []ast.UnaryOperator{
	ast.OpIntCast, ast.OpFloatCast, ast.OpStringCast, ast.OpBoolCast, ast.OpArrayCast, ast.OpObjectCast,
}

func TestCast(t *testing.T) {
	testCases := []struct {
		name    string
		op      ast.UnaryOperator
		operand *types.Union
		expect  string
	}{
		{"numeric prefix to int", ast.OpIntCast, types.GetLiteralString("12abc"), "12"},
		{"non numeric to int", ast.OpIntCast, types.GetLiteralString("abc"), "0"},
		{"exponent to int", ast.OpIntCast, types.GetLiteralString("1e3"), "1000"},
		{"float to int", ast.OpIntCast, types.GetLiteralFloat(3.9), "3"},
		{"bool to int", ast.OpIntCast, types.GetBool(), "0|1"},
		{"empty array to int", ast.OpIntCast, types.GetEmptyArray(), "0"},
		{"string to float", ast.OpFloatCast, types.GetLiteralString(" 2.5kg"), "float(2.5)"},
		{"int to string", ast.OpStringCast, types.GetLiteralInt(42), "'42'"},
		{"general int to string", ast.OpStringCast, types.GetInt(), "numeric-string"},
		{"float to string", ast.OpStringCast, types.GetLiteralFloat(0.5), "'0.5'"},
		{"null to string", ast.OpStringCast, types.GetNull(), "''"},
		{"true to string", ast.OpStringCast, types.GetTrue(), "'1'"},
		{"zero to bool", ast.OpBoolCast, types.GetLiteralInt(0), "false"},
		{"string to bool", ast.OpBoolCast, types.GetString(), "bool"},
		{"null to array", ast.OpArrayCast, types.GetNull(), "array<never, never>"},
		{"scalar to array", ast.OpArrayCast, types.GetLiteralInt(1), "list{0: 1}"},
		{"scalar to object", ast.OpObjectCast, types.GetInt(), "stdClass"},
		{"mixed to object", ast.OpObjectCast, types.GetMixed(), "object"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cast := c.Cast(tc.op, c.Var("x"))
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.operand}, c.Expr(cast))
			assert.Equal(t, tc.expect, typeOf(t, a, cast))
		})
	}
}

func TestRedundantCast(t *testing.T) {
	testCases := []struct {
		name      string
		op        ast.UnaryOperator
		operand   *types.Union
		redundant bool
	}{
		{"int to int", ast.OpIntCast, types.GetInt(), true},
		{"mixed to int", ast.OpIntCast, types.GetMixed(), false},
		{"int or null to int", ast.OpIntCast, union(types.Int(), types.TNull{}), false},
		{"string to string", ast.OpStringCast, types.GetNonEmptyString(), true},
		{"array to array", ast.OpArrayCast, types.GetMixedList(), true},
		{"object to object", ast.OpObjectCast, types.GetNamedObject("Exception"), true},
		{"closure to object", ast.OpObjectCast, union(types.TCallable{IsClosure: true}), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cast := c.Cast(tc.op, c.Var("x"))
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.operand}, c.Expr(cast))
			if tc.redundant {
				assert.Contains(t, a.Collector().Codes(), ilerr.RedundantCast)
				assert.Equal(t, tc.operand.String(), typeOf(t, a, cast))
			} else {
				assert.NotContains(t, a.Collector().Codes(), ilerr.RedundantCast)
			}
		})
	}
}

// every cast is defined for every type
func TestCastIsTotal(t *testing.T) {
	atomics := []types.Atomic{
		types.TNull{}, types.TVoid{}, types.TMixed{}, types.TBool{}, types.BoolLiteral(false),
		types.Int(), types.IntLit(-3), types.IntFrom(1), types.TFloat{}, types.FloatLit(2.5),
		types.Str(), types.StringLit(""), types.StringLit("0x1A"), types.TString{IsNumeric: true},
		types.ClassStringLit("Exception"), types.TNumeric{}, types.TArrayKey{}, types.TScalar{},
		types.EmptyArray(), types.ListOf(types.GetInt()), types.ArrayOf(types.GetArrayKey(), types.GetMixed()),
		types.TObjectAny{}, types.NamedObject("Exception"), types.NamedObject("stdClass"),
		types.TEnum{Name: "Suit", Case: "Hearts"}, types.TCallable{}, types.TCallable{IsClosure: true},
		types.TResource{}, types.TIterable{Key: types.GetMixed(), Value: types.GetMixed()},
		types.TGenericParameter{ParameterName: "T", DefiningEntity: "f", Constraint: types.GetMixed()},
		types.TGenericParameter{ParameterName: "T", DefiningEntity: "f", Constraint: types.GetInt()},
	}
	a := New(nil, nil, Options{})
	for _, op := range casts {
		for _, atomic := range atomics {
			t.Run(op.String()+" "+atomic.String(), func(t *testing.T) {
				cast, err := a.castUnion(c.Var("x"), op, union(atomic))
				require.NoError(t, err)
				assert.False(t, cast.IsNever(), "casting %s to %s yields never", atomic, op)
			})
		}
	}
}

func TestStringConversionOfObjects(t *testing.T) {
	testCases := []struct {
		name   string
		object *types.Union
		issues []ilerr.IssueCode
	}{
		{"with __toString", types.NewUnion(types.NamedObject("Exception")), nil},
		{"without __toString", types.NewUnion(types.NamedObject("stdClass")), []ilerr.IssueCode{ilerr.InvalidTypeCast}},
		{"intersected with Stringable", types.NewUnion(types.NamedObject("stdClass").WithIntersection(types.NamedObject("Stringable"))), nil},
		{"any object", types.NewUnion(types.TObjectAny{}), nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cast := c.Cast(ast.OpStringCast, c.Var("obj"))
			a, _ := analyze(t, map[string]*types.Union{"$obj": tc.object}, c.Expr(cast))
			assert.Equal(t, "string", typeOf(t, a, cast))
			if tc.issues == nil {
				assert.Empty(t, a.Collector().Codes())
			} else {
				assert.Equal(t, tc.issues, a.Collector().Codes())
			}
			assert.NotContains(t, a.Collector().Codes(), ilerr.NonExistentMethod)
		})
	}
}

func TestArrayToStringConversion(t *testing.T) {
	concat := c.Binary(ast.OpConcat, c.Str("items: "), c.Var("items"))
	a, _ := analyze(t, map[string]*types.Union{"$items": types.GetMixedList()}, c.Expr(concat))

	assert.Equal(t, "'items: Array'", typeOf(t, a, concat))
	assert.Equal(t, []ilerr.IssueCode{ilerr.ArrayToStringConversion}, a.Collector().Codes())
	issue := a.Collector().Issues()[0]
	assert.Equal(t, ilerr.Warning, issue.Severity)
}
