package analyzer

import (
	"math"
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestArithmeticFolding(t *testing.T) {
	testCases := []struct {
		name        string
		op          ast.BinaryOperator
		left, right ast.Expr
		expect      string
	}{
		{"add", ast.OpAdd, c.Int(2), c.Int(3), "5"},
		{"sub", ast.OpSub, c.Int(2), c.Int(3), "-1"},
		{"mul", ast.OpMul, c.Int(4), c.Int(-3), "-12"},
		{"exact division", ast.OpDiv, c.Int(9), c.Int(3), "3"},
		{"fractional division", ast.OpDiv, c.Int(1), c.Int(4), "float(0.25)"},
		{"mod", ast.OpMod, c.Int(7), c.Int(3), "1"},
		{"mod by minus one", ast.OpMod, c.Int(math.MinInt64), c.Int(-1), "0"},
		{"overflow", ast.OpAdd, c.Int(math.MaxInt64), c.Int(1), "float(9.223372036854776e+18)"},
		{"float", ast.OpMul, c.Float(1.5), c.Int(2), "float(3)"},
		{"numeric string", ast.OpAdd, c.Str("10"), c.Int(5), "15"},
		{"null", ast.OpAdd, c.Null(), c.Int(5), "5"},
		{"bool", ast.OpAdd, c.Bool(true), c.Bool(true), "2"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr := c.Binary(tc.op, tc.left, tc.right)
			a, _ := analyze(t, nil, c.Expr(expr))
			assert.Equal(t, tc.expect, typeOf(t, a, expr))
			assert.Empty(t, a.Collector().Codes())
		})
	}
}

func TestArithmeticOnUnknownOperands(t *testing.T) {
	testCases := []struct {
		name        string
		op          ast.BinaryOperator
		left, right *types.Union
		expect      string
	}{
		{"ints", ast.OpAdd, types.GetInt(), types.GetLiteralInt(1), "int"},
		{"int division", ast.OpDiv, types.GetInt(), types.GetInt(), "int|float"},
		{"float", ast.OpSub, types.GetFloat(), types.GetInt(), "float"},
		{"mod of floats", ast.OpMod, types.GetFloat(), types.GetFloat(), "int"},
		{"int or float", ast.OpMul, types.GetIntOrFloat(), types.GetLiteralInt(2), "int|float"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr := c.Binary(tc.op, c.Var("l"), c.Var("r"))
			a, _ := analyze(t, map[string]*types.Union{"$l": tc.left, "$r": tc.right}, c.Expr(expr))
			assert.Equal(t, tc.expect, typeOf(t, a, expr))
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, op := range []ast.BinaryOperator{ast.OpDiv, ast.OpMod} {
		t.Run(op.String(), func(t *testing.T) {
			zero := c.Int(0)
			a, _ := analyze(t, nil, c.Expr(c.Binary(op, c.Int(1), zero)))
			assert.Equal(t, []ilerr.IssueCode{ilerr.InvalidOperand}, a.Collector().Codes())
		})
	}
}

func TestInvalidArithmeticOperands(t *testing.T) {
	testCases := []struct {
		name     string
		operand  *types.Union
		code     ilerr.IssueCode
		severity ilerr.Severity
	}{
		{"non numeric literal", types.GetLiteralString("abc"), ilerr.InvalidOperand, ilerr.Error},
		{"string", types.GetString(), ilerr.InvalidOperand, ilerr.Warning},
		{"mixed", types.GetMixed(), ilerr.MixedOperand, ilerr.Warning},
		{"object", types.GetNamedObject("Exception"), ilerr.InvalidOperand, ilerr.Error},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.operand},
				c.Expr(c.Binary(ast.OpAdd, c.Var("x"), c.Int(1))),
			)
			issues := a.Collector().Issues()
			if assert.Len(t, issues, 1) {
				assert.Equal(t, tc.code, issues[0].Code)
				assert.Equal(t, tc.severity, issues[0].Severity)
			}
		})
	}
}

func TestArrayUnion(t *testing.T) {
	expr := c.Binary(ast.OpAdd, c.Var("l"), c.Var("r"))
	a, _ := analyze(t, map[string]*types.Union{
		"$l": union(types.ListOf(types.GetInt())),
		"$r": types.GetEmptyArray(),
	}, c.Expr(expr))
	assert.Equal(t, "list<int>", typeOf(t, a, expr))
}

func TestConcat(t *testing.T) {
	testCases := []struct {
		name        string
		left, right *types.Union
		expect      string
	}{
		{"literals", types.GetLiteralString("foo"), types.GetLiteralString("bar"), "'foobar'"},
		{"int literal", types.GetLiteralString("n="), types.GetLiteralInt(3), "'n=3'"},
		{"null and bool", types.GetNull(), types.GetFalse(), "''"},
		{"non-empty", types.GetLiteralString("x"), types.GetString(), "non-empty-string"},
		{"unknown", types.GetString(), types.GetString(), "string"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr := c.Binary(ast.OpConcat, c.Var("l"), c.Var("r"))
			a, _ := analyze(t, map[string]*types.Union{"$l": tc.left, "$r": tc.right}, c.Expr(expr))
			assert.Equal(t, tc.expect, typeOf(t, a, expr))
		})
	}
}

func TestCoalesce(t *testing.T) {
	testCases := []struct {
		name   string
		left   *types.Union
		expect string
	}{
		{"nullable", union(types.TNull{}, types.Int()), "int|'none'"},
		{"never null", types.GetInt(), "int"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr := c.Binary(ast.OpCoalesce, c.Var("x"), c.Str("none"))
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.left}, c.Expr(expr))
			assert.Equal(t, tc.expect, typeOf(t, a, expr))
			assert.Empty(t, a.Collector().Codes())
		})
	}
}

func TestCoalesceOnUndefinedVariable(t *testing.T) {
	expr := c.Binary(ast.OpCoalesce, c.Var("missing"), c.Int(0))
	a, _ := analyze(t, nil, c.Expr(expr))
	assert.Empty(t, a.Collector().Codes())
}

func TestArithmeticInsideLoopDropsLiterals(t *testing.T) {
	_, ctx := analyze(t, nil,
		c.Let(c.Var("total"), c.Int(0)),
		c.While(c.Call("rand"), c.Let(c.Var("total"), c.Binary(ast.OpAdd, c.Var("total"), c.Int(2)))),
	)
	assert.Equal(t, "int", local(t, ctx, "$total"))
}
