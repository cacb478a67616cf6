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

func TestIncrement(t *testing.T) {
	oneToThree, _ := types.IntRangeOf(1, 3)
	testCases := []struct {
		name      string
		operand   *types.Union
		increment bool
		expect    string
	}{
		{"int literal", types.GetLiteralInt(5), true, "6"},
		{"int literal down", types.GetLiteralInt(5), false, "4"},
		{"overflow", types.GetLiteralInt(math.MaxInt64), true, "float(9.223372036854776e+18)"},
		{"range", union(oneToThree), true, "int<2, 4>"},
		{"lower bound", union(types.IntFrom(0)), false, "int<-1, max>"},
		{"float", types.GetLiteralFloat(1.5), true, "float(2.5)"},
		{"null up", types.GetNull(), true, "1"},
		{"null down", types.GetNull(), false, "null"},
		{"bool", types.GetTrue(), true, "true"},
		{"numeric string", types.GetLiteralString("+007"), true, "8"},
		{"float string", types.GetLiteralString("1.5"), false, "float(0.5)"},
		{"alphanumeric", types.GetLiteralString("Az"), true, "'Ba'"},
		{"carry", types.GetLiteralString("zz"), true, "'aaa'"},
		{"empty string down", types.GetLiteralString(""), false, "-1"},
		{"word down", types.GetLiteralString("abc"), false, "'abc'"},
		{"general numeric string", types.GetNumericString(), true, "int|float"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			op := ast.OpPreIncrement
			if !tc.increment {
				op = ast.OpPreDecrement
			}
			expr := c.Prefix(op, c.Var("x"))
			a, ctx := analyze(t, map[string]*types.Union{"$x": tc.operand}, c.Expr(expr))
			assert.Equal(t, tc.expect, typeOf(t, a, expr))
			assert.Equal(t, tc.expect, local(t, ctx, "$x"))
			assert.Empty(t, a.Collector().Codes())
		})
	}
}

func TestPostfixIncrementIsTheOldValue(t *testing.T) {
	post := c.Postfix(ast.OpPostIncrement, c.Var("i"))
	a, ctx := analyze(t, map[string]*types.Union{"$i": types.GetLiteralInt(1)}, c.Let(c.Var("j"), post))

	assert.Equal(t, "1", typeOf(t, a, post))
	assert.Equal(t, "1", local(t, ctx, "$j"))
	assert.Equal(t, "2", local(t, ctx, "$i"))
}

func TestIncrementArrayElement(t *testing.T) {
	counts := c.Array(c.Item(c.Str("a"), c.Int(0)))
	_, ctx := analyze(t, nil,
		c.Let(c.Var("counts"), counts),
		c.Expr(c.Prefix(ast.OpPreIncrement, c.Index(c.Var("counts"), c.Str("a")))),
	)
	assert.Equal(t, "array{'a': 1}", local(t, ctx, "$counts"))
}

func TestInvalidIncrement(t *testing.T) {
	testCases := []struct {
		name     string
		operand  *types.Union
		code     ilerr.IssueCode
		severity ilerr.Severity
	}{
		{"mixed", types.GetMixed(), ilerr.MixedOperand, ilerr.Warning},
		{"array", types.GetMixedList(), ilerr.InvalidOperand, ilerr.Error},
		{"object", types.GetNamedObject("Exception"), ilerr.InvalidOperand, ilerr.Error},
		{"scalar", types.GetScalar(), ilerr.InvalidOperand, ilerr.Warning},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.operand},
				c.Expr(c.Postfix(ast.OpPostIncrement, c.Var("x"))),
			)
			issues := a.Collector().Issues()
			if assert.Len(t, issues, 1) {
				assert.Equal(t, tc.code, issues[0].Code)
				assert.Equal(t, tc.severity, issues[0].Severity)
			}
		})
	}
}

func TestIncrementInsideLoopIsWidened(t *testing.T) {
	testCases := []struct {
		name      string
		operand   *types.Union
		increment bool
		expect    string
	}{
		{"int up", types.GetLiteralInt(0), true, "int<1, max>"},
		{"int down", types.GetLiteralInt(0), false, "int<min, -1>"},
		{"float", types.GetLiteralFloat(0.5), true, "float"},
		{"string", types.GetLiteralString("a"), true, "non-empty-string"},
	}
	a := New(nil, nil, Options{})
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stepped *types.Union
			if tc.increment {
				stepped = a.incrementOperand(c.Var("x"), tc.operand, true)
			} else {
				stepped = a.decrementOperand(c.Var("x"), tc.operand, true)
			}
			assert.Equal(t, tc.expect, stepped.String())
		})
	}
}
