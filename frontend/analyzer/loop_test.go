package analyzer

import (
	"testing"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterLoop(t *testing.T) {
	_, ctx := analyze(t, nil,
		c.Let(c.Var("i"), c.Int(0)),
		c.While(c.Call("rand"), c.Expr(c.Postfix(ast.OpPostIncrement, c.Var("i")))),
	)
	assert.Equal(t, "int<0, max>", local(t, ctx, "$i"))
}

func TestLoopConditionHoldsInBodyAndNotAfter(t *testing.T) {
	inBody := c.Var("x")
	a, ctx := analyze(t, map[string]*types.Union{"$x": union(types.TNull{}, types.Int())},
		c.While(c.Identical(c.Var("x"), c.Null()),
			c.Expr(inBody),
			c.Let(c.Var("x"), c.Call("rand")),
		),
	)
	assert.Equal(t, "null", typeOf(t, a, inBody))
	assert.Equal(t, "int", local(t, ctx, "$x"))
}

func TestBreakOutOfInfiniteLoop(t *testing.T) {
	_, ctx := analyze(t, map[string]*types.Union{"$x": types.GetNull()},
		c.While(c.Bool(true),
			c.Let(c.Var("x"), c.Int(1)),
			c.Break(),
		),
	)
	assert.Equal(t, "1", local(t, ctx, "$x"))
	assert.False(t, ctx.HasReturned)
	assert.False(t, ctx.InsideLoop)
}

func TestContinueFeedsTheNextIteration(t *testing.T) {
	_, ctx := analyze(t, map[string]*types.Union{"$x": types.GetLiteralString("start")},
		c.While(c.Call("rand"),
			c.If(c.Call("rand"),
				c.Let(c.Var("x"), c.Int(1)),
				c.Continue(),
			),
			c.Let(c.Var("x"), c.Str("start")),
		),
	)
	assert.Equal(t, "'start'|1", local(t, ctx, "$x"))
}

func TestLoopFindingsAreReportedOnce(t *testing.T) {
	a, _ := analyze(t, nil,
		c.While(c.Call("rand"), c.Echo(c.Var("missing"))),
	)
	assert.Equal(t, 1, a.Collector().Count(ilerr.UndefinedVariable))
}

func TestLoopKeepsClausesOnVariablesItDoesNotWrite(t *testing.T) {
	span := ast.Range{PosStart: 1, PosEnd: 2}
	truthy := func(key string) algebra.Clause {
		return algebra.NewClause(map[string][]assertion.Assertion{key: {assertion.Simple(assertion.Truthy)}}, span, span)
	}
	testCases := []struct {
		name string
		body []ast.Stmt
		kept []string
	}{
		{"no writes", []ast.Stmt{c.Echo(c.Var("i"))}, []string{"$flag", "$i"}},
		{"counter", []ast.Stmt{c.Expr(c.Postfix(ast.OpPostIncrement, c.Var("i")))}, []string{"$flag"}},
		{"both", []ast.Stmt{c.Let(c.Var("flag"), c.Bool(false)), c.Let(c.Var("i"), c.Int(0))}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := New(nil, nil, Options{})
			ctx := scope.New()
			ctx.SetLocal("$flag", types.GetBool())
			ctx.SetLocal("$i", types.GetInt())
			ctx.Clauses = []algebra.Clause{truthy("$flag"), truthy("$i")}

			require.NoError(t, a.AnalyzeStatements([]ast.Stmt{c.While(c.Call("rand"), tc.body...)}, ctx))
			assert.Equal(t, tc.kept, algebra.Keys(ctx.Clauses))
		})
	}
}
