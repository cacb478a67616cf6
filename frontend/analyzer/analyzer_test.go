package analyzer

import (
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func union(atomics ...types.Atomic) *types.Union {
	return types.NewUnion(atomics...)
}

func abc() *types.Union {
	return union(types.StringLit("a"), types.StringLit("b"), types.StringLit("c"))
}

// analyze runs stmts against a context holding locals
func analyze(t *testing.T, locals map[string]*types.Union, stmts ...ast.Stmt) (*Analyzer, *scope.BlockContext) {
	t.Helper()
	a := New(nil, nil, Options{})
	ctx := scope.New()
	for key, typ := range locals {
		ctx.SetLocal(key, typ)
		ctx.AssignedVariableIDs.Insert(key)
	}
	require.NoError(t, a.AnalyzeStatements(stmts, ctx))
	return a, ctx
}

func local(t *testing.T, ctx *scope.BlockContext, key string) string {
	t.Helper()
	typ, ok := ctx.GetLocal(key)
	require.True(t, ok, "%s is not in scope", key)
	return typ.String()
}

func typeOf(t *testing.T, a *Analyzer, expr ast.Expr) string {
	t.Helper()
	typ, ok := a.Artifacts().TypeOf(expr)
	require.True(t, ok, "%s was not analysed", ast.ExprString(expr))
	return typ.String()
}

func TestIfNarrowsEachBranch(t *testing.T) {
	inThen, inElse := c.Var("x"), c.Var("x")
	stmt := c.Else(c.If(c.Identical(c.Var("x"), c.Str("a")), c.Expr(inThen)), c.Expr(inElse))

	a, ctx := analyze(t, map[string]*types.Union{"$x": abc()}, stmt)

	assert.Equal(t, "'a'", typeOf(t, a, inThen))
	assert.Equal(t, "'b'|'c'", typeOf(t, a, inElse))
	assert.Equal(t, "'a'|'b'|'c'", local(t, ctx, "$x"))
	assert.Empty(t, a.Collector().Issues())
}

func TestIfElseIfChain(t *testing.T) {
	inFirst, inSecond, inElse := c.Var("x"), c.Var("x"), c.Var("x")
	stmt := c.If(c.Identical(c.Var("x"), c.Str("a")), c.Expr(inFirst))
	stmt = c.ElseIf(stmt, c.Identical(c.Var("x"), c.Str("b")), c.Expr(inSecond))
	stmt = c.Else(stmt, c.Expr(inElse))

	a, _ := analyze(t, map[string]*types.Union{"$x": abc()}, stmt)

	assert.Equal(t, "'a'", typeOf(t, a, inFirst))
	assert.Equal(t, "'b'", typeOf(t, a, inSecond))
	assert.Equal(t, "'c'", typeOf(t, a, inElse))
}

func TestIfMergesAssignments(t *testing.T) {
	stmt := c.Else(
		c.If(c.Call("rand"), c.Let(c.Var("y"), c.Str("hello"))),
		c.Let(c.Var("y"), c.Int(123)),
	)
	_, ctx := analyze(t, nil, stmt)
	assert.Equal(t, "'hello'|123", local(t, ctx, "$y"))
}

func TestIfWithoutElseLeavesVariablePossiblyUndefined(t *testing.T) {
	read := c.Var("y")
	a, ctx := analyze(t, nil,
		c.If(c.Call("rand"), c.Let(c.Var("y"), c.Int(1))),
		c.Echo(read),
	)
	typ, ok := ctx.GetLocal("$y")
	require.True(t, ok)
	assert.True(t, typ.PossiblyUndefined)
	assert.Equal(t, []ilerr.IssueCode{ilerr.PossiblyUndefinedVariable}, a.Collector().Codes())
}

func TestImpossibleElseIf(t *testing.T) {
	inner := c.Var("x")
	stmt := c.ElseIf(
		c.If(c.Identical(c.Var("x"), c.Str("a")), c.Expr(c.Var("x"))),
		c.Identical(c.Var("x"), c.Str("a")), c.Expr(inner),
	)
	a, _ := analyze(t, map[string]*types.Union{"$x": union(types.StringLit("a"), types.StringLit("b"))}, stmt)

	assert.Contains(t, a.Collector().Codes(), ilerr.ImpossibleCondition)
	assert.Equal(t, "never", typeOf(t, a, inner))
}

func TestNestedRecheck(t *testing.T) {
	testCases := []struct {
		name  string
		inner ast.Expr
		issue ilerr.IssueCode
		typ   string
	}{
		{"negated check", c.NotIdentical(c.Var("x"), c.Str("a")), ilerr.ImpossibleCondition, "never"},
		{"other value", c.Identical(c.Var("x"), c.Str("b")), ilerr.ImpossibleCondition, "never"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inner := c.Var("x")
			stmt := c.If(c.Identical(c.Var("x"), c.Str("a")), c.If(tc.inner, c.Expr(inner)))
			a, ctx := analyze(t, map[string]*types.Union{"$x": abc()}, stmt)

			assert.Contains(t, a.Collector().Codes(), tc.issue)
			assert.Equal(t, tc.typ, typeOf(t, a, inner))
			assert.Equal(t, "'a'|'b'|'c'", local(t, ctx, "$x"))
		})
	}
}

func TestEarlyReturnNarrowsRestOfBlock(t *testing.T) {
	after := c.Var("x")
	a, ctx := analyze(t, map[string]*types.Union{"$x": union(types.Int(), types.TNull{})},
		c.If(c.Identical(c.Var("x"), c.Null()), c.Return(nil)),
		c.Expr(after),
	)
	assert.Equal(t, "int", typeOf(t, a, after))
	assert.Equal(t, "int", local(t, ctx, "$x"))
	assert.False(t, ctx.HasReturned)
}

func TestEveryBranchReturning(t *testing.T) {
	stmt := c.Else(c.If(c.Call("rand"), c.Return(c.Int(1))), c.Throw(c.New("Exception")))
	_, ctx := analyze(t, nil, stmt, c.Let(c.Var("unreachable"), c.Int(1)))
	assert.True(t, ctx.HasReturned)
	assert.False(t, ctx.HasLocal("$unreachable"))
}

func TestGuardClause(t *testing.T) {
	later := c.Var("x")
	a, _ := analyze(t, map[string]*types.Union{"$x": abc()},
		c.If(c.NotIdentical(c.Var("x"), c.Str("a")), c.Return(nil)),
		c.Expr(later),
	)
	assert.Equal(t, "'a'", typeOf(t, a, later))
}

func TestReassignmentInBranchDropsClauses(t *testing.T) {
	later := c.Var("x")
	a, _ := analyze(t, map[string]*types.Union{"$x": abc()},
		c.If(c.Identical(c.Var("x"), c.Str("a")), c.Let(c.Var("x"), c.Str("z"))),
		c.Expr(later),
	)
	assert.Equal(t, "'z'|'b'|'c'", typeOf(t, a, later))
}

func TestAnalyzeFile(t *testing.T) {
	body := c.Var("s")
	fn := c.Func("describe", []ast.Param{c.Param("s", c.Nullable(c.Hint("string")))}, c.Hint("string"),
		c.If(c.Identical(c.Var("s"), c.Null()), c.Return(c.Str("nothing"))),
		c.Return(body),
	)
	result := c.Var("out")
	file := c.File("describe.php",
		fn,
		c.Let(c.Var("out"), c.Call("describe", c.Str("x"))),
		c.Expr(result),
		c.Expr(c.Var("missing")),
	)

	a := New(nil, nil, Options{})
	ctx, err := a.AnalyzeFile(file)
	require.NoError(t, err)

	assert.Equal(t, "string", local(t, ctx, "$out"))
	assert.Equal(t, "string", typeOf(t, a, body))
	assert.Equal(t, []ilerr.IssueCode{ilerr.UndefinedVariable}, a.Collector().Codes())
}

func TestUnsupportedStatementIsFatal(t *testing.T) {
	a := New(nil, nil, Options{})
	err := a.AnalyzeStatements([]ast.Stmt{c.Break()}, scope.New())
	require.Error(t, err)
	var analysisErr *ilerr.AnalysisError
	assert.ErrorAs(t, err, &analysisErr)
}

func TestTernaryNarrowsBranches(t *testing.T) {
	then, els := c.Var("x"), c.Var("x")
	ternary := c.Ternary(c.Identical(c.Var("x"), c.Null()), then, els)
	a, _ := analyze(t, map[string]*types.Union{"$x": union(types.TNull{}, types.Str())},
		c.Let(c.Var("y"), ternary),
	)
	assert.Equal(t, "null", typeOf(t, a, then))
	assert.Equal(t, "string", typeOf(t, a, els))
	assert.Equal(t, "null|string", typeOf(t, a, ternary))
}

func TestShortTernary(t *testing.T) {
	ternary := c.Ternary(c.Var("x"), nil, c.Int(0))
	_, ctx := analyze(t, map[string]*types.Union{"$x": union(types.TNull{}, types.Str())},
		c.Let(c.Var("y"), ternary),
	)
	assert.Equal(t, "truthy-string|0", local(t, ctx, "$y"))
}

func TestLogicalOperandsAreNarrowed(t *testing.T) {
	right := c.Var("x")
	a, _ := analyze(t, map[string]*types.Union{"$x": union(types.TNull{}, types.Int())},
		c.Expr(c.And(c.NotIdentical(c.Var("x"), c.Null()), c.Binary(ast.OpGreater, right, c.Int(0)))),
	)
	assert.Equal(t, "int", typeOf(t, a, right))
}
