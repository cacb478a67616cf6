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

func stringKeyedInts() *types.Union {
	return union(types.ArrayOf(types.GetString(), types.GetInt()))
}

func TestCallInfersTemplates(t *testing.T) {
	testCases := []struct {
		name   string
		call   *ast.Call
		expect string
	}{
		{"values", c.Call("array_values", c.Var("arr")), "list<int>"},
		{"keys", c.Call("array_keys", c.Var("arr")), "list<string>"},
		{"reset", c.Call("reset", c.Var("arr")), "int|false"},
		{"variadic", c.Call("array_merge", c.Var("arr"), c.Var("arr")), "array<array-key, int>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := analyze(t, map[string]*types.Union{"$arr": stringKeyedInts()}, c.Expr(tc.call))
			assert.Equal(t, tc.expect, typeOf(t, a, tc.call))
			assert.Empty(t, a.Collector().Codes())
		})
	}
}

func TestCallReportsArguments(t *testing.T) {
	testCases := []struct {
		name   string
		call   *ast.Call
		expect string
		code   ilerr.IssueCode
	}{
		{"unknown function", c.Call("no_such_function", c.Int(1)), "mixed", ilerr.NonExistentFunction},
		{"too few", c.Call("strlen"), "int<0, max>", ilerr.TooFewArguments},
		{"wrong type", c.Call("strlen", c.Var("arr")), "int<0, max>", ilerr.InvalidArgument},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := analyze(t, map[string]*types.Union{"$arr": stringKeyedInts()}, c.Expr(tc.call))
			assert.Equal(t, tc.expect, typeOf(t, a, tc.call))
			assert.Equal(t, []ilerr.IssueCode{tc.code}, a.Collector().Codes())
		})
	}
}

func TestGenericFunctionDeclaredInFile(t *testing.T) {
	identity := c.GenericFunc("identity",
		[]ast.TemplateParam{c.Template("T", nil)},
		[]ast.Param{c.Param("value", c.Hint("T"))},
		c.Hint("T"),
		c.Return(c.Var("value")),
	)
	call := c.Call("identity", c.Var("n"))
	file := c.File("identity.php",
		identity,
		c.Let(c.Var("n"), c.Call("rand")),
		c.Expr(call),
	)
	a := New(nil, nil, Options{})
	_, err := a.AnalyzeFile(file)
	require.NoError(t, err)
	assert.Equal(t, "int", typeOf(t, a, call))
}

func TestGenericClass(t *testing.T) {
	it := c.New("ArrayIterator", c.Var("arr"))
	current := c.MethodCall(c.Var("it"), "current")
	key := c.MethodCall(c.Var("it"), "key")
	a, ctx := analyze(t, map[string]*types.Union{"$arr": stringKeyedInts()},
		c.Let(c.Var("it"), it),
		c.Expr(current),
		c.Expr(key),
	)
	assert.Equal(t, "ArrayIterator<string, int>", local(t, ctx, "$it"))
	assert.Equal(t, "int", typeOf(t, a, current))
	assert.Equal(t, "string", typeOf(t, a, key))
	assert.Empty(t, a.Collector().Codes())
}

func TestMethodCalls(t *testing.T) {
	testCases := []struct {
		name     string
		object   *types.Union
		nullSafe bool
		expect   string
		codes    []ilerr.IssueCode
	}{
		{"known method", types.GetNamedObject("Exception"), false, "string", nil},
		{"null safe", union(types.NamedObject("Exception"), types.TNull{}), true, "string|null", nil},
		{"on null", union(types.NamedObject("Exception"), types.TNull{}), false, "string", []ilerr.IssueCode{ilerr.InvalidOperand}},
		{"on mixed", types.GetMixed(), false, "mixed", []ilerr.IssueCode{ilerr.MixedOperand}},
		{"unknown class", types.GetNamedObject("Nowhere"), false, "mixed", []ilerr.IssueCode{ilerr.NonExistentClass}},
		{"on int", types.GetInt(), false, "mixed", []ilerr.IssueCode{ilerr.InvalidOperand}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := c.MethodCall(c.Var("x"), "getMessage")
			call.NullSafe = tc.nullSafe
			a, _ := analyze(t, map[string]*types.Union{"$x": tc.object}, c.Expr(call))
			assert.Equal(t, tc.expect, typeOf(t, a, call))
			assert.ElementsMatch(t, tc.codes, a.Collector().Codes())
		})
	}
}

func TestUnknownMethod(t *testing.T) {
	call := c.MethodCall(c.New("Exception"), "explode")
	a, _ := analyze(t, nil, c.Expr(call))
	assert.Equal(t, []ilerr.IssueCode{ilerr.NonExistentMethod}, a.Collector().Codes())
}
