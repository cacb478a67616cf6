package assertion

import (
	"testing"

	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	testCases := []struct {
		name     string
		expr     ast.Expr
		expected map[string][]string
	}{
		{"property", c.Prop(c.Var("o"), "p"), map[string][]string{"$o->p": {"truthy"}}},
		{"suppressed", c.Prefix(ast.OpErrorControl, c.Var("x")), map[string][]string{"$x": {"truthy"}}},
		{"empty", c.Empty(c.Var("x")), map[string][]string{"$x": {"empty"}}},
		{"count zero", c.Identical(c.Call("count", c.Var("xs")), c.Int(0)), map[string][]string{"$xs": {"empty"}}},
		{"count n", c.NotIdentical(c.Call("count", c.Var("xs")), c.Int(2)), map[string][]string{"$xs": {"!has-exact-count-2"}}},
		{"loose true", c.Binary(ast.OpNotEqual, c.Var("x"), c.Bool(true)), map[string][]string{"$x": {"falsy"}}},
		{"loose literal", c.Equal(c.Var("x"), c.Int(3)), map[string][]string{"$x": {"=3"}}},
		{"in_array", c.Call("in_array", c.Var("x"), c.List(c.Str("a"), c.Str("b")), c.Bool(true)), map[string][]string{"$x": {"=in-array-'a'|'b'"}}},
		{"loose in_array", c.Call("in_array", c.Var("x"), c.List(c.Str("a"))), map[string][]string{}},
		{"type check compared with false", c.Identical(c.Call("is_int", c.Var("x")), c.Bool(false)), map[string][]string{"$x": {"!int"}}},
		{"class string", c.Identical(c.Var("c"), c.ClassConst("Foo", "class")), map[string][]string{"$c": {"Foo::class"}}},
		{"greater or equal", c.Binary(ast.OpGreaterEqual, c.Var("i"), c.Int(0)), map[string][]string{"$i": {">=0"}}},
		{"is_countable", c.Call("is_countable", c.Var("x")), map[string][]string{"$x": {"countable"}}},
		{"unknown call", c.Call("strlen", c.Var("x")), map[string][]string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			found := Find(tc.expr, nil)
			actual := map[string][]string{}
			for key, groups := range found {
				for _, group := range groups {
					for _, a := range group {
						actual[key] = append(actual[key], a.ID())
					}
				}
			}
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestFindInArrayFromInferredHaystack(t *testing.T) {
	haystack := c.Var("allowed")
	typeOf := func(e ast.Expr) (*types.Union, bool) {
		if e == ast.Expr(haystack) {
			return types.NewUnion(types.ListOf(types.NewUnion(types.IntLit(1), types.IntLit(2)))), true
		}
		return nil, false
	}
	found := Find(c.Call("in_array", c.Var("x"), haystack, c.Bool(true)), typeOf)
	assert.Equal(t, [][]Assertion{{InValues(types.NewUnion(types.IntLit(1), types.IntLit(2)))}}, found["$x"])
}

func TestNegationRoundTrip(t *testing.T) {
	testCases := []struct {
		assertion Assertion
		// bounds negate into the opposite bound, which is no negation either
		bound bool
	}{
		{assertion: OfType(types.Int())},
		{assertion: EqualTo(types.StringLit("a"))},
		{assertion: Simple(Truthy)},
		{assertion: Simple(IsIsset)},
		{assertion: WithKey(HasArrayKey, types.StrKey("k"))},
		{assertion: LessThan(3), bound: true},
		{assertion: GreaterThanOrEqual(3), bound: true},
		{assertion: ExactCount(1)},
		{assertion: Simple(Countable)},
	}
	for _, tc := range testCases {
		a := tc.assertion
		t.Run(a.ID(), func(t *testing.T) {
			assert.Equal(t, a.ID(), a.Negate().Negate().ID())
			if tc.bound {
				assert.False(t, a.HasNegation())
				assert.False(t, a.Negate().HasNegation())
			} else {
				assert.NotEqual(t, a.HasNegation(), a.Negate().HasNegation())
			}
			assert.True(t, a.IsNegationOf(a.Negate()))
		})
	}
	assert.Equal(t, IsNotIsset, Simple(IsEqualIsset).Negate().Kind)
}
