package algebra

import (
	"testing"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	c "github.com/cottand/narrow/frontend/construct"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formulaStrings(clauses []Clause) []string {
	out := make([]string, len(clauses))
	for i, clause := range clauses {
		out[i] = clause.String()
	}
	return out
}

func TestGetFormula(t *testing.T) {
	testCases := []struct {
		name     string
		expr     ast.Expr
		expected []string
	}{
		{"variable", c.Var("x"), []string{"$x is truthy"}},
		{"identity", c.Identical(c.Var("x"), c.Str("a")), []string{"$x is 'a'"}},
		{"reversed identity", c.Identical(c.Int(1), c.Var("x")), []string{"$x is 1"}},
		{"not identical", c.NotIdentical(c.Var("x"), c.Null()), []string{"$x is not null"}},
		{"and", c.And(c.Var("x"), c.Var("y")), []string{"$x is truthy", "$y is truthy"}},
		{"or", c.Or(c.Var("x"), c.Var("y")), []string{"$x is truthy || $y is truthy"}},
		{"not or", c.Not(c.Or(c.Var("x"), c.Var("y"))), []string{"$x is not truthy", "$y is not truthy"}},
		{"not and", c.Not(c.And(c.Var("x"), c.Var("y"))), []string{"$x is not truthy || $y is not truthy"}},
		{"double negation", c.Not(c.Not(c.Var("x"))), []string{"$x is truthy"}},
		{"isset", c.Isset(c.Var("x"), c.Index(c.Var("a"), c.Str("k"))), []string{"$a['k'] is isset", "$x is isset"}},
		{"not isset", c.Not(c.Isset(c.Var("x"), c.Var("y"))), []string{"$x is not isset || $y is not isset"}},
		{"is_string", c.Call("is_string", c.Var("x")), []string{"$x is string"}},
		{"instanceof", c.Instanceof(c.Var("o"), "Foo"), []string{"$o is Foo"}},
		{"loose null", c.Equal(c.Var("x"), c.Null()), []string{"$x is not truthy"}},
		{"count", c.Binary(ast.OpGreater, c.Call("count", c.Var("xs")), c.Int(0)), []string{"$xs is non-empty"}},
		{"less than", c.Binary(ast.OpLessEqual, c.Var("i"), c.Int(5)), []string{"$i is <6"}},
		{"flipped less than", c.Binary(ast.OpGreater, c.Int(5), c.Var("i")), []string{"$i is <5"}},
		{"bool compare", c.Identical(c.And(c.Var("x"), c.Var("y")), c.Bool(false)), []string{"$x is not truthy || $y is not truthy"}},
		{"array_key_exists", c.Call("array_key_exists", c.Str("k"), c.Var("a")), []string{"$a['k'] is array-key-exists"}},
		{"call", c.Call("foo"), []string{"expression is truthy"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clauses, err := GetFormula(tc.expr, ast.RangeOf(tc.expr), Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, formulaStrings(clauses))
		})
	}
}

func TestGetFormulaUsesInferredLiterals(t *testing.T) {
	y := c.Var("y")
	expr := c.Identical(c.Var("x"), c.Call("f"))
	typeOf := func(e ast.Expr) (*types.Union, bool) {
		if e == expr.Right {
			return types.GetLiteralString("b"), true
		}
		return nil, false
	}
	clauses, err := GetFormula(expr, ast.RangeOf(expr), Options{TypeOf: typeOf})
	require.NoError(t, err)
	assert.Equal(t, []string{"$x is 'b'"}, formulaStrings(clauses))

	// a variable on both sides asserts nothing about either
	clauses, err = GetFormula(c.Identical(c.Var("x"), y), ast.Range{}, Options{TypeOf: typeOf})
	require.NoError(t, err)
	assert.Equal(t, []string{"expression is truthy"}, formulaStrings(clauses))
}

func TestGetFormulaTooComplex(t *testing.T) {
	expr := c.Or(c.And(c.Var("a"), c.Var("b")), c.And(c.Var("c"), c.Var("d")))
	_, err := GetFormula(expr, ast.RangeOf(expr), Options{Complexity: 3})
	assert.True(t, errors.Is(err, ErrComplicatedExpression))

	clauses, err := GetFormula(expr, ast.RangeOf(expr), Options{})
	require.NoError(t, err)
	assert.Len(t, clauses, 4)
}

func TestGetFormulaAssignmentRedefines(t *testing.T) {
	expr := c.Assign(c.Var("x"), c.Call("f"))
	clauses, err := GetFormula(expr, ast.RangeOf(expr), Options{})
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.True(t, clauses[0].RedefinedVars.Contains("$x"))
}

func unit(key string, a assertion.Assertion) Clause {
	return NewClause(map[string][]assertion.Assertion{key: {a}}, ast.Range{PosStart: 1, PosEnd: 2}, ast.Range{PosStart: 1, PosEnd: 2})
}

func TestNegateFormula(t *testing.T) {
	a := assertion.OfType(types.StringLit("a"))
	testCases := []struct {
		name     string
		formula  []Clause
		expected []string
	}{
		{"unit", []Clause{unit("$x", a)}, []string{"$x is not 'a'"}},
		{"conjunction", []Clause{unit("$x", a), unit("$y", assertion.Simple(assertion.Truthy))}, []string{"$x is not 'a' || $y is not truthy"}},
		{"disjunction", []Clause{NewClause(map[string][]assertion.Assertion{
			"$x": {a, assertion.OfType(types.TNull{})},
		}, ast.Range{}, ast.Range{})}, []string{"$x is not 'a'", "$x is not null"}},
		{"wedge", []Clause{NewWedge(ast.Range{PosStart: 5, PosEnd: 6})}, []string{"<unknown condition>"}},
		{"empty", nil, []string{"<unknown condition>"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			negated, err := NegateFormula(tc.formula, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, formulaStrings(negated))
		})
	}
}

func TestSaturateClauses(t *testing.T) {
	a := assertion.OfType(types.Int())
	b := assertion.Simple(assertion.Truthy)
	span := ast.Range{PosStart: 1, PosEnd: 2}

	testCases := []struct {
		name     string
		formula  []Clause
		expected []string
	}{
		{
			"duplicates",
			[]Clause{unit("$x", a), unit("$x", a)},
			[]string{"$x is int"},
		},
		{
			"unit resolution",
			[]Clause{unit("$x", a), NewClause(map[string][]assertion.Assertion{"$x": {a.Negate()}, "$y": {b}}, span, span)},
			[]string{"$x is int", "$y is truthy"},
		},
		{
			"opposing keys",
			[]Clause{
				NewClause(map[string][]assertion.Assertion{"$x": {a}, "$y": {b}}, span, span),
				NewClause(map[string][]assertion.Assertion{"$x": {a.Negate()}, "$y": {b}}, span, span),
			},
			[]string{"$y is truthy"},
		},
		{
			"subsumption",
			[]Clause{NewClause(map[string][]assertion.Assertion{"$x": {a}, "$y": {b}}, span, span), unit("$y", b)},
			[]string{"$y is truthy"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formulaStrings(SaturateClauses(tc.formula)))
		})
	}
}

func TestDisjoinClauses(t *testing.T) {
	span := ast.Range{PosStart: 10, PosEnd: 20}
	a := assertion.OfType(types.Int())

	assert.Empty(t, DisjoinClauses([]Clause{unit("$x", a)}, []Clause{unit("$x", a.Negate())}, span))

	withWedge := DisjoinClauses([]Clause{unit("$x", a)}, []Clause{NewWedge(span)}, span)
	require.Len(t, withWedge, 1)
	assert.False(t, withWedge[0].Reconcilable)

	wedges := DisjoinClauses([]Clause{NewWedge(span)}, []Clause{NewWedge(span)}, span)
	require.Len(t, wedges, 1)
	assert.True(t, wedges[0].Wedge)

	generated := DisjoinClauses([]Clause{unit("$x", a), unit("$y", a)}, []Clause{unit("$z", a)}, span)
	require.Len(t, generated, 2)
	assert.True(t, generated[0].Generated)
}

func TestFindSatisfyingAssignments(t *testing.T) {
	cond := c.And(c.Identical(c.Var("x"), c.Str("a")), c.Or(c.Call("is_int", c.Var("y")), c.Call("is_string", c.Var("y"))))
	creating := ast.RangeOf(cond)
	clauses, err := GetFormula(cond, creating, Options{})
	require.NoError(t, err)

	referenced := set.From([]string{"$x", "$y"})
	truths, active := FindSatisfyingAssignments(clauses, creating, referenced)

	assert.Equal(t, [][]assertion.Assertion{{assertion.OfType(types.StringLit("a"))}}, truths["$x"])
	require.Len(t, truths["$y"], 1)
	assert.Len(t, truths["$y"][0], 2)
	assert.True(t, active["$x"].Contains(0))
	assert.True(t, active["$y"].Contains(0))
	assert.True(t, referenced.Contains("$y"))

	_, inactive := FindSatisfyingAssignments(clauses, ast.Range{PosStart: 1, PosEnd: 2}, nil)
	assert.Empty(t, inactive)
}

func TestFindSatisfyingAssignmentsSkipsNegatedDisjunctions(t *testing.T) {
	cond := c.Not(c.And(c.Call("is_int", c.Var("y")), c.Call("is_string", c.Var("y"))))
	clauses, err := GetFormula(cond, ast.RangeOf(cond), Options{})
	require.NoError(t, err)

	truths, _ := FindSatisfyingAssignments(clauses, ast.RangeOf(cond), nil)
	assert.Empty(t, truths)
}

func TestCheckForParadox(t *testing.T) {
	span := ast.Range{PosStart: 30, PosEnd: 40}
	isA := assertion.OfType(types.StringLit("a"))

	testCases := []struct {
		name     string
		existing []Clause
		formula  []Clause
		expected []ilerr.IssueCode
	}{
		{"contradiction", []Clause{unit("$x", isA)}, []Clause{unit("$x", isA.Negate())}, []ilerr.IssueCode{ilerr.ParadoxicalCondition}},
		{"repeated", []Clause{unit("$x", isA)}, []Clause{unit("$x", isA)}, []ilerr.IssueCode{ilerr.RedundantCondition}},
		{"unrelated", []Clause{unit("$x", isA)}, []Clause{unit("$y", isA)}, []ilerr.IssueCode{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector := ilerr.NewCollector()
			CheckForParadox(tc.existing, tc.formula, span, nil, collector, Options{})
			assert.Equal(t, tc.expected, collector.Codes())
		})
	}

	t.Run("assigned", func(t *testing.T) {
		collector := ilerr.NewCollector()
		CheckForParadox([]Clause{unit("$x", isA)}, []Clause{unit("$x", isA)}, span, set.From([]string{"$x"}), collector, Options{})
		assert.Empty(t, collector.Issues())
	})
}

func TestKeys(t *testing.T) {
	formula := []Clause{unit("$y", assertion.Simple(assertion.Truthy)), unit("$x", assertion.Simple(assertion.Truthy))}
	assert.Equal(t, []string{"$x", "$y"}, Keys(formula))
}
