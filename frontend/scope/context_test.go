package scope

import (
	"testing"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clause(key string, a assertion.Assertion) algebra.Clause {
	return algebra.NewClause(map[string][]assertion.Assertion{key: {a}}, ast.Range{}, ast.Range{})
}

func TestCloneIsIndependent(t *testing.T) {
	parent := New()
	parent.SetLocal("$x", types.GetInt())
	parent.Clauses = []algebra.Clause{clause("$x", assertion.Simple(assertion.Truthy))}

	child := parent.Clone()
	child.SetLocal("$x", types.GetLiteralInt(1))
	child.SetLocal("$y", types.GetString())
	child.Clauses = append(child.Clauses, clause("$y", assertion.Simple(assertion.Truthy)))
	child.AssignedVariableIDs.Insert("$y")

	x, ok := parent.GetLocal("$x")
	require.True(t, ok)
	assert.Equal(t, "int", x.ID())
	assert.False(t, parent.HasLocal("$y"))
	assert.Len(t, parent.Clauses, 1)
	assert.False(t, parent.AssignedVariableIDs.Contains("$y"))
	assert.Equal(t, []string{"$x", "$y"}, child.LocalKeys())
}

func TestAssignForgetsDerivedState(t *testing.T) {
	c := New()
	c.SetLocal("$a", types.GetMixedArray())
	c.SetLocal("$a['k']", types.GetInt())
	c.SetLocal("$a['k']['j']", types.GetInt())
	c.SetLocal("$ab", types.GetInt())
	c.Clauses = []algebra.Clause{
		clause("$a['k']", assertion.Simple(assertion.Truthy)),
		clause("$ab", assertion.Simple(assertion.Truthy)),
	}

	c.Assign("$a", types.GetEmptyArray())

	assert.Equal(t, []string{"$a", "$ab"}, c.LocalKeys())
	require.Len(t, c.Clauses, 1)
	assert.True(t, c.Clauses[0].Mentions("$ab"))
	assert.True(t, c.AssignedVariableIDs.Contains("$a"))
}

func TestRemoveReconciledClauses(t *testing.T) {
	both := algebra.NewClause(map[string][]assertion.Assertion{
		"$x": {assertion.Simple(assertion.Truthy)},
		"$y": {assertion.Simple(assertion.Truthy)},
	}, ast.Range{}, ast.Range{})
	clauses := []algebra.Clause{clause("$x", assertion.Simple(assertion.Truthy)), both, algebra.NewWedge(ast.Range{})}

	kept, removed := RemoveReconciledClauses(clauses, set.From([]string{"$x"}))
	assert.Len(t, kept, 2)
	assert.Len(t, removed, 1)
}

func TestMergeBranches(t *testing.T) {
	parent := New()
	parent.SetLocal("$input", types.NewUnion(types.StringLit("a"), types.StringLit("b")))

	then := parent.Clone()
	then.SetLocal("$input", types.GetLiteralString("a"))
	then.SetLocal("$v", types.GetLiteralString("hello"))
	then.SetLocal("$only", types.GetInt())

	els := parent.Clone()
	els.SetLocal("$input", types.GetLiteralString("b"))
	els.SetLocal("$v", types.GetLiteralInt(123))

	returned := parent.Clone()
	returned.SetLocal("$v", types.GetNull())
	returned.HasReturned = true

	merged := MergeBranches(parent, then, els, returned)
	testCases := []struct {
		key       string
		expected  string
		undefined bool
	}{
		{"$input", "'a'|'b'", false},
		{"$v", "'hello'|123", false},
		{"$only", "int", true},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			u, ok := merged.GetLocal(tc.key)
			require.True(t, ok)
			assert.Equal(t, tc.expected, u.ID())
			assert.Equal(t, tc.undefined, u.PossiblyUndefined)
		})
	}
	assert.False(t, merged.HasReturned)
}

func TestMergeBranchesAllReturned(t *testing.T) {
	parent := New()
	a := parent.Clone()
	a.HasReturned = true
	b := parent.Clone()
	b.HasReturned = true
	assert.True(t, MergeBranches(parent, a, b).HasReturned)
}

func TestUpdate(t *testing.T) {
	start := New()
	start.SetLocal("$x", types.NewUnion(types.TNull{}, types.Int()))
	end := start.Clone()
	end.SetLocal("$x", types.GetInt())

	outer := start.Clone()
	outer.SetLocal("$x", types.NewUnion(types.TNull{}, types.Int(), types.Str()))
	updated := set.New[string](1)
	outer.Update(start, end, false, set.From([]string{"$x"}), updated)

	x, _ := outer.GetLocal("$x")
	assert.Equal(t, "string|int", x.ID())
	assert.True(t, updated.Contains("$x"))

	leaving := start.Clone()
	leaving.Update(start, end, true, set.From([]string{"$x"}), set.New[string](0))
	x, _ = leaving.GetLocal("$x")
	assert.Equal(t, "null|int", x.ID())
}
