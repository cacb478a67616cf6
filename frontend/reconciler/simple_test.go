package reconciler

import (
	"testing"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestReconcileExactCount(t *testing.T) {
	pair := types.TList{
		ElementType: types.NewUnion(types.TNever{}),
		KnownElements: map[int]types.KnownItem{
			0: {Type: types.GetInt()},
			1: {Type: types.GetInt()},
		},
	}
	optionalSecond := pair.WithKnownElement(1, types.KnownItem{Type: types.GetInt(), PossiblyUndefined: true})
	openPair := pair
	openPair.ElementType = types.GetString()
	shape := types.TKeyedArray{KnownItems: map[types.ArrayKey]types.KnownItem{
		types.StrKey("a"): {Type: types.GetInt()},
		types.StrKey("b"): {Type: types.GetInt()},
		types.StrKey("c"): {Type: types.GetInt(), PossiblyUndefined: true},
	}}
	impossible := []ilerr.IssueCode{ilerr.ImpossibleCondition}

	testCases := []struct {
		name     string
		count    int64
		existing *types.Union
		expected string
		issues   []ilerr.IssueCode
	}{
		{"negative count", -1, union(types.ListOf(types.GetMixed())), "never", impossible},
		{"count of a list", 2, union(types.ListOf(types.GetMixed())), "non-empty-list<mixed>(2)", nil},
		{"empty list", 0, union(types.ListOf(types.GetMixed())), "list<mixed>(0)", nil},
		{"sealed list with more definite elements", 1, union(pair), "never", impossible},
		{"sealed list with fewer elements", 3, union(pair), "never", impossible},
		{"sealed list of that size", 2, union(pair), "list{0: int, 1: int}(2)", nil},
		{"optional element may be missing", 1, union(optionalSecond), "list{0: int, 1?: int}(1)", nil},
		{"open list with more definite elements", 1, union(openPair), "never", impossible},
		{"open list grows", 3, union(openPair), "list{0: int, 1: int, ...<string>}(3)", nil},
		{"shape with more definite items", 1, union(shape), "never", impossible},
		{"shape with more possible items", 4, union(shape), "never", impossible},
		{"shape of that size", 3, union(shape), "array{'a': int, 'b': int, 'c'?: int}", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector := ilerr.NewCollector()
			result := New(nil, collector).Reconcile(assertion.ExactCount(tc.count), tc.existing, false, "$x", condition, false, false)
			assert.Equal(t, tc.expected, result.ID())
			if tc.issues == nil {
				assert.Empty(t, collector.Codes())
			} else {
				assert.Equal(t, tc.issues, collector.Codes())
			}
		})
	}
}
