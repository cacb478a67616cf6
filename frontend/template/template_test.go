package template

import (
	"testing"

	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fn = "fn-id"

func param(name string) types.TGenericParameter {
	return types.TGenericParameter{ParameterName: name, DefiningEntity: fn, Constraint: types.GetMixed()}
}

func u(atomics ...types.Atomic) *types.Union {
	return types.NewUnion(atomics...)
}

func TestReplace(t *testing.T) {
	testCases := []struct {
		name     string
		params   []string
		param    *types.Union
		arg      *types.Union
		returns  *types.Union
		expected string
	}{
		{
			name:     "direct",
			params:   []string{"T"},
			param:    u(param("T")),
			arg:      types.GetLiteralString("a"),
			returns:  u(param("T")),
			expected: "'a'",
		},
		{
			name:     "nullable parameter",
			params:   []string{"T"},
			param:    u(param("T"), types.TNull{}),
			arg:      u(types.Int(), types.TNull{}),
			returns:  u(types.ListOf(u(param("T")))),
			expected: "list<int>",
		},
		{
			name:     "array values",
			params:   []string{"T"},
			param:    u(types.ArrayOf(types.GetArrayKey(), u(param("T")))),
			arg:      u(types.ListOf(types.GetInt())),
			returns:  u(types.ListOf(u(param("T")))),
			expected: "list<int>",
		},
		{
			name:     "array keys",
			params:   []string{"K"},
			param:    u(types.ArrayOf(u(param("K")), types.GetMixed())),
			arg:      u(types.ArrayOf(types.GetString(), types.GetInt())),
			returns:  u(types.ListOf(u(param("K")))),
			expected: "list<string>",
		},
		{
			name:     "unbound falls back to constraint",
			params:   []string{"T", "U"},
			param:    u(param("T")),
			arg:      types.GetInt(),
			returns:  u(param("T"), param("U")),
			expected: "mixed",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NewResult()
			for _, p := range tc.params {
				result.AddTemplate(p, fn, nil)
			}
			NewReplacer(nil, 0).Replace(tc.param, result, tc.arg, 0)
			assert.Equal(t, tc.expected, InferredReplace(tc.returns, result).ID())
		})
	}
}

func TestReplaceThroughClassHierarchy(t *testing.T) {
	cb := codebase.Builtins()
	result := ForTemplates(fn, []codebase.TemplateParam{{Name: "K"}, {Name: "V"}})
	traversable := u(types.TNamedObject{Name: "Traversable", TypeParameters: []*types.Union{u(param("K")), u(param("V"))}})
	iterator := u(types.TNamedObject{Name: "ArrayIterator", TypeParameters: []*types.Union{types.GetInt(), types.GetString()}})

	NewReplacer(cb, 0).Replace(traversable, result, iterator, 0)

	require.Len(t, result.Bounds("K", fn), 1)
	assert.True(t, result.Bounds("K", fn)[0].Invariant)
	assert.Equal(t, 1, result.Bounds("K", fn)[0].AppearanceDepth)
	assert.Equal(t, "int", InferredReplace(u(param("K")), result).ID())
	assert.Equal(t, "string", InferredReplace(u(param("V")), result).ID())
}

func TestReplaceArrayForTraversable(t *testing.T) {
	cb := codebase.Builtins()
	result := ForTemplates(fn, []codebase.TemplateParam{{Name: "K"}, {Name: "V"}})
	traversable := u(types.TNamedObject{Name: "Iterator", TypeParameters: []*types.Union{u(param("K")), u(param("V"))}})

	NewReplacer(cb, 0).Replace(traversable, result, u(types.ListOf(types.GetString())), 0)

	assert.Equal(t, "string", InferredReplace(u(param("V")), result).ID())
}

func TestReplaceClassString(t *testing.T) {
	result := ForTemplates(fn, []codebase.TemplateParam{{Name: "T"}})
	classString := types.TClassLikeString{ClassKind: types.ClassStringGeneric, ParameterName: "T", DefiningEntity: fn}

	NewReplacer(nil, 0).Replace(u(classString), result, u(types.ClassStringLit("Foo")), 0)

	assert.Equal(t, "Foo", InferredReplace(u(param("T")), result).ID())
	assert.Equal(t, "class-string<Foo>", InferredReplace(u(classString), result).ID())
}

func TestReplaceStopsAtMaxDepth(t *testing.T) {
	result := ForTemplates(fn, []codebase.TemplateParam{{Name: "T"}})
	nested := u(types.ListOf(u(types.ListOf(u(param("T"))))))
	arg := u(types.ListOf(u(types.ListOf(types.GetInt()))))

	NewReplacer(nil, 1).Replace(nested, result, arg, 0)

	assert.True(t, result.ReachedMaxDepth)
	assert.Empty(t, result.Bounds("T", fn))

	result = ForTemplates(fn, []codebase.TemplateParam{{Name: "T"}})
	NewReplacer(nil, 0).Replace(nested, result, arg, 0)
	assert.False(t, result.ReachedMaxDepth)
	assert.Equal(t, "int", InferredReplace(u(param("T")), result).ID())
}

func TestGetRelevantBounds(t *testing.T) {
	testCases := []struct {
		name     string
		bounds   []Bound
		expected string
	}{
		{
			name:     "none",
			expected: "mixed",
		},
		{
			name: "shallowest wins",
			bounds: []Bound{
				{Type: types.GetInt(), AppearanceDepth: 1, ArgOffset: 1},
				{Type: types.GetLiteralString("a"), AppearanceDepth: 0, ArgOffset: 0},
			},
			expected: "'a'",
		},
		{
			name: "same depth combines",
			bounds: []Bound{
				{Type: types.GetInt(), AppearanceDepth: 0, ArgOffset: 0},
				{Type: types.GetString(), AppearanceDepth: 0, ArgOffset: 1},
			},
			expected: "int|string",
		},
		{
			name: "invariant lets other arguments through",
			bounds: []Bound{
				{Type: types.GetInt(), AppearanceDepth: 0, ArgOffset: 0, Invariant: true},
				{Type: types.GetString(), AppearanceDepth: 1, ArgOffset: 1},
			},
			expected: "int|string",
		},
		{
			name: "invariant stops at the same argument",
			bounds: []Bound{
				{Type: types.GetInt(), AppearanceDepth: 0, ArgOffset: 0, Invariant: true},
				{Type: types.GetString(), AppearanceDepth: 1, ArgOffset: 0},
			},
			expected: "int",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetMostSpecificTypeFromBounds(tc.bounds).ID())
		})
	}
}
