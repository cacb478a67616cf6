package types

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	testCases := []struct {
		name     string
		input    []Atomic
		expected string
	}{
		{
			name:     "empty input is never",
			input:    nil,
			expected: "never",
		},
		{
			name:     "duplicates are removed",
			input:    []Atomic{StringLit("a"), StringLit("a"), IntLit(1)},
			expected: "'a'|1",
		},
		{
			name:     "literal string and literal int stay distinct",
			input:    []Atomic{StringLit("hello"), IntLit(123)},
			expected: "'hello'|123",
		},
		{
			name:     "true and false join into bool",
			input:    []Atomic{BoolLiteral(true), TNull{}, BoolLiteral(false)},
			expected: "bool|null",
		},
		{
			name:     "int absorbs literals that appeared first",
			input:    []Atomic{IntLit(1), StringLit("x"), IntLit(2), Int()},
			expected: "int|'x'",
		},
		{
			name:     "array-key absorbs ints and strings",
			input:    []Atomic{IntLit(1), TNull{}, StringLit("x"), TArrayKey{}},
			expected: "array-key|null",
		},
		{
			name:     "adjacent literal extends a range",
			input:    []Atomic{mustRange(t, 1, 3), IntLit(4)},
			expected: "int<1, 4>",
		},
		{
			name:     "distant literal stays beside a range",
			input:    []Atomic{mustRange(t, 1, 3), IntLit(7)},
			expected: "int<1, 3>|7",
		},
		{
			name:     "mixed absorbs everything",
			input:    []Atomic{IntLit(1), TMixed{}, TNull{}},
			expected: "mixed",
		},
		{
			name:     "nonnull mixed with non null types stays nonnull",
			input:    []Atomic{TMixed{IsNonNull: true}, Int()},
			expected: "nonnull",
		},
		{
			name:     "object absorbs named objects",
			input:    []Atomic{NamedObject("Foo"), TObjectAny{}},
			expected: "object",
		},
		{
			name:     "literal string joins a general string",
			input:    []Atomic{TString{IsNonEmpty: true}, StringLit("a")},
			expected: "non-empty-string",
		},
		{
			name:     "empty literal string weakens non-empty-string",
			input:    []Atomic{TString{IsNonEmpty: true}, StringLit("")},
			expected: "string",
		},
		{
			name:     "numeric absorbs numeric strings",
			input:    []Atomic{TNumeric{}, StringLit("12")},
			expected: "numeric",
		},
		{
			name:     "enum cases stay separate",
			input:    []Atomic{TEnum{Name: "Suit", Case: "Hearts"}, TEnum{Name: "Suit", Case: "Spades"}},
			expected: "enum(Suit::Hearts)|enum(Suit::Spades)",
		},
		{
			name: "list shapes merge with possibly undefined elements",
			input: []Atomic{
				TList{KnownElements: map[int]KnownItem{0: {Type: GetInt()}}},
				TList{KnownElements: map[int]KnownItem{0: {Type: GetString()}, 1: {Type: GetString()}}},
			},
			expected: "list{0: int|string, 1?: string}",
		},
		{
			name: "keyed shapes merge with possibly undefined items",
			input: []Atomic{
				TKeyedArray{KnownItems: map[ArrayKey]KnownItem{StrKey("a"): {Type: GetInt()}}},
				TKeyedArray{KnownItems: map[ArrayKey]KnownItem{StrKey("b"): {Type: GetString()}}},
			},
			expected: "array{'a'?: int, 'b'?: string}",
		},
		{
			name:     "empty array and list make a possibly empty list",
			input:    []Atomic{EmptyArray(), TList{ElementType: GetInt(), NonEmpty: true}},
			expected: "list<int>",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewUnion(Combine(tc.input)...).ID())
		})
	}
}

func TestCombineCollapsesLiteralsOverThreshold(t *testing.T) {
	var atomics []Atomic
	for i := range LiteralThreshold + 1 {
		atomics = append(atomics, StringLit("s"+strconv.Itoa(i)))
	}
	combined := Combine(atomics)
	assert.Len(t, combined, 1)
	assert.Equal(t, "non-empty-lowercase-literal-string", combined[0].ID())

	atomics = atomics[:LiteralThreshold]
	assert.Len(t, Combine(atomics), LiteralThreshold)
}

func TestCombineUnionTypes(t *testing.T) {
	a := GetLiteralString("hello")
	b := GetLiteralInt(123)
	b.PossiblyUndefined = true

	combined := CombineUnionTypes(a, b)
	assert.Equal(t, "'hello'|123", combined.ID())
	assert.True(t, combined.PossiblyUndefined)
	assert.False(t, a.PossiblyUndefined, "inputs are not modified")

	assert.Same(t, a, CombineUnionTypes(a, nil))
	assert.Equal(t, "never", CombineUnions().ID())
	assert.Equal(t, "int", CombineUnions(GetLiteralInt(1), GetInt(), GetLiteralInt(2)).ID())
}

func mustRange(t *testing.T, lo, hi int64) TInteger {
	t.Helper()
	r, ok := IntRangeOf(lo, hi)
	assert.True(t, ok)
	return r
}
