package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionNeverEmpty(t *testing.T) {
	assert.Equal(t, "never", NewUnion().ID())
	assert.True(t, NewUnion().IsNever())
	assert.Equal(t, "int", NewUnion(TNever{}, Int()).ID())
	assert.Equal(t, "never", GetInt().Filter(func(Atomic) bool { return false }).ID())
}

func TestUnionWithTypesKeepsFlags(t *testing.T) {
	u := GetInt()
	u.PossiblyUndefined = true
	u.ByReference = true

	n := u.WithTypes(StringLit("a"))
	assert.Equal(t, "'a'", n.ID())
	assert.True(t, n.PossiblyUndefined)
	assert.True(t, n.ByReference)

	c := u.Clone()
	c.PossiblyUndefined = false
	assert.True(t, u.PossiblyUndefined)
}

func TestUnionEqualIgnoresOrder(t *testing.T) {
	a := NewUnion(StringLit("b"), StringLit("c"))
	b := NewUnion(StringLit("c"), StringLit("b"))
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.False(t, a.Equal(GetLiteralString("b")))
}

func TestAtomicIDs(t *testing.T) {
	testCases := []struct {
		atomic   Atomic
		expected string
	}{
		{IntLit(5), "5"},
		{mustRangeOf(1, 5), "int<1, 5>"},
		{IntFrom(1), "int<1, max>"},
		{IntTo(5), "int<min, 5>"},
		{FloatLit(1.5), "float(1.5)"},
		{StringLit("a"), "'a'"},
		{TString{IsNumeric: true}, "numeric-string"},
		{TString{IsTruthy: true, IsLowercase: true}, "truthy-lowercase-string"},
		{TString{Literal: StrLiteralUnspecified}, "literal-string"},
		{ClassStringLit("Foo"), "Foo::class"},
		{TClassLikeString{ClassKind: ClassStringOfType, Name: "Foo"}, "class-string<Foo>"},
		{ListOf(GetInt()), "list<int>"},
		{TList{ElementType: GetInt(), NonEmpty: true}, "non-empty-list<int>"},
		{TList{KnownElements: map[int]KnownItem{0: {Type: GetInt()}, 1: {Type: GetString(), PossiblyUndefined: true}}}, "list{0: int, 1?: string}"},
		{EmptyArray(), "array<never, never>"},
		{ArrayOf(GetString(), GetInt()), "array<string, int>"},
		{TKeyedArray{KnownItems: map[ArrayKey]KnownItem{StrKey("b"): {Type: GetString(), PossiblyUndefined: true}, StrKey("a"): {Type: GetInt()}, IntKey(0): {Type: GetNull()}}}, "array{0: null, 'a': int, 'b'?: string}"},
		{TEnum{Name: "Suit", Case: "Hearts"}, "enum(Suit::Hearts)"},
		{TGenericParameter{ParameterName: "T", DefiningEntity: "fn-id", Constraint: GetInt()}, "T:fn-id as int"},
		{TGenericParameter{ParameterName: "T", DefiningEntity: "Box", Constraint: GetMixed()}, "T:Box"},
		{TNamedObject{Name: "Box", TypeParameters: []*Union{GetInt()}}, "Box<int>"},
		{TMixed{IsNonNull: true}, "nonnull"},
		{TMixed{Truthiness: Truthy}, "truthy-mixed"},
		{TResource{State: ResourceClosed}, "closed-resource"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.atomic.ID())
		})
	}
}

func TestTruthiness(t *testing.T) {
	assert.True(t, GetLiteralString("a").IsAlwaysTruthy())
	assert.True(t, GetLiteralString("0").IsAlwaysFalsy())
	assert.True(t, NewUnion(TNull{}, BoolLiteral(false), IntLit(0)).IsAlwaysFalsy())
	assert.True(t, NewUnion(IntFrom(1), NamedObject("Foo")).IsAlwaysTruthy())
	assert.False(t, GetInt().IsAlwaysTruthy())
	assert.False(t, GetInt().IsAlwaysFalsy())
	assert.True(t, GetEmptyArray().IsAlwaysFalsy())

	u := GetTrue()
	u.PossiblyUndefined = true
	assert.False(t, u.IsAlwaysTruthy())
	assert.True(t, u.CanBeFalsy())
}

func TestIsNumericString(t *testing.T) {
	for s, expected := range map[string]bool{
		"12":     true,
		" 12 ":   true,
		"+007":   true,
		"-1.5e3": true,
		".5":     true,
		"1e999":  true,
		"":       false,
		"abc":    false,
		"0x1A":   false,
		"1_000":  false,
		"inf":    false,
		"12abc":  false,
	} {
		assert.Equal(t, expected, IsNumericString(s), s)
	}
}

func TestNumericStringStep(t *testing.T) {
	assert.Equal(t, "8", NewUnion(NumericStringStep("+007", 1)...).ID())
	assert.Equal(t, "-1", NewUnion(NumericStringStep("0", -1)...).ID())
	assert.Equal(t, "float(2.5)", NewUnion(NumericStringStep("1.5", 1)...).ID())
	assert.Equal(t, "-9223372036854775808", NewUnion(NumericStringStep("9223372036854775807", 1)...).ID())
	assert.Equal(t, "int|float", NewUnion(NumericStringStep("abc", 1)...).ID())
}

func TestIncrementAlphanumeric(t *testing.T) {
	for in, expected := range map[string]string{
		"a":  "b",
		"Az": "Ba",
		"zz": "aaa",
		"a9": "b0",
		"":   "1",
	} {
		assert.Equal(t, expected, IncrementAlphanumeric(in), in)
	}
}

func mustRangeOf(lo, hi int64) TInteger {
	r, _ := IntRangeOf(lo, hi)
	return r
}
