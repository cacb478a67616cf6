package types

import (
	"math"
	"strconv"
)

const (
	minInt = math.MinInt64
	maxInt = math.MaxInt64
)

type IntKind uint8

const (
	IntKindUnspecified IntKind = iota
	IntKindLiteral
	IntKindRange
	IntKindFrom
	IntKindTo
)

// TInteger is an int, possibly restricted to a literal value or a range.
// Construct it through the Int* functions, which normalise degenerate ranges.
type TInteger struct {
	kind   IntKind
	lo, hi int64
}

// Int is the unspecified int
func Int() TInteger { return TInteger{kind: IntKindUnspecified} }

func IntLit(v int64) TInteger { return TInteger{kind: IntKindLiteral, lo: v, hi: v} }

// IntFrom is int<lo, max>
func IntFrom(lo int64) TInteger {
	if lo == math.MinInt64 {
		return Int()
	}
	return TInteger{kind: IntKindFrom, lo: lo}
}

// IntTo is int<min, hi>
func IntTo(hi int64) TInteger {
	if hi == math.MaxInt64 {
		return Int()
	}
	return TInteger{kind: IntKindTo, hi: hi}
}

// IntRangeOf is int<lo, hi>. ok is false when the range is empty.
func IntRangeOf(lo, hi int64) (TInteger, bool) {
	switch {
	case lo > hi:
		return TInteger{}, false
	case lo == hi:
		return IntLit(lo), true
	case lo == math.MinInt64:
		return IntTo(hi), true
	case hi == math.MaxInt64:
		return IntFrom(lo), true
	}
	return TInteger{kind: IntKindRange, lo: lo, hi: hi}, true
}

// intBetween builds the int type covering [lo, hi] given optional bounds
func intBetween(lo int64, hasLo bool, hi int64, hasHi bool) (TInteger, bool) {
	switch {
	case hasLo && hasHi:
		return IntRangeOf(lo, hi)
	case hasLo:
		return IntFrom(lo), true
	case hasHi:
		return IntTo(hi), true
	}
	return Int(), true
}

func (t TInteger) ID() string {
	switch t.kind {
	case IntKindLiteral:
		return strconv.FormatInt(t.lo, 10)
	case IntKindRange:
		return "int<" + strconv.FormatInt(t.lo, 10) + ", " + strconv.FormatInt(t.hi, 10) + ">"
	case IntKindFrom:
		return "int<" + strconv.FormatInt(t.lo, 10) + ", max>"
	case IntKindTo:
		return "int<min, " + strconv.FormatInt(t.hi, 10) + ">"
	}
	return "int"
}
func (t TInteger) String() string { return t.ID() }
func (t TInteger) Hash() uint64   { return hashID(t.ID()) }
func (TInteger) Kind() Kind       { return KindInt }

func (t TInteger) IntKind() IntKind { return t.kind }

func (t TInteger) IsUnspecified() bool { return t.kind == IntKindUnspecified }

func (t TInteger) LiteralValue() (int64, bool) {
	return t.lo, t.kind == IntKindLiteral
}

// Min returns the lower bound, if there is one
func (t TInteger) Min() (int64, bool) {
	switch t.kind {
	case IntKindLiteral, IntKindRange, IntKindFrom:
		return t.lo, true
	}
	return 0, false
}

// Max returns the upper bound, if there is one
func (t TInteger) Max() (int64, bool) {
	switch t.kind {
	case IntKindLiteral, IntKindRange, IntKindTo:
		return t.hi, true
	}
	return 0, false
}

func (t TInteger) minOrInf() int64 {
	if lo, ok := t.Min(); ok {
		return lo
	}
	return math.MinInt64
}

func (t TInteger) maxOrInf() int64 {
	if hi, ok := t.Max(); ok {
		return hi
	}
	return math.MaxInt64
}

func (t TInteger) Contains(v int64) bool {
	return t.minOrInf() <= v && v <= t.maxOrInf()
}

// ContainsRange is true when every value of other is a value of t
func (t TInteger) ContainsRange(other TInteger) bool {
	return t.minOrInf() <= other.minOrInf() && other.maxOrInf() <= t.maxOrInf()
}

// Intersect returns the values common to both, ok is false when there are none
func (t TInteger) Intersect(other TInteger) (TInteger, bool) {
	lo := max(t.minOrInf(), other.minOrInf())
	hi := min(t.maxOrInf(), other.maxOrInf())
	return intBetween(lo, lo != math.MinInt64, hi, hi != math.MaxInt64)
}

// Hull returns the smallest int type containing both
func (t TInteger) Hull(other TInteger) TInteger {
	lo := min(t.minOrInf(), other.minOrInf())
	hi := max(t.maxOrInf(), other.maxOrInf())
	hull, _ := intBetween(lo, lo != math.MinInt64, hi, hi != math.MaxInt64)
	return hull
}

// ToLessThan restricts t to values < v
func (t TInteger) ToLessThan(v int64) (TInteger, bool) {
	if v == math.MinInt64 {
		return TInteger{}, false
	}
	return t.Intersect(IntTo(v - 1))
}

// ToGreaterThanOrEqual restricts t to values >= v
func (t TInteger) ToGreaterThanOrEqual(v int64) (TInteger, bool) {
	return t.Intersect(IntFrom(v))
}

// Without removes a single value from t. It can only shrink t when v sits on one of
// its bounds, otherwise t is returned unchanged and removed is false.
func (t TInteger) Without(v int64) (result TInteger, nonEmpty bool, removed bool) {
	if !t.Contains(v) {
		return t, true, false
	}
	lo, hasLo := t.Min()
	hi, hasHi := t.Max()
	switch {
	case hasLo && hasHi && lo == hi:
		return TInteger{}, false, true
	case hasLo && lo == v:
		r, ok := intBetween(v+1, true, hi, hasHi)
		return r, ok, true
	case hasHi && hi == v:
		r, ok := intBetween(lo, hasLo, v-1, true)
		return r, ok, true
	}
	return t, true, false
}

// Negated is the type of -t. ok is false on overflow.
func (t TInteger) Negated() (TInteger, bool) {
	lo, hasLo := t.Min()
	hi, hasHi := t.Max()
	if (hasLo && lo == math.MinInt64) || (hasHi && hi == math.MinInt64) {
		return Int(), false
	}
	r, _ := intBetween(-hi, hasHi, -lo, hasLo)
	return r, true
}
