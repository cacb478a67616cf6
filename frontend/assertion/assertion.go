package assertion

import (
	"strconv"

	"github.com/cottand/narrow/frontend/types"
)

type Kind uint8

const (
	Any Kind = iota
	IsType
	IsNotType
	IsEqual
	IsNotEqual
	Truthy
	Falsy
	NonEmpty
	Empty
	IsIsset
	IsNotIsset
	IsEqualIsset
	ArrayKeyExists
	ArrayKeyDoesNotExist
	HasArrayKey
	DoesNotHaveArrayKey
	HasNonnullEntryForKey
	DoesNotHaveNonnullEntryForKey
	InArray
	NotInArray
	IsLessThan
	IsGreaterThanOrEqual
	HasExactCount
	DoesNotHaveExactCount
	Countable
	NotCountable
)

// Assertion is a single fact about a value which reconciliation can narrow a type with.
// Assertions are values and are never modified after construction.
type Assertion struct {
	Kind Kind
	// Type is set for IsType, IsNotType, IsEqual and IsNotEqual
	Type types.Atomic
	// Key is set for the *ArrayKey and *NonnullEntryForKey kinds
	Key types.ArrayKey
	// Values is set for InArray and NotInArray
	Values *types.Union
	// Value is the bound for IsLessThan and IsGreaterThanOrEqual, the count for *ExactCount
	Value int64
}

func OfType(t types.Atomic) Assertion        { return Assertion{Kind: IsType, Type: t} }
func NotOfType(t types.Atomic) Assertion     { return Assertion{Kind: IsNotType, Type: t} }
func EqualTo(t types.Atomic) Assertion       { return Assertion{Kind: IsEqual, Type: t} }
func NotEqualTo(t types.Atomic) Assertion    { return Assertion{Kind: IsNotEqual, Type: t} }
func Simple(k Kind) Assertion                { return Assertion{Kind: k} }
func InValues(values *types.Union) Assertion { return Assertion{Kind: InArray, Values: values} }
func LessThan(v int64) Assertion             { return Assertion{Kind: IsLessThan, Value: v} }
func ExactCount(n int64) Assertion           { return Assertion{Kind: HasExactCount, Value: n} }

func GreaterThanOrEqual(v int64) Assertion {
	return Assertion{Kind: IsGreaterThanOrEqual, Value: v}
}

func WithKey(k Kind, key types.ArrayKey) Assertion {
	return Assertion{Kind: k, Key: key}
}

// ID identifies the assertion: two assertions with the same ID assert the same fact
func (a Assertion) ID() string {
	switch a.Kind {
	case Any:
		return "any"
	case IsType:
		return a.Type.ID()
	case IsNotType:
		return "!" + a.Type.ID()
	case IsEqual:
		return "=" + a.Type.ID()
	case IsNotEqual:
		return "!=" + a.Type.ID()
	case Truthy:
		return "truthy"
	case Falsy:
		return "falsy"
	case NonEmpty:
		return "non-empty"
	case Empty:
		return "empty"
	case IsIsset:
		return "isset"
	case IsNotIsset:
		return "!isset"
	case IsEqualIsset:
		return "=isset"
	case ArrayKeyExists:
		return "array-key-exists"
	case ArrayKeyDoesNotExist:
		return "!array-key-exists"
	case HasArrayKey:
		return "=has-array-key-" + a.Key.String()
	case DoesNotHaveArrayKey:
		return "!=has-array-key-" + a.Key.String()
	case HasNonnullEntryForKey:
		return "=has-nonnull-entry-for-" + a.Key.String()
	case DoesNotHaveNonnullEntryForKey:
		return "!=has-nonnull-entry-for-" + a.Key.String()
	case InArray:
		return "=in-array-" + a.Values.ID()
	case NotInArray:
		return "!=in-array-" + a.Values.ID()
	case IsLessThan:
		return "<" + strconv.FormatInt(a.Value, 10)
	case IsGreaterThanOrEqual:
		return ">=" + strconv.FormatInt(a.Value, 10)
	case HasExactCount:
		return "has-exact-count-" + strconv.FormatInt(a.Value, 10)
	case DoesNotHaveExactCount:
		return "!has-exact-count-" + strconv.FormatInt(a.Value, 10)
	case Countable:
		return "countable"
	case NotCountable:
		return "!countable"
	}
	return "unknown"
}

func (a Assertion) String() string {
	return a.ID()
}

var negations = map[Kind]Kind{
	Any:                           Any,
	IsType:                        IsNotType,
	IsNotType:                     IsType,
	IsEqual:                       IsNotEqual,
	IsNotEqual:                    IsEqual,
	Truthy:                        Falsy,
	Falsy:                         Truthy,
	NonEmpty:                      Empty,
	Empty:                         NonEmpty,
	IsIsset:                       IsNotIsset,
	IsNotIsset:                    IsIsset,
	IsEqualIsset:                  IsNotIsset,
	ArrayKeyExists:                ArrayKeyDoesNotExist,
	ArrayKeyDoesNotExist:          ArrayKeyExists,
	HasArrayKey:                   DoesNotHaveArrayKey,
	DoesNotHaveArrayKey:           HasArrayKey,
	HasNonnullEntryForKey:         DoesNotHaveNonnullEntryForKey,
	DoesNotHaveNonnullEntryForKey: HasNonnullEntryForKey,
	InArray:                       NotInArray,
	NotInArray:                    InArray,
	IsLessThan:                    IsGreaterThanOrEqual,
	IsGreaterThanOrEqual:          IsLessThan,
	HasExactCount:                 DoesNotHaveExactCount,
	DoesNotHaveExactCount:         HasExactCount,
	Countable:                     NotCountable,
	NotCountable:                  Countable,
}

// Negate returns the assertion holding exactly when a does not
func (a Assertion) Negate() Assertion {
	a.Kind = negations[a.Kind]
	return a
}

// HasNegation is true for assertions that state what a value is not.
// Both integer bounds are positive: each narrows the range to one side.
func (a Assertion) HasNegation() bool {
	switch a.Kind {
	case IsNotType, IsNotEqual, Falsy, Empty, IsNotIsset, ArrayKeyDoesNotExist, DoesNotHaveArrayKey,
		DoesNotHaveNonnullEntryForKey, NotInArray, DoesNotHaveExactCount, NotCountable:
		return true
	}
	return false
}

// HasEquality is true for loose assertions, which may hold without removing any type
func (a Assertion) HasEquality() bool {
	switch a.Kind {
	case IsEqual, IsNotEqual, IsEqualIsset:
		return true
	}
	return false
}

// GetType returns the atomic a type assertion refers to
func (a Assertion) GetType() (types.Atomic, bool) {
	switch a.Kind {
	case IsType, IsNotType, IsEqual, IsNotEqual:
		return a.Type, a.Type != nil
	}
	return nil, false
}

// HasLiteralValue is true when the assertion compares against a single known value
func (a Assertion) HasLiteralValue() bool {
	t, ok := a.GetType()
	return ok && types.IsLiteralAtomic(t)
}

// IsNegationOf is true when a holds exactly when other does not
func (a Assertion) IsNegationOf(other Assertion) bool {
	return a.Negate().ID() == other.ID()
}

// IsKeyAssertion is true for assertions about array keys
func (a Assertion) IsKeyAssertion() bool {
	switch a.Kind {
	case ArrayKeyExists, ArrayKeyDoesNotExist, HasArrayKey, DoesNotHaveArrayKey,
		HasNonnullEntryForKey, DoesNotHaveNonnullEntryForKey:
		return true
	}
	return false
}
