package types

import (
	"fmt"
	"hash/fnv"
)

// Kind discriminates the concrete shape of an Atomic, for switches which
// only care about the family of a type and not its payload
type Kind uint8

const (
	KindNever Kind = iota
	KindVoid
	KindNull
	KindMixed
	KindBool
	KindInt
	KindFloat
	KindString
	KindNumeric
	KindArrayKey
	KindScalar
	KindClassString
	KindList
	KindKeyedArray
	KindObject
	KindNamedObject
	KindEnum
	KindCallable
	KindResource
	KindIterable
	KindGenericParameter
	KindVariable
)

// Atomic is one concrete shape a value can have at runtime.
// Atomics are immutable values: every operation that refines one returns a new value.
type Atomic interface {
	fmt.Stringer
	// ID is the canonical representation of the type, and what equality is defined on
	ID() string
	Hash() uint64
	Kind() Kind
}

var (
	_ Atomic = TNever{}
	_ Atomic = TVoid{}
	_ Atomic = TNull{}
	_ Atomic = TMixed{}
	_ Atomic = TBool{}
	_ Atomic = TInteger{}
	_ Atomic = TFloat{}
	_ Atomic = TString{}
	_ Atomic = TNumeric{}
	_ Atomic = TArrayKey{}
	_ Atomic = TScalar{}
	_ Atomic = TClassLikeString{}
	_ Atomic = TList{}
	_ Atomic = TKeyedArray{}
	_ Atomic = TObjectAny{}
	_ Atomic = TNamedObject{}
	_ Atomic = TEnum{}
	_ Atomic = TCallable{}
	_ Atomic = TResource{}
	_ Atomic = TIterable{}
	_ Atomic = TGenericParameter{}
	_ Atomic = TVariable{}
)

// Equal can be used to compare Atomic instances for equality.
func Equal(a, b Atomic) bool {
	return a.ID() == b.ID()
}

func hashID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// TNever is the bottom type: no value can have it
type TNever struct{}

func (TNever) ID() string       { return "never" }
func (t TNever) String() string { return t.ID() }
func (t TNever) Hash() uint64   { return hashID(t.ID()) }
func (TNever) Kind() Kind       { return KindNever }

type TVoid struct{}

func (TVoid) ID() string       { return "void" }
func (t TVoid) String() string { return t.ID() }
func (t TVoid) Hash() uint64   { return hashID(t.ID()) }
func (TVoid) Kind() Kind       { return KindVoid }

type TNull struct{}

func (TNull) ID() string       { return "null" }
func (t TNull) String() string { return t.ID() }
func (t TNull) Hash() uint64   { return hashID(t.ID()) }
func (TNull) Kind() Kind       { return KindNull }

// Truthiness is what is statically known about how a value behaves in a boolean context
type Truthiness uint8

const (
	Undetermined Truthiness = iota
	Truthy
	Falsy
)

// TMixed is any value. Its flags narrow it without naming a concrete shape.
type TMixed struct {
	IsNonNull       bool
	IsIssetFromLoop bool
	Truthiness      Truthiness
}

func (t TMixed) ID() string {
	switch {
	case t.Truthiness == Truthy:
		return "truthy-mixed"
	case t.Truthiness == Falsy && t.IsNonNull:
		return "nonnull-falsy-mixed"
	case t.Truthiness == Falsy:
		return "falsy-mixed"
	case t.IsNonNull:
		return "nonnull"
	}
	return "mixed"
}
func (t TMixed) String() string { return t.ID() }
func (t TMixed) Hash() uint64   { return hashID(t.ID()) }
func (TMixed) Kind() Kind       { return KindMixed }

// IsVanilla is true for the completely unconstrained mixed
func (t TMixed) IsVanilla() bool {
	return !t.IsNonNull && t.Truthiness == Undetermined
}

type BoolValue uint8

const (
	BoolGeneral BoolValue = iota
	BoolTrue
	BoolFalse
)

type TBool struct {
	Value BoolValue
}

func (t TBool) ID() string {
	switch t.Value {
	case BoolTrue:
		return "true"
	case BoolFalse:
		return "false"
	}
	return "bool"
}
func (t TBool) String() string { return t.ID() }
func (t TBool) Hash() uint64   { return hashID(t.ID()) }
func (TBool) Kind() Kind       { return KindBool }

func (t TBool) IsGeneral() bool { return t.Value == BoolGeneral }
func (t TBool) IsTrue() bool    { return t.Value == BoolTrue }
func (t TBool) IsFalse() bool   { return t.Value == BoolFalse }

// BoolLiteral returns the literal true or false atomic
func BoolLiteral(b bool) TBool {
	if b {
		return TBool{Value: BoolTrue}
	}
	return TBool{Value: BoolFalse}
}

// TNumeric is int|float|numeric-string
type TNumeric struct{}

func (TNumeric) ID() string       { return "numeric" }
func (t TNumeric) String() string { return t.ID() }
func (t TNumeric) Hash() uint64   { return hashID(t.ID()) }
func (TNumeric) Kind() Kind       { return KindNumeric }

// TArrayKey is int|string
type TArrayKey struct{}

func (TArrayKey) ID() string       { return "array-key" }
func (t TArrayKey) String() string { return t.ID() }
func (t TArrayKey) Hash() uint64   { return hashID(t.ID()) }
func (TArrayKey) Kind() Kind       { return KindArrayKey }

// TScalar is bool|int|float|string
type TScalar struct{}

func (TScalar) ID() string       { return "scalar" }
func (t TScalar) String() string { return t.ID() }
func (t TScalar) Hash() uint64   { return hashID(t.ID()) }
func (TScalar) Kind() Kind       { return KindScalar }

type TCallable struct {
	IsClosure bool
}

func (t TCallable) ID() string {
	if t.IsClosure {
		return "Closure"
	}
	return "callable"
}
func (t TCallable) String() string { return t.ID() }
func (t TCallable) Hash() uint64   { return hashID(t.ID()) }
func (TCallable) Kind() Kind       { return KindCallable }

type ResourceState uint8

const (
	ResourceAny ResourceState = iota
	ResourceOpen
	ResourceClosed
)

type TResource struct {
	State ResourceState
}

func (t TResource) ID() string {
	switch t.State {
	case ResourceOpen:
		return "open-resource"
	case ResourceClosed:
		return "closed-resource"
	}
	return "resource"
}
func (t TResource) String() string { return t.ID() }
func (t TResource) Hash() uint64   { return hashID(t.ID()) }
func (TResource) Kind() Kind       { return KindResource }

// TVariable is a placeholder for a template variable that has not been resolved yet
type TVariable struct {
	Name string
}

func (t TVariable) ID() string     { return "typevar(" + t.Name + ")" }
func (t TVariable) String() string { return t.ID() }
func (t TVariable) Hash() uint64   { return hashID(t.ID()) }
func (TVariable) Kind() Kind       { return KindVariable }
