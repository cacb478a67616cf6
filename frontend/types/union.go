package types

import (
	"hash/fnv"
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// Union is the set of atomics a value may currently be. It is never empty:
// the absence of any possible type is the single atomic TNever.
//
// A *Union is shared freely between contexts and must not be modified once
// built; use Clone or the With* methods to derive a new one.
type Union struct {
	types []Atomic

	PossiblyUndefined        bool
	PossiblyUndefinedFromTry bool
	HadTemplate              bool
	IgnoreFalsableIssues     bool
	FromTemplateDefault      bool
	ByReference              bool
}

// NewUnion builds a union of the given atomics, dropping duplicates.
// Never is dropped when any other atomic is present.
func NewUnion(atomics ...Atomic) *Union {
	out := make([]Atomic, 0, len(atomics))
	seen := make(map[string]struct{}, len(atomics))
	for _, a := range atomics {
		if a == nil || a.Kind() == KindNever {
			continue
		}
		id := a.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		out = append(out, TNever{})
	}
	return &Union{types: out}
}

// Types returns a copy of the atomics of u, in order
func (u *Union) Types() []Atomic {
	return slices.Clone(u.types)
}

func (u *Union) All() iter.Seq[Atomic] {
	return slices.Values(u.types)
}

func (u *Union) Len() int {
	return len(u.types)
}

func (u *Union) ID() string {
	ids := make([]string, len(u.types))
	for i, t := range u.types {
		ids[i] = t.ID()
	}
	return strings.Join(ids, "|")
}

func (u *Union) String() string {
	return u.ID()
}

func (u *Union) Hash() uint64 {
	h := fnv.New64a()
	for _, t := range u.types {
		_, _ = h.Write([]byte(t.ID()))
		_, _ = h.Write([]byte{'|'})
	}
	return h.Sum64()
}

func (u *Union) LogValue() slog.Value {
	if u == nil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(u.ID())
}

func (u *Union) Clone() *Union {
	c := *u
	c.types = slices.Clone(u.types)
	return &c
}

// WithTypes returns a union of atomics carrying the flags of u
func (u *Union) WithTypes(atomics ...Atomic) *Union {
	n := NewUnion(atomics...)
	n.PossiblyUndefined = u.PossiblyUndefined
	n.PossiblyUndefinedFromTry = u.PossiblyUndefinedFromTry
	n.HadTemplate = u.HadTemplate
	n.IgnoreFalsableIssues = u.IgnoreFalsableIssues
	n.FromTemplateDefault = u.FromTemplateDefault
	n.ByReference = u.ByReference
	return n
}

func (u *Union) WithPossiblyUndefined(possiblyUndefined bool) *Union {
	if u.PossiblyUndefined == possiblyUndefined {
		return u
	}
	c := u.Clone()
	c.PossiblyUndefined = possiblyUndefined
	return c
}

func (u *Union) WithByReference(byReference bool) *Union {
	c := u.Clone()
	c.ByReference = byReference
	return c
}

// Equal is true when both unions contain the same atomics, in any order.
// Flags are not compared.
func (u *Union) Equal(other *Union) bool {
	if u == other {
		return true
	}
	if u == nil || other == nil || len(u.types) != len(other.types) {
		return false
	}
	for _, t := range u.types {
		if !other.HasAtomic(t) {
			return false
		}
	}
	return true
}

// HasAtomic is true when an atomic equal to a is in u
func (u *Union) HasAtomic(a Atomic) bool {
	id := a.ID()
	return slices.ContainsFunc(u.types, func(t Atomic) bool { return t.ID() == id })
}

// Single returns the only atomic of u, if u has exactly one
func (u *Union) Single() (Atomic, bool) {
	if len(u.types) != 1 {
		return nil, false
	}
	return u.types[0], true
}

func (u *Union) HasKind(k Kind) bool {
	return slices.ContainsFunc(u.types, func(t Atomic) bool { return t.Kind() == k })
}

// OnlyKinds is true when every atomic of u is one of kinds
func (u *Union) OnlyKinds(kinds ...Kind) bool {
	for _, t := range u.types {
		if !slices.Contains(kinds, t.Kind()) {
			return false
		}
	}
	return true
}

func (u *Union) IsNever() bool {
	return len(u.types) == 1 && u.types[0].Kind() == KindNever
}

// IsMixed is true when u is a single mixed, whatever its flags
func (u *Union) IsMixed() bool {
	return len(u.types) == 1 && u.types[0].Kind() == KindMixed
}

// IsVanillaMixed is true when u is the completely unconstrained mixed
func (u *Union) IsVanillaMixed() bool {
	if m, ok := u.types[0].(TMixed); ok && len(u.types) == 1 {
		return m.IsVanilla()
	}
	return false
}

func (u *Union) HasMixed() bool {
	return u.HasKind(KindMixed)
}

func (u *Union) IsNull() bool {
	return len(u.types) == 1 && u.types[0].Kind() == KindNull
}

func (u *Union) IsVoid() bool {
	return len(u.types) == 1 && u.types[0].Kind() == KindVoid
}

func (u *Union) IsNullable() bool {
	return u.HasKind(KindNull)
}

func (u *Union) IsBool() bool {
	return u.OnlyKinds(KindBool)
}

func (u *Union) IsTrue() bool {
	b, ok := u.single().(TBool)
	return ok && b.IsTrue()
}

func (u *Union) IsFalse() bool {
	b, ok := u.single().(TBool)
	return ok && b.IsFalse()
}

func (u *Union) IsInt() bool {
	return u.OnlyKinds(KindInt)
}

func (u *Union) IsFloat() bool {
	return u.OnlyKinds(KindFloat)
}

func (u *Union) IsString() bool {
	return u.OnlyKinds(KindString, KindClassString)
}

// IsArray is true when every atomic is a list or keyed array
func (u *Union) IsArray() bool {
	return u.OnlyKinds(KindList, KindKeyedArray)
}

func (u *Union) HasArray() bool {
	return u.HasKind(KindList) || u.HasKind(KindKeyedArray)
}

// IsObject is true when every atomic is an object of some kind
func (u *Union) IsObject() bool {
	for _, t := range u.types {
		switch t := t.(type) {
		case TObjectAny, TNamedObject, TEnum:
		case TCallable:
			if !t.IsClosure {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// HasTemplate is true when u mentions a generic parameter at its top level
func (u *Union) HasTemplate() bool {
	return u.HasKind(KindGenericParameter) || u.HasKind(KindVariable)
}

// IsLiteral is true when every atomic of u has a single known value
func (u *Union) IsLiteral() bool {
	for _, t := range u.types {
		if !IsLiteralAtomic(t) {
			return false
		}
	}
	return true
}

// IsLiteralAtomic is true for atomics with exactly one possible value
func IsLiteralAtomic(a Atomic) bool {
	switch a := a.(type) {
	case TNull:
		return true
	case TBool:
		return !a.IsGeneral()
	case TInteger:
		_, ok := a.LiteralValue()
		return ok
	case TFloat:
		return a.IsLiteral
	case TString:
		return a.Literal == StrLiteralValue
	case TClassLikeString:
		return a.ClassKind == ClassStringLiteral
	case TEnum:
		return a.Case != ""
	}
	return false
}

func (u *Union) single() Atomic {
	if len(u.types) != 1 {
		return nil
	}
	return u.types[0]
}

// Filter returns a union of the atomics of u satisfying keep, carrying the flags of u
func (u *Union) Filter(keep func(Atomic) bool) *Union {
	out := make([]Atomic, 0, len(u.types))
	for _, t := range u.types {
		if keep(t) {
			out = append(out, t)
		}
	}
	return u.WithTypes(out...)
}

// Map returns a union of f applied to each atomic of u, carrying the flags of u.
// f may drop an atomic by returning nil.
func (u *Union) Map(f func(Atomic) Atomic) *Union {
	out := make([]Atomic, 0, len(u.types))
	for _, t := range u.types {
		if m := f(t); m != nil {
			out = append(out, m)
		}
	}
	return u.WithTypes(Combine(out)...)
}

// FlatMap replaces each atomic of u by a union, combining the results and keeping the flags of u
func (u *Union) FlatMap(f func(Atomic) *Union) *Union {
	out := make([]Atomic, 0, len(u.types))
	for _, t := range u.types {
		if m := f(t); m != nil {
			out = append(out, m.types...)
		}
	}
	return u.WithTypes(Combine(out)...)
}
