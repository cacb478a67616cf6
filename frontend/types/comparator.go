package types

import (
	"strings"
)

// Hierarchy answers questions about declared classes that type containment depends on.
// codebase.Store implements it.
type Hierarchy interface {
	// IsSubtypeOf is true when child is ancestor, or extends or implements it
	IsSubtypeOf(child, ancestor string) bool
	IsInterface(name string) bool
	IsFinal(name string) bool
}

// NoHierarchy knows no classes: names are only related to themselves
type NoHierarchy struct{}

func (NoHierarchy) IsSubtypeOf(child, ancestor string) bool {
	return strings.EqualFold(child, ancestor)
}
func (NoHierarchy) IsInterface(string) bool { return false }
func (NoHierarchy) IsFinal(string) bool     { return false }

func hierarchyOrDefault(h Hierarchy) Hierarchy {
	if h == nil {
		return NoHierarchy{}
	}
	return h
}

// IsContainedBy is true when every value of input is also a value of container
func IsContainedBy(h Hierarchy, input, container *Union) bool {
	h = hierarchyOrDefault(h)
	if input.IsNever() {
		return true
	}
	for _, in := range input.types {
		contained := false
		for _, c := range container.types {
			if AtomicIsContainedBy(h, in, c) {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	return true
}

// AtomicIsContainedBy is true when every value of input is also a value of container
func AtomicIsContainedBy(h Hierarchy, input, container Atomic) bool {
	h = hierarchyOrDefault(h)
	if input.Kind() == KindNever || input.ID() == container.ID() {
		return true
	}
	if g, ok := input.(TGenericParameter); ok {
		if cg, ok := container.(TGenericParameter); ok && cg.SameParameter(g) {
			return IsContainedBy(h, g.constraint(), cg.constraint())
		}
		return IsContainedBy(h, g.constraint(), NewUnion(container))
	}

	switch c := container.(type) {
	case TMixed:
		return mixedContains(c, input)
	case TVariable:
		return true
	case TNull:
		return input.Kind() == KindNull
	case TVoid:
		return input.Kind() == KindVoid || input.Kind() == KindNull
	case TBool:
		b, ok := input.(TBool)
		return ok && (c.IsGeneral() || b.Value == c.Value)
	case TInteger:
		i, ok := input.(TInteger)
		return ok && c.ContainsRange(i)
	case TFloat:
		f, ok := input.(TFloat)
		return ok && (!c.IsLiteral || (f.IsLiteral && f.Value == c.Value))
	case TString:
		return stringContains(c, input)
	case TClassLikeString:
		return classStringContains(h, c, input)
	case TNumeric:
		switch in := input.(type) {
		case TInteger, TFloat, TNumeric:
			return true
		case TString:
			return in.IsNumeric
		}
	case TArrayKey:
		switch input.(type) {
		case TInteger, TString, TClassLikeString, TArrayKey:
			return true
		}
	case TScalar:
		switch input.(type) {
		case TBool, TInteger, TFloat, TString, TClassLikeString, TNumeric, TArrayKey, TScalar:
			return true
		}
	case TList:
		return listContains(h, c, input)
	case TKeyedArray:
		return keyedContains(h, c, input)
	case TIterable:
		switch in := input.(type) {
		case TList, TKeyedArray:
			return IsContainedBy(h, ArrayKeyType(in), c.Key) && IsContainedBy(h, ArrayValueType(in), c.Value)
		case TIterable:
			return IsContainedBy(h, in.Key, c.Key) && IsContainedBy(h, in.Value, c.Value)
		case TNamedObject:
			return c.IsMixedIterable() && h.IsSubtypeOf(in.Name, "Traversable")
		}
	case TObjectAny:
		switch in := input.(type) {
		case TNamedObject, TEnum:
			return true
		case TCallable:
			return in.IsClosure
		}
	case TNamedObject:
		return namedObjectContains(h, c, input)
	case TEnum:
		e, ok := input.(TEnum)
		return ok && strings.EqualFold(e.Name, c.Name) && (c.Case == "" || e.Case == c.Case)
	case TCallable:
		switch in := input.(type) {
		case TCallable:
			return !c.IsClosure || in.IsClosure
		case TNamedObject:
			return strings.EqualFold(in.Name, "Closure")
		}
	case TResource:
		r, ok := input.(TResource)
		return ok && (c.State == ResourceAny || r.State == c.State)
	case TGenericParameter:
		return false
	}
	return false
}

func mixedContains(c TMixed, input Atomic) bool {
	if m, ok := input.(TMixed); ok {
		if c.IsNonNull && !m.IsNonNull && m.Truthiness != Truthy {
			return false
		}
		return c.Truthiness == Undetermined || c.Truthiness == m.Truthiness
	}
	if c.IsNonNull && (input.Kind() == KindNull || input.Kind() == KindVoid) {
		return false
	}
	return c.Truthiness == Undetermined || AtomicTruthiness(input) == c.Truthiness
}

func stringContains(c TString, input Atomic) bool {
	var in TString
	switch i := input.(type) {
	case TString:
		in = i.normalised()
	case TClassLikeString:
		in = TString{IsTruthy: true, IsNonEmpty: true}
	default:
		return false
	}
	if v, ok := c.LiteralValue(); ok {
		iv, ok := in.LiteralValue()
		return ok && iv == v
	}
	c = c.normalised()
	if c.Literal == StrLiteralUnspecified && in.Literal == StrNotLiteral {
		return false
	}
	if c.IsNumeric && !in.IsNumeric {
		return false
	}
	if c.IsTruthy && AtomicTruthiness(in) != Truthy {
		return false
	}
	if c.IsNonEmpty && !in.IsNonEmpty {
		return false
	}
	if c.IsLowercase && !in.IsLowercase {
		return false
	}
	return true
}

func classStringContains(h Hierarchy, c TClassLikeString, input Atomic) bool {
	in, ok := input.(TClassLikeString)
	if !ok {
		return false
	}
	switch c.ClassKind {
	case ClassStringAny:
		return true
	case ClassStringOfType:
		return (in.ClassKind == ClassStringLiteral || in.ClassKind == ClassStringOfType) && h.IsSubtypeOf(in.Name, c.Name)
	case ClassStringGeneric:
		return in.ClassKind == ClassStringGeneric && in.ParameterName == c.ParameterName && in.DefiningEntity == c.DefiningEntity
	}
	return in.ClassKind == ClassStringLiteral && strings.EqualFold(in.Name, c.Name)
}

func listContains(h Hierarchy, c TList, input Atomic) bool {
	switch in := input.(type) {
	case TKeyedArray:
		return in.IsEmptyArray() && !c.NonEmpty && !c.HasDefiniteElement()
	case TList:
		if c.NonEmpty && AtomicTruthiness(in) != Truthy {
			return false
		}
		for idx, item := range c.KnownElements {
			inItem, ok := in.KnownElements[idx]
			if !ok {
				if !item.PossiblyUndefined || !IsContainedBy(h, in.elementType(), item.Type) {
					return false
				}
				continue
			}
			if inItem.PossiblyUndefined && !item.PossiblyUndefined {
				return false
			}
			if !IsContainedBy(h, inItem.Type, item.Type) {
				return false
			}
		}
		for idx, inItem := range in.KnownElements {
			if _, ok := c.KnownElements[idx]; !ok && !IsContainedBy(h, inItem.Type, c.elementType()) {
				return false
			}
		}
		return IsContainedBy(h, in.elementType(), c.elementType())
	}
	return false
}

func keyedContains(h Hierarchy, c TKeyedArray, input Atomic) bool {
	var in TKeyedArray
	switch i := input.(type) {
	case TKeyedArray:
		in = i
	case TList:
		in = ListAsKeyed(i)
	default:
		return false
	}
	if c.NonEmpty && AtomicTruthiness(in) != Truthy {
		return false
	}
	for key, item := range c.KnownItems {
		inItem, ok := in.KnownItems[key]
		if !ok {
			if !item.PossiblyUndefined {
				return false
			}
			continue
		}
		if inItem.PossiblyUndefined && !item.PossiblyUndefined {
			return false
		}
		if !IsContainedBy(h, inItem.Type, item.Type) {
			return false
		}
	}
	for key, inItem := range in.KnownItems {
		if _, ok := c.KnownItems[key]; ok {
			continue
		}
		if c.Parameters == nil {
			return false
		}
		if !IsContainedBy(h, NewUnion(key.Atomic()), c.Parameters.Key) || !IsContainedBy(h, inItem.Type, c.Parameters.Value) {
			return false
		}
	}
	if in.Parameters != nil {
		if c.Parameters == nil {
			return false
		}
		return IsContainedBy(h, in.Parameters.Key, c.Parameters.Key) && IsContainedBy(h, in.Parameters.Value, c.Parameters.Value)
	}
	return true
}

func namedObjectContains(h Hierarchy, c TNamedObject, input Atomic) bool {
	for _, extra := range c.IntersectionTypes {
		if !AtomicIsContainedBy(h, input, extra) {
			return false
		}
	}
	switch in := input.(type) {
	case TCallable:
		return in.IsClosure && strings.EqualFold(c.Name, "Closure")
	case TEnum:
		return h.IsSubtypeOf(in.Name, c.Name) || strings.EqualFold(c.Name, "UnitEnum")
	case TNamedObject:
		if !namedObjectIsSubtype(h, in, c.Name) {
			return false
		}
		if len(c.TypeParameters) == 0 || len(in.TypeParameters) != len(c.TypeParameters) {
			return true
		}
		for i, param := range c.TypeParameters {
			if !IsContainedBy(h, in.TypeParameters[i], param) {
				return false
			}
		}
		return true
	}
	return false
}

func namedObjectIsSubtype(h Hierarchy, in TNamedObject, ancestor string) bool {
	if h.IsSubtypeOf(in.Name, ancestor) {
		return true
	}
	for _, extra := range in.IntersectionTypes {
		if named, ok := extra.(TNamedObject); ok && h.IsSubtypeOf(named.Name, ancestor) {
			return true
		}
	}
	return false
}

// CanIntersect is true when some value could have both types a and b
func CanIntersect(h Hierarchy, a, b Atomic) bool {
	h = hierarchyOrDefault(h)
	if AtomicIsContainedBy(h, a, b) || AtomicIsContainedBy(h, b, a) {
		return true
	}
	if a.Kind() == KindMixed || b.Kind() == KindMixed || a.Kind() == KindVariable || b.Kind() == KindVariable {
		return true
	}
	if g, ok := a.(TGenericParameter); ok {
		return unionCanIntersect(h, g.constraint(), b)
	}
	if g, ok := b.(TGenericParameter); ok {
		return unionCanIntersect(h, g.constraint(), a)
	}
	an, aok := a.(TNamedObject)
	bn, bok := b.(TNamedObject)
	if aok && bok {
		// an interface may be implemented by any non-final class
		return (h.IsInterface(an.Name) && !h.IsFinal(bn.Name)) || (h.IsInterface(bn.Name) && !h.IsFinal(an.Name))
	}
	return false
}

func unionCanIntersect(h Hierarchy, u *Union, a Atomic) bool {
	for _, t := range u.types {
		if CanIntersect(h, t, a) {
			return true
		}
	}
	return false
}
