package types

import (
	"slices"
	"strings"
)

// LiteralThreshold is the number of distinct literal strings or ints a union keeps
// before they are collapsed into the general type
const LiteralThreshold = 128

// Combine merges atomics into the smallest equivalent list: duplicates are removed,
// specific types are absorbed by general ones that cover them, and adjacent
// shapes (int ranges, array shapes, true and false) are joined.
// The result follows the order in which types first appeared and is never empty.
func Combine(atomics []Atomic) []Atomic {
	if mixed, ok := combineMixed(atomics); ok {
		return []Atomic{mixed}
	}
	out := make([]Atomic, 0, len(atomics))
	for _, a := range atomics {
		if a == nil || a.Kind() == KindNever {
			continue
		}
		out = insertMerging(out, a, len(out))
	}
	out = collapseLiterals(out)
	if len(out) == 0 {
		return []Atomic{TNever{}}
	}
	return out
}

// insertMerging adds a to out, merging it with the first existing atomic it can be merged with.
// A merged atomic is re-inserted at the position of the atomic it replaced, since it may now
// absorb further atomics of out.
func insertMerging(out []Atomic, a Atomic, at int) []Atomic {
	for i, existing := range out {
		merged, ok := mergeAtomics(existing, a)
		if !ok {
			continue
		}
		if merged.ID() == existing.ID() {
			return out
		}
		rest := slices.Delete(slices.Clone(out), i, i+1)
		return insertMerging(rest, merged, min(i, at))
	}
	return slices.Insert(out, min(at, len(out)), a)
}

// combineMixed folds everything into a single mixed when one is present
func combineMixed(atomics []Atomic) (Atomic, bool) {
	var result TMixed
	found := false
	allNonNull := true
	truthiness := Undetermined
	first := true
	for _, a := range atomics {
		if a == nil || a.Kind() == KindNever {
			continue
		}
		t := AtomicTruthiness(a)
		if first {
			truthiness = t
			first = false
		} else if truthiness != t {
			truthiness = Undetermined
		}
		switch a := a.(type) {
		case TMixed:
			found = true
			allNonNull = allNonNull && (a.IsNonNull || a.Truthiness == Truthy)
			result.IsIssetFromLoop = result.IsIssetFromLoop || a.IsIssetFromLoop
		case TNull, TVoid:
			allNonNull = false
		}
	}
	if !found {
		return nil, false
	}
	result.Truthiness = truthiness
	result.IsNonNull = allNonNull && truthiness != Truthy
	return result, true
}

// mergeAtomics returns the single atomic covering both a and b, if there is one
func mergeAtomics(a, b Atomic) (Atomic, bool) {
	if a.ID() == b.ID() {
		return a, true
	}
	if merged, ok := absorb(a, b); ok {
		return merged, true
	}
	if _, ok := absorb(b, a); ok {
		return b, true
	}

	switch a := a.(type) {
	case TBool:
		if _, ok := b.(TBool); ok {
			return TBool{}, true
		}
	case TInteger:
		if bi, ok := b.(TInteger); ok {
			return mergeInts(a, bi)
		}
	case TString:
		switch bs := b.(type) {
		case TString:
			return mergeStrings(a, bs)
		case TClassLikeString:
			if a.Literal != StrLiteralValue {
				return intersectStringFlags(a, TString{IsTruthy: true, IsNonEmpty: true}), true
			}
		}
	case TClassLikeString:
		if bs, ok := b.(TString); ok && bs.Literal != StrLiteralValue {
			return intersectStringFlags(bs, TString{IsTruthy: true, IsNonEmpty: true}), true
		}
	case TList:
		switch bl := b.(type) {
		case TList:
			return mergeLists(a, bl), true
		case TKeyedArray:
			if bl.IsEmptyArray() {
				return possiblyEmptyList(a), true
			}
			return mergeKeyed(ListAsKeyed(a), bl), true
		}
	case TKeyedArray:
		switch bk := b.(type) {
		case TKeyedArray:
			return mergeKeyed(a, bk), true
		case TList:
			if a.IsEmptyArray() {
				return possiblyEmptyList(bk), true
			}
			return mergeKeyed(a, ListAsKeyed(bk)), true
		}
	case TNamedObject:
		if bo, ok := b.(TNamedObject); ok && strings.EqualFold(a.Name, bo.Name) &&
			len(a.TypeParameters) == len(bo.TypeParameters) && len(a.IntersectionTypes) == 0 && len(bo.IntersectionTypes) == 0 {
			params := make([]*Union, len(a.TypeParameters))
			for i := range params {
				params[i] = CombineUnionTypes(a.TypeParameters[i], bo.TypeParameters[i])
			}
			a.TypeParameters = params
			a.IsThis = a.IsThis && bo.IsThis
			return a, true
		}
	case TEnum:
		if be, ok := b.(TEnum); ok && strings.EqualFold(a.Name, be.Name) && (a.Case == "" || be.Case == "") {
			return TEnum{Name: a.Name}, true
		}
	case TResource:
		if _, ok := b.(TResource); ok {
			return TResource{}, true
		}
	case TIterable:
		if bi, ok := b.(TIterable); ok {
			return TIterable{Key: CombineUnionTypes(a.Key, bi.Key), Value: CombineUnionTypes(a.Value, bi.Value)}, true
		}
	case TGenericParameter:
		if bg, ok := b.(TGenericParameter); ok && a.SameParameter(bg) {
			return a.WithConstraint(CombineUnionTypes(a.constraint(), bg.constraint())), true
		}
	}
	return nil, false
}

// absorb returns general when it covers every value of specific without losing information
func absorb(general, specific Atomic) (Atomic, bool) {
	switch g := general.(type) {
	case TScalar:
		switch specific.(type) {
		case TBool, TInteger, TFloat, TString, TClassLikeString, TNumeric, TArrayKey:
			return g, true
		}
	case TArrayKey:
		switch specific.(type) {
		case TInteger, TString, TClassLikeString:
			return g, true
		}
	case TNumeric:
		switch s := specific.(type) {
		case TInteger, TFloat:
			return g, true
		case TString:
			if s.IsNumeric {
				return g, true
			}
		}
	case TInteger:
		if s, ok := specific.(TInteger); ok && (g.IsUnspecified() || g.ContainsRange(s)) {
			return g, true
		}
	case TFloat:
		if _, ok := specific.(TFloat); ok && !g.IsLiteral {
			return g, true
		}
	case TString:
		if g.Literal != StrLiteralValue && stringContains(g, specific) {
			return g, true
		}
	case TClassLikeString:
		if g.ClassKind == ClassStringAny {
			if _, ok := specific.(TClassLikeString); ok {
				return g, true
			}
		}
	case TObjectAny:
		switch s := specific.(type) {
		case TNamedObject, TEnum:
			return g, true
		case TCallable:
			if s.IsClosure {
				return g, true
			}
		}
	case TCallable:
		if s, ok := specific.(TCallable); ok && !g.IsClosure && s.IsClosure {
			return g, true
		}
	case TVoid:
		if specific.Kind() == KindNull {
			return TNull{}, true
		}
	case TNull:
		if specific.Kind() == KindVoid {
			return g, true
		}
	}
	return nil, false
}

func mergeInts(a, b TInteger) (Atomic, bool) {
	_, aLit := a.LiteralValue()
	_, bLit := b.LiteralValue()
	if aLit && bLit {
		return nil, false
	}
	// a literal only joins a range it is adjacent to
	if aLit || bLit {
		lo := min(a.minOrInf(), b.minOrInf())
		hi := max(a.maxOrInf(), b.maxOrInf())
		if overflowAdd(a.maxOrInf(), 1) < b.minOrInf() || overflowAdd(b.maxOrInf(), 1) < a.minOrInf() {
			return nil, false
		}
		r, _ := intBetween(lo, lo != minInt, hi, hi != maxInt)
		return r, true
	}
	return a.Hull(b), true
}

func overflowAdd(v, d int64) int64 {
	if v == maxInt {
		return v
	}
	return v + d
}

func mergeStrings(a, b TString) (Atomic, bool) {
	_, aLit := a.LiteralValue()
	_, bLit := b.LiteralValue()
	if aLit && bLit {
		return nil, false
	}
	return intersectStringFlags(a, b), true
}

// intersectStringFlags is the most specific string type both a and b are part of
func intersectStringFlags(a, b TString) TString {
	a, b = a.normalised(), b.normalised()
	literal := StrNotLiteral
	if a.Literal != StrNotLiteral && b.Literal != StrNotLiteral {
		literal = StrLiteralUnspecified
	}
	return TString{
		Literal:     literal,
		IsNumeric:   a.IsNumeric && b.IsNumeric,
		IsTruthy:    AtomicTruthiness(a) == Truthy && AtomicTruthiness(b) == Truthy,
		IsNonEmpty:  a.IsNonEmpty && b.IsNonEmpty,
		IsLowercase: a.IsLowercase && b.IsLowercase,
	}
}

func possiblyEmptyList(l TList) TList {
	l.NonEmpty = false
	l.HasKnownCount = false
	if len(l.KnownElements) > 0 {
		elements := make(map[int]KnownItem, len(l.KnownElements))
		for idx, item := range l.KnownElements {
			elements[idx] = KnownItem{PossiblyUndefined: true, Type: item.Type}
		}
		l.KnownElements = elements
	}
	return l
}

func mergeLists(a, b TList) TList {
	out := TList{
		ElementType:   CombineUnionTypes(a.elementType(), b.elementType()),
		NonEmpty:      AtomicTruthiness(a) == Truthy && AtomicTruthiness(b) == Truthy,
		HasKnownCount: a.HasKnownCount && b.HasKnownCount && a.KnownCount == b.KnownCount,
		KnownCount:    a.KnownCount,
	}
	if len(a.KnownElements) > 0 || len(b.KnownElements) > 0 {
		out.KnownElements = make(map[int]KnownItem)
		for idx, item := range a.KnownElements {
			if other, ok := b.KnownElements[idx]; ok {
				out.KnownElements[idx] = KnownItem{
					PossiblyUndefined: item.PossiblyUndefined || other.PossiblyUndefined,
					Type:              CombineUnionTypes(item.Type, other.Type),
				}
				continue
			}
			out.KnownElements[idx] = KnownItem{PossiblyUndefined: true, Type: CombineUnionTypes(item.Type, b.elementType())}
		}
		for idx, item := range b.KnownElements {
			if _, ok := a.KnownElements[idx]; !ok {
				out.KnownElements[idx] = KnownItem{PossiblyUndefined: true, Type: CombineUnionTypes(item.Type, a.elementType())}
			}
		}
	}
	return out
}

func mergeKeyed(a, b TKeyedArray) TKeyedArray {
	out := TKeyedArray{
		NonEmpty: AtomicTruthiness(a) == Truthy && AtomicTruthiness(b) == Truthy,
	}
	switch {
	case a.Parameters != nil && b.Parameters != nil:
		out.Parameters = &KeyedParameters{
			Key:   CombineUnionTypes(a.Parameters.Key, b.Parameters.Key),
			Value: CombineUnionTypes(a.Parameters.Value, b.Parameters.Value),
		}
	case a.Parameters != nil:
		out.Parameters = a.Parameters
	case b.Parameters != nil:
		out.Parameters = b.Parameters
	}
	if len(a.KnownItems) > 0 || len(b.KnownItems) > 0 {
		out.KnownItems = make(map[ArrayKey]KnownItem)
		for key, item := range a.KnownItems {
			if other, ok := b.KnownItems[key]; ok {
				out.KnownItems[key] = KnownItem{
					PossiblyUndefined: item.PossiblyUndefined || other.PossiblyUndefined,
					Type:              CombineUnionTypes(item.Type, other.Type),
				}
				continue
			}
			out.KnownItems[key] = KnownItem{PossiblyUndefined: true, Type: item.Type}
		}
		for key, item := range b.KnownItems {
			if _, ok := a.KnownItems[key]; !ok {
				out.KnownItems[key] = KnownItem{PossiblyUndefined: true, Type: CombineUnionTypes(item.Type, valueOrNever(a.Parameters))}
			}
		}
	}
	return out
}

func valueOrNever(p *KeyedParameters) *Union {
	if p == nil {
		return GetNever()
	}
	return p.Value
}

// collapseLiterals replaces literal strings and ints with their general type
// once there are more than LiteralThreshold of them
func collapseLiterals(out []Atomic) []Atomic {
	var strs, ints int
	for _, a := range out {
		if s, ok := a.(TString); ok && s.Literal == StrLiteralValue {
			strs++
		}
		if i, ok := a.(TInteger); ok && i.IntKind() == IntKindLiteral {
			ints++
		}
	}
	if strs <= LiteralThreshold && ints <= LiteralThreshold {
		return out
	}
	collapsed := make([]Atomic, 0, len(out))
	var general []Atomic
	for _, a := range out {
		switch t := a.(type) {
		case TString:
			if t.Literal == StrLiteralValue && strs > LiteralThreshold {
				general = append(general, TString{Literal: StrLiteralUnspecified, IsNonEmpty: t.IsNonEmpty, IsLowercase: t.IsLowercase})
				continue
			}
		case TInteger:
			if t.IntKind() == IntKindLiteral && ints > LiteralThreshold {
				general = append(general, Int())
				continue
			}
		}
		collapsed = append(collapsed, a)
	}
	for _, g := range general {
		collapsed = insertMerging(collapsed, g, len(collapsed))
	}
	return collapsed
}

// CombineUnionTypes is the union of a and b, with the flags of either
func CombineUnionTypes(a, b *Union) *Union {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a == b:
		return a
	}
	combined := NewUnion(Combine(append(slices.Clone(a.types), b.types...))...)
	combined.PossiblyUndefined = a.PossiblyUndefined || b.PossiblyUndefined
	combined.PossiblyUndefinedFromTry = a.PossiblyUndefinedFromTry || b.PossiblyUndefinedFromTry
	combined.HadTemplate = a.HadTemplate || b.HadTemplate
	combined.IgnoreFalsableIssues = a.IgnoreFalsableIssues || b.IgnoreFalsableIssues
	combined.FromTemplateDefault = a.FromTemplateDefault && b.FromTemplateDefault
	combined.ByReference = a.ByReference || b.ByReference
	return combined
}

// CombineUnions folds CombineUnionTypes over unions, returning never for none
func CombineUnions(unions ...*Union) *Union {
	var out *Union
	for _, u := range unions {
		out = CombineUnionTypes(out, u)
	}
	if out == nil {
		return GetNever()
	}
	return out
}
