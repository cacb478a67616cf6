package reconciler

import (
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/types"
)

// reconcileSimple handles the assertions which do not state a negation.
// handled is false for type assertions the dedicated routines do not cover,
// which are narrowed by refine instead.
func (c *call) reconcileSimple() (result *types.Union, handled bool) {
	a := c.assertion
	if t, ok := a.GetType(); ok {
		if c.existing.IsMixed() {
			// a mixed value is taken to be exactly what was asserted
			return types.NewUnion(t), true
		}
		return c.reconcileType(t)
	}

	switch a.Kind {
	case assertion.Truthy, assertion.NonEmpty:
		return c.intersect(c.narrowTruthy, c.possiblyUndefined), true
	case assertion.IsIsset, assertion.IsEqualIsset:
		return c.intersect(narrowIsset, c.possiblyUndefined), true
	case assertion.ArrayKeyExists:
		if c.existing.IsNever() {
			return types.GetMixed(), true
		}
		return c.existing.WithPossiblyUndefined(false), true
	case assertion.HasArrayKey:
		return c.intersect(c.narrowHasKey(false), false), true
	case assertion.HasNonnullEntryForKey:
		return c.intersect(c.narrowHasKey(true), false), true
	case assertion.InArray:
		return c.intersectInArray(), true
	case assertion.IsLessThan:
		return c.intersect(narrowIntRange(func(i types.TInteger) (types.TInteger, bool) { return i.ToLessThan(a.Value) }), false), true
	case assertion.IsGreaterThanOrEqual:
		return c.intersect(narrowIntRange(func(i types.TInteger) (types.TInteger, bool) { return i.ToGreaterThanOrEqual(a.Value) }), false), true
	case assertion.HasExactCount:
		return c.intersect(narrowExactCount(a.Value), false), true
	case assertion.Countable:
		return c.intersect(c.narrowCountable, false), true
	}
	return nil, false
}

// reconcileType dispatches a type assertion on the shape of the asserted type
func (c *call) reconcileType(t types.Atomic) (*types.Union, bool) {
	switch t := t.(type) {
	case types.TNull:
		return c.intersect(intersectNull, false), true
	case types.TResource:
		return c.intersect(intersectResource(t), false), true
	case types.TObjectAny:
		return c.intersect(c.intersectObject, false), true
	case types.TIterable:
		if t.IsMixedIterable() {
			return c.intersect(c.intersectIterable, false), true
		}
	case types.TList:
		if isPlaceholderList(t) {
			return c.intersect(intersectList(t), false), true
		}
	case types.TKeyedArray:
		if isPlaceholderArray(t) {
			return c.intersect(intersectArray(t), false), true
		}
	case types.TArrayKey:
		return c.intersect(intersectArrayKey, false), true
	case types.TNumeric:
		return c.intersect(intersectNumeric, false), true
	case types.TScalar:
		return c.intersect(intersectScalar, false), true
	case types.TString:
		if t.IsGeneral() {
			return c.intersect(intersectString, false), true
		}
	case types.TBool:
		return c.intersect(intersectBool(t), false), true
	case types.TFloat:
		if !t.IsLiteral {
			return c.intersect(intersectFloat, false), true
		}
	case types.TInteger:
		if _, literal := t.LiteralValue(); !literal {
			return c.intersect(intersectInt(t), false), true
		}
	case types.TCallable:
		if !t.IsClosure {
			return c.intersect(c.intersectCallable, false), true
		}
	}
	return nil, false
}

func isPlaceholderList(t types.TList) bool {
	return len(t.KnownElements) == 0 && !t.NonEmpty && !t.HasKnownCount && t.ElementType != nil && t.ElementType.IsVanillaMixed()
}

func isPlaceholderArray(t types.TKeyedArray) bool {
	return len(t.KnownItems) == 0 && !t.NonEmpty && t.Parameters != nil &&
		t.Parameters.Key.ID() == "array-key" && t.Parameters.Value.IsVanillaMixed()
}

func intersectNull(a types.Atomic) ([]types.Atomic, bool) {
	switch a.(type) {
	case types.TNull:
		return keep(a)
	case types.TMixed:
		return narrowTo(types.TNull{})
	}
	return drop()
}

func intersectResource(t types.TResource) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TResource:
			if t.State == types.ResourceAny || a.State == t.State {
				return keep(a)
			}
			if a.State == types.ResourceAny {
				return narrowTo(t)
			}
		case types.TMixed:
			return narrowTo(t)
		}
		return drop()
	}
}

func (c *call) intersectObject(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TObjectAny, types.TNamedObject, types.TEnum:
		return keep(a)
	case types.TCallable:
		if a.IsClosure {
			return keep(a)
		}
		return narrowTo(types.TCallable{IsClosure: true})
	case types.TIterable:
		return narrowTo(types.TNamedObject{Name: "Traversable", TypeParameters: []*types.Union{a.Key, a.Value}})
	case types.TMixed:
		return narrowTo(types.TObjectAny{})
	}
	return drop()
}

func (c *call) intersectIterable(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TList, types.TKeyedArray, types.TIterable:
		return keep(a)
	case types.TNamedObject:
		if c.h.IsSubtypeOf(a.Name, "Traversable") {
			return keep(a)
		}
		if !c.h.IsFinal(a.Name) {
			return narrowTo(a.WithIntersection(types.NamedObject("Traversable")))
		}
	case types.TObjectAny:
		return narrowTo(types.NamedObject("Traversable"))
	case types.TMixed:
		return narrowTo(types.TIterable{Key: types.GetMixed(), Value: types.GetMixed()})
	}
	return drop()
}

// callableArray is the shape of an array which may be called: [object-or-class, method]
func callableArray() types.TList {
	return types.TList{
		ElementType: types.GetNever(),
		KnownElements: map[int]types.KnownItem{
			0: {Type: types.NewUnion(types.TObjectAny{}, types.TString{IsNonEmpty: true})},
			1: {Type: types.GetNonEmptyString()},
		},
	}
}

func intersectArray(t types.TKeyedArray) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TList, types.TKeyedArray:
			return keep(a)
		case types.TIterable:
			key := a.Key
			if key.HasMixed() {
				key = types.GetArrayKey()
			}
			return narrowTo(types.ArrayOf(key, a.Value))
		case types.TCallable:
			if !a.IsClosure {
				return narrowTo(callableArray())
			}
		case types.TMixed:
			return narrowTo(t)
		}
		return drop()
	}
}

func intersectList(t types.TList) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TList:
			return keep(a)
		case types.TKeyedArray:
			if a.IsEmptyArray() {
				return keep(a)
			}
			return narrowTo(types.TList{ElementType: types.ArrayValueType(a), NonEmpty: a.NonEmpty || a.HasDefiniteItem()})
		case types.TIterable:
			return narrowTo(types.ListOf(a.Value))
		case types.TMixed:
			return narrowTo(t)
		}
		return drop()
	}
}

func intersectArrayKey(a types.Atomic) ([]types.Atomic, bool) {
	switch a.(type) {
	case types.TInteger, types.TString, types.TClassLikeString, types.TArrayKey:
		return keep(a)
	case types.TNumeric:
		return narrowTo(types.Int(), types.TString{IsNumeric: true})
	case types.TScalar, types.TMixed:
		return narrowTo(types.TArrayKey{})
	}
	return drop()
}

func intersectNumeric(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TInteger, types.TFloat, types.TNumeric:
		return keep(a)
	case types.TString:
		if v, ok := a.LiteralValue(); ok {
			if types.IsNumericString(v) {
				return keep(a)
			}
			return drop()
		}
		if a.IsNumeric {
			return keep(a)
		}
		a.IsNumeric = true
		a.IsNonEmpty = true
		return narrowTo(a)
	case types.TArrayKey:
		return narrowTo(types.Int(), types.TString{IsNumeric: true})
	case types.TScalar, types.TMixed:
		return narrowTo(types.TNumeric{})
	}
	return drop()
}

func intersectScalar(a types.Atomic) ([]types.Atomic, bool) {
	switch a.(type) {
	case types.TBool, types.TInteger, types.TFloat, types.TString, types.TClassLikeString,
		types.TNumeric, types.TArrayKey, types.TScalar:
		return keep(a)
	case types.TMixed:
		return narrowTo(types.TScalar{})
	}
	return drop()
}

func intersectString(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TString, types.TClassLikeString:
		return keep(a)
	case types.TNumeric:
		return narrowTo(types.TString{IsNumeric: true})
	case types.TCallable:
		if !a.IsClosure {
			return narrowTo(types.TString{IsNonEmpty: true})
		}
	case types.TArrayKey, types.TScalar, types.TMixed:
		return narrowTo(types.Str())
	}
	return drop()
}

// intersectBool keeps a literal bool only when it is the asserted value
func intersectBool(t types.TBool) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TBool:
			if a.IsGeneral() {
				if t.IsGeneral() {
					return keep(a)
				}
				return narrowTo(t)
			}
			if t.IsGeneral() || a.Value == t.Value {
				return keep(a)
			}
		case types.TScalar, types.TMixed:
			return narrowTo(t)
		}
		return drop()
	}
}

func intersectFloat(a types.Atomic) ([]types.Atomic, bool) {
	switch a.(type) {
	case types.TFloat:
		return keep(a)
	case types.TNumeric, types.TScalar, types.TMixed:
		return narrowTo(types.TFloat{})
	}
	return drop()
}

func intersectInt(t types.TInteger) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TInteger:
			if t.IsUnspecified() || t.ContainsRange(a) {
				return keep(a)
			}
			if narrowed, ok := a.Intersect(t); ok {
				return narrowTo(narrowed)
			}
		case types.TArrayKey, types.TNumeric, types.TScalar, types.TMixed:
			return narrowTo(t)
		}
		return drop()
	}
}

func (c *call) intersectCallable(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TCallable:
		return keep(a)
	case types.TString:
		if v, ok := a.LiteralValue(); ok && v == "" {
			return drop()
		}
		if a.IsGeneral() {
			return narrowTo(types.TString{IsNonEmpty: true})
		}
		return keep(a)
	case types.TList, types.TKeyedArray:
		if types.AtomicIsContainedBy(c.h, a, callableArray()) {
			return keep(a)
		}
		return narrowTo(callableArray())
	case types.TNamedObject:
		if a.Name == "Closure" {
			return narrowTo(types.TCallable{IsClosure: true})
		}
		if c.r.Codebase != nil {
			if _, _, ok := c.r.Codebase.GetMethod(a.Name, "__invoke"); ok {
				return keep(a)
			}
		}
	case types.TObjectAny:
		return narrowTo(types.TCallable{IsClosure: true})
	case types.TMixed:
		return narrowTo(types.TCallable{})
	}
	return drop()
}

// narrowTruthy removes the values which convert to false
func (c *call) narrowTruthy(a types.Atomic) ([]types.Atomic, bool) {
	switch types.AtomicTruthiness(a) {
	case types.Truthy:
		return keep(a)
	case types.Falsy:
		return drop()
	}
	switch a := a.(type) {
	case types.TBool:
		return narrowTo(types.BoolLiteral(true))
	case types.TInteger:
		if narrowed, nonEmpty, removed := a.Without(0); removed && nonEmpty {
			return narrowTo(narrowed)
		}
		return narrowTo(a)
	case types.TString:
		a.IsTruthy = true
		a.IsNonEmpty = true
		return narrowTo(a)
	case types.TMixed:
		return narrowTo(types.TMixed{Truthiness: types.Truthy, IsIssetFromLoop: a.IsIssetFromLoop})
	case types.TList:
		a.NonEmpty = true
		return narrowTo(a)
	case types.TKeyedArray:
		a.NonEmpty = true
		return narrowTo(a)
	}
	return narrowTo(a)
}

func narrowIsset(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TNull, types.TVoid:
		return drop()
	case types.TMixed:
		if a.IsNonNull || a.Truthiness == types.Truthy {
			return keep(a)
		}
		a.IsNonNull = true
		return narrowTo(a)
	}
	return keep(a)
}

// narrowHasKey makes key a definite entry of arrays which may have it, dropping those
// which cannot. With nonnull the entry must also not be null.
func (c *call) narrowHasKey(nonnull bool) narrowFunc {
	key := c.assertion.Key
	entry := func(item types.KnownItem) (types.KnownItem, bool, bool) {
		t := item.Type
		removed := item.PossiblyUndefined
		if nonnull && t.IsNullable() {
			t = t.Filter(func(a types.Atomic) bool { return a.Kind() != types.KindNull })
			removed = true
		}
		if nonnull && t.HasMixed() {
			narrowed, _ := c.narrowAll(t, narrowIsset)
			t = t.WithTypes(narrowed...)
		}
		return types.KnownItem{Type: t.WithPossiblyUndefined(false)}, !t.IsNever(), removed
	}
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TKeyedArray:
			item, known := a.KnownItems[key]
			if !known {
				if a.Parameters == nil || !keyMayBeIn(c.h, key, a.Parameters.Key) {
					return drop()
				}
				item = types.KnownItem{Type: a.Parameters.Value, PossiblyUndefined: true}
			}
			narrowed, ok, removed := entry(item)
			if !ok {
				return drop()
			}
			a = a.WithKnownItem(key, narrowed)
			a.NonEmpty = true
			return []types.Atomic{a}, removed || !known
		case types.TList:
			if key.IsString || key.Int < 0 {
				return drop()
			}
			idx := int(key.Int)
			item, known := a.KnownElements[idx]
			if !known {
				if a.IsSealed() {
					return drop()
				}
				item = types.KnownItem{Type: a.ElementType, PossiblyUndefined: true}
			}
			narrowed, ok, removed := entry(item)
			if !ok {
				return drop()
			}
			a = a.WithKnownElement(idx, narrowed)
			a.NonEmpty = true
			return []types.Atomic{a}, removed || !known
		case types.TNull, types.TVoid, types.TBool, types.TInteger, types.TFloat:
			return drop()
		case types.TMixed:
			return narrowTo(types.TMixed{IsNonNull: true})
		}
		// strings, ArrayAccess objects: the offset may exist
		return narrowTo(a)
	}
}

func keyMayBeIn(h types.Hierarchy, key types.ArrayKey, keyType *types.Union) bool {
	for t := range keyType.All() {
		if types.CanIntersect(h, key.Atomic(), t) {
			return true
		}
	}
	return false
}

// intersectInArray keeps the values of the haystack the existing type may hold
func (c *call) intersectInArray() *types.Union {
	values := c.assertion.Values
	if c.existing.HasMixed() {
		return values
	}
	var out []types.Atomic
	removed := false
	for v := range values.All() {
		for a := range c.existing.All() {
			switch {
			case types.AtomicIsContainedBy(c.h, v, a):
				out = append(out, v)
				removed = removed || v.ID() != a.ID()
			case types.AtomicIsContainedBy(c.h, a, v):
				out = append(out, a)
			default:
				continue
			}
			break
		}
	}
	for a := range c.existing.All() {
		if !types.IsContainedBy(c.h, types.NewUnion(a), values) {
			removed = true
		}
	}
	if len(out) == 0 {
		c.triggerIssueForImpossible(false)
		return types.GetNever()
	}
	if !removed {
		c.triggerIssueForImpossible(true)
	}
	return c.existing.WithTypes(types.Combine(out)...)
}

func narrowIntRange(restrict func(types.TInteger) (types.TInteger, bool)) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		i, ok := a.(types.TInteger)
		if !ok {
			// floats and numeric strings compare too, but are not narrowed
			return narrowTo(a)
		}
		narrowed, ok := restrict(i)
		if !ok {
			return drop()
		}
		if narrowed.ID() == i.ID() {
			return keep(a)
		}
		return narrowTo(narrowed)
	}
}

func narrowExactCount(n int64) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		if n < 0 {
			return drop()
		}
		switch a := a.(type) {
		case types.TList:
			if a.HasKnownCount {
				if int64(a.KnownCount) == n {
					return keep(a)
				}
				return drop()
			}
			if int64(requiredListLength(a)) > n {
				return drop()
			}
			if a.IsSealed() && int64(len(a.KnownElements)) < n {
				return drop()
			}
			a.HasKnownCount = true
			a.KnownCount = int(n)
			a.NonEmpty = n > 0
			return narrowTo(a)
		case types.TKeyedArray:
			if int64(definiteItems(a)) > n {
				return drop()
			}
			if a.Parameters == nil && int64(len(a.KnownItems)) < n {
				return drop()
			}
			if n > 0 {
				a.NonEmpty = true
			}
			return narrowTo(a)
		}
		return narrowTo(a)
	}
}

// requiredListLength is the least count l can have: one past its last definite element
func requiredListLength(l types.TList) int {
	length := 0
	for i, item := range l.KnownElements {
		if !item.PossiblyUndefined && i+1 > length {
			length = i + 1
		}
	}
	return length
}

func definiteItems(a types.TKeyedArray) int {
	count := 0
	for _, item := range a.KnownItems {
		if !item.PossiblyUndefined {
			count++
		}
	}
	return count
}

func (c *call) isCountableObject(name string) bool {
	return c.h.IsSubtypeOf(name, "Countable")
}

func (c *call) narrowCountable(a types.Atomic) ([]types.Atomic, bool) {
	countable := types.NamedObject("Countable")
	switch a := a.(type) {
	case types.TList, types.TKeyedArray:
		return keep(a)
	case types.TNamedObject:
		if c.isCountableObject(a.Name) {
			return keep(a)
		}
		if !c.h.IsFinal(a.Name) {
			return narrowTo(a.WithIntersection(countable))
		}
	case types.TObjectAny:
		return narrowTo(countable)
	case types.TIterable:
		traversable := types.TNamedObject{Name: "Traversable", TypeParameters: []*types.Union{a.Key, a.Value}}
		return narrowTo(types.ArrayOf(types.GetArrayKey(), a.Value), traversable.WithIntersection(countable))
	case types.TMixed:
		return narrowTo(types.ArrayOf(types.GetArrayKey(), types.GetMixed()), countable)
	}
	return drop()
}
