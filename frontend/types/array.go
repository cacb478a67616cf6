package types

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ArrayKey is a key known to exist (or possibly exist) in an array shape
type ArrayKey struct {
	IsString bool
	Int      int64
	Str      string
}

func IntKey(i int64) ArrayKey  { return ArrayKey{Int: i} }
func StrKey(s string) ArrayKey { return ArrayKey{IsString: true, Str: s} }

func (k ArrayKey) String() string {
	if k.IsString {
		return "'" + k.Str + "'"
	}
	return strconv.FormatInt(k.Int, 10)
}

// Atomic returns the literal type of the key itself
func (k ArrayKey) Atomic() Atomic {
	if k.IsString {
		return StringLit(k.Str)
	}
	return IntLit(k.Int)
}

// CompareArrayKeys orders int keys before string keys, each by value
func CompareArrayKeys(a, b ArrayKey) int {
	if a.IsString != b.IsString {
		if a.IsString {
			return 1
		}
		return -1
	}
	if a.IsString {
		return cmp.Compare(a.Str, b.Str)
	}
	return cmp.Compare(a.Int, b.Int)
}

// KnownItem is the type of an entry in an array shape
type KnownItem struct {
	PossiblyUndefined bool
	Type              *Union
}

func (i KnownItem) String() string {
	return i.Type.ID()
}

// TList is a list: an array with keys 0..n-1 in order.
// ElementType is never for lists whose every element is in KnownElements.
type TList struct {
	ElementType   *Union
	KnownElements map[int]KnownItem
	HasKnownCount bool
	KnownCount    int
	NonEmpty      bool
}

// ListOf is list<elem>
func ListOf(elem *Union) TList {
	return TList{ElementType: elem}
}

func (t TList) elementType() *Union {
	if t.ElementType == nil {
		return NewUnion(TNever{})
	}
	return t.ElementType
}

// SortedKnownElements returns the indices of known elements in ascending order
func (t TList) SortedKnownElements() []int {
	return slices.Sorted(maps.Keys(t.KnownElements))
}

// WithKnownElement returns a copy of t with index i set to item
func (t TList) WithKnownElement(i int, item KnownItem) TList {
	elements := make(map[int]KnownItem, len(t.KnownElements)+1)
	maps.Copy(elements, t.KnownElements)
	elements[i] = item
	t.KnownElements = elements
	return t
}

// HasDefiniteElement is true when some known element is always present
func (t TList) HasDefiniteElement() bool {
	for _, item := range t.KnownElements {
		if !item.PossiblyUndefined {
			return true
		}
	}
	return false
}

// IsSealed is true when the list has no elements beyond the known ones
func (t TList) IsSealed() bool {
	return t.elementType().IsNever()
}

func (t TList) ID() string {
	var sb strings.Builder
	elem := t.elementType()
	if len(t.KnownElements) > 0 {
		sb.WriteString("list{")
		for i, idx := range t.SortedKnownElements() {
			if i > 0 {
				sb.WriteString(", ")
			}
			item := t.KnownElements[idx]
			sb.WriteString(strconv.Itoa(idx))
			if item.PossiblyUndefined {
				sb.WriteString("?")
			}
			sb.WriteString(": ")
			sb.WriteString(item.Type.ID())
		}
		if !elem.IsNever() {
			sb.WriteString(", ...<" + elem.ID() + ">")
		}
		sb.WriteString("}")
	} else {
		if t.NonEmpty {
			sb.WriteString("non-empty-")
		}
		sb.WriteString("list<" + elem.ID() + ">")
	}
	if t.HasKnownCount {
		sb.WriteString("(" + strconv.Itoa(t.KnownCount) + ")")
	}
	return sb.String()
}
func (t TList) String() string { return t.ID() }
func (t TList) Hash() uint64   { return hashID(t.ID()) }
func (TList) Kind() Kind       { return KindList }

// KeyedParameters are the generic key and value types of an unsealed array
type KeyedParameters struct {
	Key   *Union
	Value *Union
}

// TKeyedArray is an array shape and/or generic array<K, V>.
// With no known items and nil Parameters it is the empty array.
type TKeyedArray struct {
	KnownItems map[ArrayKey]KnownItem
	Parameters *KeyedParameters
	NonEmpty   bool
}

// ArrayOf is array<key, value>
func ArrayOf(key, value *Union) TKeyedArray {
	return TKeyedArray{Parameters: &KeyedParameters{Key: key, Value: value}}
}

// EmptyArray is array<never, never>
func EmptyArray() TKeyedArray {
	return TKeyedArray{}
}

func (t TKeyedArray) IsEmptyArray() bool {
	return len(t.KnownItems) == 0 && t.Parameters == nil
}

// SortedKnownKeys returns the keys of known items, ordered with CompareArrayKeys
func (t TKeyedArray) SortedKnownKeys() []ArrayKey {
	keys := slices.Collect(maps.Keys(t.KnownItems))
	slices.SortFunc(keys, CompareArrayKeys)
	return keys
}

// WithKnownItem returns a copy of t with key set to item
func (t TKeyedArray) WithKnownItem(key ArrayKey, item KnownItem) TKeyedArray {
	items := make(map[ArrayKey]KnownItem, len(t.KnownItems)+1)
	maps.Copy(items, t.KnownItems)
	items[key] = item
	t.KnownItems = items
	return t
}

// WithoutKnownItem returns a copy of t without key
func (t TKeyedArray) WithoutKnownItem(key ArrayKey) TKeyedArray {
	items := make(map[ArrayKey]KnownItem, len(t.KnownItems))
	maps.Copy(items, t.KnownItems)
	delete(items, key)
	t.KnownItems = items
	return t
}

func (t TKeyedArray) HasDefiniteItem() bool {
	for _, item := range t.KnownItems {
		if !item.PossiblyUndefined {
			return true
		}
	}
	return false
}

func (t TKeyedArray) ID() string {
	var sb strings.Builder
	if len(t.KnownItems) > 0 {
		sb.WriteString("array{")
		for i, key := range t.SortedKnownKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			item := t.KnownItems[key]
			sb.WriteString(key.String())
			if item.PossiblyUndefined {
				sb.WriteString("?")
			}
			sb.WriteString(": ")
			sb.WriteString(item.Type.ID())
		}
		if t.Parameters != nil {
			sb.WriteString(", ...<" + t.Parameters.Key.ID() + ", " + t.Parameters.Value.ID() + ">")
		}
		sb.WriteString("}")
		return sb.String()
	}
	if t.Parameters == nil {
		return "array<never, never>"
	}
	if t.NonEmpty {
		sb.WriteString("non-empty-")
	}
	sb.WriteString("array<" + t.Parameters.Key.ID() + ", " + t.Parameters.Value.ID() + ">")
	return sb.String()
}
func (t TKeyedArray) String() string { return t.ID() }
func (t TKeyedArray) Hash() uint64   { return hashID(t.ID()) }
func (TKeyedArray) Kind() Kind       { return KindKeyedArray }

// ListAsKeyed converts a list into the equivalent keyed array
func ListAsKeyed(l TList) TKeyedArray {
	out := TKeyedArray{NonEmpty: l.NonEmpty}
	if len(l.KnownElements) > 0 {
		out.KnownItems = make(map[ArrayKey]KnownItem, len(l.KnownElements))
		for idx, item := range l.KnownElements {
			out.KnownItems[IntKey(int64(idx))] = item
		}
	}
	if !l.IsSealed() {
		out.Parameters = &KeyedParameters{Key: NewUnion(IntFrom(0)), Value: l.elementType()}
	}
	return out
}

// ArrayValueType is the union of every value an array atomic may hold, never for non-arrays
func ArrayValueType(a Atomic) *Union {
	switch a := a.(type) {
	case TList:
		value := a.elementType()
		for _, idx := range a.SortedKnownElements() {
			value = CombineUnionTypes(value, a.KnownElements[idx].Type)
		}
		return value
	case TKeyedArray:
		value := NewUnion(TNever{})
		if a.Parameters != nil {
			value = a.Parameters.Value
		}
		for _, key := range a.SortedKnownKeys() {
			value = CombineUnionTypes(value, a.KnownItems[key].Type)
		}
		return value
	case TIterable:
		return a.Value
	}
	return NewUnion(TNever{})
}

// ArrayKeyType is the union of every key an array atomic may have
func ArrayKeyType(a Atomic) *Union {
	switch a := a.(type) {
	case TList:
		return NewUnion(IntFrom(0))
	case TKeyedArray:
		key := NewUnion(TNever{})
		if a.Parameters != nil {
			key = a.Parameters.Key
		}
		for _, k := range a.SortedKnownKeys() {
			key = CombineUnionTypes(key, NewUnion(k.Atomic()))
		}
		return key
	case TIterable:
		return a.Key
	}
	return NewUnion(TNever{})
}
