package reconciler

import (
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/types"
)

// reconcileNegated handles the assertions stating what a value is not
func (c *call) reconcileNegated() *types.Union {
	a := c.assertion
	switch a.Kind {
	case assertion.IsNotType, assertion.IsNotEqual:
		if c.existing.IsMixed() {
			if _, isNull := a.Type.(types.TNull); isNull {
				return c.intersect(c.subtract(a.Type), false)
			}
			return c.existing
		}
		return c.intersect(c.subtract(a.Type), false)
	case assertion.Falsy, assertion.Empty:
		if c.possiblyUndefined {
			// an undefined variable is falsy whatever else it could be
			if out, _ := c.narrowAll(c.existing, c.narrowFalsy); len(out) == 0 {
				return types.GetNull().WithPossiblyUndefined(true)
			}
		}
		return c.intersect(c.narrowFalsy, c.possiblyUndefined)
	case assertion.IsNotIsset:
		return c.reconcileNotIsset()
	case assertion.ArrayKeyDoesNotExist:
		if !c.possiblyUndefined && !c.existing.HasMixed() {
			c.triggerIssueForImpossible(false)
			return types.GetNever()
		}
		return types.GetNull().WithPossiblyUndefined(true)
	case assertion.DoesNotHaveArrayKey:
		return c.intersect(c.narrowWithoutKey(false), false)
	case assertion.DoesNotHaveNonnullEntryForKey:
		return c.intersect(c.narrowWithoutKey(true), false)
	case assertion.NotInArray:
		return c.subtractValues(a.Values)
	case assertion.NotCountable:
		return c.intersect(c.narrowNotCountable, false)
	case assertion.DoesNotHaveExactCount:
		return c.intersect(narrowNotExactCount(a.Value), false)
	}
	return c.existing
}

// subtract removes the values of t from an atomic, where the result can express it
func (c *call) subtract(t types.Atomic) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		if types.AtomicIsContainedBy(c.h, a, t) {
			return drop()
		}
		switch a := a.(type) {
		case types.TMixed:
			if _, isNull := t.(types.TNull); isNull && !a.IsNonNull {
				a.IsNonNull = true
				return narrowTo(a)
			}
		case types.TBool:
			if tb, ok := t.(types.TBool); ok && a.IsGeneral() && !tb.IsGeneral() {
				return narrowTo(types.BoolLiteral(!tb.IsTrue()))
			}
		case types.TInteger:
			if ti, ok := t.(types.TInteger); ok {
				if v, literal := ti.LiteralValue(); literal && a.Contains(v) {
					narrowed, nonEmpty, removed := a.Without(v)
					switch {
					case !removed:
						return narrowTo(a)
					case !nonEmpty:
						return drop()
					}
					return narrowTo(narrowed)
				}
			}
		case types.TEnum:
			if te, ok := t.(types.TEnum); ok && a.Case == "" && te.Case != "" && te.Name == a.Name && c.r.Codebase != nil {
				var rest []types.Atomic
				for _, name := range c.r.Codebase.EnumCases(a.Name) {
					if name != te.Case {
						rest = append(rest, types.TEnum{Name: a.Name, Case: name})
					}
				}
				return narrowTo(rest...)
			}
		case types.TArrayKey:
			switch tt := t.(type) {
			case types.TInteger:
				if tt.IsUnspecified() {
					return narrowTo(types.Str())
				}
			case types.TString:
				if tt.IsGeneral() {
					return narrowTo(types.Int())
				}
			}
		case types.TScalar:
			if tb, ok := t.(types.TBool); ok && tb.IsGeneral() {
				return narrowTo(types.Int(), types.TFloat{}, types.Str())
			}
		}
		if types.CanIntersect(c.h, a, t) {
			return narrowTo(a)
		}
		return keep(a)
	}
}

// subtractValues removes every literal of values from the existing type
func (c *call) subtractValues(values *types.Union) *types.Union {
	return c.intersect(func(a types.Atomic) ([]types.Atomic, bool) {
		current := []types.Atomic{a}
		removed := false
		for v := range values.All() {
			if !types.IsLiteralAtomic(v) {
				continue
			}
			var next []types.Atomic
			for _, x := range current {
				narrowed, r := c.subtract(v)(x)
				removed = removed || r
				next = append(next, narrowed...)
			}
			current = next
		}
		return current, removed
	}, false)
}

// narrowFalsy keeps the values which convert to false
func (c *call) narrowFalsy(a types.Atomic) ([]types.Atomic, bool) {
	switch types.AtomicTruthiness(a) {
	case types.Falsy:
		return keep(a)
	case types.Truthy:
		return drop()
	}
	zero := types.IntLit(0)
	empty, zeroString := types.StringLit(""), types.StringLit("0")
	switch a := a.(type) {
	case types.TBool:
		return narrowTo(types.BoolLiteral(false))
	case types.TInteger:
		return narrowTo(zero)
	case types.TFloat:
		return narrowTo(types.FloatLit(0))
	case types.TString:
		if a.IsNumeric || a.IsNonEmpty {
			return narrowTo(zeroString)
		}
		return narrowTo(empty, zeroString)
	case types.TMixed:
		return narrowTo(types.TMixed{Truthiness: types.Falsy, IsNonNull: a.IsNonNull})
	case types.TList, types.TKeyedArray, types.TIterable:
		return narrowTo(types.EmptyArray())
	case types.TArrayKey:
		return narrowTo(zero, empty, zeroString)
	case types.TNumeric:
		return narrowTo(zero, types.FloatLit(0), zeroString)
	case types.TScalar:
		return narrowTo(types.BoolLiteral(false), zero, types.FloatLit(0), empty, zeroString)
	}
	return narrowTo(a)
}

func (c *call) reconcileNotIsset() *types.Union {
	if !c.existing.IsNullable() && !c.existing.HasMixed() && !c.possiblyUndefined {
		c.triggerIssueForImpossible(false)
		return types.GetNever()
	}
	if c.existing.IsNull() && !c.possiblyUndefined {
		c.triggerIssueForImpossible(true)
	}
	return types.GetNull().WithPossiblyUndefined(c.possiblyUndefined)
}

// narrowWithoutKey drops arrays which always have key, and forgets key on those which
// only may. With nonnull an entry which may be null is kept as null.
func (c *call) narrowWithoutKey(nonnull bool) narrowFunc {
	key := c.assertion.Key
	nullOnly := func(item types.KnownItem) (types.KnownItem, bool) {
		if item.Type.HasMixed() {
			return types.KnownItem{Type: types.GetNull(), PossiblyUndefined: item.PossiblyUndefined}, true
		}
		if item.Type.IsNullable() {
			return types.KnownItem{Type: types.GetNull(), PossiblyUndefined: item.PossiblyUndefined}, true
		}
		return item, item.PossiblyUndefined
	}
	return func(a types.Atomic) ([]types.Atomic, bool) {
		switch a := a.(type) {
		case types.TKeyedArray:
			item, known := a.KnownItems[key]
			if !known {
				if a.Parameters != nil && keyMayBeIn(c.h, key, a.Parameters.Key) {
					return narrowTo(a)
				}
				return keep(a)
			}
			if nonnull {
				narrowed, mayLack := nullOnly(item)
				if !mayLack {
					return drop()
				}
				return narrowTo(a.WithKnownItem(key, narrowed))
			}
			if item.PossiblyUndefined {
				return narrowTo(a.WithoutKnownItem(key))
			}
			return drop()
		case types.TList:
			if key.IsString || key.Int < 0 {
				return keep(a)
			}
			item, known := a.KnownElements[int(key.Int)]
			if !known {
				if a.IsSealed() {
					return keep(a)
				}
				return narrowTo(a)
			}
			if nonnull {
				narrowed, mayLack := nullOnly(item)
				if !mayLack {
					return drop()
				}
				return narrowTo(a.WithKnownElement(int(key.Int), narrowed))
			}
			if item.PossiblyUndefined {
				return narrowTo(a)
			}
			return drop()
		}
		return narrowTo(a)
	}
}

func (c *call) narrowNotCountable(a types.Atomic) ([]types.Atomic, bool) {
	switch a := a.(type) {
	case types.TList, types.TKeyedArray:
		return drop()
	case types.TNamedObject:
		if c.isCountableObject(a.Name) {
			return drop()
		}
		if !c.h.IsFinal(a.Name) {
			return narrowTo(a)
		}
	case types.TMixed, types.TObjectAny, types.TIterable:
		return narrowTo(a)
	}
	return keep(a)
}

func narrowNotExactCount(n int64) narrowFunc {
	return func(a types.Atomic) ([]types.Atomic, bool) {
		if l, ok := a.(types.TList); ok && l.HasKnownCount && int64(l.KnownCount) == n {
			return drop()
		}
		return narrowTo(a)
	}
}
