package reconciler

import (
	"strconv"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/types"
)

// refine narrows the existing type to an asserted type which no dedicated routine
// covers: literals, classes and shaped arrays. A loose equality keeps what compares
// equal after conversion.
func (c *call) refine() *types.Union {
	t, ok := c.assertion.GetType()
	if !ok {
		return c.existing
	}
	if c.assertion.Kind == assertion.IsEqual {
		return c.intersect(func(a types.Atomic) ([]types.Atomic, bool) { return c.looselyMatches(a, t) }, false)
	}
	return c.intersect(func(a types.Atomic) ([]types.Atomic, bool) {
		switch {
		case types.AtomicIsContainedBy(c.h, a, t):
			return keep(a)
		case types.AtomicIsContainedBy(c.h, t, a):
			return narrowTo(t)
		}
		switch a := a.(type) {
		case types.TMixed:
			return narrowTo(t)
		case types.TNamedObject:
			if _, named := t.(types.TNamedObject); named && types.CanIntersect(c.h, a, t) {
				return narrowTo(a.WithIntersection(t))
			}
		case types.TObjectAny:
			switch t.(type) {
			case types.TNamedObject, types.TEnum:
				return narrowTo(t)
			}
		}
		return drop()
	}, false)
}

// looselyMatches keeps the part of a which compares equal to the literal t with ==
func (c *call) looselyMatches(a, t types.Atomic) ([]types.Atomic, bool) {
	switch {
	case types.AtomicIsContainedBy(c.h, a, t):
		return keep(a)
	case types.AtomicIsContainedBy(c.h, t, a):
		return narrowTo(t)
	}
	number, isNumber := numericValue(t)
	switch a := a.(type) {
	case types.TMixed, types.TScalar, types.TArrayKey, types.TNumeric:
		return narrowTo(a)
	case types.TNull:
		if types.AtomicTruthiness(t) == types.Falsy {
			return narrowTo(a)
		}
	case types.TBool:
		want := types.AtomicTruthiness(t) == types.Truthy
		if a.IsGeneral() {
			return narrowTo(types.BoolLiteral(want))
		}
		if a.IsTrue() == want {
			return keep(a)
		}
	case types.TInteger:
		if isNumber && number == float64(int64(number)) && a.Contains(int64(number)) {
			return narrowTo(types.IntLit(int64(number)))
		}
	case types.TFloat:
		if isNumber && (!a.IsLiteral || a.Value == number) {
			return narrowTo(types.FloatLit(number))
		}
	case types.TString:
		if _, literal := a.LiteralValue(); literal {
			if own, ok := numericValue(a); ok && isNumber && own == number {
				return narrowTo(a)
			}
			return drop()
		}
		if isNumber {
			a.IsNumeric = true
			a.IsNonEmpty = true
			return narrowTo(a)
		}
	}
	return drop()
}

// numericValue is the number a literal converts to when compared loosely
func numericValue(t types.Atomic) (float64, bool) {
	switch t := t.(type) {
	case types.TInteger:
		if v, ok := t.LiteralValue(); ok {
			return float64(v), true
		}
	case types.TFloat:
		if t.IsLiteral {
			return t.Value, true
		}
	case types.TString:
		if v, ok := t.LiteralValue(); ok && types.IsNumericString(v) {
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
	}
	return 0, false
}
