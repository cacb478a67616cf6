package types

// AtomicTruthiness is how a value of type a behaves when converted to bool
func AtomicTruthiness(a Atomic) Truthiness {
	switch a := a.(type) {
	case TNull, TVoid:
		return Falsy
	case TMixed:
		return a.Truthiness
	case TBool:
		switch {
		case a.IsTrue():
			return Truthy
		case a.IsFalse():
			return Falsy
		}
	case TInteger:
		if v, ok := a.LiteralValue(); ok {
			if v == 0 {
				return Falsy
			}
			return Truthy
		}
		if !a.Contains(0) {
			return Truthy
		}
	case TFloat:
		if a.IsLiteral {
			if a.Value == 0 {
				return Falsy
			}
			return Truthy
		}
	case TString:
		if v, ok := a.LiteralValue(); ok {
			if v == "" || v == "0" {
				return Falsy
			}
			return Truthy
		}
		if a.IsTruthy {
			return Truthy
		}
	case TClassLikeString, TObjectAny, TNamedObject, TEnum, TCallable, TResource:
		return Truthy
	case TList:
		if a.NonEmpty || a.HasDefiniteElement() {
			return Truthy
		}
		if len(a.KnownElements) == 0 && a.IsSealed() {
			return Falsy
		}
	case TKeyedArray:
		if a.IsEmptyArray() {
			return Falsy
		}
		if a.NonEmpty || a.HasDefiniteItem() {
			return Truthy
		}
	case TGenericParameter:
		c := a.constraint()
		switch {
		case c.IsAlwaysTruthy():
			return Truthy
		case c.IsAlwaysFalsy():
			return Falsy
		}
	}
	return Undetermined
}

// IsAlwaysTruthy is true when every value of u converts to true
func (u *Union) IsAlwaysTruthy() bool {
	if u.PossiblyUndefined || u.IsNever() {
		return false
	}
	for _, t := range u.types {
		if AtomicTruthiness(t) != Truthy {
			return false
		}
	}
	return true
}

// IsAlwaysFalsy is true when every value of u converts to false
func (u *Union) IsAlwaysFalsy() bool {
	if u.IsNever() {
		return false
	}
	for _, t := range u.types {
		if AtomicTruthiness(t) != Falsy {
			return false
		}
	}
	return true
}

// CanBeFalsy is true when some value of u converts to false
func (u *Union) CanBeFalsy() bool {
	if u.PossiblyUndefined {
		return true
	}
	for _, t := range u.types {
		if AtomicTruthiness(t) != Truthy {
			return true
		}
	}
	return false
}
