package types

func GetNever() *Union  { return NewUnion(TNever{}) }
func GetVoid() *Union   { return NewUnion(TVoid{}) }
func GetNull() *Union   { return NewUnion(TNull{}) }
func GetMixed() *Union  { return NewUnion(TMixed{}) }
func GetBool() *Union   { return NewUnion(TBool{}) }
func GetTrue() *Union   { return NewUnion(BoolLiteral(true)) }
func GetFalse() *Union  { return NewUnion(BoolLiteral(false)) }
func GetInt() *Union    { return NewUnion(Int()) }
func GetFloat() *Union  { return NewUnion(TFloat{}) }
func GetString() *Union { return NewUnion(Str()) }
func GetObject() *Union { return NewUnion(TObjectAny{}) }
func GetScalar() *Union { return NewUnion(TScalar{}) }

func GetNonnull() *Union {
	return NewUnion(TMixed{IsNonNull: true})
}

func GetLiteralInt(v int64) *Union {
	return NewUnion(IntLit(v))
}

func GetLiteralFloat(v float64) *Union {
	return NewUnion(FloatLit(v))
}

func GetLiteralString(v string) *Union {
	return NewUnion(StringLit(v))
}

func GetNonEmptyString() *Union {
	return NewUnion(TString{IsNonEmpty: true})
}

func GetNumericString() *Union {
	return NewUnion(TString{IsNumeric: true, IsNonEmpty: true})
}

// GetIntOrFloat is the result of arithmetic whose operands are not known precisely
func GetIntOrFloat() *Union {
	return NewUnion(Int(), TFloat{})
}

func GetArrayKey() *Union {
	return NewUnion(TArrayKey{})
}

func GetNumeric() *Union {
	return NewUnion(TNumeric{})
}

func GetNamedObject(name string) *Union {
	return NewUnion(NamedObject(name))
}

// GetMixedArray is array<array-key, mixed>
func GetMixedArray() *Union {
	return NewUnion(ArrayOf(GetArrayKey(), GetMixed()))
}

func GetMixedList() *Union {
	return NewUnion(ListOf(GetMixed()))
}

func GetEmptyArray() *Union {
	return NewUnion(EmptyArray())
}

// GetMixedIterable is iterable<mixed, mixed>
func GetMixedIterable() *Union {
	return NewUnion(TIterable{Key: GetMixed(), Value: GetMixed()})
}
