package types

import (
	"errors"
	"strconv"
	"strings"
)

type TFloat struct {
	IsLiteral bool
	Value     float64
}

func FloatLit(v float64) TFloat { return TFloat{IsLiteral: true, Value: v} }

func (t TFloat) ID() string {
	if t.IsLiteral {
		return "float(" + strconv.FormatFloat(t.Value, 'g', -1, 64) + ")"
	}
	return "float"
}
func (t TFloat) String() string { return t.ID() }
func (t TFloat) Hash() uint64   { return hashID(t.ID()) }
func (TFloat) Kind() Kind       { return KindFloat }

type StringLiteralKind uint8

const (
	StrNotLiteral StringLiteralKind = iota
	// StrLiteralValue is a string whose exact value is known
	StrLiteralValue
	// StrLiteralUnspecified is a literal-string: known to come from source, value unknown
	StrLiteralUnspecified
)

type TString struct {
	Literal     StringLiteralKind
	Value       string
	IsNumeric   bool
	IsTruthy    bool
	IsNonEmpty  bool
	IsLowercase bool
}

// StringLit builds the literal string v, with every flag derived from v
func StringLit(v string) TString {
	return TString{
		Literal:     StrLiteralValue,
		Value:       v,
		IsNumeric:   IsNumericString(v),
		IsTruthy:    v != "" && v != "0",
		IsNonEmpty:  v != "",
		IsLowercase: v == strings.ToLower(v),
	}
}

// Str is the general string
func Str() TString { return TString{} }

// normalised makes implied flags explicit so that equal types get equal IDs
func (t TString) normalised() TString {
	if t.IsTruthy || t.IsNumeric {
		t.IsNonEmpty = true
	}
	return t
}

func (t TString) LiteralValue() (string, bool) {
	return t.Value, t.Literal == StrLiteralValue
}

// IsGeneral is true for the plain `string` with no refinement
func (t TString) IsGeneral() bool {
	return t.Literal == StrNotLiteral && !t.IsNumeric && !t.IsTruthy && !t.IsNonEmpty && !t.IsLowercase
}

func (t TString) ID() string {
	if t.Literal == StrLiteralValue {
		return "'" + t.Value + "'"
	}
	t = t.normalised()
	var sb strings.Builder
	switch {
	case t.IsNumeric:
		sb.WriteString("numeric-")
	case t.IsTruthy:
		sb.WriteString("truthy-")
	case t.IsNonEmpty:
		sb.WriteString("non-empty-")
	}
	if t.IsLowercase {
		sb.WriteString("lowercase-")
	}
	if t.Literal == StrLiteralUnspecified {
		sb.WriteString("literal-")
	}
	sb.WriteString("string")
	return sb.String()
}
func (t TString) String() string { return t.ID() }
func (t TString) Hash() uint64   { return hashID(t.ID()) }
func (TString) Kind() Kind       { return KindString }

// IsNumericString follows the language's is_numeric: optional surrounding whitespace,
// optional sign, decimal digits with an optional fraction and exponent
func IsNumericString(s string) bool {
	trimmed := strings.TrimLeft(s, " \t\n\r\v\f")
	trimmed = strings.TrimRight(trimmed, " \t\n\r\v\f")
	if trimmed == "" {
		return false
	}
	if trimmed[0] == '+' || trimmed[0] == '-' {
		trimmed = trimmed[1:]
	}
	if trimmed == "" || strings.ContainsAny(trimmed, "xXbB_") || strings.EqualFold(trimmed, "inf") || strings.EqualFold(trimmed, "infinity") || strings.EqualFold(trimmed, "nan") {
		return false
	}
	if trimmed[0] != '.' && (trimmed[0] < '0' || trimmed[0] > '9') {
		return false
	}
	_, err := strconv.ParseFloat(trimmed, 64)
	// out of range values are still numeric strings
	return err == nil || errors.Is(err, strconv.ErrRange)
}

type ClassStringKind uint8

const (
	ClassStringAny ClassStringKind = iota
	ClassStringLiteral
	ClassStringOfType
	ClassStringGeneric
)

// TClassLikeString is a string naming a class: Foo::class, class-string<Foo>, class-string<T>
type TClassLikeString struct {
	ClassKind ClassStringKind
	// Name is the literal class name, or the bound class for ClassStringOfType
	Name           string
	ParameterName  string
	DefiningEntity string
	Constraint     *Union
}

func ClassStringLit(name string) TClassLikeString {
	return TClassLikeString{ClassKind: ClassStringLiteral, Name: name}
}

func (t TClassLikeString) ID() string {
	switch t.ClassKind {
	case ClassStringLiteral:
		return t.Name + "::class"
	case ClassStringOfType:
		return "class-string<" + t.Name + ">"
	case ClassStringGeneric:
		return "class-string<" + t.ParameterName + ":" + t.DefiningEntity + ">"
	}
	return "class-string"
}
func (t TClassLikeString) String() string { return t.ID() }
func (t TClassLikeString) Hash() uint64   { return hashID(t.ID()) }
func (TClassLikeString) Kind() Kind       { return KindClassString }
