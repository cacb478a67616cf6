package types

import (
	"strings"
)

// TObjectAny is `object`
type TObjectAny struct{}

func (TObjectAny) ID() string       { return "object" }
func (t TObjectAny) String() string { return t.ID() }
func (t TObjectAny) Hash() uint64   { return hashID(t.ID()) }
func (TObjectAny) Kind() Kind       { return KindObject }

// TNamedObject is an instance of a class or interface, with optional generic
// arguments and additional intersected types (Foo&Countable)
type TNamedObject struct {
	Name              string
	TypeParameters    []*Union
	IntersectionTypes []Atomic
	IsThis            bool
}

func NamedObject(name string) TNamedObject { return TNamedObject{Name: name} }

func (t TNamedObject) ID() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	if len(t.TypeParameters) > 0 {
		sb.WriteString("<")
		for i, param := range t.TypeParameters {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(param.ID())
		}
		sb.WriteString(">")
	}
	for _, intersected := range t.IntersectionTypes {
		sb.WriteString("&" + intersected.ID())
	}
	return sb.String()
}
func (t TNamedObject) String() string { return t.ID() }
func (t TNamedObject) Hash() uint64   { return hashID(t.ID()) }
func (TNamedObject) Kind() Kind       { return KindNamedObject }

// WithIntersection returns t additionally intersected with other
func (t TNamedObject) WithIntersection(other Atomic) TNamedObject {
	t.IntersectionTypes = append(append([]Atomic(nil), t.IntersectionTypes...), other)
	return t
}

// TEnum is an enum instance, optionally a single known case
type TEnum struct {
	Name string
	Case string
}

func (t TEnum) ID() string {
	if t.Case != "" {
		return "enum(" + t.Name + "::" + t.Case + ")"
	}
	return "enum(" + t.Name + ")"
}
func (t TEnum) String() string { return t.ID() }
func (t TEnum) Hash() uint64   { return hashID(t.ID()) }
func (TEnum) Kind() Kind       { return KindEnum }

type TIterable struct {
	Key   *Union
	Value *Union
}

func (t TIterable) ID() string {
	return "iterable<" + t.Key.ID() + ", " + t.Value.ID() + ">"
}
func (t TIterable) String() string { return t.ID() }
func (t TIterable) Hash() uint64   { return hashID(t.ID()) }
func (TIterable) Kind() Kind       { return KindIterable }

// IsMixedIterable is true for iterable<mixed, mixed>
func (t TIterable) IsMixedIterable() bool {
	return t.Key.IsMixed() && t.Value.IsMixed()
}

// TGenericParameter is a reference to a template type T declared by DefiningEntity,
// standing for some subtype of Constraint
type TGenericParameter struct {
	ParameterName     string
	DefiningEntity    string
	Constraint        *Union
	IntersectionTypes []Atomic
}

func (t TGenericParameter) ID() string {
	var sb strings.Builder
	sb.WriteString(t.ParameterName + ":" + t.DefiningEntity)
	if t.Constraint != nil && !t.Constraint.IsMixed() {
		sb.WriteString(" as " + t.Constraint.ID())
	}
	for _, intersected := range t.IntersectionTypes {
		sb.WriteString("&" + intersected.ID())
	}
	return sb.String()
}
func (t TGenericParameter) String() string { return t.ID() }
func (t TGenericParameter) Hash() uint64   { return hashID(t.ID()) }
func (TGenericParameter) Kind() Kind       { return KindGenericParameter }

// WithConstraint re-wraps a narrowed constraint, keeping the parameter's identity
func (t TGenericParameter) WithConstraint(constraint *Union) TGenericParameter {
	t.Constraint = constraint
	return t
}

// SameParameter is true when both refer to the same template, whatever their constraints
func (t TGenericParameter) SameParameter(other TGenericParameter) bool {
	return t.ParameterName == other.ParameterName && t.DefiningEntity == other.DefiningEntity
}

func (t TGenericParameter) constraint() *Union {
	if t.Constraint == nil {
		return NewUnion(TMixed{})
	}
	return t.Constraint
}
