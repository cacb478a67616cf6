// Package codebase holds the class, function and method declarations the
// analyser resolves names against
package codebase

import (
	"maps"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
)

var logger = log.DefaultLogger.With("section", "codebase")

type TemplateParam struct {
	Name       string
	Constraint *types.Union
}

type Param struct {
	Name        string
	Type        *types.Union
	Optional    bool
	ByReference bool
	Variadic    bool
}

// Function is a function or method signature
type Function struct {
	Name      string
	Templates []TemplateParam
	Params    []Param
	Return    *types.Union
}

// RequiredParams is the number of arguments a call must pass
func (f *Function) RequiredParams() int {
	n := 0
	for _, p := range f.Params {
		if p.Optional || p.Variadic {
			break
		}
		n++
	}
	return n
}

type Class struct {
	Name        string
	Parent      string
	Interfaces  []string
	IsInterface bool
	IsFinal     bool
	IsAbstract  bool
	// EnumCases is non-nil for enums
	EnumCases []string
	Templates []TemplateParam
	// Extends maps an ancestor to the types this class passes for its template parameters
	Extends    map[string][]*types.Union
	Methods    map[string]*Function
	Properties map[string]*types.Union
}

func (c *Class) IsEnum() bool {
	return c.EnumCases != nil
}

// Codebase resolves names to declarations. Names are case-insensitive.
type Codebase interface {
	types.Hierarchy
	ClassExists(name string) bool
	GetClass(name string) (*Class, bool)
	IsEnum(name string) bool
	EnumCases(name string) []string
	// ClassExtendsOrImplements is true when ancestor is a strict ancestor of child
	ClassExtendsOrImplements(child, ancestor string) bool
	// GetMethod looks method up on class and its ancestors
	GetMethod(class, method string) (*Function, string, bool)
	GetProperty(class, property string) (*types.Union, bool)
	GetFunction(name string) (*Function, bool)
	TemplateTypes(class string) []TemplateParam
	// TemplateExtendedParameters returns the types child passes for the template
	// parameters of ancestor, expressed in terms of child's own template parameters
	TemplateExtendedParameters(child, ancestor string) ([]*types.Union, bool)
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "\\"))
}

// Store is an in-memory Codebase
type Store struct {
	classes   map[string]*Class
	functions map[string]*Function
}

var _ Codebase = (*Store)(nil)

// NewStore returns an empty Store. See Builtins for one holding the standard declarations.
func NewStore() *Store {
	return &Store{
		classes:   map[string]*Class{},
		functions: map[string]*Function{},
	}
}

func (s *Store) AddClass(c *Class) *Store {
	if c.Methods == nil {
		c.Methods = map[string]*Function{}
	}
	lowered := make(map[string]*Function, len(c.Methods))
	for name, m := range c.Methods {
		lowered[strings.ToLower(name)] = m
	}
	c.Methods = lowered
	s.classes[normalise(c.Name)] = c
	return s
}

func (s *Store) AddFunction(f *Function) *Store {
	s.functions[normalise(f.Name)] = f
	return s
}

// Merge adds every declaration of other to s, replacing those with the same name
func (s *Store) Merge(other *Store) *Store {
	maps.Copy(s.classes, other.classes)
	maps.Copy(s.functions, other.functions)
	return s
}

func (s *Store) ClassExists(name string) bool {
	_, ok := s.classes[normalise(name)]
	return ok
}

func (s *Store) GetClass(name string) (*Class, bool) {
	c, ok := s.classes[normalise(name)]
	return c, ok
}

func (s *Store) IsInterface(name string) bool {
	c, ok := s.GetClass(name)
	return ok && c.IsInterface
}

func (s *Store) IsFinal(name string) bool {
	c, ok := s.GetClass(name)
	return ok && (c.IsFinal || c.IsEnum())
}

func (s *Store) IsEnum(name string) bool {
	c, ok := s.GetClass(name)
	return ok && c.IsEnum()
}

func (s *Store) EnumCases(name string) []string {
	if c, ok := s.GetClass(name); ok {
		return slices.Clone(c.EnumCases)
	}
	return nil
}

// parents lists the direct ancestors of a class, parent class first
func (s *Store) parents(c *Class) []string {
	var out []string
	if c.Parent != "" {
		out = append(out, c.Parent)
	}
	out = append(out, c.Interfaces...)
	if c.IsEnum() {
		out = append(out, "UnitEnum")
	}
	return out
}

func (s *Store) ClassExtendsOrImplements(child, ancestor string) bool {
	seen := map[string]bool{}
	var walk func(name string) bool
	walk = func(name string) bool {
		if seen[normalise(name)] {
			return false
		}
		seen[normalise(name)] = true
		c, ok := s.GetClass(name)
		if !ok {
			return false
		}
		for _, p := range s.parents(c) {
			if normalise(p) == normalise(ancestor) || walk(p) {
				return true
			}
		}
		return false
	}
	return walk(child)
}

func (s *Store) IsSubtypeOf(child, ancestor string) bool {
	if normalise(child) == normalise(ancestor) {
		return true
	}
	return s.ClassExtendsOrImplements(child, ancestor)
}

func (s *Store) GetMethod(class, method string) (*Function, string, bool) {
	seen := map[string]bool{}
	queue := []string{class}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[normalise(name)] {
			continue
		}
		seen[normalise(name)] = true
		c, ok := s.GetClass(name)
		if !ok {
			continue
		}
		if m, ok := c.Methods[strings.ToLower(method)]; ok {
			return m, c.Name, true
		}
		queue = append(queue, s.parents(c)...)
	}
	return nil, "", false
}

func (s *Store) GetProperty(class, property string) (*types.Union, bool) {
	for c, ok := s.GetClass(class); ok; c, ok = s.GetClass(c.Parent) {
		if t, found := c.Properties[property]; found {
			return t, true
		}
		if c.Parent == "" {
			break
		}
	}
	return nil, false
}

func (s *Store) GetFunction(name string) (*Function, bool) {
	f, ok := s.functions[normalise(name)]
	return f, ok
}

func (s *Store) TemplateTypes(class string) []TemplateParam {
	if c, ok := s.GetClass(class); ok {
		return c.Templates
	}
	return nil
}

func (s *Store) TemplateExtendedParameters(child, ancestor string) ([]*types.Union, bool) {
	return s.extendedParameters(child, ancestor, map[string]bool{})
}

func (s *Store) extendedParameters(child, ancestor string, seen map[string]bool) ([]*types.Union, bool) {
	c, ok := s.GetClass(child)
	if !ok || seen[normalise(child)] {
		return nil, false
	}
	seen[normalise(child)] = true
	for name, params := range c.Extends {
		if normalise(name) == normalise(ancestor) {
			return params, true
		}
	}
	for _, p := range s.parents(c) {
		viaParent, ok := s.extendedParameters(p, ancestor, seen)
		if !ok {
			continue
		}
		passed, hasPassed := c.Extends[p]
		parentTemplates := s.TemplateTypes(p)
		if !hasPassed || len(parentTemplates) == 0 {
			return viaParent, true
		}
		out := make([]*types.Union, len(viaParent))
		for i, u := range viaParent {
			out[i] = substitute(u, p, parentTemplates, passed)
		}
		logger.Debug("resolved inherited template parameters", "child", child, "ancestor", ancestor, "via", p)
		return out, true
	}
	return nil, false
}

// substitute replaces the template parameters of entity in u with the given arguments
func substitute(u *types.Union, entity string, templates []TemplateParam, args []*types.Union) *types.Union {
	return u.FlatMap(func(a types.Atomic) *types.Union {
		switch a := a.(type) {
		case types.TGenericParameter:
			if normalise(a.DefiningEntity) != normalise(entity) {
				return types.NewUnion(a)
			}
			for i, tmpl := range templates {
				if tmpl.Name == a.ParameterName && i < len(args) {
					return args[i]
				}
			}
		case types.TNamedObject:
			params := make([]*types.Union, len(a.TypeParameters))
			for i, p := range a.TypeParameters {
				params[i] = substitute(p, entity, templates, args)
			}
			a.TypeParameters = params
			return types.NewUnion(a)
		case types.TList:
			if a.ElementType != nil {
				a.ElementType = substitute(a.ElementType, entity, templates, args)
			}
			return types.NewUnion(a)
		}
		return types.NewUnion(a)
	})
}
