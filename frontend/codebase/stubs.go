package codebase

import (
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/cottand/narrow/frontend/typehint"
	"github.com/cottand/narrow/frontend/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed builtins.yaml
var builtinStubs string

// Builtins returns a Store holding the standard classes and functions
func Builtins() *Store {
	s, err := DecodeStubs(strings.NewReader(builtinStubs))
	if err != nil {
		panic(errors.Wrap(err, "decoding builtin stubs"))
	}
	return s
}

type stubFile struct {
	Classes   []stubClass    `yaml:"classes"`
	Functions []stubFunction `yaml:"functions"`
}

type stubTemplate struct {
	Name string `yaml:"name"`
	Of   string `yaml:"of"`
}

type stubParam struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
	ByRef    bool   `yaml:"byref"`
	Variadic bool   `yaml:"variadic"`
}

type stubFunction struct {
	Name      string         `yaml:"name"`
	Templates []stubTemplate `yaml:"templates"`
	Params    []stubParam    `yaml:"params"`
	Return    string         `yaml:"return"`
}

type stubClass struct {
	Name       string              `yaml:"name"`
	Parent     string              `yaml:"parent"`
	Implements []string            `yaml:"implements"`
	Interface  bool                `yaml:"interface"`
	Final      bool                `yaml:"final"`
	Abstract   bool                `yaml:"abstract"`
	Enum       []string            `yaml:"enum"`
	Templates  []stubTemplate      `yaml:"templates"`
	Extends    map[string][]string `yaml:"extends"`
	Properties map[string]string   `yaml:"properties"`
	Methods    []stubFunction      `yaml:"methods"`
}

// LoadStubs reads declarations from a YAML stub file
func LoadStubs(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening stubs %s", path)
	}
	defer f.Close()
	s, err := DecodeStubs(f)
	return s, errors.Wrapf(err, "loading stubs %s", path)
}

// DecodeStubs reads declarations in YAML form
func DecodeStubs(r io.Reader) (*Store, error) {
	var file stubFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding stubs")
	}

	s := NewStore()
	for _, sc := range file.Classes {
		c, err := sc.toClass()
		if err != nil {
			return nil, errors.Wrapf(err, "class %s", sc.Name)
		}
		s.AddClass(c)
	}
	for _, sf := range file.Functions {
		f, err := sf.toFunction(sf.Name, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", sf.Name)
		}
		s.AddFunction(f)
	}
	return s, nil
}

// typeOrDefault converts a stub type, with an absent type meaning def
func typeOrDefault(s string, scope typehint.Templates, def *types.Union) (*types.Union, error) {
	if s == "" {
		return def, nil
	}
	return typehint.FromString(s, scope)
}

func (st stubTemplate) declare(entity string, scope typehint.Templates) (TemplateParam, error) {
	constraint, err := typeOrDefault(st.Of, scope, types.GetMixed())
	if err != nil {
		return TemplateParam{}, err
	}
	scope[st.Name] = typehint.Template{DefiningEntity: entity, Constraint: constraint}
	return TemplateParam{Name: st.Name, Constraint: constraint}, nil
}

func (sc stubClass) toClass() (*Class, error) {
	c := &Class{
		Name:        sc.Name,
		Parent:      sc.Parent,
		Interfaces:  sc.Implements,
		IsInterface: sc.Interface,
		IsFinal:     sc.Final,
		IsAbstract:  sc.Abstract,
		EnumCases:   sc.Enum,
		Extends:     map[string][]*types.Union{},
		Methods:     map[string]*Function{},
		Properties:  map[string]*types.Union{},
	}

	scope := typehint.Templates{}
	for _, st := range sc.Templates {
		tp, err := st.declare(sc.Name, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "template %s", st.Name)
		}
		c.Templates = append(c.Templates, tp)
	}
	for ancestor, params := range sc.Extends {
		for _, p := range params {
			u, err := typehint.FromString(p, scope)
			if err != nil {
				return nil, errors.Wrapf(err, "extends %s", ancestor)
			}
			c.Extends[ancestor] = append(c.Extends[ancestor], u)
		}
	}
	for name, p := range sc.Properties {
		u, err := typehint.FromString(p, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "property %s", name)
		}
		c.Properties[name] = u
	}
	for _, sm := range sc.Methods {
		m, err := sm.toFunction(sc.Name+"::"+sm.Name, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "method %s", sm.Name)
		}
		c.Methods[sm.Name] = m
	}
	return c, nil
}

func (sf stubFunction) toFunction(entity string, outer typehint.Templates) (*Function, error) {
	scope := typehint.Templates{}
	for name, t := range outer {
		scope[name] = t
	}
	f := &Function{Name: sf.Name}
	for _, st := range sf.Templates {
		tp, err := st.declare(entity, scope)
		if err != nil {
			return nil, errors.Wrapf(err, "template %s", st.Name)
		}
		f.Templates = append(f.Templates, tp)
	}
	for _, sp := range sf.Params {
		t, err := typeOrDefault(sp.Type, scope, types.GetMixed())
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", sp.Name)
		}
		f.Params = append(f.Params, Param{
			Name:        sp.Name,
			Type:        t,
			Optional:    sp.Optional,
			ByReference: sp.ByRef,
			Variadic:    sp.Variadic,
		})
	}
	ret, err := typeOrDefault(sf.Return, scope, types.GetMixed())
	if err != nil {
		return nil, errors.Wrap(err, "return type")
	}
	f.Return = ret
	return f, nil
}
