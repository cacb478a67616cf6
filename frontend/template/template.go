// Package template infers the template parameters of a call from its arguments
// and substitutes what was inferred into signatures
package template

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
)

var logger = log.DefaultLogger.With("section", "template")

const DefaultMaxDepth = 32

// Bound is the type a template parameter was seen to be at one appearance in a
// parameter type
type Bound struct {
	Type *types.Union
	// AppearanceDepth is how deeply nested inside the parameter type the template appeared
	AppearanceDepth int
	// ArgOffset is the argument the bound came from, -1 when none
	ArgOffset int
	// Invariant bounds come from type parameters of classes, which must match exactly
	Invariant bool
}

// Result accumulates what the arguments of one call say about the template
// parameters it may bind. Parameters are keyed by name, then defining entity.
type Result struct {
	TemplateTypes map[string]map[string]*types.Union
	LowerBounds   map[string]map[string][]Bound
	// ReachedMaxDepth is set when an argument was nested too deeply to be matched
	ReachedMaxDepth bool
}

func NewResult() *Result {
	return &Result{
		TemplateTypes: map[string]map[string]*types.Union{},
		LowerBounds:   map[string]map[string][]Bound{},
	}
}

// ForTemplates is a Result inferring the given parameters of entity
func ForTemplates(entity string, params []codebase.TemplateParam) *Result {
	r := NewResult()
	for _, p := range params {
		r.AddTemplate(p.Name, entity, p.Constraint)
	}
	return r
}

func (r *Result) AddTemplate(name, entity string, constraint *types.Union) {
	if constraint == nil {
		constraint = types.GetMixed()
	}
	if r.TemplateTypes[name] == nil {
		r.TemplateTypes[name] = map[string]*types.Union{}
	}
	r.TemplateTypes[name][entity] = constraint
}

func (r *Result) Has(name, entity string) bool {
	_, ok := r.TemplateTypes[name][entity]
	return ok
}

func (r *Result) AddLowerBound(name, entity string, b Bound) {
	if r.LowerBounds[name] == nil {
		r.LowerBounds[name] = map[string][]Bound{}
	}
	r.LowerBounds[name][entity] = append(r.LowerBounds[name][entity], b)
}

func (r *Result) Bounds(name, entity string) []Bound {
	return r.LowerBounds[name][entity]
}

// Replacer matches parameter types against argument types
type Replacer struct {
	Codebase codebase.Codebase
	MaxDepth int
}

func NewReplacer(cb codebase.Codebase, maxDepth int) *Replacer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Replacer{Codebase: cb, MaxDepth: maxDepth}
}

func (r *Replacer) hierarchy() types.Hierarchy {
	if r.Codebase == nil {
		return types.NoHierarchy{}
	}
	return r.Codebase
}

// Replace walks paramType against argType, recording a lower bound in result for
// every template parameter of result it finds, and returns paramType with those
// parameters standing in for the matching part of argType. A nil argType records
// nothing.
func (r *Replacer) Replace(paramType *types.Union, result *Result, argType *types.Union, argOffset int) *types.Union {
	return r.replace(paramType, result, argType, argOffset, 0, false)
}

func (r *Replacer) replace(param *types.Union, result *Result, arg *types.Union, argOffset, depth int, invariant bool) *types.Union {
	if depth > r.MaxDepth {
		logger.Warn("template matching too deep", "param", param, "depth", depth)
		result.ReachedMaxDepth = true
		if arg == nil {
			return param
		}
		return arg
	}

	var concrete []types.Atomic
	for a := range param.All() {
		if _, ok := templateOf(result, a); !ok {
			concrete = append(concrete, a)
		}
	}

	var out []types.Atomic
	for a := range param.All() {
		if tp, ok := templateOf(result, a); ok {
			out = append(out, r.bindTemplate(tp, result, r.relevantPart(arg, concrete), argOffset, depth, invariant)...)
			continue
		}
		out = append(out, r.replaceAtomic(a, result, arg, argOffset, depth)...)
	}
	return param.WithTypes(types.Combine(out)...)
}

// relevantPart drops from arg what the concrete atomics of the parameter already
// account for: for T|null given int|null, T is int
func (r *Replacer) relevantPart(arg *types.Union, concrete []types.Atomic) *types.Union {
	if arg == nil || len(concrete) == 0 {
		return arg
	}
	rest := arg.Filter(func(a types.Atomic) bool {
		return !slices.ContainsFunc(concrete, func(c types.Atomic) bool {
			return types.AtomicIsContainedBy(r.hierarchy(), a, c)
		})
	})
	if rest.IsNever() {
		return arg
	}
	return rest
}

func (r *Replacer) bindTemplate(tp types.TGenericParameter, result *Result, arg *types.Union, argOffset, depth int, invariant bool) []types.Atomic {
	if arg == nil {
		return []types.Atomic{tp}
	}
	logger.Debug("lower bound", "template", tp.ParameterName, "entity", tp.DefiningEntity, "type", arg, "depth", depth)
	result.AddLowerBound(tp.ParameterName, tp.DefiningEntity, Bound{
		Type:            arg.WithPossiblyUndefined(false),
		AppearanceDepth: depth,
		ArgOffset:       argOffset,
		Invariant:       invariant,
	})
	return arg.Types()
}

func templateOf(result *Result, a types.Atomic) (types.TGenericParameter, bool) {
	tp, ok := a.(types.TGenericParameter)
	if !ok || !result.Has(tp.ParameterName, tp.DefiningEntity) {
		return types.TGenericParameter{}, false
	}
	return tp, true
}

func (r *Replacer) replaceAtomic(a types.Atomic, result *Result, arg *types.Union, argOffset, depth int) []types.Atomic {
	switch a := a.(type) {
	case types.TClassLikeString:
		if a.ClassKind != types.ClassStringGeneric || !result.Has(a.ParameterName, a.DefiningEntity) || arg == nil {
			return []types.Atomic{a}
		}
		var objects []types.Atomic
		for in := range arg.All() {
			if cs, ok := in.(types.TClassLikeString); ok && cs.Name != "" {
				objects = append(objects, types.NamedObject(cs.Name))
			}
		}
		if len(objects) > 0 {
			result.AddLowerBound(a.ParameterName, a.DefiningEntity, Bound{Type: types.NewUnion(objects...), AppearanceDepth: depth, ArgOffset: argOffset})
		}
		return []types.Atomic{a}

	case types.TList:
		if a.ElementType == nil {
			return []types.Atomic{a}
		}
		a.ElementType = r.replace(a.ElementType, result, r.argValues(arg, ""), argOffset, depth+1, false)
		return []types.Atomic{a}

	case types.TKeyedArray:
		if a.Parameters == nil {
			return []types.Atomic{a}
		}
		keys, values := r.argKeys(arg), r.argValues(arg, "")
		a.Parameters = &types.KeyedParameters{
			Key:   r.replace(a.Parameters.Key, result, keys, argOffset, depth+1, false),
			Value: r.replace(a.Parameters.Value, result, values, argOffset, depth+1, false),
		}
		return []types.Atomic{a}

	case types.TIterable:
		keys, values := r.argKeys(arg), r.argValues(arg, "Traversable")
		a.Key = r.replace(a.Key, result, keys, argOffset, depth+1, false)
		a.Value = r.replace(a.Value, result, values, argOffset, depth+1, false)
		return []types.Atomic{a}

	case types.TNamedObject:
		if len(a.TypeParameters) == 0 {
			return []types.Atomic{a}
		}
		matched := r.matchObjectParameters(a, arg)
		params := make([]*types.Union, len(a.TypeParameters))
		for i, p := range a.TypeParameters {
			var in *types.Union
			if i < len(matched) {
				in = matched[i]
			}
			params[i] = r.replace(p, result, in, argOffset, depth+1, true)
		}
		a.TypeParameters = params
		return []types.Atomic{a}
	}
	return []types.Atomic{a}
}

// argValues combines the value types of the arrays of arg. With traversable set,
// objects implementing it contribute their value parameter too.
func (r *Replacer) argValues(arg *types.Union, traversable string) *types.Union {
	if arg == nil {
		return nil
	}
	var out *types.Union
	for a := range arg.All() {
		switch a := a.(type) {
		case types.TList, types.TKeyedArray:
			if v := types.ArrayValueType(a); !v.IsNever() {
				out = types.CombineUnionTypes(out, v)
			}
		case types.TIterable:
			out = types.CombineUnionTypes(out, a.Value)
		case types.TNamedObject:
			if traversable != "" {
				if params := r.ancestorParameters(a, traversable); len(params) == 2 {
					out = types.CombineUnionTypes(out, params[1])
				}
			}
		}
	}
	return out
}

func (r *Replacer) argKeys(arg *types.Union) *types.Union {
	if arg == nil {
		return nil
	}
	var out *types.Union
	for a := range arg.All() {
		switch a := a.(type) {
		case types.TList, types.TKeyedArray:
			if k := types.ArrayKeyType(a); !k.IsNever() {
				out = types.CombineUnionTypes(out, k)
			}
		case types.TIterable:
			out = types.CombineUnionTypes(out, a.Key)
		case types.TNamedObject:
			if params := r.ancestorParameters(a, "Traversable"); len(params) == 2 {
				out = types.CombineUnionTypes(out, params[0])
			}
		}
	}
	return out
}

// matchObjectParameters finds in arg the type parameters corresponding, position by
// position, to those of param: from an object of the same class, from a subclass
// through what it passes to param's class, or from an array for a two parameter
// traversable class.
func (r *Replacer) matchObjectParameters(param types.TNamedObject, arg *types.Union) []*types.Union {
	if arg == nil {
		return nil
	}
	var matched []*types.Union
	merge := func(params []*types.Union) {
		if matched == nil {
			matched = make([]*types.Union, len(param.TypeParameters))
		}
		for i := range min(len(params), len(matched)) {
			matched[i] = types.CombineUnionTypes(matched[i], params[i])
		}
	}
	for a := range arg.All() {
		switch a := a.(type) {
		case types.TNamedObject:
			if params := r.ancestorParameters(a, param.Name); params != nil {
				merge(params)
			}
		case types.TList, types.TKeyedArray:
			if len(param.TypeParameters) == 2 && r.hierarchy().IsSubtypeOf(param.Name, "Traversable") {
				merge([]*types.Union{types.ArrayKeyType(a), types.ArrayValueType(a)})
			}
		}
	}
	return matched
}

// ancestorParameters is what obj passes for the type parameters of ancestor,
// or nil when obj is not one
func (r *Replacer) ancestorParameters(obj types.TNamedObject, ancestor string) []*types.Union {
	if strings.EqualFold(obj.Name, ancestor) {
		return obj.TypeParameters
	}
	if r.Codebase == nil || !r.Codebase.IsSubtypeOf(obj.Name, ancestor) {
		return nil
	}
	extended, ok := r.Codebase.TemplateExtendedParameters(obj.Name, ancestor)
	if !ok {
		return nil
	}
	own := r.Codebase.TemplateTypes(obj.Name)
	out := make([]*types.Union, len(extended))
	for i, u := range extended {
		out[i] = u.FlatMap(func(a types.Atomic) *types.Union {
			tp, ok := a.(types.TGenericParameter)
			if !ok || !strings.EqualFold(tp.DefiningEntity, obj.Name) {
				return types.NewUnion(a)
			}
			for j, t := range own {
				if t.Name == tp.ParameterName && j < len(obj.TypeParameters) {
					return obj.TypeParameters[j]
				}
			}
			return tp.Constraint
		})
	}
	return out
}

// GetRelevantBounds orders bounds by appearance depth and keeps the shallowest run
// of them. Past an invariant bound, bounds from other arguments at deeper levels
// are kept as well.
func GetRelevantBounds(bounds []Bound) []Bound {
	if len(bounds) <= 1 {
		return bounds
	}
	sorted := slices.SortedStableFunc(slices.Values(bounds), func(a, b Bound) int {
		return cmp.Compare(a.AppearanceDepth, b.AppearanceDepth)
	})
	var relevant []Bound
	hadInvariant := false
	for i, b := range sorted {
		if i > 0 && b.AppearanceDepth != sorted[i-1].AppearanceDepth {
			if !hadInvariant || sorted[i-1].ArgOffset == b.ArgOffset {
				break
			}
		}
		hadInvariant = hadInvariant || b.Invariant
		relevant = append(relevant, b)
	}
	return relevant
}

// GetMostSpecificTypeFromBounds is the union of the relevant bounds, or mixed
// without any
func GetMostSpecificTypeFromBounds(bounds []Bound) *types.Union {
	relevant := GetRelevantBounds(bounds)
	if len(relevant) == 0 {
		return types.GetMixed()
	}
	var out *types.Union
	for _, b := range relevant {
		out = types.CombineUnionTypes(out, b.Type)
	}
	return out
}

// InferredReplace substitutes the template parameters of result in t: by the
// type inferred from their bounds, or by their constraint when none were found
func InferredReplace(t *types.Union, result *Result) *types.Union {
	if t == nil {
		return t
	}
	replaced := t.FlatMap(func(a types.Atomic) *types.Union {
		return types.NewUnion(inferredReplaceAtomic(a, result)...)
	})
	if !replaced.Equal(t) {
		replaced.HadTemplate = true
	}
	return replaced
}

func inferredReplaceAtomic(a types.Atomic, result *Result) []types.Atomic {
	switch a := a.(type) {
	case types.TGenericParameter:
		if !result.Has(a.ParameterName, a.DefiningEntity) {
			return []types.Atomic{a}
		}
		if bounds := result.Bounds(a.ParameterName, a.DefiningEntity); len(bounds) > 0 {
			return GetMostSpecificTypeFromBounds(bounds).Types()
		}
		return result.TemplateTypes[a.ParameterName][a.DefiningEntity].Types()
	case types.TClassLikeString:
		if a.ClassKind != types.ClassStringGeneric || !result.Has(a.ParameterName, a.DefiningEntity) {
			return []types.Atomic{a}
		}
		bounds := result.Bounds(a.ParameterName, a.DefiningEntity)
		if len(bounds) == 0 {
			return []types.Atomic{a}
		}
		var out []types.Atomic
		for in := range GetMostSpecificTypeFromBounds(bounds).All() {
			if obj, ok := in.(types.TNamedObject); ok {
				out = append(out, types.TClassLikeString{ClassKind: types.ClassStringOfType, Name: obj.Name})
			}
		}
		if len(out) == 0 {
			return []types.Atomic{types.TClassLikeString{}}
		}
		return out
	case types.TList:
		a.ElementType = InferredReplace(a.ElementType, result)
		a.KnownElements = replaceItems(a.KnownElements, result)
		return []types.Atomic{a}
	case types.TKeyedArray:
		if a.Parameters != nil {
			a.Parameters = &types.KeyedParameters{
				Key:   InferredReplace(a.Parameters.Key, result),
				Value: InferredReplace(a.Parameters.Value, result),
			}
		}
		a.KnownItems = replaceItems(a.KnownItems, result)
		return []types.Atomic{a}
	case types.TIterable:
		a.Key = InferredReplace(a.Key, result)
		a.Value = InferredReplace(a.Value, result)
		return []types.Atomic{a}
	case types.TNamedObject:
		if len(a.TypeParameters) == 0 {
			return []types.Atomic{a}
		}
		params := make([]*types.Union, len(a.TypeParameters))
		for i, p := range a.TypeParameters {
			params[i] = InferredReplace(p, result)
		}
		a.TypeParameters = params
		return []types.Atomic{a}
	}
	return []types.Atomic{a}
}

func replaceItems[K comparable](items map[K]types.KnownItem, result *Result) map[K]types.KnownItem {
	if len(items) == 0 {
		return items
	}
	out := make(map[K]types.KnownItem, len(items))
	for k, item := range items {
		item.Type = InferredReplace(item.Type, result)
		out[k] = item
	}
	return out
}
