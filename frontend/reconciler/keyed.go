package reconciler

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// ReconcileKeyedTypes narrows the locals of ctx with the truths of a condition.
//
// Each key's conjunction is applied in order, the assertions of a disjunction
// each against the type so far and their results combined. Only the groups listed
// in active, which the condition at span created itself, report issues. Keys whose
// type changed are added to changed, and the array shapes holding them are updated
// to match. Nested locals below a changed key which the condition did not mention
// in referenced are forgotten.
func (r *Reconciler) ReconcileKeyedTypes(
	truths algebra.Truths,
	active map[string]*set.Set[int],
	ctx *scope.BlockContext,
	changed *set.Set[string],
	referenced *set.Set[string],
	span ast.Range,
	negated bool,
) {
	if len(truths) == 0 {
		return
	}
	truths, active = withNestedAssertions(truths, active, ctx)

	keys := slices.Collect(maps.Keys(truths))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(keyDepth(a), keyDepth(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	for _, key := range keys {
		existing, possiblyUndefined := r.existingType(ctx, key)
		result := existing
		for i, group := range truths[key] {
			groupSpan := ast.Range{}
			if len(group) == 1 && active[key] != nil && active[key].Contains(i) {
				groupSpan = span
			}
			var combined *types.Union
			for _, a := range group {
				combined = types.CombineUnionTypes(combined, r.Reconcile(a, result, possiblyUndefined, key, groupSpan, negated, ctx.InsideLoop))
			}
			result = combined
			possiblyUndefined = result.PossiblyUndefined
		}
		if result == nil || existing != nil && result.Equal(existing) && result.PossiblyUndefined == existing.PossiblyUndefined {
			continue
		}
		logger.Debug("narrowed", "key", key, "to", result)
		ctx.SetLocal(key, result)
		changed.Insert(key)
		r.adjustParent(ctx, key, result, changed)
	}

	for _, local := range ctx.LocalKeys() {
		if changed.Contains(local) || referenced != nil && referenced.Contains(local) {
			continue
		}
		for key := range changed.Items() {
			if ast.IsDerivedKey(local, key) {
				ctx.RemoveLocal(local)
				break
			}
		}
	}
}

func keyDepth(key string) int {
	depth := 0
	for {
		parent, _, ok := ast.ParentKey(key)
		if !ok {
			return depth
		}
		depth++
		key = parent
	}
}

// offset is the last segment of a nested key: an array offset, literal or not,
// or a property
type offset struct {
	key      types.ArrayKey
	literal  bool
	property string
}

func parseOffset(last string) offset {
	if prop, ok := strings.CutPrefix(last, "->"); ok {
		return offset{property: prop}
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(last, "["), "]")
	if s, ok := strings.CutPrefix(inner, "'"); ok {
		return offset{key: types.StrKey(strings.TrimSuffix(s, "'")), literal: true}
	}
	if i, err := strconv.ParseInt(inner, 10, 64); err == nil {
		return offset{key: types.IntKey(i), literal: true}
	}
	return offset{}
}

// withNestedAssertions adds to the parents of nested keys what the condition implies
// about them: isset($a['k']) means $a has a non-null 'k'. Reporting moves to the
// parent when the nested key is not tracked itself.
func withNestedAssertions(
	truths algebra.Truths,
	active map[string]*set.Set[int],
	ctx *scope.BlockContext,
) (algebra.Truths, map[string]*set.Set[int]) {
	out := make(algebra.Truths, len(truths))
	for k, groups := range truths {
		out[k] = slices.Clone(groups)
	}
	outActive := make(map[string]*set.Set[int], len(active))
	for k, s := range active {
		outActive[k] = s.Copy()
	}

	for _, key := range slices.Sorted(maps.Keys(truths)) {
		for i, group := range truths[key] {
			if len(group) != 1 {
				continue
			}
			wasActive := active[key] != nil && active[key].Contains(i)
			if wasActive && !ctx.HasLocal(key) {
				if _, _, nested := ast.ParentKey(key); nested {
					outActive[key].Remove(i)
				}
			}
			child, a := key, group[0]
			for {
				parent, last, ok := ast.ParentKey(child)
				if !ok {
					break
				}
				implied, ok := impliedForParent(a, parseOffset(last))
				if !ok {
					break
				}
				out[parent] = append(out[parent], []assertion.Assertion{implied})
				if wasActive && child == key && !ctx.HasLocal(key) {
					if outActive[parent] == nil {
						outActive[parent] = set.New[int](1)
					}
					outActive[parent].Insert(len(out[parent]) - 1)
				}
				child, a = parent, implied
			}
		}
	}
	return out, outActive
}

// impliedForParent is the assertion a on a nested key makes about its parent
func impliedForParent(a assertion.Assertion, off offset) (assertion.Assertion, bool) {
	var nonnull bool
	switch a.Kind {
	case assertion.IsIsset, assertion.Truthy, assertion.NonEmpty, assertion.IsEqual,
		assertion.HasArrayKey, assertion.HasNonnullEntryForKey, assertion.Countable:
		nonnull = true
	case assertion.IsType:
		switch a.Type.(type) {
		case types.TNull, types.TMixed:
			return assertion.Assertion{}, false
		}
		nonnull = true
	case assertion.ArrayKeyExists:
		nonnull = false
	default:
		return assertion.Assertion{}, false
	}
	switch {
	case off.literal && nonnull:
		return assertion.WithKey(assertion.HasNonnullEntryForKey, off.key), true
	case off.literal:
		return assertion.WithKey(assertion.HasArrayKey, off.key), true
	case nonnull:
		return assertion.Simple(assertion.IsIsset), true
	}
	return assertion.Assertion{}, false
}

// existingType is the type of key before narrowing: its local, or else what the
// type of its parent says about it
func (r *Reconciler) existingType(ctx *scope.BlockContext, key string) (*types.Union, bool) {
	if t, ok := ctx.GetLocal(key); ok {
		return t, t.PossiblyUndefined
	}
	parent, last, ok := ast.ParentKey(key)
	if !ok {
		return nil, true
	}
	parentType, _ := r.existingType(ctx, parent)
	if parentType == nil {
		return nil, true
	}
	return r.valueForKey(parentType, parseOffset(last))
}

func (r *Reconciler) valueForKey(parent *types.Union, off offset) (*types.Union, bool) {
	var out *types.Union
	possiblyUndefined := false
	add := func(t *types.Union, undefined bool) {
		out = types.CombineUnionTypes(out, t)
		possiblyUndefined = possiblyUndefined || undefined
	}
	for a := range parent.All() {
		switch a := a.(type) {
		case types.TKeyedArray:
			if off.property != "" {
				continue
			}
			if off.literal {
				if item, ok := a.KnownItems[off.key]; ok {
					add(item.Type, item.PossiblyUndefined)
					continue
				}
			}
			if a.Parameters != nil {
				add(a.Parameters.Value, true)
			} else if !off.literal {
				add(types.ArrayValueType(a), true)
			} else {
				possiblyUndefined = true
			}
		case types.TList:
			if off.property != "" {
				continue
			}
			if off.literal && !off.key.IsString {
				if item, ok := a.KnownElements[int(off.key.Int)]; ok {
					add(item.Type, item.PossiblyUndefined)
					continue
				}
			}
			if !a.IsSealed() {
				add(a.ElementType, true)
			} else {
				possiblyUndefined = true
			}
		case types.TNamedObject:
			if off.property == "" || r.Codebase == nil {
				continue
			}
			if t, ok := r.Codebase.GetProperty(a.Name, off.property); ok {
				add(t, false)
			}
		case types.TNull:
			add(types.GetNull(), false)
		case types.TMixed:
			add(types.GetMixed(), true)
		}
	}
	if out == nil {
		return nil, true
	}
	return out, possiblyUndefined
}

// adjustParent writes the narrowed type of a literal offset back into the array
// shapes of its parent, so that $a agrees with $a['k']
func (r *Reconciler) adjustParent(ctx *scope.BlockContext, key string, t *types.Union, changed *set.Set[string]) {
	if t.IsNever() {
		return
	}
	parent, last, ok := ast.ParentKey(key)
	if !ok {
		return
	}
	off := parseOffset(last)
	parentType, ok := ctx.GetLocal(parent)
	if !ok || !off.literal {
		return
	}
	item := types.KnownItem{Type: t.WithPossiblyUndefined(false), PossiblyUndefined: t.PossiblyUndefined}
	adjusted := parentType.Map(func(a types.Atomic) types.Atomic {
		switch a := a.(type) {
		case types.TKeyedArray:
			return a.WithKnownItem(off.key, item)
		case types.TList:
			if off.key.IsString || off.key.Int < 0 {
				return a
			}
			if _, known := a.KnownElements[int(off.key.Int)]; known || !a.IsSealed() {
				return a.WithKnownElement(int(off.key.Int), item)
			}
		}
		return a
	})
	if adjusted.Equal(parentType) {
		return
	}
	ctx.SetLocal(parent, adjusted)
	changed.Insert(parent)
	r.adjustParent(ctx, parent, adjusted, changed)
}
