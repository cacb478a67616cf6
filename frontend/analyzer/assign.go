package analyzer

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
)

func (a *Analyzer) analyzeAssign(e *ast.Assign, ctx *scope.BlockContext) (*types.Union, error) {
	value, err := a.analyzeExpr(e.Value, ctx)
	if err != nil {
		return nil, err
	}
	value = value.WithPossiblyUndefined(false)
	if err := a.assignTo(e.Target, value, ctx); err != nil {
		return nil, err
	}
	a.artifacts.put(e.Target, value)
	return value, nil
}

// assignTo writes t to the location target denotes. Writing to an array offset
// also updates the type of the array holding it.
func (a *Analyzer) assignTo(target ast.Expr, t *types.Union, ctx *scope.BlockContext) error {
	switch tg := ast.Unwrap(target).(type) {
	case *ast.Variable:
		ctx.Assign("$"+tg.Name, t)
		return nil
	case *ast.ArrayAccess:
		var index *types.Union
		if tg.Index != nil {
			var err error
			if index, err = a.analyzeExpr(tg.Index, ctx); err != nil {
				return err
			}
		}
		base := a.currentType(tg.Array, ctx)
		if err := a.assignTo(tg.Array, withOffset(base, index, t), ctx); err != nil {
			return err
		}
		if key, ok := ast.VarKey(tg); ok {
			ctx.SetLocal(key, t)
			ctx.AssignedVariableIDs.Insert(key)
			ctx.PossiblyAssignedVariableIDs.Insert(key)
		}
		return nil
	case *ast.PropertyFetch:
		if _, err := a.analyzeExpr(tg.Object, ctx); err != nil {
			return err
		}
		if key, ok := ast.VarKey(tg); ok {
			ctx.Assign(key, t)
		}
		return nil
	}
	return ilerr.NewAnalysisError(target, "cannot assign to %s", ast.ExprString(target))
}

// currentType is the type expr has before a write through it, or nil when it has
// none yet. Nothing is reported, as the location is about to be written.
func (a *Analyzer) currentType(expr ast.Expr, ctx *scope.BlockContext) *types.Union {
	if key, ok := ast.VarKey(expr); ok {
		if t, ok := ctx.GetLocal(key); ok {
			return t.WithPossiblyUndefined(false)
		}
	}
	access, ok := ast.Unwrap(expr).(*ast.ArrayAccess)
	if !ok || access.Index == nil {
		return nil
	}
	container := a.currentType(access.Array, ctx)
	if container == nil {
		return nil
	}
	index, _ := a.artifacts.TypeOf(access.Index)
	if index == nil {
		index = types.GetArrayKey()
	}
	var out *types.Union
	for atomic := range container.All() {
		out = types.CombineUnionTypes(out, a.offsetType(access, atomic, index, ctx))
	}
	return out
}

// withOffset is base after writing value at index, or appending when index is nil
func withOffset(base, index, value *types.Union) *types.Union {
	if base == nil {
		base = types.GetEmptyArray()
	}
	return base.FlatMap(func(atomic types.Atomic) *types.Union {
		switch c := atomic.(type) {
		case types.TList:
			return types.NewUnion(listWithOffset(c, index, value))
		case types.TKeyedArray:
			return types.NewUnion(keyedWithOffset(c, index, value))
		case types.TNull, types.TVoid, types.TNever:
			return types.NewUnion(keyedWithOffset(types.EmptyArray(), index, value))
		case types.TBool:
			if c.IsFalse() {
				return types.NewUnion(keyedWithOffset(types.EmptyArray(), index, value))
			}
		}
		return types.NewUnion(atomic)
	})
}

func listWithOffset(l types.TList, index, value *types.Union) types.Atomic {
	n := len(l.KnownElements)
	definite := true
	for _, item := range l.KnownElements {
		definite = definite && !item.PossiblyUndefined
	}
	if index == nil {
		if l.IsSealed() && definite {
			return l.WithKnownElement(n, types.KnownItem{Type: value})
		}
		l.ElementType = types.CombineUnionTypes(types.ArrayValueType(l), value)
		l.KnownElements = nil
		l.NonEmpty = true
		return l
	}
	if key, ok := literalArrayKey(index); ok && !key.IsString {
		if _, known := l.KnownElements[int(key.Int)]; known || l.IsSealed() && definite && int(key.Int) == n {
			return l.WithKnownElement(int(key.Int), types.KnownItem{Type: value})
		}
	}
	return keyedWithOffset(types.ListAsKeyed(l), index, value)
}

func keyedWithOffset(k types.TKeyedArray, index, value *types.Union) types.Atomic {
	if index == nil {
		if k.IsEmptyArray() {
			return types.TList{KnownElements: map[int]types.KnownItem{0: {Type: value}}}
		}
		if k.Parameters == nil {
			next := int64(0)
			for key := range k.KnownItems {
				if !key.IsString && key.Int >= next {
					next = key.Int + 1
				}
			}
			return k.WithKnownItem(types.IntKey(next), types.KnownItem{Type: value})
		}
		index = types.GetInt()
	}
	if key, ok := literalArrayKey(index); ok {
		if k.IsEmptyArray() && !key.IsString && key.Int == 0 {
			return types.TList{KnownElements: map[int]types.KnownItem{0: {Type: value}}}
		}
		return k.WithKnownItem(key, types.KnownItem{Type: value})
	}
	out := types.ArrayOf(
		types.CombineUnionTypes(nonEmptyOrNil(types.ArrayKeyType(k)), arrayKeyPart(index)),
		types.CombineUnionTypes(nonEmptyOrNil(types.ArrayValueType(k)), value),
	)
	out.NonEmpty = true
	return out
}

func nonEmptyOrNil(u *types.Union) *types.Union {
	if u.IsNever() {
		return nil
	}
	return u
}
