package analyzer

import (
	"strconv"
	"strings"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// analyzeExpr infers the type of expr in ctx, recording it in the artifacts.
// Assignments within expr update ctx.
func (a *Analyzer) analyzeExpr(expr ast.Expr, ctx *scope.BlockContext) (*types.Union, error) {
	t, err := a.inferExpr(expr, ctx)
	if err != nil {
		return nil, err
	}
	a.artifacts.put(expr, t)
	return t, nil
}

func (a *Analyzer) inferExpr(expr ast.Expr, ctx *scope.BlockContext) (*types.Union, error) {
	switch e := expr.(type) {
	case *ast.Variable:
		return a.analyzeVariable(e, ctx), nil
	case *ast.IntLiteral:
		return types.GetLiteralInt(e.Value), nil
	case *ast.FloatLiteral:
		return types.GetLiteralFloat(e.Value), nil
	case *ast.StringLiteral:
		return types.GetLiteralString(e.Value), nil
	case *ast.BoolLiteral:
		return types.NewUnion(types.BoolLiteral(e.Value)), nil
	case *ast.NullLiteral:
		return types.GetNull(), nil
	case *ast.ArrayLiteral:
		return a.analyzeArrayLiteral(e, ctx)
	case *ast.ArrayAccess:
		return a.analyzeArrayAccess(e, ctx)
	case *ast.PropertyFetch:
		return a.analyzePropertyFetch(e, ctx)
	case *ast.ClassConstFetch:
		return a.analyzeClassConstFetch(e), nil
	case *ast.Binary:
		return a.analyzeBinary(e, ctx)
	case *ast.UnaryPrefix:
		return a.analyzeUnaryPrefix(e, ctx)
	case *ast.UnaryPostfix:
		return a.analyzeIncrement(e.Operand, e.Op == ast.OpPostIncrement, false, ctx)
	case *ast.Assign:
		return a.analyzeAssign(e, ctx)
	case *ast.Call:
		return a.analyzeCall(e, ctx)
	case *ast.MethodCall:
		return a.analyzeMethodCall(e, ctx)
	case *ast.New:
		return a.analyzeNew(e, ctx)
	case *ast.Instanceof:
		if _, err := a.analyzeExpr(e.Expr, ctx); err != nil {
			return nil, err
		}
		if !a.codebase.ClassExists(e.Class) {
			a.report(ilerr.NonExistentClass, e, "unknown class", "Class %s does not exist", e.Class)
		}
		return types.GetBool(), nil
	case *ast.Isset:
		return a.insideIsset(ctx, func() error {
			for _, v := range e.Values {
				if _, err := a.analyzeExpr(v, ctx); err != nil {
					return err
				}
			}
			return nil
		})
	case *ast.Empty:
		return a.insideIsset(ctx, func() error {
			_, err := a.analyzeExpr(e.Value, ctx)
			return err
		})
	case *ast.Ternary:
		return a.analyzeTernary(e, ctx)
	}
	return nil, ilerr.NewAnalysisError(expr, "unsupported expression %T", expr)
}

func (a *Analyzer) insideIsset(ctx *scope.BlockContext, f func() error) (*types.Union, error) {
	saved := ctx.InsideIsset
	ctx.InsideIsset = true
	defer func() { ctx.InsideIsset = saved }()
	if err := f(); err != nil {
		return nil, err
	}
	return types.GetBool(), nil
}

func (a *Analyzer) analyzeVariable(e *ast.Variable, ctx *scope.BlockContext) *types.Union {
	key := "$" + e.Name
	t, ok := ctx.GetLocal(key)
	switch {
	case !ok && ctx.InsideIsset:
		return types.GetNull().WithPossiblyUndefined(true)
	case !ok:
		a.report(ilerr.UndefinedVariable, e, "undefined", "Cannot find referenced variable %s", key)
		return types.GetMixed()
	case t.PossiblyUndefined && !ctx.InsideIsset:
		a.report(ilerr.PossiblyUndefinedVariable, e, "possibly undefined", "Possibly undefined variable %s", key)
		return t.WithPossiblyUndefined(false)
	}
	return t
}

func (a *Analyzer) analyzeArrayLiteral(e *ast.ArrayLiteral, ctx *scope.BlockContext) (*types.Union, error) {
	if len(e.Items) == 0 {
		return types.GetEmptyArray(), nil
	}
	isList := true
	keyed := types.TKeyedArray{KnownItems: map[types.ArrayKey]types.KnownItem{}, NonEmpty: true}
	var otherKeys, otherValues *types.Union
	var next int64
	for _, item := range e.Items {
		var keyType *types.Union
		if item.Key != nil {
			var err error
			if keyType, err = a.analyzeExpr(item.Key, ctx); err != nil {
				return nil, err
			}
		}
		value, err := a.analyzeExpr(item.Value, ctx)
		if err != nil {
			return nil, err
		}

		if keyType == nil {
			keyed.KnownItems[types.IntKey(next)] = types.KnownItem{Type: value}
			next++
			continue
		}
		key, ok := literalArrayKey(keyType)
		if !ok {
			isList = false
			otherKeys = types.CombineUnionTypes(otherKeys, arrayKeyPart(keyType))
			otherValues = types.CombineUnionTypes(otherValues, value)
			continue
		}
		if key.IsString || key.Int != next {
			isList = false
		}
		keyed.KnownItems[key] = types.KnownItem{Type: value}
		if !key.IsString && key.Int >= next {
			next = key.Int + 1
		}
	}

	if isList {
		list := types.TList{KnownElements: make(map[int]types.KnownItem, len(keyed.KnownItems))}
		for key, item := range keyed.KnownItems {
			list.KnownElements[int(key.Int)] = item
		}
		return types.NewUnion(list), nil
	}
	if otherKeys != nil {
		keyed.Parameters = &types.KeyedParameters{Key: otherKeys, Value: otherValues}
	}
	return types.NewUnion(keyed), nil
}

// literalArrayKey is the key a literal offset stands for. Strings holding a
// canonical decimal integer are int keys.
func literalArrayKey(t *types.Union) (types.ArrayKey, bool) {
	atomic, ok := t.Single()
	if !ok {
		return types.ArrayKey{}, false
	}
	switch k := atomic.(type) {
	case types.TInteger:
		if v, ok := k.LiteralValue(); ok {
			return types.IntKey(v), true
		}
	case types.TString:
		if v, ok := k.LiteralValue(); ok {
			if i, err := strconv.ParseInt(v, 10, 64); err == nil && strconv.FormatInt(i, 10) == v {
				return types.IntKey(i), true
			}
			return types.StrKey(v), true
		}
	case types.TBool:
		if k.IsTrue() {
			return types.IntKey(1), true
		}
		if k.IsFalse() {
			return types.IntKey(0), true
		}
	case types.TNull:
		return types.StrKey(""), true
	}
	return types.ArrayKey{}, false
}

// arrayKeyPart is the part of t usable as an array key
func arrayKeyPart(t *types.Union) *types.Union {
	keys := t.Filter(func(a types.Atomic) bool {
		switch a.Kind() {
		case types.KindInt, types.KindString, types.KindClassString, types.KindArrayKey:
			return true
		}
		return false
	})
	if keys.IsNever() {
		return types.GetArrayKey()
	}
	return keys
}

func (a *Analyzer) analyzeArrayAccess(e *ast.ArrayAccess, ctx *scope.BlockContext) (*types.Union, error) {
	if e.Index == nil {
		return nil, ilerr.NewAnalysisError(e, "cannot read from %s[]", ast.ExprString(e.Array))
	}
	container, err := a.analyzeExpr(e.Array, ctx)
	if err != nil {
		return nil, err
	}
	index, err := a.analyzeExpr(e.Index, ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := ast.VarKey(e); ok {
		if t, ok := ctx.GetLocal(key); ok {
			if ctx.InsideIsset {
				return t, nil
			}
			return t.WithPossiblyUndefined(false), nil
		}
	}

	var out *types.Union
	for atomic := range container.All() {
		out = types.CombineUnionTypes(out, a.offsetType(e, atomic, index, ctx))
	}
	if out == nil {
		return types.GetMixed(), nil
	}
	return out, nil
}

// offsetType is the type of reading index from a container of type container
func (a *Analyzer) offsetType(at ast.Expr, container types.Atomic, index *types.Union, ctx *scope.BlockContext) *types.Union {
	key, literal := literalArrayKey(index)
	missing := types.GetNull()
	if ctx.InsideIsset {
		missing = missing.WithPossiblyUndefined(true)
	}

	switch c := container.(type) {
	case types.TList:
		if literal && !key.IsString {
			if item, ok := c.KnownElements[int(key.Int)]; ok {
				return knownItemType(item, ctx)
			}
			if c.IsSealed() {
				return missing
			}
			return c.ElementType
		}
		return types.ArrayValueType(c)
	case types.TKeyedArray:
		if literal {
			if item, ok := c.KnownItems[key]; ok {
				return knownItemType(item, ctx)
			}
			if c.Parameters == nil {
				return missing
			}
			return c.Parameters.Value
		}
		if c.IsEmptyArray() {
			return missing
		}
		return types.ArrayValueType(c)
	case types.TIterable:
		return c.Value
	case types.TString, types.TClassLikeString:
		return types.GetString()
	case types.TNull, types.TVoid:
		return types.GetNull()
	case types.TNamedObject:
		if a.codebase.IsSubtypeOf(c.Name, "ArrayAccess") {
			return a.callMethod(at, c, "offsetGet", []*types.Union{index}, nil)
		}
	}
	return types.GetMixed()
}

func knownItemType(item types.KnownItem, ctx *scope.BlockContext) *types.Union {
	if item.PossiblyUndefined && ctx.InsideIsset {
		return item.Type.WithPossiblyUndefined(true)
	}
	if item.PossiblyUndefined {
		return types.CombineUnionTypes(item.Type, types.GetNull())
	}
	return item.Type
}

func (a *Analyzer) analyzePropertyFetch(e *ast.PropertyFetch, ctx *scope.BlockContext) (*types.Union, error) {
	object, err := a.analyzeExpr(e.Object, ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := ast.VarKey(e); ok {
		if t, ok := ctx.GetLocal(key); ok {
			return t, nil
		}
	}
	var out *types.Union
	for atomic := range object.All() {
		var t *types.Union
		switch o := atomic.(type) {
		case types.TNamedObject:
			var ok bool
			if t, ok = a.codebase.GetProperty(o.Name, e.Name); !ok {
				t = types.GetMixed()
			}
		case types.TNull:
			t = types.GetNull()
		default:
			t = types.GetMixed()
		}
		out = types.CombineUnionTypes(out, t)
	}
	return out, nil
}

func (a *Analyzer) analyzeClassConstFetch(e *ast.ClassConstFetch) *types.Union {
	c, exists := a.codebase.GetClass(e.Class)
	if !exists {
		a.report(ilerr.NonExistentClass, e, "unknown class", "Class %s does not exist", e.Class)
	}
	switch {
	case strings.EqualFold(e.Name, "class"):
		name := e.Class
		if exists {
			name = c.Name
		}
		return types.NewUnion(types.ClassStringLit(name))
	case exists && c.IsEnum():
		for _, enumCase := range c.EnumCases {
			if enumCase == e.Name {
				return types.NewUnion(types.TEnum{Name: c.Name, Case: enumCase})
			}
		}
	}
	return types.GetMixed()
}

func (a *Analyzer) analyzeTernary(e *ast.Ternary, ctx *scope.BlockContext) (*types.Union, error) {
	cond, err := a.analyzeExpr(e.Cond, ctx)
	if err != nil {
		return nil, err
	}

	thenCtx := ctx.Clone()
	a.assume(thenCtx, e.Cond, false, true)
	var then *types.Union
	if e.Then == nil {
		then = a.reconciler.Reconcile(assertion.Simple(assertion.Truthy), cond, false, "", ast.Range{}, false, ctx.InsideLoop)
	} else if then, err = a.analyzeExpr(e.Then, thenCtx); err != nil {
		return nil, err
	}

	elseCtx := ctx.Clone()
	a.assume(elseCtx, e.Cond, true, true)
	els, err := a.analyzeExpr(e.Else, elseCtx)
	if err != nil {
		return nil, err
	}

	keepAssignments(ctx, thenCtx, elseCtx)
	switch {
	case cond.IsAlwaysTruthy():
		return then, nil
	case cond.IsAlwaysFalsy():
		return els, nil
	}
	return types.CombineUnionTypes(then, els), nil
}

// keepAssignments applies to ctx the writes made in alternatives which all started
// from ctx. What the alternatives only narrowed does not outlive them.
func keepAssignments(ctx *scope.BlockContext, alternatives ...*scope.BlockContext) {
	assigned := newlyAssigned(ctx, alternatives[0])
	for _, alt := range alternatives[1:] {
		assigned.InsertSet(newlyAssigned(ctx, alt))
	}
	if assigned.Empty() {
		return
	}
	merged := scope.MergeBranches(ctx, alternatives...)
	start := ctx.Clone()
	updated := set.New[string](assigned.Size())
	ctx.Update(start, merged, merged.HasReturned, assigned, updated)
	for key := range assigned.Items() {
		if updated.Contains(key) {
			continue
		}
		if t, ok := merged.GetLocal(key); ok {
			ctx.FilterClauses(key)
			ctx.SetLocal(key, t)
		}
	}
	ctx.PossiblyAssignedVariableIDs.InsertSet(assigned)
	ctx.AssignedVariableIDs.InsertSet(merged.AssignedVariableIDs)
}
