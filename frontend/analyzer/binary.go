package analyzer

import (
	"math"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
)

func (a *Analyzer) analyzeBinary(e *ast.Binary, ctx *scope.BlockContext) (*types.Union, error) {
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		return a.analyzeLogical(e, ctx)
	case ast.OpCoalesce:
		return a.analyzeCoalesce(e, ctx)
	}

	left, err := a.analyzeExpr(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := a.analyzeExpr(e.Right, ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case e.Op.IsComparison(), e.Op == ast.OpXor:
		return types.GetBool(), nil
	case e.Op == ast.OpConcat:
		return a.analyzeConcat(e, left, right, ctx)
	}
	return a.analyzeArithmetic(e, left, right, ctx), nil
}

// analyzeLogical analyses && and ||. The right operand only runs when the left
// one did not decide the result, and is analysed knowing so.
func (a *Analyzer) analyzeLogical(e *ast.Binary, ctx *scope.BlockContext) (*types.Union, error) {
	left, err := a.analyzeExpr(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	rightCtx := ctx.Clone()
	a.assume(rightCtx, e.Left, e.Op == ast.OpOr, false)
	right, err := a.analyzeExpr(e.Right, rightCtx)
	if err != nil {
		return nil, err
	}
	keepAssignments(ctx, rightCtx, ctx.Clone())

	if e.Op == ast.OpAnd {
		switch {
		case left.IsAlwaysFalsy() || right.IsAlwaysFalsy():
			return types.GetFalse(), nil
		case left.IsAlwaysTruthy() && right.IsAlwaysTruthy():
			return types.GetTrue(), nil
		}
		return types.GetBool(), nil
	}
	switch {
	case left.IsAlwaysTruthy() || right.IsAlwaysTruthy():
		return types.GetTrue(), nil
	case left.IsAlwaysFalsy() && right.IsAlwaysFalsy():
		return types.GetFalse(), nil
	}
	return types.GetBool(), nil
}

func (a *Analyzer) analyzeCoalesce(e *ast.Binary, ctx *scope.BlockContext) (*types.Union, error) {
	saved := ctx.InsideIsset
	ctx.InsideIsset = true
	left, err := a.analyzeExpr(e.Left, ctx)
	ctx.InsideIsset = saved
	if err != nil {
		return nil, err
	}
	if !left.PossiblyUndefined && !left.IsNullable() && !left.HasKind(types.KindMixed) {
		return left, nil
	}

	rightCtx := ctx.Clone()
	right, err := a.analyzeExpr(e.Right, rightCtx)
	if err != nil {
		return nil, err
	}
	keepAssignments(ctx, rightCtx, ctx.Clone())

	nonNull := left.WithPossiblyUndefined(false).FlatMap(func(atomic types.Atomic) *types.Union {
		switch c := atomic.(type) {
		case types.TNull, types.TVoid:
			return types.GetNever()
		case types.TMixed:
			c.IsNonNull = true
			return types.NewUnion(c)
		}
		return types.NewUnion(atomic)
	})
	return types.CombineUnionTypes(nonNull, right), nil
}

func (a *Analyzer) analyzeConcat(e *ast.Binary, left, right *types.Union, ctx *scope.BlockContext) (*types.Union, error) {
	l, err := a.toStringOperand(e.Left, left)
	if err != nil {
		return nil, err
	}
	r, err := a.toStringOperand(e.Right, right)
	if err != nil {
		return nil, err
	}
	if !ctx.InsideLoop {
		if ls, ok := singleLiteralString(l); ok {
			if rs, ok := singleLiteralString(r); ok {
				return types.GetLiteralString(ls + rs), nil
			}
		}
	}
	return types.NewUnion(types.TString{IsNonEmpty: isNonEmptyString(l) || isNonEmptyString(r)}), nil
}

func singleLiteralString(t *types.Union) (string, bool) {
	atomic, ok := t.Single()
	if !ok {
		return "", false
	}
	if s, ok := atomic.(types.TString); ok {
		return s.LiteralValue()
	}
	return "", false
}

func isNonEmptyString(t *types.Union) bool {
	for atomic := range t.All() {
		switch c := atomic.(type) {
		case types.TClassLikeString:
		case types.TString:
			if v, ok := c.LiteralValue(); ok {
				if v == "" {
					return false
				}
				continue
			}
			if !c.IsNonEmpty && !c.IsTruthy && !c.IsNumeric {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// analyzeArithmetic is +, -, *, / and % on operands of types left and right
func (a *Analyzer) analyzeArithmetic(e *ast.Binary, left, right *types.Union, ctx *scope.BlockContext) *types.Union {
	if e.Op == ast.OpAdd && left.IsArray() && right.IsArray() {
		return arrayUnion(left, right)
	}
	ls := a.numericOperand(e.Left, e.Op, left)
	rs := a.numericOperand(e.Right, e.Op, right)

	var out []types.Atomic
	divisionByZero := false
	for _, l := range ls {
		for _, r := range rs {
			result, byZero := arithmetic(e.Op, l, r)
			divisionByZero = divisionByZero || byZero
			out = append(out, result...)
		}
	}
	if divisionByZero {
		a.report(ilerr.InvalidOperand, e.Right, "zero", "%s by zero", e.Op)
	}
	result := types.NewUnion(types.Combine(out)...)
	if len(out) == 0 {
		result = types.GetIntOrFloat()
	}
	if ctx.InsideLoop {
		result = result.Map(func(atomic types.Atomic) types.Atomic {
			switch c := atomic.(type) {
			case types.TInteger:
				if c.IntKind() == types.IntKindLiteral {
					return types.Int()
				}
			case types.TFloat:
				return types.TFloat{}
			}
			return atomic
		})
	}
	return result
}

// numericOperand is the numbers t stands for as an operand of op
func (a *Analyzer) numericOperand(at ast.Expr, op ast.BinaryOperator, t *types.Union) []types.Atomic {
	var out []types.Atomic
	for atomic := range t.All() {
		switch c := atomic.(type) {
		case types.TInteger, types.TFloat:
			out = append(out, c)
		case types.TNull, types.TVoid:
			out = append(out, types.IntLit(0))
		case types.TBool:
			switch {
			case c.IsTrue():
				out = append(out, types.IntLit(1))
			case c.IsFalse():
				out = append(out, types.IntLit(0))
			default:
				r, _ := types.IntRangeOf(0, 1)
				out = append(out, r)
			}
		case types.TString:
			v, isLiteral := c.LiteralValue()
			switch {
			case isLiteral && types.IsNumericString(v):
				out = append(out, types.NumericStringStep(v, 0)...)
			case isLiteral:
				a.report(ilerr.InvalidOperand, at, "non-numeric", "Non-numeric string '%s' used as operand of %s", v, op)
				out = append(out, types.IntLit(0))
			case c.IsNumeric:
				out = append(out, types.Int(), types.TFloat{})
			default:
				a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "possibly non-numeric", "String used as operand of %s may not be numeric", op)
				out = append(out, types.Int(), types.TFloat{})
			}
		case types.TNumeric:
			out = append(out, types.Int(), types.TFloat{})
		case types.TMixed:
			a.report(ilerr.MixedOperand, at, "mixed", "Mixed operand of %s", op)
			out = append(out, types.Int(), types.TFloat{})
		case types.TGenericParameter:
			if c.Constraint != nil && c.Constraint.OnlyKinds(types.KindInt, types.KindFloat, types.KindNumeric) {
				out = append(out, a.numericOperand(at, op, c.Constraint)...)
				continue
			}
			a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "template", "%s used as operand of %s", c, op)
			out = append(out, types.Int(), types.TFloat{})
		case types.TArrayKey, types.TScalar, types.TClassLikeString:
			a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "possibly non-numeric", "%s used as operand of %s", c, op)
			out = append(out, types.Int(), types.TFloat{})
		case types.TNever:
		default:
			a.report(ilerr.InvalidOperand, at, "invalid operand", "%s cannot be an operand of %s", c, op)
			out = append(out, types.Int(), types.TFloat{})
		}
	}
	return out
}

// arithmetic is l op r, and whether r is known to be a zero divisor
func arithmetic(op ast.BinaryOperator, l, r types.Atomic) ([]types.Atomic, bool) {
	li, lIsInt := l.(types.TInteger)
	ri, rIsInt := r.(types.TInteger)
	lv, lLit := literalNumber(l)
	rv, rLit := literalNumber(r)

	if (op == ast.OpDiv || op == ast.OpMod) && rLit && rv == 0 {
		return nil, true
	}
	if op == ast.OpMod {
		x, xok := li.LiteralValue()
		y, yok := ri.LiteralValue()
		if lIsInt && rIsInt && xok && yok {
			if y == -1 {
				return []types.Atomic{types.IntLit(0)}, false
			}
			return []types.Atomic{types.IntLit(x % y)}, false
		}
		if lLit && rLit && !math.IsInf(lv, 0) && !math.IsNaN(lv) && math.Abs(lv) < math.MaxInt64 && math.Abs(rv) < math.MaxInt64 {
			if int64(rv) == 0 {
				return nil, true
			}
			return []types.Atomic{types.IntLit(int64(lv) % int64(rv))}, false
		}
		return []types.Atomic{types.Int()}, false
	}

	if lIsInt && rIsInt {
		x, xok := li.LiteralValue()
		y, yok := ri.LiteralValue()
		if xok && yok {
			if v, ok := intArithmetic(op, x, y); ok {
				return []types.Atomic{v}, false
			}
		}
	}
	if lLit && rLit {
		var v float64
		switch op {
		case ast.OpAdd:
			v = lv + rv
		case ast.OpSub:
			v = lv - rv
		case ast.OpMul:
			v = lv * rv
		case ast.OpDiv:
			v = lv / rv
		}
		return []types.Atomic{types.FloatLit(v)}, false
	}

	if op == ast.OpDiv {
		if lIsInt && rIsInt {
			return []types.Atomic{types.Int(), types.TFloat{}}, false
		}
		return []types.Atomic{types.TFloat{}}, false
	}
	if lIsInt && rIsInt {
		return []types.Atomic{types.Int()}, false
	}
	return []types.Atomic{types.TFloat{}}, false
}

// intArithmetic folds x op y, failing when the result does not fit an int, or is a
// fraction
func intArithmetic(op ast.BinaryOperator, x, y int64) (types.Atomic, bool) {
	switch op {
	case ast.OpAdd:
		if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
			return nil, false
		}
		return types.IntLit(x + y), true
	case ast.OpSub:
		if (y < 0 && x > math.MaxInt64+y) || (y > 0 && x < math.MinInt64+y) {
			return nil, false
		}
		return types.IntLit(x - y), true
	case ast.OpMul:
		if x == 0 || y == 0 {
			return types.IntLit(0), true
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, false
		}
		return types.IntLit(p), true
	case ast.OpDiv:
		if y == -1 && x == math.MinInt64 {
			return nil, false
		}
		if x%y == 0 {
			return types.IntLit(x / y), true
		}
	}
	return nil, false
}

func literalNumber(atomic types.Atomic) (float64, bool) {
	switch c := atomic.(type) {
	case types.TInteger:
		if v, ok := c.LiteralValue(); ok {
			return float64(v), true
		}
	case types.TFloat:
		if c.IsLiteral {
			return c.Value, true
		}
	}
	return 0, false
}

// arrayUnion is left + right on arrays: the keys of right not in left are added
func arrayUnion(left, right *types.Union) *types.Union {
	if right.OnlyKinds(types.KindKeyedArray) && isEmptyArrayUnion(right) {
		return left
	}
	if left.OnlyKinds(types.KindKeyedArray) && isEmptyArrayUnion(left) {
		return right
	}
	var keys, values *types.Union
	nonEmpty := false
	for atomic := range types.CombineUnionTypes(left, right).All() {
		keys = types.CombineUnionTypes(keys, nonEmptyOrNil(types.ArrayKeyType(atomic)))
		values = types.CombineUnionTypes(values, nonEmptyOrNil(types.ArrayValueType(atomic)))
		switch c := atomic.(type) {
		case types.TList:
			nonEmpty = nonEmpty || c.NonEmpty || c.HasDefiniteElement()
		case types.TKeyedArray:
			nonEmpty = nonEmpty || c.NonEmpty || c.HasDefiniteItem()
		}
	}
	if keys == nil || values == nil {
		return types.GetEmptyArray()
	}
	out := types.ArrayOf(keys, values)
	out.NonEmpty = nonEmpty
	return types.NewUnion(out)
}

func isEmptyArrayUnion(t *types.Union) bool {
	for atomic := range t.All() {
		if k, ok := atomic.(types.TKeyedArray); !ok || !k.IsEmptyArray() {
			return false
		}
	}
	return true
}
