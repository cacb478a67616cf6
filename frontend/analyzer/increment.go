package analyzer

import (
	"math"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
)

// analyzeIncrement is ++ and -- on operand, in either position. The operand is
// written back with its new type; the expression has the new type when prefix and
// the old one otherwise.
func (a *Analyzer) analyzeIncrement(operand ast.Expr, increment, prefix bool, ctx *scope.BlockContext) (*types.Union, error) {
	old, err := a.analyzeExpr(operand, ctx)
	if err != nil {
		return nil, err
	}
	var updated *types.Union
	if increment {
		updated = a.incrementOperand(operand, old, ctx.InsideLoop)
	} else {
		updated = a.decrementOperand(operand, old, ctx.InsideLoop)
	}
	if err := a.assignTo(operand, updated, ctx); err != nil {
		return nil, err
	}
	logger.Debug("analysed increment", "operand", operand, "old", old, "new", updated, "loop", ctx.InsideLoop)
	if prefix {
		return updated, nil
	}
	return old, nil
}

func (a *Analyzer) incrementOperand(at ast.Expr, t *types.Union, insideLoop bool) *types.Union {
	return a.stepOperand(at, t, 1, insideLoop)
}

func (a *Analyzer) decrementOperand(at ast.Expr, t *types.Union, insideLoop bool) *types.Union {
	return a.stepOperand(at, t, -1, insideLoop)
}

// stepOperand is t after adding delta, which is 1 or -1. Inside a loop the step may
// run any number of times, so no literal is produced.
func (a *Analyzer) stepOperand(at ast.Expr, t *types.Union, delta int64, insideLoop bool) *types.Union {
	var out *types.Union
	for atomic := range t.All() {
		stepped := a.stepAtomic(at, atomic, delta)
		if insideLoop {
			stepped = stepped.FlatMap(func(s types.Atomic) *types.Union { return widenStep(s, delta) })
		}
		out = types.CombineUnionTypes(out, stepped)
	}
	if out == nil {
		return types.GetNever()
	}
	return out
}

func (a *Analyzer) stepAtomic(at ast.Expr, atomic types.Atomic, delta int64) *types.Union {
	op := "++"
	if delta < 0 {
		op = "--"
	}
	switch c := atomic.(type) {
	case types.TNever:
		return types.GetNever()
	case types.TInteger:
		return types.NewUnion(stepInt(c, delta))
	case types.TFloat:
		if c.IsLiteral {
			return types.GetLiteralFloat(c.Value + float64(delta))
		}
		return types.GetFloat()
	case types.TNull, types.TVoid:
		if delta > 0 {
			return types.GetLiteralInt(1)
		}
		return types.GetNull()
	case types.TBool:
		return types.NewUnion(c)
	case types.TString:
		return stepString(c, delta)
	case types.TNumeric:
		return types.GetIntOrFloat()
	case types.TMixed:
		a.report(ilerr.MixedOperand, at, "mixed", "Mixed operand of %s", op)
		return types.GetMixed()
	case types.TClassLikeString:
		a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "class-string", "Cannot apply %s to %s", op, c)
		return types.GetNonEmptyString()
	case types.TArrayKey:
		a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "array-key", "Cannot apply %s to %s", op, c)
		return types.NewUnion(types.Int(), types.TFloat{}, types.Str())
	case types.TScalar:
		a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "scalar", "Cannot apply %s to %s", op, c)
		return types.GetScalar()
	case types.TGenericParameter:
		a.reportAs(ilerr.Warning, ilerr.InvalidOperand, at, "template", "Cannot apply %s to %s", op, c)
		if c.Constraint == nil || c.Constraint.IsMixed() {
			return types.GetMixed()
		}
		var out *types.Union
		for constraint := range c.Constraint.All() {
			out = types.CombineUnionTypes(out, a.stepAtomic(at, constraint, delta))
		}
		return out
	}
	a.report(ilerr.InvalidOperand, at, "not incrementable", "Cannot apply %s to %s", op, atomic)
	return types.NewUnion(atomic)
}

func stepInt(i types.TInteger, delta int64) types.Atomic {
	if v, ok := i.LiteralValue(); ok {
		if (delta > 0 && v == math.MaxInt64) || (delta < 0 && v == math.MinInt64) {
			return types.FloatLit(float64(v) + float64(delta))
		}
		return types.IntLit(v + delta)
	}
	lo, hasLo := i.Min()
	hi, hasHi := i.Max()
	if hasLo && (delta > 0 && lo == math.MaxInt64 || delta < 0 && lo == math.MinInt64) {
		hasLo = false
	}
	if hasHi && (delta > 0 && hi == math.MaxInt64 || delta < 0 && hi == math.MinInt64) {
		hasHi = false
	}
	switch {
	case hasLo && hasHi:
		if r, ok := types.IntRangeOf(lo+delta, hi+delta); ok {
			return r
		}
	case hasLo:
		return types.IntFrom(lo + delta)
	case hasHi:
		return types.IntTo(hi + delta)
	}
	return types.Int()
}

func stepString(s types.TString, delta int64) *types.Union {
	v, ok := s.LiteralValue()
	switch {
	case ok && types.IsNumericString(v):
		return types.NewUnion(types.NumericStringStep(v, delta)...)
	case ok && delta > 0:
		return types.GetLiteralString(types.IncrementAlphanumeric(v))
	case ok && v == "":
		return types.GetLiteralInt(-1)
	case ok:
		// decrementing a non numeric string leaves it as it was
		return types.NewUnion(s)
	case s.IsNumeric:
		return types.GetIntOrFloat()
	}
	return types.NewUnion(types.Int(), types.TFloat{}, types.Str())
}

// widenStep drops the literal value of an atomic produced by a step, keeping the
// direction the value moves in
func widenStep(atomic types.Atomic, delta int64) *types.Union {
	switch c := atomic.(type) {
	case types.TInteger:
		v, ok := c.LiteralValue()
		switch {
		case ok && delta > 0:
			return types.NewUnion(types.IntFrom(v))
		case ok:
			return types.NewUnion(types.IntTo(v))
		}
		lo, hasLo := c.Min()
		hi, hasHi := c.Max()
		if delta > 0 && hasLo {
			return types.NewUnion(types.IntFrom(lo))
		}
		if delta < 0 && hasHi {
			return types.NewUnion(types.IntTo(hi))
		}
		return types.GetInt()
	case types.TFloat:
		if c.IsLiteral {
			return types.GetFloat()
		}
	case types.TString:
		if _, ok := c.LiteralValue(); ok {
			return types.NewUnion(types.TString{IsNonEmpty: c.IsNonEmpty, IsNumeric: c.IsNumeric})
		}
	}
	return types.NewUnion(atomic)
}
