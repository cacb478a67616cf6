package analyzer

import (
	"math"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/cottand/narrow/frontend/types"
)

func (a *Analyzer) analyzeUnaryPrefix(e *ast.UnaryPrefix, ctx *scope.BlockContext) (*types.Union, error) {
	switch {
	case e.Op == ast.OpPreIncrement || e.Op == ast.OpPreDecrement:
		return a.analyzeIncrement(e.Operand, e.Op == ast.OpPreIncrement, true, ctx)
	case e.Op.IsCast():
		operand, err := a.analyzeExpr(e.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return a.analyzeCast(e, operand)
	}

	if e.Op == ast.OpNot {
		saved := ctx.InsideNegation
		ctx.InsideNegation = !saved
		operand, err := a.analyzeExpr(e.Operand, ctx)
		ctx.InsideNegation = saved
		if err != nil {
			return nil, err
		}
		switch {
		case operand.IsAlwaysTruthy():
			return types.GetFalse(), nil
		case operand.IsAlwaysFalsy():
			return types.GetTrue(), nil
		}
		return types.GetBool(), nil
	}

	operand, err := a.analyzeExpr(e.Operand, ctx)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpReference:
		return operand.WithByReference(true), nil
	case ast.OpNegate:
		return negate(operand), nil
	}
	// +, ~ and @ leave the type of their operand alone
	return operand, nil
}

// negate is the type of -t
func negate(t *types.Union) *types.Union {
	return t.FlatMap(func(atomic types.Atomic) *types.Union {
		switch c := atomic.(type) {
		case types.TNull, types.TVoid:
			return types.GetLiteralInt(0)
		case types.TBool:
			switch {
			case c.IsTrue():
				return types.GetLiteralInt(-1)
			case c.IsFalse():
				return types.GetLiteralInt(0)
			}
			return types.NewUnion(types.IntLit(-1), types.IntLit(0))
		case types.TInteger:
			if negated, ok := c.Negated(); ok {
				return types.NewUnion(negated)
			}
			if v, ok := c.LiteralValue(); ok && v == math.MinInt64 {
				return types.GetLiteralFloat(-float64(v))
			}
			return types.GetIntOrFloat()
		case types.TFloat:
			if c.IsLiteral {
				return types.GetLiteralFloat(-c.Value)
			}
			return types.GetFloat()
		case types.TGenericParameter:
			if c.Constraint != nil && c.Constraint.OnlyKinds(types.KindInt, types.KindFloat, types.KindNumeric) {
				return types.NewUnion(c)
			}
		}
		return types.GetIntOrFloat()
	})
}
