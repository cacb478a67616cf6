package analyzer

import (
	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// conditionFormula builds the clauses holding when cond is truthy. A condition too
// complex to reason about is reported and contributes no clauses.
func (a *Analyzer) conditionFormula(cond ast.Expr) []algebra.Clause {
	clauses, err := algebra.GetFormula(cond, ast.RangeOf(cond), a.formulaOptions())
	if err != nil {
		if errors.Is(err, algebra.ErrComplicatedExpression) {
			a.report(ilerr.ConditionIsTooComplex, cond, "this condition",
				"Condition %s is too complex to analyse", ast.ExprString(cond))
		}
		logger.Debug("no formula for condition", "cond", cond, "err", err)
		return nil
	}
	return clauses
}

// negateFormula is the formula holding when clauses does not. Negations too costly
// to compute tell us nothing, which is a wedge.
func (a *Analyzer) negateFormula(clauses []algebra.Clause, span ast.Range) []algebra.Clause {
	negated, err := algebra.NegateFormula(clauses, a.formulaOptions())
	if err != nil {
		logger.Debug("could not negate formula", "err", err)
		return []algebra.Clause{algebra.NewWedge(span)}
	}
	return negated
}

// narrow applies clauses to the locals of ctx. Issues are only reported when span,
// the condition which created the clauses, is not zero. The keys narrowed are returned.
func (a *Analyzer) narrow(ctx *scope.BlockContext, clauses []algebra.Clause, span ast.Range, negated bool, referenced *set.Set[string]) *set.Set[string] {
	changed := set.New[string](0)
	truths, active := algebra.FindSatisfyingAssignments(clauses, span, referenced)
	a.reconciler.ReconcileKeyedTypes(truths, active, ctx, changed, referenced, span, negated)
	return changed
}

// assume narrows ctx to the states where cond is truthy, or falsy when negated.
// This is used by ternaries and the operands of logical operators, where the
// condition also shapes what follows.
func (a *Analyzer) assume(ctx *scope.BlockContext, cond ast.Expr, negated, report bool) {
	clauses := a.conditionFormula(cond)
	if clauses == nil {
		return
	}
	span := ast.RangeOf(cond)
	if negated {
		clauses = a.negateFormula(clauses, span)
	}
	all := algebra.SaturateClauses(append(append([]algebra.Clause(nil), ctx.Clauses...), clauses...))
	narrowSpan := ast.Range{}
	if report {
		narrowSpan = span
	}
	changed := a.narrow(ctx, all, narrowSpan, negated, referencedKeys(cond))
	ctx.Clauses, _ = scope.RemoveReconciledClauses(all, changed)
}

// referencedKeys collects the keys of every trackable location cond mentions
func referencedKeys(cond ast.Expr) *set.Set[string] {
	keys := set.New[string](4)
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		if key, ok := ast.VarKey(e); ok {
			keys.Insert(key)
		}
		switch e := e.(type) {
		case *ast.ArrayLiteral:
			for _, item := range e.Items {
				walk(item.Key)
				walk(item.Value)
			}
		case *ast.ArrayAccess:
			walk(e.Array)
			walk(e.Index)
		case *ast.PropertyFetch:
			walk(e.Object)
		case *ast.Binary:
			walk(e.Left)
			walk(e.Right)
		case *ast.UnaryPrefix:
			walk(e.Operand)
		case *ast.UnaryPostfix:
			walk(e.Operand)
		case *ast.Assign:
			walk(e.Target)
			walk(e.Value)
		case *ast.Call:
			for _, arg := range e.Args {
				walk(arg)
			}
		case *ast.MethodCall:
			walk(e.Object)
			for _, arg := range e.Args {
				walk(arg)
			}
		case *ast.New:
			for _, arg := range e.Args {
				walk(arg)
			}
		case *ast.Instanceof:
			walk(e.Expr)
		case *ast.Isset:
			for _, v := range e.Values {
				walk(v)
			}
		case *ast.Empty:
			walk(e.Value)
		case *ast.Ternary:
			walk(e.Cond)
			walk(e.Then)
			walk(e.Else)
		}
	}
	walk(cond)
	return keys
}
