package analyzer

import (
	"slices"

	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/scope"
	"github.com/hashicorp/go-set/v3"
)

// ifConditionalScope is the outcome of analysing the condition of one branch of an
// if/elseif chain
type ifConditionalScope struct {
	// ifContext is entered when the condition holds
	ifContext *scope.BlockContext
	// postIfContext is the state after the condition was evaluated, whatever its value
	postIfContext       *scope.BlockContext
	condClauses         []algebra.Clause
	assignedInCondition *set.Set[string]
	referenced          *set.Set[string]
}

type branch struct {
	end *scope.BlockContext
	// clauses hold at the end of the branch, unless the branch reassigned their keys
	clauses  []algebra.Clause
	assigned *set.Set[string]
	actions  *set.Set[Action]
}

// ifScope accumulates the branches of one if/elseif/else statement
type ifScope struct {
	branches []branch
	// negatedClauses hold when none of the conditions so far held
	negatedClauses []algebra.Clause
	negatedChanged *set.Set[string]
	// postLeavingContext is the state before the first condition, used as the
	// else context when the first branch always leaves
	postLeavingContext *scope.BlockContext
}

func (a *Analyzer) analyzeIf(s *ast.If, ctx *scope.BlockContext) error {
	is := &ifScope{negatedChanged: set.New[string](0)}
	if looksBoolean(s.Cond) && AlwaysLeaves(blockStmts(s.Then)) {
		is.postLeavingContext = ctx.Clone()
	}

	elseCtx, err := a.analyzeIfBranch(is, ctx, s.Cond, s.Then)
	if err != nil {
		return err
	}
	for _, elseIf := range s.ElseIfs {
		elseCtx, err = a.analyzeIfBranch(is, elseCtx, elseIf.Cond, elseIf.Body)
		if err != nil {
			return err
		}
	}

	start := elseCtx.Clone()
	if err := a.AnalyzeStatements(blockStmts(s.Else), elseCtx); err != nil {
		return err
	}
	is.branches = append(is.branches, branch{
		end:      elseCtx,
		clauses:  reasonableClauses(is.negatedClauses, is.negatedChanged),
		assigned: newlyAssigned(start, elseCtx),
		actions:  FinalActions(blockStmts(s.Else)),
	})

	a.finishIf(s, is, ctx)
	return nil
}

// analyzeIfBranch analyses one condition and the body it guards, starting from
// outer, and returns the context in which the condition does not hold
func (a *Analyzer) analyzeIfBranch(is *ifScope, outer *scope.BlockContext, cond ast.Expr, body *ast.Block) (*scope.BlockContext, error) {
	cs, err := a.analyzeIfCondition(outer, cond)
	if err != nil {
		return nil, err
	}
	condSpan := ast.RangeOf(cond)

	changed := a.narrow(cs.ifContext, cs.ifContext.Clauses, condSpan, false, cs.referenced)
	cs.ifContext.RemoveReconciledClauses(changed)
	known := append(slices.Clone(is.negatedClauses), cs.condClauses...)
	knownChanged := is.negatedChanged.Union(changed).(*set.Set[string])

	// what holds when the condition does not
	var negated []algebra.Clause
	if cs.condClauses != nil {
		negated = a.negateFormula(cs.condClauses, condSpan)
	}
	elseCtx := cs.postIfContext.Clone()
	if is.postLeavingContext != nil && len(is.branches) == 0 {
		elseCtx = is.postLeavingContext.Clone()
		for key := range cs.assignedInCondition.Items() {
			if t, ok := cs.postIfContext.GetLocal(key); ok {
				elseCtx.Assign(key, t)
			}
		}
	}
	elseCtx.InsideConditional = outer.InsideConditional
	elseCtx.Clauses = algebra.SaturateClauses(append(slices.Clone(elseCtx.Clauses), negated...))
	negatedChanged := a.narrow(elseCtx, elseCtx.Clauses, condSpan, true, cs.referenced)
	elseCtx.RemoveReconciledClauses(negatedChanged)
	is.negatedClauses = append(is.negatedClauses, negated...)
	is.negatedChanged.InsertSet(negatedChanged)

	start := cs.ifContext.Clone()
	if err := a.AnalyzeStatements(blockStmts(body), cs.ifContext); err != nil {
		return nil, err
	}
	is.branches = append(is.branches, branch{
		end:      cs.ifContext,
		clauses:  reasonableClauses(known, knownChanged),
		assigned: newlyAssigned(start, cs.ifContext),
		actions:  FinalActions(blockStmts(body)),
	})
	logger.Debug("analysed if branch", "cond", cond, "narrowed", changed.Slice(), "then", cs.ifContext, "else", elseCtx)
	return elseCtx, nil
}

func (a *Analyzer) analyzeIfCondition(outer *scope.BlockContext, cond ast.Expr) (*ifConditionalScope, error) {
	condCtx := outer.Clone()
	condCtx.InsideConditional = true
	if _, err := a.analyzeExpr(cond, condCtx); err != nil {
		return nil, err
	}
	condCtx.InsideConditional = outer.InsideConditional
	assigned := condCtx.AssignedVariableIDs.Difference(outer.AssignedVariableIDs).(*set.Set[string])

	clauses := a.conditionFormula(cond)
	algebra.CheckForParadox(condCtx.Clauses, clauses, ast.RangeOf(cond), assigned, a.collector, a.formulaOptions())

	ifCtx := condCtx.Clone()
	ifCtx.Clauses = algebra.SaturateClauses(append(slices.Clone(condCtx.Clauses), clauses...))
	return &ifConditionalScope{
		ifContext:           ifCtx,
		postIfContext:       condCtx,
		condClauses:         clauses,
		assignedInCondition: assigned,
		referenced:          referencedKeys(cond),
	}, nil
}

// finishIf joins the branches of s back into ctx
func (a *Analyzer) finishIf(s *ast.If, is *ifScope, ctx *scope.BlockContext) {
	var live []branch
	for _, b := range is.branches {
		if b.actions.Contains(ActionNone) && !b.end.HasReturned {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		ctx.HasReturned = true
		return
	}

	ends := make([]*scope.BlockContext, len(live))
	for i, b := range live {
		ends[i] = b.end
	}
	merged := scope.MergeBranches(ctx, ends...)
	assigned := set.New[string](0)
	for _, b := range is.branches {
		assigned.InsertSet(b.assigned)
	}
	for key := range assigned.Items() {
		merged.FilterClauses(key)
	}

	if after := a.disjoinBranches(s, live); len(after) > 0 {
		merged.Clauses = algebra.SaturateClauses(append(slices.Clone(merged.Clauses), after...))
	}
	logger.Debug("merged if", "at", ast.RangeOf(s), "branches", len(is.branches), "live", len(live), "after", merged)
	*ctx = *merged
}

// disjoinBranches is what is known after s from the clauses holding at the end of
// each branch that falls through. Nothing is returned when that is nothing useful.
func (a *Analyzer) disjoinBranches(s *ast.If, live []branch) []algebra.Clause {
	var acc []algebra.Clause
	for i, b := range live {
		clauses := slices.DeleteFunc(slices.Clone(b.clauses), func(c algebra.Clause) bool {
			return slices.ContainsFunc(c.Keys(), b.assigned.Contains)
		})
		if len(clauses) == 0 {
			return nil
		}
		if i == 0 {
			acc = clauses
			continue
		}
		if len(acc)*len(clauses) > a.complexity() {
			return nil
		}
		acc = algebra.DisjoinClauses(acc, clauses, ast.RangeOf(s))
	}
	if onlyWedges(acc) {
		return nil
	}
	return acc
}

// reasonableClauses are the clauses still worth knowing once those which have
// already been turned into narrowed types are dropped
func reasonableClauses(clauses []algebra.Clause, changed *set.Set[string]) []algebra.Clause {
	kept, _ := scope.RemoveReconciledClauses(algebra.SaturateClauses(clauses), changed)
	if onlyWedges(kept) {
		return nil
	}
	return kept
}

func onlyWedges(clauses []algebra.Clause) bool {
	for _, c := range clauses {
		if !c.Wedge {
			return false
		}
	}
	return true
}

// newlyAssigned is what end wrote since start
func newlyAssigned(start, end *scope.BlockContext) *set.Set[string] {
	return end.PossiblyAssignedVariableIDs.Difference(start.PossiblyAssignedVariableIDs).(*set.Set[string])
}

// looksBoolean is true for conditions which are comparisons, or combinations and
// negations of comparisons
func looksBoolean(expr ast.Expr) bool {
	switch e := ast.Unwrap(expr).(type) {
	case *ast.Binary:
		if e.Op == ast.OpAnd || e.Op == ast.OpXor {
			return looksBoolean(e.Left) || looksBoolean(e.Right)
		}
		return e.Op.IsComparison()
	case *ast.UnaryPrefix:
		return e.Op == ast.OpNot && looksBoolean(e.Operand)
	}
	return false
}
