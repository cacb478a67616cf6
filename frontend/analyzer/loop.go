package analyzer

import (
	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/scope"
)

// loopScope collects the states at which control leaves the body of a loop early
type loopScope struct {
	breakContexts    []*scope.BlockContext
	continueContexts []*scope.BlockContext
}

// analyzeWhile analyses the loop twice. The first pass, whose findings are
// discarded, only serves to widen the state at the start of the body to what it
// may be on later iterations. The second pass reports against that state.
func (a *Analyzer) analyzeWhile(s *ast.While, ctx *scope.BlockContext) error {
	wasInsideLoop := ctx.InsideLoop

	var first *loopScope
	var firstEnd *scope.BlockContext
	err := a.quietly(func() (err error) {
		firstEnd, first, err = a.loopIteration(s, ctx.Clone())
		return err
	})
	if err != nil {
		return err
	}
	start := scope.MergeBranches(ctx, append([]*scope.BlockContext{ctx.Clone(), firstEnd}, first.continueContexts...)...)
	start.HasReturned = false

	end, loop, err := a.loopIteration(s, start.Clone())
	if err != nil {
		return err
	}

	// the condition is checked again after every iteration that carries on
	condChecked := scope.MergeBranches(ctx, append([]*scope.BlockContext{start, end}, loop.continueContexts...)...)
	condChecked.HasReturned = false
	exit := condChecked.Clone()
	exit.InsideLoop = true
	err = a.quietly(func() error {
		if _, err := a.analyzeExpr(s.Cond, exit); err != nil {
			return err
		}
		a.assume(exit, s.Cond, true, false)
		return nil
	})
	if err != nil {
		return err
	}

	leaving := loop.breakContexts
	if !isTrueLiteral(s.Cond) {
		leaving = append(leaving, exit)
	}
	after := scope.MergeBranches(ctx, leaving...)
	after.InsideLoop = wasInsideLoop
	// clauses from before the loop hold after it unless the loop writes their keys
	for key := range newlyAssigned(ctx, after).Items() {
		after.FilterClauses(key)
	}
	logger.Debug("analysed while loop", "at", ast.RangeOf(s), "after", after, "clauses", algebra.Keys(after.Clauses))
	*ctx = *after
	return nil
}

// loopIteration analyses the condition and body of s once, starting from ctx
func (a *Analyzer) loopIteration(s *ast.While, ctx *scope.BlockContext) (*scope.BlockContext, *loopScope, error) {
	ctx.InsideLoop = true
	if _, err := a.analyzeExpr(s.Cond, ctx); err != nil {
		return nil, nil, err
	}
	a.assume(ctx, s.Cond, false, false)

	loop := &loopScope{}
	a.loops = append(a.loops, loop)
	defer func() { a.loops = a.loops[:len(a.loops)-1] }()

	if err := a.AnalyzeStatements(blockStmts(s.Body), ctx); err != nil {
		return nil, nil, err
	}
	return ctx, loop, nil
}
