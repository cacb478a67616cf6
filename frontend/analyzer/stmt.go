package analyzer

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/scope"
)

// AnalyzeStatements analyses stmts in order against ctx, which is updated in place.
// Statements after one that always leaves are not analysed.
func (a *Analyzer) AnalyzeStatements(stmts []ast.Stmt, ctx *scope.BlockContext) error {
	for _, stmt := range stmts {
		if ctx.HasReturned {
			logger.Debug("skipping unreachable statement", "at", ast.RangeOf(stmt))
			return nil
		}
		if err := a.analyzeStatement(stmt, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeStatement(stmt ast.Stmt, ctx *scope.BlockContext) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return a.AnalyzeStatements(s.Stmts, ctx)
	case *ast.ExprStmt:
		_, err := a.analyzeExpr(s.X, ctx)
		return err
	case *ast.If:
		return a.analyzeIf(s, ctx)
	case *ast.While:
		return a.analyzeWhile(s, ctx)
	case *ast.Return:
		if s.Value != nil {
			if _, err := a.analyzeExpr(s.Value, ctx); err != nil {
				return err
			}
		}
		ctx.HasReturned = true
		return nil
	case *ast.Throw:
		if _, err := a.analyzeExpr(s.Value, ctx); err != nil {
			return err
		}
		ctx.HasReturned = true
		return nil
	case *ast.Break:
		return a.leaveLoop(s, ctx, ActionBreak)
	case *ast.Continue:
		return a.leaveLoop(s, ctx, ActionContinue)
	case *ast.Echo:
		for _, v := range s.Values {
			t, err := a.analyzeExpr(v, ctx)
			if err != nil {
				return err
			}
			if _, err := a.toStringOperand(v, t); err != nil {
				return err
			}
		}
		return nil
	case *ast.Function:
		// bodies are analysed separately, once the whole file is declared
		return nil
	}
	return ilerr.NewAnalysisError(stmt, "unsupported statement %T", stmt)
}

// leaveLoop records the state at a break or continue for the enclosing loop, after
// which nothing in the current block is reachable
func (a *Analyzer) leaveLoop(stmt ast.Stmt, ctx *scope.BlockContext, action Action) error {
	if len(a.loops) == 0 {
		return ilerr.NewAnalysisError(stmt, "%s outside of a loop", action)
	}
	loop := a.loops[len(a.loops)-1]
	if action == ActionBreak {
		loop.breakContexts = append(loop.breakContexts, ctx.Clone())
	} else {
		loop.continueContexts = append(loop.continueContexts, ctx.Clone())
	}
	ctx.HasReturned = true
	return nil
}
