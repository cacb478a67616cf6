package analyzer

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/hashicorp/go-set/v3"
)

// Action is a way control can leave a list of statements
type Action uint8

const (
	// ActionNone falls through to the next statement
	ActionNone Action = iota
	// ActionEnd leaves the function, through return or throw
	ActionEnd
	ActionBreak
	ActionContinue
)

func (a Action) String() string {
	switch a {
	case ActionEnd:
		return "end"
	case ActionBreak:
		return "break"
	case ActionContinue:
		return "continue"
	}
	return "none"
}

// FinalActions is the set of ways control may leave stmts
func FinalActions(stmts []ast.Stmt) *set.Set[Action] {
	actions := set.New[Action](2)
	for _, stmt := range stmts {
		leaving := stmtActions(stmt)
		if !leaving.Contains(ActionNone) {
			actions.InsertSet(leaving)
			return actions
		}
		leaving.Remove(ActionNone)
		actions.InsertSet(leaving)
	}
	actions.Insert(ActionNone)
	return actions
}

// AlwaysLeaves is true when no path through stmts falls through
func AlwaysLeaves(stmts []ast.Stmt) bool {
	return !FinalActions(stmts).Contains(ActionNone)
}

func stmtActions(stmt ast.Stmt) *set.Set[Action] {
	switch s := stmt.(type) {
	case *ast.Return, *ast.Throw:
		return set.From([]Action{ActionEnd})
	case *ast.Break:
		return set.From([]Action{ActionBreak})
	case *ast.Continue:
		return set.From([]Action{ActionContinue})
	case *ast.Block:
		return FinalActions(s.Stmts)
	case *ast.If:
		actions := FinalActions(blockStmts(s.Then))
		for _, elseIf := range s.ElseIfs {
			actions.InsertSet(FinalActions(blockStmts(elseIf.Body)))
		}
		if s.Else == nil {
			actions.Insert(ActionNone)
		} else {
			actions.InsertSet(FinalActions(blockStmts(s.Else)))
		}
		return actions
	case *ast.While:
		body := FinalActions(blockStmts(s.Body))
		actions := set.New[Action](2)
		if body.Contains(ActionEnd) {
			actions.Insert(ActionEnd)
		}
		// while (true) only falls through when something breaks out of it
		if isTrueLiteral(s.Cond) && !body.Contains(ActionBreak) {
			return actions
		}
		actions.Insert(ActionNone)
		return actions
	}
	return set.From([]Action{ActionNone})
}

func blockStmts(b *ast.Block) []ast.Stmt {
	if b == nil {
		return nil
	}
	return b.Stmts
}

func isTrueLiteral(expr ast.Expr) bool {
	b, ok := ast.Unwrap(expr).(*ast.BoolLiteral)
	return ok && b.Value
}
