package ast

// All statement types implement the Stmt interface

var (
	_ Stmt = (*Block)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*If)(nil)
	_ Stmt = (*Return)(nil)
	_ Stmt = (*Throw)(nil)
	_ Stmt = (*Break)(nil)
	_ Stmt = (*Continue)(nil)
	_ Stmt = (*Echo)(nil)
	_ Stmt = (*While)(nil)
	_ Stmt = (*Function)(nil)
)

// Block represents a block of statements enclosed in braces.
type Block struct {
	Range
	Stmts []Stmt
}

func (s *Block) stmtNode() {}
func (s *Block) Hash() uint64 {
	h := newHasher("Block", s.Range)
	for _, stmt := range s.Stmts {
		h.node(stmt)
	}
	return h.sum()
}

// ExprStmt represents an expression used as a statement.
type ExprStmt struct {
	Range
	X Expr
}

func (s *ExprStmt) stmtNode() {}
func (s *ExprStmt) Hash() uint64 {
	return newHasher("ExprStmt", s.Range).node(s.X).sum()
}

type ElseIf struct {
	Range
	Cond Expr
	Body *Block
}

// If is an if statement with its full elseif chain. Else is nil when absent.
type If struct {
	Range
	Cond    Expr
	Then    *Block
	ElseIfs []ElseIf
	Else    *Block
}

func (s *If) stmtNode() {}
func (s *If) Hash() uint64 {
	h := newHasher("If", s.Range).node(s.Cond).node(s.Then)
	for _, elseIf := range s.ElseIfs {
		h.node(elseIf.Cond).node(elseIf.Body)
	}
	return h.node(s.Else).sum()
}

type Return struct {
	Range
	Value Expr // may be nil
}

func (s *Return) stmtNode() {}
func (s *Return) Hash() uint64 {
	return newHasher("Return", s.Range).node(s.Value).sum()
}

type Throw struct {
	Range
	Value Expr
}

func (s *Throw) stmtNode() {}
func (s *Throw) Hash() uint64 {
	return newHasher("Throw", s.Range).node(s.Value).sum()
}

type Break struct {
	Range
}

func (s *Break) stmtNode() {}
func (s *Break) Hash() uint64 {
	return newHasher("Break", s.Range).sum()
}

type Continue struct {
	Range
}

func (s *Continue) stmtNode() {}
func (s *Continue) Hash() uint64 {
	return newHasher("Continue", s.Range).sum()
}

type Echo struct {
	Range
	Values []Expr
}

func (s *Echo) stmtNode() {}
func (s *Echo) Hash() uint64 {
	h := newHasher("Echo", s.Range)
	for _, v := range s.Values {
		h.node(v)
	}
	return h.sum()
}

type While struct {
	Range
	Cond Expr
	Body *Block
}

func (s *While) stmtNode() {}
func (s *While) Hash() uint64 {
	return newHasher("While", s.Range).node(s.Cond).node(s.Body).sum()
}

type Param struct {
	Range
	Name    string
	Type    *TypeHint // may be nil
	Default Expr      // may be nil
}

type Function struct {
	Range
	Name       string
	Templates  []TemplateParam
	Params     []Param
	ReturnType *TypeHint // may be nil
	Body       *Block
}

func (s *Function) stmtNode() {}
func (s *Function) Hash() uint64 {
	h := newHasher("Function", s.Range).str(s.Name)
	for _, tp := range s.Templates {
		h.str(tp.Name).node(tp.Constraint)
	}
	for _, p := range s.Params {
		h.str(p.Name).node(p.Type).node(p.Default)
	}
	return h.node(s.ReturnType).node(s.Body).sum()
}

// TemplateParam is a docblock @template declaration, optionally bounded with `of`
type TemplateParam struct {
	Name       string
	Constraint *TypeHint // may be nil
}
