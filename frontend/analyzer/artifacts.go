package analyzer

import (
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
)

type exprCacheEntry struct {
	r        ast.Range
	exprHash uint64
}

// Artifacts is what the analysis leaves behind besides findings: the type
// inferred for every expression it visited
type Artifacts struct {
	exprTypes map[exprCacheEntry]*types.Union
}

func NewArtifacts() *Artifacts {
	return &Artifacts{exprTypes: make(map[exprCacheEntry]*types.Union, 1)}
}

func (a *Artifacts) put(expr ast.Expr, t *types.Union) {
	a.exprTypes[exprCacheEntry{
		exprHash: expr.Hash(),
		r:        ast.RangeOf(expr),
	}] = t
}

// TypeOf is the type last inferred for expr. Expressions inside loops are analysed
// more than once, the final pass wins.
func (a *Artifacts) TypeOf(expr ast.Expr) (*types.Union, bool) {
	if expr == nil {
		return nil, false
	}
	t, ok := a.exprTypes[exprCacheEntry{
		exprHash: expr.Hash(),
		r:        ast.RangeOf(expr),
	}]
	return t, ok
}

func (a *Artifacts) Len() int {
	return len(a.exprTypes)
}
