// Package scope holds what the analyser knows at one point in control flow:
// the type of each tracked variable and the clauses known to hold
package scope

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/narrow/frontend/algebra"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "scope")

// BlockContext is the state of a block being analysed. Branches work on a Clone,
// which shares the locals of its parent until either of them writes.
type BlockContext struct {
	locals  *immutable.SortedMap[string, *types.Union]
	Clauses []algebra.Clause

	// AssignedVariableIDs are written on every path through the block so far
	AssignedVariableIDs *set.Set[string]
	// PossiblyAssignedVariableIDs are written on some path through the block so far
	PossiblyAssignedVariableIDs *set.Set[string]
	VariablesPossiblyInScope    *set.Set[string]
	// ConditionallyReferencedVariableIDs are mentioned by the condition being
	// reconciled without a clause that fully resolves them
	ConditionallyReferencedVariableIDs *set.Set[string]

	InsideLoop              bool
	InsideNegation          bool
	InsideGeneralUse        bool
	InsideVariableReference bool
	InsideConditional       bool
	InsideIsset             bool
	HasReturned             bool
}

func New() *BlockContext {
	return &BlockContext{
		locals:                             immutable.NewSortedMap[string, *types.Union](nil),
		AssignedVariableIDs:                set.New[string](0),
		PossiblyAssignedVariableIDs:        set.New[string](0),
		VariablesPossiblyInScope:           set.New[string](0),
		ConditionallyReferencedVariableIDs: set.New[string](0),
	}
}

// Clone returns an independent copy of c. Locals are persistent, so this does not
// copy the types themselves.
func (c *BlockContext) Clone() *BlockContext {
	clone := *c
	clone.Clauses = slices.Clone(c.Clauses)
	clone.AssignedVariableIDs = c.AssignedVariableIDs.Copy()
	clone.PossiblyAssignedVariableIDs = c.PossiblyAssignedVariableIDs.Copy()
	clone.VariablesPossiblyInScope = c.VariablesPossiblyInScope.Copy()
	clone.ConditionallyReferencedVariableIDs = c.ConditionallyReferencedVariableIDs.Copy()
	return &clone
}

func (c *BlockContext) GetLocal(key string) (*types.Union, bool) {
	return c.locals.Get(key)
}

func (c *BlockContext) HasLocal(key string) bool {
	_, ok := c.locals.Get(key)
	return ok
}

func (c *BlockContext) SetLocal(key string, t *types.Union) {
	c.locals = c.locals.Set(key, t)
	c.VariablesPossiblyInScope.Insert(key)
}

func (c *BlockContext) RemoveLocal(key string) {
	c.locals = c.locals.Delete(key)
}

// Locals iterates over the tracked variables in key order
func (c *BlockContext) Locals() iter.Seq2[string, *types.Union] {
	return func(yield func(string, *types.Union) bool) {
		itr := c.locals.Iterator()
		for !itr.Done() {
			key, t, _ := itr.Next()
			if !yield(key, t) {
				return
			}
		}
	}
}

func (c *BlockContext) LocalKeys() []string {
	keys := make([]string, 0, c.locals.Len())
	for key := range c.Locals() {
		keys = append(keys, key)
	}
	return keys
}

// Assign records a write of t to key: the locals derived from key and the clauses
// mentioning it no longer hold
func (c *BlockContext) Assign(key string, t *types.Union) {
	c.RemoveDescendants(key)
	c.FilterClauses(key)
	c.SetLocal(key, t)
	c.AssignedVariableIDs.Insert(key)
	c.PossiblyAssignedVariableIDs.Insert(key)
}

// RemoveDescendants forgets every local nested inside key, such as $a['k'] for $a
func (c *BlockContext) RemoveDescendants(key string) {
	for _, local := range c.LocalKeys() {
		if ast.IsDerivedKey(local, key) {
			logger.Debug("forgetting derived local", "key", local, "parent", key)
			c.RemoveLocal(local)
		}
	}
}

// FilterClauses drops the clauses which mention key or anything nested inside it
func (c *BlockContext) FilterClauses(key string) {
	c.Clauses = slices.DeleteFunc(slices.Clone(c.Clauses), func(clause algebra.Clause) bool {
		return mentionsKeyOrDescendant(clause, key)
	})
}

func mentionsKeyOrDescendant(clause algebra.Clause, key string) bool {
	for k := range clause.Possibilities {
		if k == key || ast.IsDerivedKey(k, key) {
			return true
		}
	}
	return false
}

// RemoveReconciledClauses splits clauses into those which still carry information
// and those whose every key has been narrowed in changed
func RemoveReconciledClauses(clauses []algebra.Clause, changed *set.Set[string]) (kept, removed []algebra.Clause) {
	for _, clause := range clauses {
		if clause.Wedge || len(clause.Possibilities) == 0 {
			kept = append(kept, clause)
			continue
		}
		reconciled := true
		for key := range clause.Possibilities {
			if !changed.Contains(key) {
				reconciled = false
				break
			}
		}
		if reconciled {
			removed = append(removed, clause)
		} else {
			kept = append(kept, clause)
		}
	}
	return kept, removed
}

// RemoveReconciledClauses drops the clauses of c whose keys are all in changed
func (c *BlockContext) RemoveReconciledClauses(changed *set.Set[string]) {
	c.Clauses, _ = RemoveReconciledClauses(c.Clauses, changed)
}

// Update applies to c the changes a branch made to the variables in keys. The branch
// started at start and finished at end. When the branch always leaves, its types
// are not visible after it. Every variable updated is recorded in updated.
func (c *BlockContext) Update(start, end *BlockContext, hasLeavingStatements bool, keys, updated *set.Set[string]) {
	for key, existing := range c.Locals() {
		old, inStart := start.GetLocal(key)
		if !inStart || !keys.Contains(key) {
			continue
		}
		var replacement *types.Union
		if !hasLeavingStatements {
			replacement, _ = end.GetLocal(key)
		}
		c.FilterClauses(key)
		if replacement == nil {
			continue
		}
		c.SetLocal(key, substitute(existing, old, replacement))
		updated.Insert(key)
	}
}

// substitute replaces the atomics of old within existing by those of replacement
func substitute(existing, old, replacement *types.Union) *types.Union {
	if existing.Equal(old) {
		return replacement
	}
	rest := existing.Filter(func(a types.Atomic) bool { return !old.HasAtomic(a) })
	if rest.IsNever() {
		return replacement
	}
	return types.CombineUnionTypes(rest, replacement)
}

// MergeBranches joins the contexts at the end of alternative branches which all
// started from parent. Branches which returned do not contribute. A variable set
// in only some of the branches keeps its type from parent as a possibility, and is
// possibly undefined when parent did not have it.
func MergeBranches(parent *BlockContext, branches ...*BlockContext) *BlockContext {
	merged := parent.Clone()
	var live []*BlockContext
	for _, b := range branches {
		if !b.HasReturned {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		merged.HasReturned = true
		return merged
	}

	keys := set.New[string](parent.locals.Len())
	for _, b := range live {
		keys.InsertSlice(b.LocalKeys())
	}
	for _, key := range slices.Sorted(keys.Items()) {
		var combined *types.Union
		definedEverywhere := true
		for _, b := range live {
			t, ok := b.GetLocal(key)
			if !ok {
				definedEverywhere = false
				continue
			}
			combined = types.CombineUnionTypes(combined, t)
		}
		if !definedEverywhere {
			if before, ok := parent.GetLocal(key); ok {
				combined = types.CombineUnionTypes(combined, before)
			} else if _, _, nested := ast.ParentKey(key); !nested {
				combined = combined.WithPossiblyUndefined(true)
			} else {
				// nested keys only known on some paths are not worth keeping
				merged.RemoveLocal(key)
				continue
			}
		}
		merged.SetLocal(key, combined)
	}
	for _, key := range parent.LocalKeys() {
		if !keys.Contains(key) {
			merged.RemoveLocal(key)
		}
	}

	merged.AssignedVariableIDs = live[0].AssignedVariableIDs.Copy()
	merged.PossiblyAssignedVariableIDs = parent.PossiblyAssignedVariableIDs.Copy()
	for _, b := range live {
		merged.AssignedVariableIDs = merged.AssignedVariableIDs.Intersect(b.AssignedVariableIDs).(*set.Set[string])
		merged.PossiblyAssignedVariableIDs.InsertSet(b.PossiblyAssignedVariableIDs)
		merged.VariablesPossiblyInScope.InsertSet(b.VariablesPossiblyInScope)
	}
	merged.AssignedVariableIDs.InsertSet(parent.AssignedVariableIDs)
	return merged
}

func (c *BlockContext) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, c.locals.Len()+1)
	for key, t := range c.Locals() {
		attrs = append(attrs, slog.String(key, t.ID()))
	}
	if c.HasReturned {
		attrs = append(attrs, slog.Bool("returned", true))
	}
	return slog.GroupValue(attrs...)
}
