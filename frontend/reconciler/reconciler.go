// Package reconciler narrows union types with assertions: one assertion at a time
// (Reconcile), or a whole condition's worth of them against a block context
// (ReconcileKeyedTypes)
package reconciler

import (
	"strings"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/codebase"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
)

var logger = log.DefaultLogger.With("section", "reconciler")

// Reconciler narrows types against the classes of Codebase, reporting impossible
// and redundant assertions to Collector. Either may be nil.
type Reconciler struct {
	Codebase  codebase.Codebase
	Collector *ilerr.Collector
}

func New(cb codebase.Codebase, collector *ilerr.Collector) *Reconciler {
	return &Reconciler{Codebase: cb, Collector: collector}
}

func (r *Reconciler) hierarchy() types.Hierarchy {
	if r.Codebase == nil {
		return types.NoHierarchy{}
	}
	return r.Codebase
}

// Reconcile returns existing narrowed to the values for which a holds. The result
// is never when a cannot hold for existing.
//
// key and span identify the condition for diagnostics; nothing is reported for a
// zero span, for synthetic keys or inside loops. negated is set when a is the
// negation of what the source condition states, which swaps impossible and redundant.
func (r *Reconciler) Reconcile(
	a assertion.Assertion,
	existing *types.Union,
	possiblyUndefined bool,
	key string,
	span ast.Range,
	negated bool,
	insideLoop bool,
) *types.Union {
	if existing == nil {
		existing = types.GetMixed()
		possiblyUndefined = true
	}
	c := &call{
		r:                 r,
		h:                 r.hierarchy(),
		assertion:         a,
		existing:          existing,
		possiblyUndefined: possiblyUndefined || existing.PossiblyUndefined,
		key:               key,
		span:              span,
		negated:           negated,
		insideLoop:        insideLoop,
	}
	if a.Kind == assertion.Any {
		return existing
	}

	var result *types.Union
	if a.HasNegation() {
		result = c.reconcileNegated()
	} else {
		var handled bool
		result, handled = c.reconcileSimple()
		if !handled {
			result = c.refine()
		}
		if !result.IsNever() && result.PossiblyUndefined {
			result = result.WithPossiblyUndefined(false)
		}
	}
	logger.Debug("reconciled", "key", key, "assertion", a.ID(), "from", existing, "to", result)
	return result
}

// call is a single reconciliation of one assertion against one type
type call struct {
	r                 *Reconciler
	h                 types.Hierarchy
	assertion         assertion.Assertion
	existing          *types.Union
	possiblyUndefined bool
	key               string
	span              ast.Range
	negated           bool
	insideLoop        bool
}

// narrowFunc maps one atomic of the existing type to its narrowed form, with no
// atomics when it is incompatible. removed is set whenever some values were dropped.
type narrowFunc func(types.Atomic) (out []types.Atomic, removed bool)

func keep(a types.Atomic) ([]types.Atomic, bool) { return []types.Atomic{a}, false }

func narrowTo(atomics ...types.Atomic) ([]types.Atomic, bool) { return atomics, true }

func drop() ([]types.Atomic, bool) { return nil, true }

// intersect runs narrow over every atomic of the existing type. Generic parameters
// have their constraint narrowed and keep their identity, and unresolved template
// variables are kept as they are. When nothing survives, or nothing was removed by
// an assertion which is not a loose equality, the condition is reported.
func (c *call) intersect(narrow narrowFunc, removed bool) *types.Union {
	if c.existing.IsNever() {
		return c.existing
	}
	out, narrowed := c.narrowAll(c.existing, narrow)
	removed = removed || narrowed
	if len(out) == 0 {
		c.triggerIssueForImpossible(false)
		return types.GetNever()
	}
	if !removed && !c.assertion.HasEquality() {
		c.triggerIssueForImpossible(true)
	}
	return c.existing.WithTypes(types.Combine(out)...)
}

func (c *call) narrowAll(u *types.Union, narrow narrowFunc) ([]types.Atomic, bool) {
	var out []types.Atomic
	removed := false
	for a := range u.All() {
		switch a := a.(type) {
		case types.TGenericParameter:
			constraint := a.Constraint
			if constraint == nil {
				constraint = types.GetMixed()
			}
			inner, innerRemoved := c.narrowAll(constraint, narrow)
			if len(inner) == 0 {
				removed = true
				continue
			}
			removed = removed || innerRemoved
			out = append(out, a.WithConstraint(types.NewUnion(types.Combine(inner)...)))
			continue
		case types.TVariable:
			// decided once the template is resolved
			out = append(out, a)
			removed = true
			continue
		}
		narrowed, r := narrow(a)
		removed = removed || r
		out = append(out, narrowed...)
	}
	return out, removed
}

func (c *call) reportable() bool {
	return c.r.Collector != nil && !c.span.IsZero() && !c.insideLoop && c.key != "" && !ast.IsSyntheticKey(c.key)
}

// triggerIssueForImpossible reports an assertion which can never hold, or with
// redundant set one which always holds, against the existing type
func (c *call) triggerIssueForImpossible(redundant bool) {
	if !c.reportable() {
		return
	}
	subject := c.assertion
	not := subject.HasNegation()
	if not {
		subject = subject.Negate()
	}
	if c.negated {
		redundant = !redundant
		not = !not
	}
	word := "never"
	if redundant != not {
		word = "always"
	}
	code := c.issueCode(redundant)
	c.r.Collector.Report(ilerr.NewIssue(code, "Type %s for %s is %s %s", c.existing.ID(), c.key, word, describe(subject)).
		WithPrimary(c.span, "this condition"))
}

func (c *call) issueCode(redundant bool) ilerr.IssueCode {
	a := c.assertion
	switch t, isType := a.GetType(); {
	case a.IsKeyAssertion():
		if redundant {
			return ilerr.RedundantKeyCheck
		}
		return ilerr.ImpossibleKeyCheck
	case isType && !types.IsLiteralAtomic(t):
		if redundant {
			return ilerr.RedundantTypeComparison
		}
		return ilerr.ImpossibleTypeComparison
	}
	if redundant {
		return ilerr.RedundantCondition
	}
	return ilerr.ImpossibleCondition
}

func describe(a assertion.Assertion) string {
	if t, ok := a.GetType(); ok {
		return t.ID()
	}
	return strings.TrimPrefix(a.ID(), "=")
}
