package algebra

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// NegateFormula returns the formula which holds exactly when clauses does not.
// A formula containing a wedge or an unreconcilable clause negates to a wedge.
func NegateFormula(clauses []Clause, opts Options) ([]Clause, error) {
	wedge := func() []Clause {
		var at ast.Range
		if len(clauses) > 0 {
			at = clauses[0].Span
		}
		return []Clause{NewWedge(at)}
	}
	if len(clauses) == 0 {
		return wedge(), nil
	}
	for _, c := range clauses {
		if c.Wedge || !c.Reconcilable {
			return wedge(), nil
		}
	}

	impossible, err := groupImpossibilities(clauses, opts.budget())
	if err != nil {
		return nil, err
	}
	if len(impossible) == 0 {
		return wedge(), nil
	}
	negated := SaturateClauses(impossible)
	if len(negated) == 0 {
		return wedge(), nil
	}
	return negated, nil
}

// groupImpossibilities distributes the negation of a conjunction of
// disjunctions into a conjunction of disjunctions
func groupImpossibilities(clauses []Clause, budget int) ([]Clause, error) {
	complexity := 1
	first := clauses[0]
	var seeds []Clause
	negation := first.Negation()
	for _, key := range first.Keys() {
		for _, a := range negation[key] {
			seeds = append(seeds, Clause{
				Span:          first.Span,
				CreatingSpan:  first.CreatingSpan,
				Possibilities: map[string][]assertion.Assertion{key: {a}},
				Reconcilable:  true,
				Generated:     true,
			})
			complexity++
		}
	}

	for _, clause := range clauses[1:] {
		negation := clause.Negation()
		var next []Clause
		for _, seed := range seeds {
			for _, key := range clause.Keys() {
				for _, a := range negation[key] {
					existing := seed.Possibilities[key]
					if slices.ContainsFunc(existing, func(e assertion.Assertion) bool { return e.ID() == a.ID() }) {
						next = append(next, seed)
						continue
					}
					grouped := seed.WithPossibilities(key, append(slices.Clone(existing), a))
					grouped.Generated = true
					next = append(next, grouped)
					complexity++
					if complexity > budget {
						return nil, errors.WithStack(ErrComplicatedExpression)
					}
				}
			}
		}
		seeds = next
	}
	return seeds, nil
}

// clauseList keeps clauses in insertion order, unique by Hash
type clauseList struct {
	clauses []Clause
	alive   []bool
	index   map[uint64]int
}

func newClauseList(clauses []Clause) *clauseList {
	l := &clauseList{index: make(map[uint64]int, len(clauses))}
	for _, c := range clauses {
		l.add(c)
	}
	return l
}

func (l *clauseList) add(c Clause) {
	h := c.Hash()
	if i, ok := l.index[h]; ok && l.alive[i] {
		return
	}
	l.index[h] = len(l.clauses)
	l.clauses = append(l.clauses, c)
	l.alive = append(l.alive, true)
}

func (l *clauseList) remove(i int) {
	l.alive[i] = false
	delete(l.index, l.clauses[i].Hash())
}

// replace swaps clause i for c, unless c is already present
func (l *clauseList) replace(i int, c Clause) {
	l.remove(i)
	h := c.Hash()
	if j, ok := l.index[h]; ok && l.alive[j] {
		return
	}
	l.clauses[i] = c
	l.alive[i] = true
	l.index[h] = i
}

func (l *clauseList) live() []Clause {
	var out []Clause
	for i, c := range l.clauses {
		if l.alive[i] {
			out = append(out, c)
		}
	}
	return out
}

func usable(c Clause) bool {
	return c.Reconcilable && !c.Wedge
}

// SaturateClauses simplifies a formula: duplicate clauses are dropped,
// unit clauses resolve their negation out of other clauses,
// (A || B) && (!A || B) becomes B, and clauses implied by another are dropped
func SaturateClauses(clauses []Clause) []Clause {
	if len(clauses) > 50 && allMentionSynthetic(clauses) {
		return clauses
	}
	l := newClauseList(clauses)

	for i := 0; i < len(l.clauses); i++ {
		if !l.alive[i] || !usable(l.clauses[i]) {
			continue
		}
		a := l.clauses[i]
		if !a.IsUnit() {
			resolveOpposing(l, i)
			continue
		}
		key, only := a.unit()
		negated := only.Negate().ID()
		for j := range l.clauses {
			b := l.clauses[j]
			if j == i || !l.alive[j] || !usable(b) {
				continue
			}
			possibilities, ok := b.Possibilities[key]
			if !ok {
				continue
			}
			unmatched := slices.DeleteFunc(slices.Clone(possibilities), func(p assertion.Assertion) bool {
				return p.ID() == negated
			})
			if len(unmatched) == len(possibilities) {
				continue
			}
			if len(unmatched) == 0 {
				if updated, ok := b.WithoutKey(key); ok {
					l.replace(j, updated)
				} else {
					l.remove(j)
				}
				continue
			}
			l.replace(j, b.WithPossibilities(key, unmatched))
		}
	}

	live := l.live()
	var simplified []Clause
	for i, a := range live {
		redundant := false
		for j, b := range live {
			if i == j || a.Wedge || !usable(b) {
				continue
			}
			if a.Contains(b) {
				redundant = true
				break
			}
		}
		if !redundant {
			simplified = append(simplified, a)
		}
	}
	return simplified
}

// resolveOpposing rewrites clause i when another clause over the same keys
// differs from it only by one negated assertion
func resolveOpposing(l *clauseList, i int) {
	a := l.clauses[i]
	keys := a.Keys()
	for j := range l.clauses {
		b := l.clauses[j]
		if j == i || !l.alive[j] || !usable(b) || !slices.Equal(keys, b.Keys()) {
			continue
		}
		var opposing []string
		matches := true
		for _, key := range keys {
			pa, pb := a.Possibilities[key], b.Possibilities[key]
			if sameAssertions(pa, pb) {
				continue
			}
			if len(pa) == 1 && len(pb) == 1 && pa[0].IsNegationOf(pb[0]) {
				opposing = append(opposing, key)
				continue
			}
			matches = false
			break
		}
		if !matches || len(opposing) != 1 {
			continue
		}
		updated, ok := a.WithoutKey(opposing[0])
		if !ok {
			l.remove(i)
			return
		}
		l.replace(i, updated)
		return
	}
}

func sameAssertions(a, b []assertion.Assertion) bool {
	if len(a) != len(b) {
		return false
	}
	ids := func(as []assertion.Assertion) []string {
		out := make([]string, len(as))
		for i, x := range as {
			out[i] = x.ID()
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(ids(a), ids(b))
}

func allMentionSynthetic(clauses []Clause) bool {
	for _, c := range clauses {
		if !slices.ContainsFunc(c.Keys(), ast.IsSyntheticKey) {
			return false
		}
	}
	return true
}

// Truths maps keys to a conjunction of disjunctions of assertions
type Truths = assertion.Found

// FindSatisfyingAssignments extracts what must hold for each variable for the
// formula to be true. The assertions of clauses created by the condition at
// creating are also recorded in active, by their position in truths.
//
// referenced loses keys whose truths came from a generated disjunction, since
// those are not asserted directly by the condition.
func FindSatisfyingAssignments(
	clauses []Clause,
	creating ast.Range,
	referenced *set.Set[string],
) (truths Truths, active map[string]*set.Set[int]) {
	truths = Truths{}
	active = map[string]*set.Set[int]{}
	markActive := func(key string, c Clause) {
		if creating.IsZero() || c.CreatingSpan != creating {
			return
		}
		if active[key] == nil {
			active[key] = set.New[int](1)
		}
		active[key].Insert(len(truths[key]) - 1)
	}

	for _, c := range clauses {
		if !c.Reconcilable || len(c.Possibilities) != 1 {
			continue
		}
		if c.IsUnit() {
			key, a := c.unit()
			if ast.IsSyntheticKey(key) {
				continue
			}
			if _, ok := truths[key]; ok && (c.RedefinedVars == nil || !c.RedefinedVars.Contains(key)) {
				truths[key] = append(truths[key], []assertion.Assertion{a})
			} else {
				truths[key] = [][]assertion.Assertion{{a}}
				delete(active, key)
			}
			markActive(key, c)
			continue
		}

		for key, possibilities := range c.Possibilities {
			if ast.IsSyntheticKey(key) {
				continue
			}
			sayable := slices.DeleteFunc(slices.Clone(possibilities), func(a assertion.Assertion) bool {
				return a.HasNegation() && a.Kind != assertion.Falsy
			})
			if len(sayable) == 0 || len(sayable) != len(possibilities) {
				continue
			}
			if c.Generated && len(possibilities) > 1 && referenced != nil {
				referenced.Remove(key)
			}
			truths[key] = append(truths[key], sayable)
			markActive(key, c)
		}
	}
	return truths, active
}

// DisjoinClauses returns the formula holding when either left or right holds.
// span is the disjunction expression.
func DisjoinClauses(left, right []Clause, span ast.Range) []Clause {
	allWedges, hasWedge := true, false
	for _, l := range left {
		for _, r := range right {
			both := l.Wedge && r.Wedge
			allWedges = allWedges && both
			hasWedge = hasWedge || both
		}
	}
	if allWedges {
		return []Clause{NewWedge(span)}
	}

	generated := len(left) > 1 || len(right) > 1
	var clauses []Clause
	for _, l := range left {
		for _, r := range right {
			if l.Wedge && r.Wedge {
				continue
			}
			possibilities := map[string][]assertion.Assertion{}
			for key, as := range l.Possibilities {
				if r.RedefinedVars != nil && r.RedefinedVars.Contains(key) {
					continue
				}
				possibilities[key] = append(possibilities[key], as...)
			}
			for key, as := range r.Possibilities {
				possibilities[key] = append(possibilities[key], as...)
			}
			if tautology(possibilities) {
				continue
			}
			creating := span
			if l.CreatingSpan == r.CreatingSpan {
				creating = l.CreatingSpan
			}
			clause := NewClause(possibilities, span, creating)
			clause.Reconcilable = !l.Wedge && !r.Wedge && l.Reconcilable && r.Reconcilable
			clause.Generated = generated || l.Generated || r.Generated
			clauses = append(clauses, clause)
		}
	}
	if hasWedge {
		clauses = append(clauses, NewWedge(span))
	}
	return clauses
}

// tautology is true when some key is asserted to be both A and not A
func tautology(possibilities map[string][]assertion.Assertion) bool {
	for _, as := range possibilities {
		for i, a := range as {
			for _, b := range as[i+1:] {
				if a.IsNegationOf(b) {
					return true
				}
			}
		}
	}
	return false
}

// CheckForParadox reports new clauses that were already asserted by existing,
// and a new formula whose negation is implied by the existing one.
// Keys in assigned were written by the condition itself and are exempt.
func CheckForParadox(
	existing, formula []Clause,
	span ast.Range,
	assigned *set.Set[string],
	collector *ilerr.Collector,
	opts Options,
) {
	if span.IsZero() || collector == nil {
		return
	}
	negated, err := NegateFormula(formula, opts)
	if err != nil {
		return
	}
	isAssigned := func(key string) bool { return assigned != nil && assigned.Contains(key) }

	seen := set.New[uint64](len(existing) + len(formula))
	for _, c := range existing {
		seen.Insert(c.Hash())
	}
	for _, c := range formula {
		h := c.Hash()
		if !c.Generated && usable(c) && seen.Contains(h) && !slices.ContainsFunc(c.Keys(), isAssigned) {
			collector.Report(ilerr.NewIssue(ilerr.RedundantCondition, "%s has already been asserted", c).
				WithPrimary(span, "this condition"))
		}
		seen.Insert(h)
	}

	for _, n := range negated {
		if !usable(n) {
			continue
		}
		for _, c := range existing {
			if !usable(c) || !coversKeys(n, c) {
				continue
			}
			collector.Report(ilerr.NewIssue(ilerr.ParadoxicalCondition,
				"condition %s contradicts a previously-established condition (%s)", describeNegated(n), c).
				WithPrimary(span, "this condition"))
			return
		}
	}
}

// coversKeys is true when every key of c appears in n with exactly the same assertions
func coversKeys(n, c Clause) bool {
	for key, as := range c.Possibilities {
		theirs, ok := n.Possibilities[key]
		if !ok || !sameAssertions(as, theirs) {
			return false
		}
	}
	return true
}

func describeNegated(n Clause) string {
	mini := SaturateClauses([]Clause{n})
	if len(mini) == 0 || mini[0].Wedge {
		return fmt.Sprintf("not(%s)", n)
	}
	parts := make([]string, len(mini))
	for i, c := range mini {
		parts[i] = "(" + c.String() + ")"
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

// Keys returns every variable key a formula mentions, in sorted order
func Keys(clauses []Clause) []string {
	keys := set.New[string](len(clauses))
	for _, c := range clauses {
		for key := range c.Possibilities {
			keys.Insert(key)
		}
	}
	return slices.Sorted(keys.Items())
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
