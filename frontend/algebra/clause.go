package algebra

import (
	"encoding/binary"
	"hash/fnv"
	"maps"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/hashicorp/go-set/v3"
)

// Clause is a disjunction: for some variable key, one of its assertions holds.
// A formula is a conjunction of clauses, []Clause.
//
// A wedge is a clause with no possibilities standing for a condition that
// cannot be expressed, so that negating it yields no information.
type Clause struct {
	// Span is the expression the clause was built from
	Span ast.Range
	// CreatingSpan is the whole condition being analysed when the clause was built
	CreatingSpan  ast.Range
	Possibilities map[string][]assertion.Assertion
	Wedge         bool
	// Reconcilable is false for clauses that must not be used to narrow types
	Reconcilable bool
	// Generated is true for clauses produced by algebraic manipulation rather than read from source
	Generated bool
	// RedefinedVars are keys assigned inside the condition that produced the clause
	RedefinedVars *set.Set[string]
}

// NewClause builds a reconcilable clause, dropping duplicate assertions per key
func NewClause(possibilities map[string][]assertion.Assertion, span, creating ast.Range) Clause {
	unique := make(map[string][]assertion.Assertion, len(possibilities))
	for key, assertions := range possibilities {
		unique[key] = dedupe(assertions)
	}
	return Clause{
		Span:          span,
		CreatingSpan:  creating,
		Possibilities: unique,
		Reconcilable:  true,
	}
}

// NewWedge builds the clause standing for an unknown condition at span
func NewWedge(span ast.Range) Clause {
	return Clause{
		Span:          span,
		CreatingSpan:  span,
		Possibilities: map[string][]assertion.Assertion{},
		Wedge:         true,
		Reconcilable:  true,
	}
}

func dedupe(assertions []assertion.Assertion) []assertion.Assertion {
	out := make([]assertion.Assertion, 0, len(assertions))
	seen := make(map[string]struct{}, len(assertions))
	for _, a := range assertions {
		if _, ok := seen[a.ID()]; ok {
			continue
		}
		seen[a.ID()] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Keys returns the variable keys of the clause in sorted order
func (c Clause) Keys() []string {
	return slices.Sorted(maps.Keys(c.Possibilities))
}

// Hash identifies the disjunction the clause represents. Wedges are only equal to themselves.
func (c Clause) Hash() uint64 {
	h := fnv.New64a()
	if c.Wedge {
		_, _ = h.Write([]byte("wedge"))
		_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, c.Span.Hash()))
		return h.Sum64()
	}
	for _, key := range c.Keys() {
		_, _ = h.Write([]byte(key))
		ids := make([]string, 0, len(c.Possibilities[key]))
		for _, a := range c.Possibilities[key] {
			ids = append(ids, a.ID())
		}
		slices.Sort(ids)
		for _, id := range ids {
			_, _ = h.Write([]byte{0})
			_, _ = h.Write([]byte(id))
		}
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// IsUnit is true for a clause with a single key and a single assertion
func (c Clause) IsUnit() bool {
	if len(c.Possibilities) != 1 {
		return false
	}
	for _, assertions := range c.Possibilities {
		return len(assertions) == 1
	}
	return false
}

// unit returns the only key and assertion of a unit clause
func (c Clause) unit() (string, assertion.Assertion) {
	for key, assertions := range c.Possibilities {
		return key, assertions[0]
	}
	return "", assertion.Assertion{}
}

// Contains is true when every possibility of other is also a possibility of c,
// so that other implies c
func (c Clause) Contains(other Clause) bool {
	if len(other.Possibilities) > len(c.Possibilities) {
		return false
	}
	for key, assertions := range other.Possibilities {
		mine, ok := c.Possibilities[key]
		if !ok {
			return false
		}
		for _, a := range assertions {
			if !slices.ContainsFunc(mine, func(m assertion.Assertion) bool { return m.ID() == a.ID() }) {
				return false
			}
		}
	}
	return true
}

// WithPossibilities returns a copy of c with the assertions for key replaced
func (c Clause) WithPossibilities(key string, assertions []assertion.Assertion) Clause {
	possibilities := maps.Clone(c.Possibilities)
	possibilities[key] = dedupe(assertions)
	c.Possibilities = possibilities
	return c
}

// WithoutKey returns a copy of c without key. ok is false when nothing would remain.
func (c Clause) WithoutKey(key string) (Clause, bool) {
	possibilities := maps.Clone(c.Possibilities)
	delete(possibilities, key)
	if len(possibilities) == 0 {
		return Clause{}, false
	}
	c.Possibilities = possibilities
	return c, true
}

// Negation is the conjunction of the negated assertions of c
func (c Clause) Negation() map[string][]assertion.Assertion {
	out := make(map[string][]assertion.Assertion, len(c.Possibilities))
	for key, assertions := range c.Possibilities {
		negated := make([]assertion.Assertion, len(assertions))
		for i, a := range assertions {
			negated[i] = a.Negate()
		}
		out[key] = negated
	}
	return out
}

// Mentions is true when any of keys appears in c
func (c Clause) Mentions(keys ...string) bool {
	for _, key := range keys {
		if _, ok := c.Possibilities[key]; ok {
			return true
		}
	}
	return false
}

func (c Clause) String() string {
	if c.Wedge {
		return "<unknown condition>"
	}
	var parts []string
	for _, key := range c.Keys() {
		subject := key
		if ast.IsSyntheticKey(key) {
			subject = "expression"
		}
		for _, a := range c.Possibilities[key] {
			parts = append(parts, describe(subject, a))
		}
	}
	return strings.Join(parts, " || ")
}

func describe(subject string, a assertion.Assertion) string {
	if a.HasNegation() {
		return subject + " is not " + a.Negate().ID()
	}
	return subject + " is " + a.ID()
}
