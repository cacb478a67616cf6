package algebra

import (
	"github.com/cottand/narrow/frontend/assertion"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/internal/log"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

var logger = ast.ExprLogger(log.DefaultLogger).With("section", "algebra")

// DefaultComplexity is the number of clause combinations explored before a
// formula is given up on
const DefaultComplexity = 2000

// ErrComplicatedExpression is returned when building or negating a formula
// would exceed the complexity budget
var ErrComplicatedExpression = errors.New("condition is too complex to analyse")

type Options struct {
	// Complexity is the budget of clause combinations, DefaultComplexity when zero
	Complexity int
	// TypeOf resolves the already inferred type of operands, may be nil
	TypeOf assertion.TypeOf
}

func (o Options) budget() int {
	if o.Complexity <= 0 {
		return DefaultComplexity
	}
	return o.Complexity
}

// GetFormula builds the CNF formula which holds when expr is truthy.
// creating is the span of the whole condition expr is part of.
func GetFormula(expr ast.Expr, creating ast.Range, opts Options) ([]Clause, error) {
	expr = ast.Unwrap(expr)
	span := ast.RangeOf(expr)

	switch e := expr.(type) {
	case *ast.Binary:
		switch e.Op {
		case ast.OpAnd:
			left, err := GetFormula(e.Left, creating, opts)
			if err != nil {
				return nil, err
			}
			right, err := GetFormula(e.Right, creating, opts)
			if err != nil {
				return nil, err
			}
			return append(left, right...), nil
		case ast.OpOr:
			left, err := GetFormula(e.Left, creating, opts)
			if err != nil {
				return nil, err
			}
			right, err := GetFormula(e.Right, creating, opts)
			if err != nil {
				return nil, err
			}
			if len(left)*len(right) > opts.budget() {
				return nil, errors.WithStack(ErrComplicatedExpression)
			}
			return DisjoinClauses(left, right, span), nil
		case ast.OpIdentical, ast.OpNotIdentical:
			// (a && b) === false
			if inner, truthy, ok := comparedWithBool(e); ok && isLogical(inner) {
				if e.Op == ast.OpNotIdentical {
					truthy = !truthy
				}
				if truthy {
					return GetFormula(inner, creating, opts)
				}
				return getNegatedFormula(inner, span, creating, opts)
			}
		}
	case *ast.UnaryPrefix:
		if e.Op == ast.OpNot {
			return getNegatedFormula(e.Operand, span, creating, opts)
		}
	}

	return leafFormula(expr, span, creating, opts), nil
}

func getNegatedFormula(inner ast.Expr, span, creating ast.Range, opts Options) ([]Clause, error) {
	inner = ast.Unwrap(inner)
	switch e := inner.(type) {
	case *ast.Binary:
		switch e.Op {
		case ast.OpOr:
			return GetFormula(&ast.Binary{
				Range: e.Range,
				Op:    ast.OpAnd,
				Left:  not(e.Left),
				Right: not(e.Right),
			}, creating, opts)
		case ast.OpAnd:
			return GetFormula(&ast.Binary{
				Range: e.Range,
				Op:    ast.OpOr,
				Left:  not(e.Left),
				Right: not(e.Right),
			}, creating, opts)
		}
	case *ast.UnaryPrefix:
		if e.Op == ast.OpNot {
			return GetFormula(e.Operand, creating, opts)
		}
	case *ast.Isset:
		// !isset($a, $b) is !isset($a) || !isset($b)
		if len(e.Values) > 1 {
			var disjunction ast.Expr = not(&ast.Isset{Range: ast.RangeOf(e.Values[0]), Values: e.Values[:1]})
			for _, v := range e.Values[1:] {
				disjunction = &ast.Binary{
					Range: e.Range,
					Op:    ast.OpOr,
					Left:  disjunction,
					Right: not(&ast.Isset{Range: ast.RangeOf(v), Values: []ast.Expr{v}}),
				}
			}
			return GetFormula(disjunction, creating, opts)
		}
	}

	original, err := GetFormula(inner, creating, opts)
	if err != nil {
		return nil, err
	}
	negated, err := NegateFormula(original, opts)
	if err != nil {
		return nil, err
	}
	for i := range negated {
		if negated[i].Wedge {
			negated[i].Span = span
			negated[i].CreatingSpan = creating
		}
	}
	return negated, nil
}

func leafFormula(expr ast.Expr, span, creating ast.Range, opts Options) []Clause {
	found := assertion.Find(expr, opts.TypeOf)
	if len(found) == 0 {
		clause := NewClause(map[string][]assertion.Assertion{
			ast.ExprKey(expr): {assertion.Simple(assertion.Truthy)},
		}, span, creating)
		return []Clause{clause}
	}

	var redefined *set.Set[string]
	if assign, ok := expr.(*ast.Assign); ok {
		if key, ok := ast.VarKey(assign.Target); ok {
			redefined = set.From([]string{key})
		}
	}

	var clauses []Clause
	for _, key := range sortedKeys(found) {
		for _, group := range found[key] {
			clause := NewClause(map[string][]assertion.Assertion{key: group}, span, creating)
			clause.RedefinedVars = redefined
			clauses = append(clauses, clause)
		}
	}
	logger.Debug("built formula", "expr", expr, "clauses", len(clauses))
	return clauses
}

func comparedWithBool(e *ast.Binary) (other ast.Expr, value bool, ok bool) {
	if b, isBool := ast.Unwrap(e.Right).(*ast.BoolLiteral); isBool {
		return e.Left, b.Value, true
	}
	if b, isBool := ast.Unwrap(e.Left).(*ast.BoolLiteral); isBool {
		return e.Right, b.Value, true
	}
	return nil, false, false
}

func isLogical(expr ast.Expr) bool {
	switch e := ast.Unwrap(expr).(type) {
	case *ast.Binary:
		return e.Op == ast.OpAnd || e.Op == ast.OpOr
	case *ast.UnaryPrefix:
		return e.Op == ast.OpNot
	}
	return false
}

func not(expr ast.Expr) ast.Expr {
	return &ast.UnaryPrefix{Range: ast.RangeOf(expr), Op: ast.OpNot, Operand: expr}
}
