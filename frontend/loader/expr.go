package loader

import (
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"gopkg.in/yaml.v3"
)

var binaryOperators = map[string]ast.BinaryOperator{
	"identical":     ast.OpIdentical,
	"not_identical": ast.OpNotIdentical,
	"equal":         ast.OpEqual,
	"not_equal":     ast.OpNotEqual,
	"less":          ast.OpLess,
	"less_equal":    ast.OpLessEqual,
	"greater":       ast.OpGreater,
	"greater_equal": ast.OpGreaterEqual,
	"and":           ast.OpAnd,
	"or":            ast.OpOr,
	"add":           ast.OpAdd,
	"sub":           ast.OpSub,
	"mul":           ast.OpMul,
	"div":           ast.OpDiv,
	"mod":           ast.OpMod,
	"concat":        ast.OpConcat,
	"coalesce":      ast.OpCoalesce,
}

func init() {
	// operators may also be written as they are in source
	for op := ast.OpIdentical; op <= ast.OpCoalesce; op++ {
		binaryOperators[op.String()] = op
	}
}

var unaryOperators = map[string]ast.UnaryOperator{
	"not":         ast.OpNot,
	"!":           ast.OpNot,
	"negate":      ast.OpNegate,
	"plus":        ast.OpPlus,
	"bitwise_not": ast.OpBitwiseNot,
	"silence":     ast.OpErrorControl,
	"ref":         ast.OpReference,
	"pre_inc":     ast.OpPreIncrement,
	"pre_dec":     ast.OpPreDecrement,
}

var postfixOperators = map[string]ast.PostfixOperator{
	"post_inc": ast.OpPostIncrement,
	"post_dec": ast.OpPostDecrement,
}

var castOperators = map[string]ast.UnaryOperator{
	"int":     ast.OpIntCast,
	"integer": ast.OpIntCast,
	"float":   ast.OpFloatCast,
	"double":  ast.OpFloatCast,
	"string":  ast.OpStringCast,
	"bool":    ast.OpBoolCast,
	"boolean": ast.OpBoolCast,
	"array":   ast.OpArrayCast,
	"object":  ast.OpObjectCast,
}

func (d *decoder) exprs(nodes []*yaml.Node) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(n *yaml.Node) (ast.Expr, error) {
	n = resolve(n)
	if n.Kind == yaml.ScalarNode {
		return d.literal(n)
	}
	kind, v, err := d.single(n)
	if err != nil {
		return nil, err
	}
	r := d.rangeOf(n)

	if op, ok := binaryOperators[kind]; ok {
		operands, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		left, err := d.expr(operands[0])
		if err != nil {
			return nil, err
		}
		right, err := d.expr(operands[1])
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Range: r, Op: op, Left: left, Right: right}, nil
	}
	if op, ok := unaryOperators[kind]; ok {
		operand, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryPrefix{Range: r, Op: op, Operand: operand}, nil
	}
	if op, ok := postfixOperators[kind]; ok {
		operand, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryPostfix{Range: r, Op: op, Operand: operand}, nil
	}

	switch kind {
	case "var":
		name, err := d.scalarString(v)
		if err != nil {
			return nil, err
		}
		return &ast.Variable{Range: r, Name: strings.TrimPrefix(name, "$")}, nil
	case "int":
		var i int64
		if err := v.Decode(&i); err != nil {
			return nil, d.errorf(v, "invalid int: %v", err)
		}
		return &ast.IntLiteral{Range: r, Value: i}, nil
	case "float":
		var f float64
		if err := v.Decode(&f); err != nil {
			return nil, d.errorf(v, "invalid float: %v", err)
		}
		return &ast.FloatLiteral{Range: r, Value: f}, nil
	case "str":
		s, err := d.scalarString(v)
		if err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Range: r, Value: s}, nil
	case "bool":
		var b bool
		if err := v.Decode(&b); err != nil {
			return nil, d.errorf(v, "invalid bool: %v", err)
		}
		return &ast.BoolLiteral{Range: r, Value: b}, nil
	case "null":
		return &ast.NullLiteral{Range: r}, nil
	case "list":
		values, err := d.exprs(items(v))
		if err != nil {
			return nil, err
		}
		lit := &ast.ArrayLiteral{Range: r}
		for i, value := range values {
			lit.Items = append(lit.Items, ast.ArrayItem{Range: d.rangeOf(items(v)[i]), Value: value})
		}
		return lit, nil
	case "array":
		return d.arrayLiteral(r, v)
	case "index":
		parts, err := d.tuple(v, 1, 2)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprs(parts)
		if err != nil {
			return nil, err
		}
		access := &ast.ArrayAccess{Range: r, Array: exprs[0]}
		if len(exprs) == 2 {
			access.Index = exprs[1]
		}
		return access, nil
	case "prop", "nullsafe_prop":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		object, err := d.expr(parts[0])
		if err != nil {
			return nil, err
		}
		name, err := d.scalarString(parts[1])
		if err != nil {
			return nil, err
		}
		return &ast.PropertyFetch{Range: r, Object: object, Name: name, NullSafe: kind == "nullsafe_prop"}, nil
	case "const":
		s, err := d.scalarString(v)
		if err != nil {
			return nil, err
		}
		class, name, ok := strings.Cut(s, "::")
		if !ok {
			return nil, d.errorf(v, "expected Class::NAME, got %q", s)
		}
		return &ast.ClassConstFetch{Range: r, Class: class, Name: name}, nil
	case "assign":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprs(parts)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Range: r, Target: exprs[0], Value: exprs[1]}, nil
	case "call":
		name, args, err := d.named(v)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Range: r, Name: name, Args: args}, nil
	case "new":
		class, args, err := d.named(v)
		if err != nil {
			return nil, err
		}
		return &ast.New{Range: r, Class: class, Args: args}, nil
	case "method", "nullsafe_method":
		parts := items(v)
		if v.Kind != yaml.SequenceNode || len(parts) < 2 {
			return nil, d.errorf(v, "expected [object, method, args...]")
		}
		object, err := d.expr(parts[0])
		if err != nil {
			return nil, err
		}
		method, args, err := d.named(&yaml.Node{Kind: yaml.SequenceNode, Content: parts[1:]})
		if err != nil {
			return nil, err
		}
		return &ast.MethodCall{Range: r, Object: object, Method: method, Args: args, NullSafe: kind == "nullsafe_method"}, nil
	case "instanceof":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		x, err := d.expr(parts[0])
		if err != nil {
			return nil, err
		}
		class, err := d.scalarString(parts[1])
		if err != nil {
			return nil, err
		}
		return &ast.Instanceof{Range: r, Expr: x, Class: class}, nil
	case "isset":
		values, err := d.exprs(items(v))
		if err != nil {
			return nil, err
		}
		return &ast.Isset{Range: r, Values: values}, nil
	case "empty":
		value, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Empty{Range: r, Value: value}, nil
	case "ternary":
		parts, err := d.tuple(v, 3, 3)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprs(parts)
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Range: r, Cond: exprs[0], Then: exprs[1], Else: exprs[2]}, nil
	case "short_ternary":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprs(parts)
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Range: r, Cond: exprs[0], Else: exprs[1]}, nil
	case "cast":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		to, err := d.scalarString(parts[0])
		if err != nil {
			return nil, err
		}
		op, ok := castOperators[strings.ToLower(to)]
		if !ok {
			return nil, d.errorf(parts[0], "unknown cast to %q", to)
		}
		operand, err := d.expr(parts[1])
		if err != nil {
			return nil, err
		}
		return &ast.UnaryPrefix{Range: r, Op: op, Operand: operand}, nil
	}
	return nil, d.errorf(n, "unknown expression %q", kind)
}

// literal reads a plain scalar by its YAML tag
func (d *decoder) literal(n *yaml.Node) (ast.Expr, error) {
	r := d.rangeOf(n)
	switch n.ShortTag() {
	case "!!null":
		return &ast.NullLiteral{Range: r}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "invalid bool: %v", err)
		}
		return &ast.BoolLiteral{Range: r, Value: b}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errorf(n, "invalid int: %v", err)
		}
		return &ast.IntLiteral{Range: r, Value: i}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, d.errorf(n, "invalid float: %v", err)
		}
		return &ast.FloatLiteral{Range: r, Value: f}, nil
	case "!!str":
		if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 && strings.HasPrefix(n.Value, "$") {
			return &ast.Variable{Range: r, Name: n.Value[1:]}, nil
		}
		return &ast.StringLiteral{Range: r, Value: n.Value}, nil
	}
	return nil, d.errorf(n, "unsupported scalar %s", n.ShortTag())
}

// named reads [name, args...]
func (d *decoder) named(n *yaml.Node) (string, []ast.Expr, error) {
	parts := items(n)
	if len(parts) == 0 {
		return "", nil, d.errorf(n, "expected [name, args...]")
	}
	name, err := d.scalarString(parts[0])
	if err != nil {
		return "", nil, err
	}
	args, err := d.exprs(parts[1:])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// arrayLiteral reads either a mapping from keys to values, or a sequence of
// [key, value] pairs for keys a mapping cannot hold twice or in order
func (d *decoder) arrayLiteral(r ast.Range, n *yaml.Node) (ast.Expr, error) {
	lit := &ast.ArrayLiteral{Range: r}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := d.literal(resolve(n.Content[i]))
			if err != nil {
				return nil, err
			}
			value, err := d.expr(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			lit.Items = append(lit.Items, ast.ArrayItem{Range: ast.RangeBetween(key, value), Key: key, Value: value})
		}
	case yaml.SequenceNode:
		for _, pair := range items(n) {
			parts, err := d.tuple(pair, 2, 2)
			if err != nil {
				return nil, err
			}
			exprs, err := d.exprs(parts)
			if err != nil {
				return nil, err
			}
			lit.Items = append(lit.Items, ast.ArrayItem{Range: d.rangeOf(pair), Key: exprs[0], Value: exprs[1]})
		}
	default:
		return nil, d.errorf(n, "expected a mapping or a sequence of [key, value]")
	}
	return lit, nil
}
