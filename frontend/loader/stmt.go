package loader

import (
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"gopkg.in/yaml.v3"
)

func (d *decoder) stmts(n *yaml.Node) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, item := range items(n) {
		s, err := d.stmt(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) block(n *yaml.Node) (*ast.Block, error) {
	if n == nil {
		return nil, nil
	}
	stmts, err := d.stmts(n)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Range: d.rangeOf(n), Stmts: stmts}, nil
}

func (d *decoder) stmt(n *yaml.Node) (ast.Stmt, error) {
	n = resolve(n)
	r := d.rangeOf(n)
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return &ast.Break{Range: r}, nil
		case "continue":
			return &ast.Continue{Range: r}, nil
		case "return":
			return &ast.Return{Range: r}, nil
		}
		return nil, d.errorf(n, "unknown statement %q", n.Value)
	}
	kind, v, err := d.single(n)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "expr":
		x, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Range: r, X: x}, nil
	case "let":
		parts, err := d.tuple(v, 2, 2)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprs(parts)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Range: r, X: &ast.Assign{Range: r, Target: exprs[0], Value: exprs[1]}}, nil
	case "echo":
		values, err := d.exprs(items(v))
		if err != nil {
			return nil, err
		}
		return &ast.Echo{Range: r, Values: values}, nil
	case "return":
		if v.ShortTag() == "!!null" {
			return &ast.Return{Range: r}, nil
		}
		value, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Range: r, Value: value}, nil
	case "throw":
		value, err := d.expr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Throw{Range: r, Value: value}, nil
	case "block":
		return d.block(v)
	case "if":
		return d.ifStmt(r, v)
	case "while":
		fields, err := d.fields(v, "cond", "body")
		if err != nil {
			return nil, err
		}
		cond, err := d.required(v, fields, "cond")
		if err != nil {
			return nil, err
		}
		body, err := d.block(fields["body"])
		if err != nil {
			return nil, err
		}
		return &ast.While{Range: r, Cond: cond, Body: body}, nil
	case "function":
		return d.function(r, v)
	}

	// any expression can stand as a statement
	x, err := d.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Range: r, X: x}, nil
}

func (d *decoder) required(parent *yaml.Node, fields map[string]*yaml.Node, key string) (ast.Expr, error) {
	n, ok := fields[key]
	if !ok {
		return nil, d.errorf(parent, "missing %s", key)
	}
	return d.expr(n)
}

func (d *decoder) ifStmt(r ast.Range, n *yaml.Node) (ast.Stmt, error) {
	fields, err := d.fields(n, "cond", "then", "elseif", "else")
	if err != nil {
		return nil, err
	}
	cond, err := d.required(n, fields, "cond")
	if err != nil {
		return nil, err
	}
	s := &ast.If{Range: r, Cond: cond}
	if s.Then, err = d.block(fields["then"]); err != nil {
		return nil, err
	}
	if s.Then == nil {
		s.Then = &ast.Block{Range: r}
	}
	for _, item := range items(fields["elseif"]) {
		branch, err := d.fields(item, "cond", "then")
		if err != nil {
			return nil, err
		}
		cond, err := d.required(item, branch, "cond")
		if err != nil {
			return nil, err
		}
		body, err := d.block(branch["then"])
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = &ast.Block{Range: d.rangeOf(item)}
		}
		s.ElseIfs = append(s.ElseIfs, ast.ElseIf{Range: d.rangeOf(item), Cond: cond, Body: body})
	}
	if s.Else, err = d.block(fields["else"]); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *decoder) function(r ast.Range, n *yaml.Node) (ast.Stmt, error) {
	fields, err := d.fields(n, "name", "templates", "params", "return", "body")
	if err != nil {
		return nil, err
	}
	nameNode, ok := fields["name"]
	if !ok {
		return nil, d.errorf(n, "missing name")
	}
	fn := &ast.Function{Range: r}
	if fn.Name, err = d.scalarString(nameNode); err != nil {
		return nil, err
	}

	for _, item := range items(fields["templates"]) {
		tp, err := d.template(item)
		if err != nil {
			return nil, err
		}
		fn.Templates = append(fn.Templates, tp)
	}
	for _, item := range items(fields["params"]) {
		p, err := d.param(item)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, p)
	}
	if fn.ReturnType, err = d.hint(fields["return"]); err != nil {
		return nil, err
	}
	if fn.Body, err = d.block(fields["body"]); err != nil {
		return nil, err
	}
	return fn, nil
}

// template reads `T` or {name: T, of: bound}
func (d *decoder) template(n *yaml.Node) (ast.TemplateParam, error) {
	if n.Kind == yaml.ScalarNode {
		return ast.TemplateParam{Name: n.Value}, nil
	}
	fields, err := d.fields(n, "name", "of")
	if err != nil {
		return ast.TemplateParam{}, err
	}
	tp := ast.TemplateParam{}
	if name, ok := fields["name"]; ok {
		if tp.Name, err = d.scalarString(name); err != nil {
			return ast.TemplateParam{}, err
		}
	}
	if tp.Name == "" {
		return ast.TemplateParam{}, d.errorf(n, "missing template name")
	}
	tp.Constraint, err = d.hint(fields["of"])
	return tp, err
}

// param reads `name` or {name: name, type: hint, default: expr}
func (d *decoder) param(n *yaml.Node) (ast.Param, error) {
	p := ast.Param{Range: d.rangeOf(n)}
	if n.Kind == yaml.ScalarNode {
		p.Name = strings.TrimPrefix(n.Value, "$")
		return p, nil
	}
	fields, err := d.fields(n, "name", "type", "default")
	if err != nil {
		return ast.Param{}, err
	}
	if name, ok := fields["name"]; ok {
		if p.Name, err = d.scalarString(name); err != nil {
			return ast.Param{}, err
		}
	}
	p.Name = strings.TrimPrefix(p.Name, "$")
	if p.Name == "" {
		return ast.Param{}, d.errorf(n, "missing parameter name")
	}
	if p.Type, err = d.hint(fields["type"]); err != nil {
		return ast.Param{}, err
	}
	if def, ok := fields["default"]; ok {
		if p.Default, err = d.expr(def); err != nil {
			return ast.Param{}, err
		}
	}
	return p, nil
}
