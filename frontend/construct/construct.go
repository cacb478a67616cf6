// Package construct builds AST nodes programmatically, giving each node a
// distinct source range that encloses the ranges of its children
package construct

import (
	"go/token"
	"sync/atomic"

	"github.com/cottand/narrow/frontend/ast"
)

var next atomic.Int64

func span(children ...ast.Node) ast.Range {
	end := token.Pos(next.Add(2))
	start := end - 1
	for _, child := range children {
		if child != nil && child.Pos() != token.NoPos && child.Pos() < start {
			start = child.Pos()
		}
	}
	return ast.Range{PosStart: start, PosEnd: end}
}

func exprNodes(exprs []ast.Expr) []ast.Node {
	nodes := make([]ast.Node, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			nodes = append(nodes, e)
		}
	}
	return nodes
}

// Expressions:

// Variable: `$x`
func Var(name string) *ast.Variable {
	return &ast.Variable{Range: span(), Name: name}
}

func Int(v int64) *ast.IntLiteral {
	return &ast.IntLiteral{Range: span(), Value: v}
}

func Float(v float64) *ast.FloatLiteral {
	return &ast.FloatLiteral{Range: span(), Value: v}
}

func Str(v string) *ast.StringLiteral {
	return &ast.StringLiteral{Range: span(), Value: v}
}

func Bool(v bool) *ast.BoolLiteral {
	return &ast.BoolLiteral{Range: span(), Value: v}
}

func Null() *ast.NullLiteral {
	return &ast.NullLiteral{Range: span()}
}

// List literal: `[a, b]`
func List(values ...ast.Expr) *ast.ArrayLiteral {
	items := make([]ast.ArrayItem, len(values))
	for i, v := range values {
		items[i] = ast.ArrayItem{Range: ast.RangeOf(v), Value: v}
	}
	return &ast.ArrayLiteral{Range: span(exprNodes(values)...), Items: items}
}

// Array literal entry: `key => value`
func Item(key, value ast.Expr) ast.ArrayItem {
	return ast.ArrayItem{Range: ast.RangeBetween(key, value), Key: key, Value: value}
}

// Keyed array literal: `['a' => 1]`
func Array(items ...ast.ArrayItem) *ast.ArrayLiteral {
	var children []ast.Node
	for _, item := range items {
		children = append(children, exprNodes([]ast.Expr{item.Key, item.Value})...)
	}
	return &ast.ArrayLiteral{Range: span(children...), Items: items}
}

// Array fetch: `$a[index]`
func Index(array, index ast.Expr) *ast.ArrayAccess {
	return &ast.ArrayAccess{Range: span(exprNodes([]ast.Expr{array, index})...), Array: array, Index: index}
}

// Property fetch: `$o->name`
func Prop(object ast.Expr, name string) *ast.PropertyFetch {
	return &ast.PropertyFetch{Range: span(object), Object: object, Name: name}
}

// Class constant: `Foo::NAME`, `Foo::class`
func ClassConst(class, name string) *ast.ClassConstFetch {
	return &ast.ClassConstFetch{Range: span(), Class: class, Name: name}
}

func Binary(op ast.BinaryOperator, left, right ast.Expr) *ast.Binary {
	return &ast.Binary{Range: span(left, right), Op: op, Left: left, Right: right}
}

// `a === b`
func Identical(left, right ast.Expr) *ast.Binary {
	return Binary(ast.OpIdentical, left, right)
}

// `a !== b`
func NotIdentical(left, right ast.Expr) *ast.Binary {
	return Binary(ast.OpNotIdentical, left, right)
}

// `a == b`
func Equal(left, right ast.Expr) *ast.Binary {
	return Binary(ast.OpEqual, left, right)
}

// `a && b`
func And(left, right ast.Expr) *ast.Binary {
	return Binary(ast.OpAnd, left, right)
}

// `a || b`
func Or(left, right ast.Expr) *ast.Binary {
	return Binary(ast.OpOr, left, right)
}

func Prefix(op ast.UnaryOperator, operand ast.Expr) *ast.UnaryPrefix {
	return &ast.UnaryPrefix{Range: span(operand), Op: op, Operand: operand}
}

// `!a`
func Not(operand ast.Expr) *ast.UnaryPrefix {
	return Prefix(ast.OpNot, operand)
}

// Cast: `(int) a`
func Cast(op ast.UnaryOperator, operand ast.Expr) *ast.UnaryPrefix {
	return Prefix(op, operand)
}

func Postfix(op ast.PostfixOperator, operand ast.Expr) *ast.UnaryPostfix {
	return &ast.UnaryPostfix{Range: span(operand), Op: op, Operand: operand}
}

// Assignment: `target = value`
func Assign(target, value ast.Expr) *ast.Assign {
	return &ast.Assign{Range: span(target, value), Target: target, Value: value}
}

// Function call: `f(x)`
func Call(name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{Range: span(exprNodes(args)...), Name: name, Args: args}
}

// Method call: `$o->m(x)`
func MethodCall(object ast.Expr, method string, args ...ast.Expr) *ast.MethodCall {
	nodes := append([]ast.Node{object}, exprNodes(args)...)
	return &ast.MethodCall{Range: span(nodes...), Object: object, Method: method, Args: args}
}

// Instantiation: `new Foo(x)`
func New(class string, args ...ast.Expr) *ast.New {
	return &ast.New{Range: span(exprNodes(args)...), Class: class, Args: args}
}

// `a instanceof Foo`
func Instanceof(expr ast.Expr, class string) *ast.Instanceof {
	return &ast.Instanceof{Range: span(expr), Expr: expr, Class: class}
}

// `isset(a, b)`
func Isset(values ...ast.Expr) *ast.Isset {
	return &ast.Isset{Range: span(exprNodes(values)...), Values: values}
}

// `empty(a)`
func Empty(value ast.Expr) *ast.Empty {
	return &ast.Empty{Range: span(value), Value: value}
}

// Ternary: `cond ? then : else`, `cond ?: else` when then is nil
func Ternary(cond, then, els ast.Expr) *ast.Ternary {
	return &ast.Ternary{Range: span(exprNodes([]ast.Expr{cond, then, els})...), Cond: cond, Then: then, Else: els}
}

// Statements:

func Block(stmts ...ast.Stmt) *ast.Block {
	nodes := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return &ast.Block{Range: span(nodes...), Stmts: stmts}
}

func Expr(x ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{Range: span(x), X: x}
}

// Assignment statement: `target = value;`
func Let(target, value ast.Expr) *ast.ExprStmt {
	return Expr(Assign(target, value))
}

// If statement. Use ElseIf and Else to extend it.
func If(cond ast.Expr, then ...ast.Stmt) *ast.If {
	body := Block(then...)
	return &ast.If{Range: span(cond, body), Cond: cond, Then: body}
}

func ElseIf(s *ast.If, cond ast.Expr, body ...ast.Stmt) *ast.If {
	block := Block(body...)
	s.ElseIfs = append(s.ElseIfs, ast.ElseIf{Range: span(cond, block), Cond: cond, Body: block})
	s.Range = span(s)
	return s
}

func Else(s *ast.If, body ...ast.Stmt) *ast.If {
	s.Else = Block(body...)
	s.Range = span(s)
	return s
}

func Return(value ast.Expr) *ast.Return {
	if value == nil {
		return &ast.Return{Range: span()}
	}
	return &ast.Return{Range: span(value), Value: value}
}

func Throw(value ast.Expr) *ast.Throw {
	return &ast.Throw{Range: span(value), Value: value}
}

func Break() *ast.Break {
	return &ast.Break{Range: span()}
}

func Continue() *ast.Continue {
	return &ast.Continue{Range: span()}
}

func Echo(values ...ast.Expr) *ast.Echo {
	return &ast.Echo{Range: span(exprNodes(values)...), Values: values}
}

func While(cond ast.Expr, body ...ast.Stmt) *ast.While {
	block := Block(body...)
	return &ast.While{Range: span(cond, block), Cond: cond, Body: block}
}

// Types:

// Named type hint: `int`, `Foo`, `list<int>`
func Hint(name string, args ...*ast.TypeHint) *ast.TypeHint {
	return &ast.TypeHint{Range: span(), Parts: []ast.HintPart{{Name: name, Args: args}}}
}

// Nullable type hint: `?Foo`
func Nullable(hint *ast.TypeHint) *ast.TypeHint {
	hint.Nullable = true
	return hint
}

// Union type hint: `int|string`
func UnionHint(hints ...*ast.TypeHint) *ast.TypeHint {
	var parts []ast.HintPart
	nullable := false
	for _, h := range hints {
		parts = append(parts, h.Parts...)
		nullable = nullable || h.Nullable
	}
	return &ast.TypeHint{Range: span(), Parts: parts, Nullable: nullable}
}

// Literal type hint: `'a'`, `5`
func LiteralHint(lit ast.Expr) *ast.TypeHint {
	return &ast.TypeHint{Range: span(lit), Parts: []ast.HintPart{{Literal: lit}}}
}

func Param(name string, hint *ast.TypeHint) ast.Param {
	return ast.Param{Range: span(), Name: name, Type: hint}
}

// Template declaration: `@template T of bound`
func Template(name string, bound *ast.TypeHint) ast.TemplateParam {
	return ast.TemplateParam{Name: name, Constraint: bound}
}

// Function declaration
func Func(name string, params []ast.Param, ret *ast.TypeHint, body ...ast.Stmt) *ast.Function {
	block := Block(body...)
	return &ast.Function{Range: span(block), Name: name, Params: params, ReturnType: ret, Body: block}
}

// Generic function declaration
func GenericFunc(name string, templates []ast.TemplateParam, params []ast.Param, ret *ast.TypeHint, body ...ast.Stmt) *ast.Function {
	fn := Func(name, params, ret, body...)
	fn.Templates = templates
	return fn
}

func File(name string, stmts ...ast.Stmt) *ast.File {
	nodes := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return &ast.File{Range: span(nodes...), Name: name, Stmts: stmts}
}
