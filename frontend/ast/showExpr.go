package ast

import (
	"strconv"
	"strings"
)

// ExprString renders expr back into source-like syntax, for logs and diagnostics
func ExprString(expr Expr) string {
	ctx := newShowContext()
	ctx.showExprWalker(expr)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func newShowContext() *showContext {
	return &showContext{
		Builder: &strings.Builder{},
	}
}

func (ctx *showContext) args(args []Expr) {
	ctx.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			ctx.WriteString(", ")
		}
		ctx.showExprWalker(arg)
	}
	ctx.WriteString(")")
}

func (ctx *showContext) showExprWalker(expr Expr) {
	if expr == nil {
		ctx.WriteString("nil")
		return
	}
	switch expr := expr.(type) {
	case *Variable:
		ctx.WriteString("$" + expr.Name)
	case *IntLiteral:
		ctx.WriteString(strconv.FormatInt(expr.Value, 10))
	case *FloatLiteral:
		ctx.WriteString(strconv.FormatFloat(expr.Value, 'g', -1, 64))
	case *StringLiteral:
		ctx.WriteString("'" + strings.ReplaceAll(expr.Value, "'", "\\'") + "'")
	case *BoolLiteral:
		ctx.WriteString(strconv.FormatBool(expr.Value))
	case *NullLiteral:
		ctx.WriteString("null")
	case *ArrayLiteral:
		ctx.WriteString("[")
		for i, item := range expr.Items {
			if i > 0 {
				ctx.WriteString(", ")
			}
			if item.Key != nil {
				ctx.showExprWalker(item.Key)
				ctx.WriteString(" => ")
			}
			ctx.showExprWalker(item.Value)
		}
		ctx.WriteString("]")
	case *ArrayAccess:
		ctx.showExprWalker(expr.Array)
		ctx.WriteString("[")
		if expr.Index != nil {
			ctx.showExprWalker(expr.Index)
		}
		ctx.WriteString("]")
	case *PropertyFetch:
		ctx.showExprWalker(expr.Object)
		if expr.NullSafe {
			ctx.WriteString("?->")
		} else {
			ctx.WriteString("->")
		}
		ctx.WriteString(expr.Name)
	case *ClassConstFetch:
		ctx.WriteString(expr.Class + "::" + expr.Name)
	case *Binary:
		ctx.WriteString("(")
		ctx.showExprWalker(expr.Left)
		ctx.WriteString(" " + expr.Op.String() + " ")
		ctx.showExprWalker(expr.Right)
		ctx.WriteString(")")
	case *UnaryPrefix:
		ctx.WriteString(expr.Op.String())
		ctx.showExprWalker(expr.Operand)
	case *UnaryPostfix:
		ctx.showExprWalker(expr.Operand)
		ctx.WriteString(expr.Op.String())
	case *Assign:
		ctx.showExprWalker(expr.Target)
		ctx.WriteString(" = ")
		ctx.showExprWalker(expr.Value)
	case *Call:
		ctx.WriteString(expr.Name)
		ctx.args(expr.Args)
	case *MethodCall:
		ctx.showExprWalker(expr.Object)
		if expr.NullSafe {
			ctx.WriteString("?->")
		} else {
			ctx.WriteString("->")
		}
		ctx.WriteString(expr.Method)
		ctx.args(expr.Args)
	case *New:
		ctx.WriteString("new " + expr.Class)
		ctx.args(expr.Args)
	case *Instanceof:
		ctx.showExprWalker(expr.Expr)
		ctx.WriteString(" instanceof " + expr.Class)
	case *Isset:
		ctx.WriteString("isset")
		ctx.args(expr.Values)
	case *Empty:
		ctx.WriteString("empty(")
		ctx.showExprWalker(expr.Value)
		ctx.WriteString(")")
	case *Ternary:
		ctx.WriteString("(")
		ctx.showExprWalker(expr.Cond)
		if expr.Then == nil {
			ctx.WriteString(" ?: ")
		} else {
			ctx.WriteString(" ? ")
			ctx.showExprWalker(expr.Then)
			ctx.WriteString(" : ")
		}
		ctx.showExprWalker(expr.Else)
		ctx.WriteString(")")
	default:
		ctx.WriteString("<expr>")
	}
}
