package ast

// All expression types implement the Expr interface

var (
	_ Expr = (*Variable)(nil)
	_ Expr = (*IntLiteral)(nil)
	_ Expr = (*FloatLiteral)(nil)
	_ Expr = (*StringLiteral)(nil)
	_ Expr = (*BoolLiteral)(nil)
	_ Expr = (*NullLiteral)(nil)
	_ Expr = (*ArrayLiteral)(nil)
	_ Expr = (*ArrayAccess)(nil)
	_ Expr = (*PropertyFetch)(nil)
	_ Expr = (*ClassConstFetch)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*UnaryPrefix)(nil)
	_ Expr = (*UnaryPostfix)(nil)
	_ Expr = (*Assign)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*MethodCall)(nil)
	_ Expr = (*New)(nil)
	_ Expr = (*Instanceof)(nil)
	_ Expr = (*Isset)(nil)
	_ Expr = (*Empty)(nil)
	_ Expr = (*Ternary)(nil)
)

// Variable is a local variable reference such as $x. Name excludes the sigil.
type Variable struct {
	Range
	Name string
}

func (e *Variable) exprNode() {}
func (e *Variable) Hash() uint64 {
	return newHasher("Variable", e.Range).str(e.Name).sum()
}

type IntLiteral struct {
	Range
	Value int64
}

func (e *IntLiteral) exprNode() {}
func (e *IntLiteral) Hash() uint64 {
	return newHasher("IntLiteral", e.Range).int(e.Value).sum()
}

type FloatLiteral struct {
	Range
	Value float64
}

func (e *FloatLiteral) exprNode() {}
func (e *FloatLiteral) Hash() uint64 {
	return newHasher("FloatLiteral", e.Range).float(e.Value).sum()
}

type StringLiteral struct {
	Range
	Value string
}

func (e *StringLiteral) exprNode() {}
func (e *StringLiteral) Hash() uint64 {
	return newHasher("StringLiteral", e.Range).str(e.Value).sum()
}

type BoolLiteral struct {
	Range
	Value bool
}

func (e *BoolLiteral) exprNode() {}
func (e *BoolLiteral) Hash() uint64 {
	return newHasher("BoolLiteral", e.Range).bool(e.Value).sum()
}

type NullLiteral struct {
	Range
}

func (e *NullLiteral) exprNode() {}
func (e *NullLiteral) Hash() uint64 {
	return newHasher("NullLiteral", e.Range).sum()
}

// ArrayItem is one entry of an array literal. Key is nil for list-style entries.
type ArrayItem struct {
	Range
	Key   Expr
	Value Expr
}

type ArrayLiteral struct {
	Range
	Items []ArrayItem
}

func (e *ArrayLiteral) exprNode() {}
func (e *ArrayLiteral) Hash() uint64 {
	h := newHasher("ArrayLiteral", e.Range)
	for _, item := range e.Items {
		h.node(item.Key).node(item.Value)
	}
	return h.sum()
}

// ArrayAccess is $a[index]. Index is nil for the append form $a[].
type ArrayAccess struct {
	Range
	Array Expr
	Index Expr
}

func (e *ArrayAccess) exprNode() {}
func (e *ArrayAccess) Hash() uint64 {
	return newHasher("ArrayAccess", e.Range).node(e.Array).node(e.Index).sum()
}

type PropertyFetch struct {
	Range
	Object   Expr
	Name     string
	NullSafe bool
}

func (e *PropertyFetch) exprNode() {}
func (e *PropertyFetch) Hash() uint64 {
	return newHasher("PropertyFetch", e.Range).node(e.Object).str(e.Name).bool(e.NullSafe).sum()
}

// ClassConstFetch covers Foo::class, enum cases (Suit::Hearts) and class constants
type ClassConstFetch struct {
	Range
	Class string
	Name  string
}

func (e *ClassConstFetch) exprNode() {}
func (e *ClassConstFetch) Hash() uint64 {
	return newHasher("ClassConstFetch", e.Range).str(e.Class).str("::").str(e.Name).sum()
}

type BinaryOperator int

const (
	OpIdentical BinaryOperator = iota
	OpNotIdentical
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpCoalesce
)

var binaryOperatorStrings = map[BinaryOperator]string{
	OpIdentical:    "===",
	OpNotIdentical: "!==",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAnd:          "&&",
	OpOr:           "||",
	OpXor:          "xor",
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpConcat:       ".",
	OpCoalesce:     "??",
}

func (op BinaryOperator) String() string { return binaryOperatorStrings[op] }

// IsComparison is true for operators that always produce a bool from two operands
func (op BinaryOperator) IsComparison() bool {
	return op >= OpIdentical && op <= OpGreaterEqual
}

func (op BinaryOperator) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

type Binary struct {
	Range
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

func (e *Binary) exprNode() {}
func (e *Binary) Hash() uint64 {
	return newHasher("Binary", e.Range).int(int64(e.Op)).node(e.Left).node(e.Right).sum()
}

type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpNegate
	OpPlus
	OpBitwiseNot
	OpErrorControl
	OpReference
	OpPreIncrement
	OpPreDecrement
	OpIntCast
	OpFloatCast
	OpStringCast
	OpBoolCast
	OpArrayCast
	OpObjectCast
)

var unaryOperatorStrings = map[UnaryOperator]string{
	OpNot:          "!",
	OpNegate:       "-",
	OpPlus:         "+",
	OpBitwiseNot:   "~",
	OpErrorControl: "@",
	OpReference:    "&",
	OpPreIncrement: "++",
	OpPreDecrement: "--",
	OpIntCast:      "(int)",
	OpFloatCast:    "(float)",
	OpStringCast:   "(string)",
	OpBoolCast:     "(bool)",
	OpArrayCast:    "(array)",
	OpObjectCast:   "(object)",
}

func (op UnaryOperator) String() string { return unaryOperatorStrings[op] }

func (op UnaryOperator) IsCast() bool {
	return op >= OpIntCast && op <= OpObjectCast
}

type UnaryPrefix struct {
	Range
	Op      UnaryOperator
	Operand Expr
}

func (e *UnaryPrefix) exprNode() {}
func (e *UnaryPrefix) Hash() uint64 {
	return newHasher("UnaryPrefix", e.Range).int(int64(e.Op)).node(e.Operand).sum()
}

type PostfixOperator int

const (
	OpPostIncrement PostfixOperator = iota
	OpPostDecrement
)

func (op PostfixOperator) String() string {
	if op == OpPostIncrement {
		return "++"
	}
	return "--"
}

type UnaryPostfix struct {
	Range
	Op      PostfixOperator
	Operand Expr
}

func (e *UnaryPostfix) exprNode() {}
func (e *UnaryPostfix) Hash() uint64 {
	return newHasher("UnaryPostfix", e.Range).int(int64(e.Op)).node(e.Operand).sum()
}

type Assign struct {
	Range
	Target Expr
	Value  Expr
}

func (e *Assign) exprNode() {}
func (e *Assign) Hash() uint64 {
	return newHasher("Assign", e.Range).node(e.Target).node(e.Value).sum()
}

// Call is a call to a named function
type Call struct {
	Range
	Name string
	Args []Expr
}

func (e *Call) exprNode() {}
func (e *Call) Hash() uint64 {
	h := newHasher("Call", e.Range).str(e.Name)
	for _, arg := range e.Args {
		h.node(arg)
	}
	return h.sum()
}

type MethodCall struct {
	Range
	Object   Expr
	Method   string
	Args     []Expr
	NullSafe bool
}

func (e *MethodCall) exprNode() {}
func (e *MethodCall) Hash() uint64 {
	h := newHasher("MethodCall", e.Range).node(e.Object).str(e.Method).bool(e.NullSafe)
	for _, arg := range e.Args {
		h.node(arg)
	}
	return h.sum()
}

type New struct {
	Range
	Class string
	Args  []Expr
}

func (e *New) exprNode() {}
func (e *New) Hash() uint64 {
	h := newHasher("New", e.Range).str(e.Class)
	for _, arg := range e.Args {
		h.node(arg)
	}
	return h.sum()
}

type Instanceof struct {
	Range
	Expr  Expr
	Class string
}

func (e *Instanceof) exprNode() {}
func (e *Instanceof) Hash() uint64 {
	return newHasher("Instanceof", e.Range).node(e.Expr).str(e.Class).sum()
}

type Isset struct {
	Range
	Values []Expr
}

func (e *Isset) exprNode() {}
func (e *Isset) Hash() uint64 {
	h := newHasher("Isset", e.Range)
	for _, v := range e.Values {
		h.node(v)
	}
	return h.sum()
}

type Empty struct {
	Range
	Value Expr
}

func (e *Empty) exprNode() {}
func (e *Empty) Hash() uint64 {
	return newHasher("Empty", e.Range).node(e.Value).sum()
}

// Ternary is cond ? then : else. Then is nil for the short form cond ?: else.
type Ternary struct {
	Range
	Cond Expr
	Then Expr
	Else Expr
}

func (e *Ternary) exprNode() {}
func (e *Ternary) Hash() uint64 {
	return newHasher("Ternary", e.Range).node(e.Cond).node(e.Then).node(e.Else).sum()
}

// Unwrap strips no-op wrappers that do not change what an expression refers to
func Unwrap(expr Expr) Expr {
	for {
		prefix, ok := expr.(*UnaryPrefix)
		if !ok || prefix.Op != OpErrorControl {
			return expr
		}
		expr = prefix.Operand
	}
}
