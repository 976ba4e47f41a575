package ir

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Node is any program element that can be used to position a diagnostic.
type Node interface {
	String() string
}

// Expression is an expression node annotated with its canonical type.
type Expression interface {
	Node
	Type() Type
	isExpression()
}

type exprBase struct {
	Typ Type
}

func (e exprBase) Type() Type   { return e.Typ }
func (exprBase) isExpression() {}

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAddSat
	OpSubSat
	OpShl
	OpShr
	OpBAnd
	OpBOr
	OpBXor
	OpConcat
	OpLAnd
	OpLOr
	OpEq
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq

	// Unary
	OpNeg
	OpCmpl
	OpLNot
)

var opSymbols = [...]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpAddSat: "|+|",
	OpSubSat: "|-|",
	OpShl:    "<<",
	OpShr:    ">>",
	OpBAnd:   "&",
	OpBOr:    "|",
	OpBXor:   "^",
	OpConcat: "++",
	OpLAnd:   "&&",
	OpLOr:    "||",
	OpEq:     "==",
	OpNeq:    "!=",
	OpLt:     "<",
	OpLeq:    "<=",
	OpGt:     ">",
	OpGeq:    ">=",
	OpNeg:    "-",
	OpCmpl:   "~",
	OpLNot:   "!",
}

func (op Op) String() string {
	if int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsRelation holds for operators producing a boolean from two operands.
func (op Op) IsRelation() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLeq, OpGt, OpGeq:
		return true
	}
	return false
}

type Direction int

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	}
	return ""
}

// Writes holds for directions through which a callee may write.
func (d Direction) Writes() bool { return d == DirOut || d == DirInOut }

type (
	Constant struct {
		exprBase
		Value *apd.BigInt
	}

	BoolLiteral struct {
		exprBase
		Value bool
	}

	StringLiteral struct {
		exprBase
		Value string
	}

	// PathExpression references a declaration. Decl is filled in by
	// reference resolution.
	PathExpression struct {
		exprBase
		Name string
		Decl Declaration
	}

	// TypeNameExpression names a type, e.g. the head of error.NoError.
	TypeNameExpression struct {
		exprBase
	}

	Member struct {
		exprBase
		Expr   Expression
		Member string
	}

	ArrayIndex struct {
		exprBase
		Left  Expression
		Right Expression
	}

	Binary struct {
		exprBase
		Op    Op
		Left  Expression
		Right Expression
	}

	Unary struct {
		exprBase
		Op   Op
		Expr Expression
	}

	// Mux is the ternary conditional.
	Mux struct {
		exprBase
		Cond    Expression
		IfTrue  Expression
		IfFalse Expression
	}

	// Slice extracts bits Hi..Lo (inclusive).
	Slice struct {
		exprBase
		Expr   Expression
		Hi, Lo int
	}

	// Cast converts Expr to the annotated type.
	Cast struct {
		exprBase
		Expr Expression
	}

	ListExpression struct {
		exprBase
		Components []Expression
	}

	NamedExpression struct {
		Name string
		Expr Expression
	}

	StructExpression struct {
		exprBase
		Fields []NamedExpression
	}

	Argument struct {
		Expr      Expression
		Direction Direction
	}

	// MethodCall is a call of a function, action, built-in or extern method.
	// The annotated type is the return type.
	MethodCall struct {
		exprBase
		Method   Expression
		TypeArgs []Type
		Args     []Argument
	}

	// DefaultExpression is the "default" / "_" keyset.
	DefaultExpression struct {
		exprBase
	}
)

func NewConstant(typ Type, v int64) *Constant {
	return &Constant{exprBase{typ}, apd.NewBigInt(v)}
}

func NewBool(v bool) *BoolLiteral {
	return &BoolLiteral{exprBase{Bool}, v}
}

func NewString(v string) *StringLiteral {
	return &StringLiteral{exprBase{String}, v}
}

func NewPath(decl Declaration) *PathExpression {
	return &PathExpression{exprBase{decl.DeclType()}, decl.DeclName(), decl}
}

func NewTypeName(typ Type) *TypeNameExpression {
	return &TypeNameExpression{exprBase{typ}}
}

func NewMember(typ Type, e Expression, member string) *Member {
	return &Member{exprBase{typ}, e, member}
}

func NewArrayIndex(typ Type, left, right Expression) *ArrayIndex {
	return &ArrayIndex{exprBase{typ}, left, right}
}

func NewBinary(typ Type, op Op, left, right Expression) *Binary {
	return &Binary{exprBase{typ}, op, left, right}
}

func NewUnary(typ Type, op Op, e Expression) *Unary {
	return &Unary{exprBase{typ}, op, e}
}

func NewMux(typ Type, cond, t, f Expression) *Mux {
	return &Mux{exprBase{typ}, cond, t, f}
}

func NewSlice(e Expression, hi, lo int) *Slice {
	return &Slice{exprBase{Bits(hi - lo + 1)}, e, hi, lo}
}

func NewCast(typ Type, e Expression) *Cast {
	return &Cast{exprBase{typ}, e}
}

func NewList(typ *TypeTuple, components ...Expression) *ListExpression {
	return &ListExpression{exprBase{typ}, components}
}

func NewStructExpression(typ StructLike, fields ...NamedExpression) *StructExpression {
	return &StructExpression{exprBase{typ}, fields}
}

func NewMethodCall(typ Type, method Expression, args ...Argument) *MethodCall {
	return &MethodCall{exprBase: exprBase{typ}, Method: method, Args: args}
}

func NewDefault() *DefaultExpression {
	return &DefaultExpression{}
}

func In(e Expression) Argument    { return Argument{e, DirIn} }
func Out(e Expression) Argument   { return Argument{e, DirOut} }
func InOut(e Expression) Argument { return Argument{e, DirInOut} }

func (e *Constant) String() string      { return e.Value.String() }
func (e *StringLiteral) String() string { return fmt.Sprintf("%q", e.Value) }
func (e *PathExpression) String() string {
	return e.Name
}
func (e *TypeNameExpression) String() string { return e.Typ.String() }
func (e *Member) String() string             { return e.Expr.String() + "." + e.Member }
func (e *ArrayIndex) String() string {
	return e.Left.String() + "[" + e.Right.String() + "]"
}
func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}
func (e *Unary) String() string { return e.Op.String() + e.Expr.String() }
func (e *Mux) String() string {
	return "(" + e.Cond.String() + " ? " + e.IfTrue.String() + " : " + e.IfFalse.String() + ")"
}
func (e *Slice) String() string {
	return fmt.Sprintf("%s[%d:%d]", e.Expr, e.Hi, e.Lo)
}
func (e *Cast) String() string              { return "(" + e.Typ.String() + ")" + e.Expr.String() }
func (e *DefaultExpression) String() string { return "default" }

func (e *BoolLiteral) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

func (e *ListExpression) String() string {
	return "{" + joinExprs(e.Components) + "}"
}

func (e *StructExpression) String() string {
	strs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		strs[i] = f.Name + " = " + f.Expr.String()
	}
	return "{" + strings.Join(strs, ", ") + "}"
}

func (e *MethodCall) String() string {
	args := make([]Expression, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.Expr
	}
	return e.Method.String() + "(" + joinExprs(args) + ")"
}

func joinExprs(es []Expression) string {
	strs := make([]string, len(es))
	for i, e := range es {
		strs[i] = e.String()
	}
	return strings.Join(strs, ", ")
}
