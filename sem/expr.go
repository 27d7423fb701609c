package sem

import (
	"vela/typing"
)

// Expr is the parent interface for all checkable expressions
type Expr interface {
	// Type returns the data type yielded by an expression.  During checking
	// this is usually a type variable; after a solution is applied it is the
	// resolved type.
	Type() typing.DataType

	// Category returns the value category of the expression.  It must be one
	// of the enumerated categories below.
	Category() int
}

// Enumeration of value categories
const (
	LValue = iota
	RValue
)

// ExprBase is the base struct for all expressions
type ExprBase struct {
	dt  typing.DataType
	cat int
}

func NewExprBase(dt typing.DataType, cat int) ExprBase {
	return ExprBase{
		dt:  dt,
		cat: cat,
	}
}

func (eb *ExprBase) Type() typing.DataType {
	return eb.dt
}

func (eb *ExprBase) Category() int {
	return eb.cat
}

func (eb *ExprBase) SetType(dt typing.DataType) {
	eb.dt = dt
}

// -----------------------------------------------------------------------------

// Literal represents a literal of one of the primitive types
type Literal struct {
	ExprBase

	// Value is the literal text, used only for display
	Value string

	// Kind is the primitive kind the literal denotes
	Kind typing.PrimType
}

// NameRef represents a reference to a globally declared name
type NameRef struct {
	ExprBase

	Name string

	// Sym is the symbol the name resolved to
	Sym *Symbol
}

// MemberAccess represents `root.member`
type MemberAccess struct {
	ExprBase

	Root       Expr
	MemberName string
}

// Arg is one labeled argument of a call or one field of a tuple literal
type Arg struct {
	// Name is the argument label; empty for positional arguments
	Name string

	Value Expr
}

// Call represents `fn(args...)`
type Call struct {
	ExprBase

	Fn   Expr
	Args []Arg
}

// OperApp represents the application of a named operator to its operands
type OperApp struct {
	ExprBase

	Oper     *Operator
	Operands []Expr
}

// TupleLit represents a tuple literal `(a: x, y)`
type TupleLit struct {
	ExprBase

	Fields []Arg
}

// ArrayLit represents an array literal `[a, b, c]`
type ArrayLit struct {
	ExprBase

	Elements []Expr
}

// Cast represents `src as Dest` or, when Conditional is set, `src as? Dest`
type Cast struct {
	ExprBase

	Src  Expr
	Dest typing.DataType

	// Conditional casts yield an optional of the destination type
	Conditional bool
}
