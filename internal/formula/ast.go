// Package formula implements the small expression language used by
// strategy condition rules: parsing, static validation against a field
// schema, and pure evaluation over a flat binding map.
package formula

import "fmt"

// Kind identifies the runtime type of a formula value
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating an expression
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Number constructs a numeric value
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// String constructs a string value
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// Bool constructs a boolean value
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.Num)
	case KindString:
		return v.Str
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "?"
	}
}

// Op identifies an operator in the expression tree
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpEQ
	OpNEQ
	OpAnd
	OpOr
	OpNeg
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpEQ:
		return "=="
	case OpNEQ:
		return "!="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNeg:
		return "-"
	case OpNot:
		return "not"
	default:
		return "?"
	}
}

// Expr is a node in the parsed expression tree. The variant set is
// closed: literals, variable references, unary and binary operations.
type Expr interface {
	// Pos returns the byte offset of the node in the source text
	Pos() int
	exprNode()
}

// Literal is a constant number, string or boolean
type Literal struct {
	Value     Value
	SourcePos int
}

// Variable is a reference to a context field by name
type Variable struct {
	Name      string
	SourcePos int
}

// Unary is a negation (numeric or boolean)
type Unary struct {
	Op        Op
	Operand   Expr
	SourcePos int
}

// Binary is an arithmetic, comparison or boolean operation
type Binary struct {
	Op        Op
	Left      Expr
	Right     Expr
	SourcePos int
}

func (e *Literal) Pos() int  { return e.SourcePos }
func (e *Variable) Pos() int { return e.SourcePos }
func (e *Unary) Pos() int    { return e.SourcePos }
func (e *Binary) Pos() int   { return e.SourcePos }

func (e *Literal) exprNode()  {}
func (e *Variable) exprNode() {}
func (e *Unary) exprNode()    {}
func (e *Binary) exprNode()   {}
