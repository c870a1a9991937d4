package formula

import "fmt"

// Evaluate interprets the expression over a flat binding map. It is a
// pure function: no I/O, no clock, no randomness. A missing binding or
// operand type conflict returns an *EvaluationError; given that the
// expression passed Validate against the same field set, that error
// indicates a contract violation between validation and evaluation.
func Evaluate(expr Expr, bindings map[string]Value) (Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil

	case *Variable:
		v, ok := bindings[e.Name]
		if !ok {
			return Value{}, &EvaluationError{Message: fmt.Sprintf("no binding for variable %q", e.Name)}
		}
		return v, nil

	case *Unary:
		operand, err := Evaluate(e.Operand, bindings)
		if err != nil {
			return Value{}, err
		}
		switch e.Op {
		case OpNeg:
			if operand.Kind != KindNumber {
				return Value{}, &EvaluationError{Message: "operand of '-' is not a number"}
			}
			return Number(-operand.Num), nil
		case OpNot:
			if operand.Kind != KindBool {
				return Value{}, &EvaluationError{Message: "operand of 'not' is not a boolean"}
			}
			return Bool(!operand.Bool), nil
		}
		return Value{}, &EvaluationError{Message: fmt.Sprintf("unknown unary operator %s", e.Op)}

	case *Binary:
		left, err := Evaluate(e.Left, bindings)
		if err != nil {
			return Value{}, err
		}
		right, err := Evaluate(e.Right, bindings)
		if err != nil {
			return Value{}, err
		}
		return applyBinary(e.Op, left, right)
	}
	return Value{}, &EvaluationError{Message: "unknown expression node"}
}

// EvaluateBool evaluates an expression expected to produce a boolean
func EvaluateBool(expr Expr, bindings map[string]Value) (bool, error) {
	v, err := Evaluate(expr, bindings)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, &EvaluationError{Message: fmt.Sprintf("expression produced %s, expected bool", v.Kind)}
	}
	return v.Bool, nil
}

// EvaluateNumber evaluates an expression expected to produce a number
func EvaluateNumber(expr Expr, bindings map[string]Value) (float64, error) {
	v, err := Evaluate(expr, bindings)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, &EvaluationError{Message: fmt.Sprintf("expression produced %s, expected number", v.Kind)}
	}
	return v.Num, nil
}

func applyBinary(op Op, left, right Value) (Value, error) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if left.Kind != KindNumber || right.Kind != KindNumber {
			return Value{}, typeError(op, left, right)
		}
		switch op {
		case OpAdd:
			return Number(left.Num + right.Num), nil
		case OpSub:
			return Number(left.Num - right.Num), nil
		case OpMul:
			return Number(left.Num * right.Num), nil
		default:
			if right.Num == 0 {
				return Value{}, &EvaluationError{Message: "division by zero"}
			}
			return Number(left.Num / right.Num), nil
		}

	case OpLT, OpLTE, OpGT, OpGTE:
		if left.Kind != KindNumber || right.Kind != KindNumber {
			return Value{}, typeError(op, left, right)
		}
		switch op {
		case OpLT:
			return Bool(left.Num < right.Num), nil
		case OpLTE:
			return Bool(left.Num <= right.Num), nil
		case OpGT:
			return Bool(left.Num > right.Num), nil
		default:
			return Bool(left.Num >= right.Num), nil
		}

	case OpEQ, OpNEQ:
		if left.Kind != right.Kind {
			return Value{}, typeError(op, left, right)
		}
		equal := false
		switch left.Kind {
		case KindNumber:
			equal = left.Num == right.Num
		case KindString:
			equal = left.Str == right.Str
		case KindBool:
			equal = left.Bool == right.Bool
		}
		if op == OpNEQ {
			equal = !equal
		}
		return Bool(equal), nil

	case OpAnd, OpOr:
		if left.Kind != KindBool || right.Kind != KindBool {
			return Value{}, typeError(op, left, right)
		}
		if op == OpAnd {
			return Bool(left.Bool && right.Bool), nil
		}
		return Bool(left.Bool || right.Bool), nil
	}
	return Value{}, &EvaluationError{Message: fmt.Sprintf("unknown operator %s", op)}
}

func typeError(op Op, left, right Value) error {
	return &EvaluationError{Message: fmt.Sprintf("cannot apply %s to %s and %s", op, left.Kind, right.Kind)}
}
