package formula

// Validate checks the expression against the declared schema. Every
// variable reference must resolve and every operator must receive
// compatible operand types. Validation runs at submission time so a bad
// strategy is rejected before any job is created.
func Validate(expr Expr, schema Schema) error {
	_, err := inferKind(expr, schema)
	return err
}

// ResultKind returns the statically inferred result type of a validated
// expression
func ResultKind(expr Expr, schema Schema) (Kind, error) {
	return inferKind(expr, schema)
}

func inferKind(expr Expr, schema Schema) (Kind, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value.Kind, nil

	case *Variable:
		kind, ok := schema[e.Name]
		if !ok {
			return 0, &UnknownVariableError{Name: e.Name, Pos: e.SourcePos}
		}
		return kind, nil

	case *Unary:
		operand, err := inferKind(e.Operand, schema)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case OpNeg:
			if operand != KindNumber {
				return 0, &TypeMismatchError{Op: "-", Left: operand, Right: operand, Pos: e.SourcePos}
			}
			return KindNumber, nil
		case OpNot:
			if operand != KindBool {
				return 0, &TypeMismatchError{Op: "not", Left: operand, Right: operand, Pos: e.SourcePos}
			}
			return KindBool, nil
		}
		return 0, &TypeMismatchError{Op: e.Op.String(), Left: operand, Right: operand, Pos: e.SourcePos}

	case *Binary:
		left, err := inferKind(e.Left, schema)
		if err != nil {
			return 0, err
		}
		right, err := inferKind(e.Right, schema)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case OpAdd, OpSub, OpMul, OpDiv:
			if left != KindNumber || right != KindNumber {
				return 0, &TypeMismatchError{Op: e.Op.String(), Left: left, Right: right, Pos: e.SourcePos}
			}
			return KindNumber, nil
		case OpLT, OpLTE, OpGT, OpGTE:
			if left != KindNumber || right != KindNumber {
				return 0, &TypeMismatchError{Op: e.Op.String(), Left: left, Right: right, Pos: e.SourcePos}
			}
			return KindBool, nil
		case OpEQ, OpNEQ:
			if left != right {
				return 0, &TypeMismatchError{Op: e.Op.String(), Left: left, Right: right, Pos: e.SourcePos}
			}
			return KindBool, nil
		case OpAnd, OpOr:
			if left != KindBool || right != KindBool {
				return 0, &TypeMismatchError{Op: e.Op.String(), Left: left, Right: right, Pos: e.SourcePos}
			}
			return KindBool, nil
		}
		return 0, &TypeMismatchError{Op: e.Op.String(), Left: left, Right: right, Pos: e.SourcePos}
	}
	return 0, &EvaluationError{Message: "unknown expression node"}
}
