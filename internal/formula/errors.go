package formula

import "fmt"

// SyntaxError reports a malformed expression. Pos is the byte offset in
// the source text so callers can highlight the original strategy text.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

// UnknownVariableError reports a reference to a field that is not part of
// the declared schema
type UnknownVariableError struct {
	Name string
	Pos  int
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q at position %d", e.Name, e.Pos)
}

// TypeMismatchError reports an operator applied to incompatible operand types
type TypeMismatchError struct {
	Op    string
	Left  Kind
	Right Kind
	Pos   int
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at position %d: cannot apply %q to %s and %s", e.Pos, e.Op, e.Left, e.Right)
}

// EvaluationError reports a runtime contract violation during evaluation.
// A validated expression should never produce one; it indicates a
// validation/evaluation mismatch and aborts the run.
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error: %s", e.Message)
}
