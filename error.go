package spindly

import (
	"fmt"
	"reflect"
)

// SyntaxError indicates the source could not be parsed as a single
// JavaScript expression.
type SyntaxError struct {
	Source string
	err    error
}

func (e *SyntaxError) Error() string { return e.err.Error() }

func (e *SyntaxError) Unwrap() error { return e.err }

// EvaluationError indicates the expression threw, its promise rejected,
// or the evaluation was interrupted.
type EvaluationError struct {
	err error
}

func (e *EvaluationError) Error() string { return "evaluation failed: " + e.err.Error() }

func (e *EvaluationError) Unwrap() error { return e.err }

// UnsupportedValueError indicates the result value, or one of its nested
// elements, has no Go representation.
type UnsupportedValueError struct {
	Type reflect.Type
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported value type %s", e.Type)
}
