package compiler

import (
	"errors"
	"fmt"
)

// Sentinel errors for each kind of semantic failure. A *CompileError wraps
// exactly one of them, so callers can test with errors.Is.
var (
	ErrUninitializedVariableUse = errors.New("use of uninitialized variable")
	ErrUndeclaredVariableRead   = errors.New("read of undeclared variable")
	ErrUndeclaredVariableWrite  = errors.New("write to undeclared variable")
	ErrIteratorMutation         = errors.New("modification of loop iterator")
	ErrMissingArrayIndex        = errors.New("array used without index")
	ErrRedeclaration            = errors.New("redeclaration")
	ErrInvalidArrayRange        = errors.New("invalid array range")
	ErrIndexOutOfBounds         = errors.New("array index out of bounds")
)

// CompileError is a semantic error tied to a name and a source line.
type CompileError struct {
	Kind error  // one of the Err* sentinels
	Name string // offending identifier
	Line int    // 1-based; 0 when unknown
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %s", e.Line, e.Kind, e.Name)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Name)
}

func (e *CompileError) Unwrap() error { return e.Kind }

func newError(kind error, name string, line int) *CompileError {
	return &CompileError{Kind: kind, Name: name, Line: line}
}
