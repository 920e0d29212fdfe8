package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is a recovered panic turned into an error. Model fitting runs
// under SafeExecute so a panic deep inside gonum (a shape mismatch in
// mat.Dense, for instance) aborts the training run instead of the process.
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap exposes the panic value when it was itself an error, so
// Is(err, ErrSingularMatrix) still works after recovery.
func (e *PanicError) Unwrap() error {
	err, _ := e.PanicValue.(error)
	return err
}

// String includes the stack captured at recovery time.
func (e *PanicError) String() string {
	return e.Error() + "\nStack trace:\n" + e.StackTrace
}

// NewPanicError captures the current stack for a recovered value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		Operation:  operation,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

// Recover converts a panic into an error stored in *err. Use it deferred:
//
//	func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "RandomForestRegressor.Fit")
//	    ...
//	}
//
// An error already in *err is kept and the panic attached as a secondary
// error.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	if *err == nil {
		*err = panicErr
		return
	}
	*err = errors.WithSecondaryError(errors.Wrapf(*err, "panic in %s: %v", operation, r), panicErr)
}

// SafeExecute runs fn, returning its error or the recovered panic.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
