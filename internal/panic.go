package internal

import (
	"fmt"
	"runtime"
)

// PanicError carries a recovered panic value and the stack at the point of the panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func NewPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)

	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

// Protect runs fn and converts a panic into a *PanicError.
func Protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r)
		}
	}()

	fn()
	return nil
}
