package llm

import (
	"errors"
	"fmt"
)

// ErrModelInvocation is matched by every failure of a model call.
var ErrModelInvocation = errors.New("model invocation failed")

// ModelInvocationError wraps a network, auth or API failure of a model call.
type ModelInvocationError struct {
	Op  string
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrModelInvocation, e.Err)
}

func (e *ModelInvocationError) Unwrap() []error {
	return []error{ErrModelInvocation, e.Err}
}

// WrapInvocation returns err as a *ModelInvocationError unless it already is
// one. It returns nil for a nil err.
func WrapInvocation(op string, err error) error {
	if err == nil {
		return nil
	}
	var mie *ModelInvocationError
	if errors.As(err, &mie) {
		return err
	}
	return &ModelInvocationError{Op: op, Err: err}
}
