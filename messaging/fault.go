package messaging

import (
	"errors"
	"fmt"
	"strings"
)

// CodeHandler classifies handler errors that carry no Fault of their own.
const CodeHandler = "handler"

// Fault is a plain-data error reported by the receiving context. Codes are
// dot-separated; a fault matches a target under errors.Is when the codes are
// equal or the target's code is a parent of its own, so "backend.invalid_key"
// matches "backend".
type Fault struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	cause error
}

func NewFault(code, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

func (f *Fault) Error() string {
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.cause
}

func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok || t == nil {
		return false
	}
	return t.Code == f.Code || strings.HasPrefix(f.Code, t.Code+".")
}

// Sub returns a fault whose code refines f's code with sub.
func (f *Fault) Sub(sub, message string) *Fault {
	return NewFault(f.Code+"."+sub, message)
}

// Wrap returns a new fault with the same code whose message is extended with
// err. The cause is kept for in-context inspection but does not cross a
// boundary.
func (f *Fault) Wrap(err error) *Fault {
	return &Fault{
		Code:    f.Code,
		Message: fmt.Sprintf("%s: %v", f.Message, err),
		cause:   err,
	}
}

// Wrapf is Wrap with a formatted detail instead of an error.
func (f *Fault) Wrapf(format string, args ...any) *Fault {
	return f.Wrap(fmt.Errorf(format, args...))
}

// AsFault converts a handler error into the Fault that is sent back to the
// caller. Errors that already carry a Fault keep its code and message.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return &Fault{Code: fault.Code, Message: err.Error()}
	}
	return &Fault{Code: CodeHandler, Message: err.Error()}
}
