package proxy

import (
	"errors"

	"github.com/tailored-agentic-units/bridge/messaging"
	"github.com/tailored-agentic-units/bridge/storage"
)

// Fault codes carried back to the Proxy caller.
const (
	CodeUnknownOperation = "unknown_operation"
	CodeBadArguments     = "bad_arguments"
	CodeBackend          = "backend"
)

// Listener-side failures. They cross the channel as faults and compare by
// code, so errors.Is holds on both sides.
var (
	ErrUnknownOperation = messaging.NewFault(CodeUnknownOperation, "unknown storage operation")
	ErrBadArguments     = messaging.NewFault(CodeBadArguments, "bad storage arguments")
	ErrBackend          = messaging.NewFault(CodeBackend, "storage backend failed")
)

// Backend failures with a known storage cause. Each also matches ErrBackend.
var (
	ErrQuotaExceeded = ErrBackend.Sub("quota_exceeded", "storage quota exceeded")
	ErrInvalidKey    = ErrBackend.Sub("invalid_key", "invalid storage key")
	ErrEncode        = ErrBackend.Sub("encode", "storage value not serializable")
	ErrBackendClosed = ErrBackend.Sub("closed", "storage backend closed")
)

var (
	ErrDoubleRegistration = errors.New("storage listener already registered")
	ErrNotRegistered      = errors.New("storage listener not registered")
	ErrBadResponse        = errors.New("unexpected storage response")
)

// backendCauses pairs each backend fault with the storage sentinel it
// carries across the channel.
var backendCauses = []struct {
	fault    *messaging.Fault
	sentinel error
}{
	{ErrQuotaExceeded, storage.ErrQuotaExceeded},
	{ErrInvalidKey, storage.ErrInvalidKey},
	{ErrEncode, storage.ErrEncode},
	{ErrBackendClosed, storage.ErrClosed},
}

// backendFault classifies a backend error on the listener side.
func backendFault(err error) *messaging.Fault {
	for _, c := range backendCauses {
		if errors.Is(err, c.sentinel) {
			return c.fault.Wrap(err)
		}
	}
	return ErrBackend.Wrap(err)
}

// causeError is a fault received by the Proxy that also reports the
// storage sentinel its code stands for.
type causeError struct {
	fault    error
	sentinel error
}

func (e *causeError) Error() string {
	return e.fault.Error()
}

func (e *causeError) Unwrap() []error {
	return []error{e.fault, e.sentinel}
}

// withCause lets a Proxy caller test a backend fault against the storage
// sentinels, as it would with a local Backend. Other errors pass unchanged.
func withCause(err error) error {
	var fault *messaging.Fault
	if !errors.As(err, &fault) {
		return err
	}
	for _, c := range backendCauses {
		if fault.Code == c.fault.Code {
			if errors.Is(err, c.sentinel) {
				return err
			}
			return &causeError{fault: err, sentinel: c.sentinel}
		}
	}
	return err
}
