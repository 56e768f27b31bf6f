package channel

import (
	"errors"
	"fmt"
)

// ErrChannel is wrapped by every delivery failure reported by a transport.
var ErrChannel = errors.New("channel error")

var (
	ErrNoReceiver = fmt.Errorf("%w: receiving end does not exist", ErrChannel)
	ErrClosed     = fmt.Errorf("%w: channel closed", ErrChannel)
)

// Sentinel errors for handler binding.
var (
	ErrHandlerExists = errors.New("command handler already registered")
	ErrEmptyCommand  = errors.New("command is empty")
	ErrNilHandler    = errors.New("handler is nil")
)
