package proxy

import (
	"sync"

	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/storage"
)

// The process-wide listener. A privileged context installs it once with
// Register and tears it down with Unregister.
var (
	defaultListener *Listener
	defaultMu       sync.Mutex
)

// Register installs the process-wide listener for backend on receiver. A
// second call before Unregister fails with ErrDoubleRegistration.
func Register(receiver channel.Receiver, backend storage.Backend, opts ...Option) (*Listener, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultListener != nil {
		return nil, ErrDoubleRegistration
	}

	l := NewListener(receiver, opts...)
	if err := l.Register(backend); err != nil {
		return nil, err
	}

	defaultListener = l
	return l, nil
}

// Unregister tears down the process-wide listener.
func Unregister() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultListener == nil {
		return ErrNotRegistered
	}

	err := defaultListener.Unregister()
	defaultListener = nil
	return err
}

// Default returns the process-wide listener, or nil when none is installed.
func Default() *Listener {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultListener
}
