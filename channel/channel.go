package channel

import "context"

// Handler serves one command in the receiving context. The returned value is
// sent back to the caller as plain data; a returned error becomes a Fault.
type Handler func(ctx context.Context, payload any) (any, error)

// Unsubscribe removes a handler binding. Calling it more than once is safe.
type Unsubscribe func()

// Sender issues a single request and waits for its single reply.
type Sender interface {
	SendAndAwait(ctx context.Context, command string, payload any) (any, error)
}

// Receiver binds handlers to command identifiers.
type Receiver interface {
	OnCommand(command string, handler Handler) (Unsubscribe, error)
}
