// Package proxy bridges the storage capability across execution contexts.
//
// A Listener runs in the context that owns a storage.Backend. It binds the
// StorageCommand on a channel.Receiver and serves each request through an
// explicit table of the four backend operations. A Proxy runs in any other
// context; it implements storage.Backend by sending one command envelope per
// call through a channel.Sender and returning the listener's result as is.
//
// Failures are never replaced by defaults. Channel failures reach the
// Proxy caller unchanged, and listener-side failures arrive as faults that
// match ErrUnknownOperation, ErrBadArguments or ErrBackend under errors.Is.
package proxy
