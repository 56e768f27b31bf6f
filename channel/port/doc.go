// Package port implements the long-lived channel primitive over a WebSocket.
//
// A Server upgrades an HTTP request and serves every request message it reads
// through a channel.Router, each on its own goroutine. A Port is the client
// end: it multiplexes concurrent SendAndAwait calls over one connection and
// matches each reply to its caller by the request ID echoed in ReplyTo. When
// the connection is lost every pending call fails with channel.ErrClosed.
package port
