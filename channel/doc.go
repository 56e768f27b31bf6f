// Package channel adapts host messaging primitives into one uniform contract
// usable from any execution context.
//
// A context that needs something done elsewhere holds a Sender and calls
// SendAndAwait with a command identifier and a plain-data payload. The
// context that owns the capability binds a Handler to that command on a
// Receiver. Each call produces exactly one request and resolves with exactly
// one reply, or fails with an error wrapping ErrChannel.
//
//	bus := channel.NewBus(ctx, channel.DefaultConfig())
//	defer bus.Shutdown(5 * time.Second)
//
//	unsubscribe, err := bus.OnCommand("echo", func(ctx context.Context, payload any) (any, error) {
//	    return payload, nil
//	})
//
//	result, err := bus.SendAndAwait(ctx, "echo", map[string]any{"hello": "world"})
//
// # Delivery Semantics
//
//   - Payloads and results are normalized into plain data; nothing is shared
//     by reference across the boundary.
//   - The host primitive is invoked once per call. There are no retries.
//   - A call for a command nobody listens to fails at once with ErrNoReceiver.
//     Calls are never queued for a context that has not started yet.
//   - Handler errors come back as *messaging.Fault values.
//   - The core enforces no timeout. Callers bound a call with their context,
//     or set Config.DefaultTimeout on a Bus.
//
// # Transports
//
// Router is the command table every transport dispatches through. Bus hosts
// a Router in-process. The rpc subpackage carries the same messages over a
// Connect unary call, and the port subpackage over a long-lived WebSocket.
package channel
