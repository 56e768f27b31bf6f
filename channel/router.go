package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tailored-agentic-units/bridge/messaging"
)

type binding struct {
	handler Handler
}

// Router is the command table of a receiving context. It implements
// Receiver and dispatches request messages for every transport. Safe for
// concurrent use.
type Router struct {
	handlers map[string]*binding
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[string]*binding),
		logger:   logger,
	}
}

// OnCommand binds handler to command. A command holds at most one handler;
// a second binding fails with ErrHandlerExists.
func (r *Router) OnCommand(command string, handler Handler) (Unsubscribe, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[command]; exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerExists, command)
	}

	b := &binding{handler: handler}
	r.handlers[command] = b

	r.logger.Debug("command handler bound", slog.String("command", command))

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if current, ok := r.handlers[command]; ok && current == b {
			delete(r.handlers, command)
			r.logger.Debug("command handler unbound", slog.String("command", command))
		}
	}, nil
}

// Listening reports whether a handler is bound to command.
func (r *Router) Listening(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[command]
	return ok
}

// Dispatch runs the handler bound to request.Command and builds the reply.
// A missing handler is a delivery failure and is returned as ErrNoReceiver;
// handler failures are carried inside the reply as a Fault.
func (r *Router) Dispatch(ctx context.Context, request *messaging.Message) (*messaging.Message, error) {
	r.mu.RLock()
	b, exists := r.handlers[request.Command]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, request.Command)
	}

	result, err := b.handler(ctx, request.Data)
	if err != nil {
		r.logger.DebugContext(
			ctx,
			"command handler failed",
			slog.String("command", request.Command),
			slog.String("request_id", request.ID),
			slog.String("error", err.Error()),
		)
		return messaging.NewFaultResponse(request, messaging.AsFault(err)).Build(), nil
	}

	data, err := messaging.Normalize(result)
	if err != nil {
		return messaging.NewFaultResponse(request, messaging.AsFault(err)).Build(), nil
	}

	return messaging.NewResponse(request, data).Build(), nil
}
