package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/observability"
	"github.com/tailored-agentic-units/bridge/storage"
)

// Proxy implements storage.Backend for a context without storage access.
// It holds no data; each call is one SendAndAwait on the sender.
type Proxy struct {
	sender   channel.Sender
	logger   *slog.Logger
	observer observability.Observer
}

var _ storage.Backend = (*Proxy)(nil)

func New(sender channel.Sender, opts ...Option) *Proxy {
	o := newOptions(opts)
	return &Proxy{
		sender:   sender,
		logger:   o.logger,
		observer: o.observer,
	}
}

func (p *Proxy) Get(ctx context.Context, key string) (any, error) {
	return p.call(ctx, OpGet, key)
}

func (p *Proxy) Has(ctx context.Context, key string) (bool, error) {
	result, err := p.call(ctx, OpHas, key)
	if err != nil {
		return false, err
	}

	has, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: has returned %T", ErrBadResponse, result)
	}
	return has, nil
}

func (p *Proxy) Save(ctx context.Context, key string, value any) error {
	_, err := p.call(ctx, OpSave, key, value)
	return err
}

func (p *Proxy) Remove(ctx context.Context, key string) error {
	_, err := p.call(ctx, OpRemove, key)
	return err
}

func (p *Proxy) call(ctx context.Context, op Operation, args ...any) (any, error) {
	start := time.Now()

	observability.Emit(ctx, p.observer, EventCallStart, observability.LevelVerbose, "proxy.Proxy", map[string]any{
		"method": string(op),
	})

	result, err := p.sender.SendAndAwait(ctx, StorageCommand, Envelope{Method: op, Args: args})
	if err != nil {
		p.logger.DebugContext(
			ctx,
			"storage proxy call failed",
			slog.String("method", string(op)),
			slog.String("error", err.Error()),
		)
		observability.Emit(ctx, p.observer, EventCallError, observability.LevelWarning, "proxy.Proxy", map[string]any{
			"method":   string(op),
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return nil, withCause(err)
	}

	observability.Emit(ctx, p.observer, EventCallComplete, observability.LevelVerbose, "proxy.Proxy", map[string]any{
		"method":   string(op),
		"duration": time.Since(start).String(),
	})
	return result, nil
}
