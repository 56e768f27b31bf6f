package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/messaging"
	"github.com/tailored-agentic-units/bridge/observability"
	"github.com/tailored-agentic-units/bridge/storage"
)

// Listener serves StorageCommand requests against a backend in the context
// that owns it. A Listener is either unregistered or registered with exactly
// one backend.
type Listener struct {
	receiver channel.Receiver

	backend     storage.Backend
	unsubscribe channel.Unsubscribe
	mu          sync.RWMutex

	logger   *slog.Logger
	observer observability.Observer
	metrics  *Metrics
}

func NewListener(receiver channel.Receiver, opts ...Option) *Listener {
	o := newOptions(opts)
	return &Listener{
		receiver: receiver,
		logger:   o.logger,
		observer: o.observer,
		metrics:  NewMetrics(o.namespace),
	}
}

// Register binds StorageCommand on the receiver and starts serving backend.
// It fails with ErrDoubleRegistration when this listener is already
// registered or another handler holds StorageCommand on the receiver.
func (l *Listener) Register(backend storage.Backend) error {
	if backend == nil {
		return fmt.Errorf("%w: nil backend", ErrBadArguments)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return ErrDoubleRegistration
	}

	unsubscribe, err := l.receiver.OnCommand(StorageCommand, l.handle)
	if err != nil {
		if errors.Is(err, channel.ErrHandlerExists) {
			return fmt.Errorf("%w: %v", ErrDoubleRegistration, err)
		}
		return err
	}

	l.backend = backend
	l.unsubscribe = unsubscribe

	kind := storage.KindOf(backend).String()
	l.logger.Info("storage listener registered", slog.String("kind", kind))
	observability.Emit(context.Background(), l.observer, EventRegister, observability.LevelInfo, "proxy.Listener", map[string]any{
		"kind": kind,
	})
	return nil
}

// Unregister releases StorageCommand. Requests already dispatched finish
// against the previous backend.
func (l *Listener) Unregister() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend == nil {
		return ErrNotRegistered
	}

	l.unsubscribe()
	l.backend = nil
	l.unsubscribe = nil

	l.logger.Info("storage listener unregistered")
	observability.Emit(context.Background(), l.observer, EventUnregister, observability.LevelInfo, "proxy.Listener", nil)
	return nil
}

func (l *Listener) Registered() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.backend != nil
}

// Collector returns the listener's Prometheus metrics.
func (l *Listener) Collector() *Metrics {
	return l.metrics
}

func (l *Listener) handle(ctx context.Context, payload any) (any, error) {
	start := time.Now()

	env, err := ParseEnvelope(payload)
	if err != nil {
		return nil, l.fail(ctx, env, err)
	}

	op, err := lookup(env)
	if err != nil {
		return nil, l.fail(ctx, env, err)
	}

	l.mu.RLock()
	backend := l.backend
	l.mu.RUnlock()

	if backend == nil {
		return nil, l.fail(ctx, env, ErrBackend.Wrap(ErrNotRegistered))
	}

	result, err := op.run(ctx, backend, env.Args)
	if err != nil {
		return nil, l.fail(ctx, env, backendFault(err))
	}

	l.metrics.observe(env.Method, outcomeOK, time.Since(start).Seconds())
	observability.Emit(ctx, l.observer, EventDispatch, observability.LevelVerbose, "proxy.Listener", map[string]any{
		"method":   string(env.Method),
		"duration": time.Since(start).String(),
	})
	return result, nil
}

func (l *Listener) fail(ctx context.Context, env Envelope, err error) error {
	fault := messaging.AsFault(err)

	l.metrics.observe(env.Method, fault.Code, 0)
	l.logger.WarnContext(
		ctx,
		"storage dispatch failed",
		slog.String("method", string(env.Method)),
		slog.String("code", fault.Code),
		slog.String("error", err.Error()),
	)
	observability.Emit(ctx, l.observer, EventError, observability.LevelWarning, "proxy.Listener", map[string]any{
		"method": string(env.Method),
		"code":   fault.Code,
		"error":  err.Error(),
	})
	return err
}
