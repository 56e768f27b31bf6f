package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tailored-agentic-units/bridge/messaging"
)

type reply struct {
	message *messaging.Message
	err     error
}

// Bus is an in-process host for cross-context messaging. Contexts that own
// a capability bind handlers on it; any other goroutine calls SendAndAwait.
// Requests flow through a bounded inbox, each is dispatched on its own
// goroutine, and replies are matched to callers by request ID.
type Bus struct {
	name   string
	router *Router
	inbox  *Queue[*messaging.Message]

	pending      map[string]chan reply
	pendingMutex sync.Mutex

	defaultTimeout time.Duration

	logger  *slog.Logger
	metrics *Metrics

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

var (
	_ Sender   = (*Bus)(nil)
	_ Receiver = (*Bus)(nil)
)

func NewBus(ctx context.Context, cfg Config) *Bus {
	busCtx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bus{
		name:           cfg.Name,
		router:         NewRouter(logger),
		inbox:          NewQueue[*messaging.Message](busCtx, cfg.BufferSize),
		pending:        make(map[string]chan reply),
		defaultTimeout: cfg.DefaultTimeout,
		logger:         logger,
		metrics:        NewMetrics(),
		ctx:            busCtx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	go b.messageLoop()

	return b
}

// Router exposes the bus command table so other transports can serve the
// same handlers.
func (b *Bus) Router() *Router {
	return b.router
}

func (b *Bus) OnCommand(command string, handler Handler) (Unsubscribe, error) {
	unsubscribe, err := b.router.OnCommand(command, handler)
	if err != nil {
		return nil, err
	}
	b.metrics.RecordHandler(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			b.metrics.RecordHandler(-1)
		})
	}, nil
}

func (b *Bus) SendAndAwait(ctx context.Context, command string, payload any) (any, error) {
	if b.ctx.Err() != nil {
		b.metrics.RecordDeliveryFailure(1)
		return nil, fmt.Errorf("%w: %s", ErrClosed, command)
	}

	if !b.router.Listening(command) {
		b.metrics.RecordDeliveryFailure(1)
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, command)
	}

	data, err := messaging.Normalize(payload)
	if err != nil {
		return nil, err
	}

	request := messaging.NewRequest(command, data).Build()
	replies := make(chan reply, 1)

	b.pendingMutex.Lock()
	b.pending[request.ID] = replies
	b.pendingMutex.Unlock()

	defer func() {
		b.pendingMutex.Lock()
		delete(b.pending, request.ID)
		b.pendingMutex.Unlock()
	}()

	if err := b.inbox.Send(ctx, request); err != nil {
		b.metrics.RecordDeliveryFailure(1)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s", ErrClosed, command)
	}
	b.metrics.RecordRequestSent(1)

	var timeout <-chan time.Time
	if b.defaultTimeout > 0 {
		timer := time.NewTimer(b.defaultTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-replies:
		if r.err != nil {
			b.metrics.RecordDeliveryFailure(1)
			return nil, r.err
		}
		if err := r.message.Err(); err != nil {
			b.metrics.RecordFault(1)
			return nil, err
		}
		return r.message.Data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	case <-b.ctx.Done():
		b.metrics.RecordDeliveryFailure(1)
		return nil, fmt.Errorf("%w: %s", ErrClosed, command)
	case <-timeout:
		b.metrics.RecordDeliveryFailure(1)
		return nil, fmt.Errorf("%w: request timed out after %v", ErrChannel, b.defaultTimeout)
	}
}

func (b *Bus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

// Collector returns a Prometheus collector over the bus metrics.
func (b *Bus) Collector() prometheus.Collector {
	return NewCollector(b.name, b.metrics, b.inbox)
}

// Shutdown stops accepting requests, fails pending calls with ErrClosed and
// waits for running handlers to return.
func (b *Bus) Shutdown(timeout time.Duration) error {
	b.logger.DebugContext(
		b.ctx,
		"shutting down bus",
		slog.String("bus_name", b.name),
	)
	b.cancel()
	b.inbox.Close()

	finished := make(chan struct{})
	go func() {
		<-b.done
		b.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("bus shutdown timeout after %v", timeout)
	}
}

func (b *Bus) messageLoop() {
	defer close(b.done)

	for {
		request, err := b.inbox.Receive(b.ctx)
		if err != nil {
			return
		}

		b.inflight.Add(1)
		go b.handleMessage(request)
	}
}

func (b *Bus) handleMessage(request *messaging.Message) {
	defer b.inflight.Done()

	b.metrics.RecordRequestHandled(1)

	response, err := b.router.Dispatch(b.ctx, request)
	if err != nil && !errors.Is(err, ErrChannel) {
		err = fmt.Errorf("%w: %v", ErrChannel, err)
	}
	if b.ctx.Err() != nil {
		response, err = nil, fmt.Errorf("%w: %s", ErrClosed, request.Command)
	}

	b.pendingMutex.Lock()
	replies, exists := b.pending[request.ID]
	b.pendingMutex.Unlock()

	if !exists {
		b.logger.DebugContext(
			b.ctx,
			"dropping reply for abandoned request",
			slog.String("bus_name", b.name),
			slog.String("command", request.Command),
			slog.String("request_id", request.ID),
		)
		return
	}

	select {
	case replies <- reply{message: response, err: err}:
	default:
	}
}
