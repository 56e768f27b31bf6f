// Package bridge composes the storage proxy bridge: a storage backend owned
// by this process, a Listener serving it on an in-process Bus, a Proxy for
// goroutines that must not touch the backend directly, and an HTTP surface
// through which other processes reach the same Listener.
//
// The runtime initializes from configuration via New. Functional options
// override any config-created subsystem.
//
//	rt, err := bridge.New(ctx, &cfg)
//	defer rt.Close()
//	err = rt.Proxy().Save(ctx, "settings.theme", "dark")
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/channel/port"
	"github.com/tailored-agentic-units/bridge/channel/rpc"
	"github.com/tailored-agentic-units/bridge/observability"
	"github.com/tailored-agentic-units/bridge/proxy"
	"github.com/tailored-agentic-units/bridge/storage"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Runtime before its subsystems are created.
type Option func(*Runtime)

// WithLogger overrides slog.Default for every subsystem.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithObserver adds an observer next to the runtime's slog and metrics
// observers. Repeated options accumulate.
func WithObserver(o observability.Observer) Option {
	return func(r *Runtime) { r.extra = append(r.extra, o) }
}

// WithBackend overrides the config-created backend. The runtime does not
// close a backend it did not open.
func WithBackend(b storage.Backend) Option {
	return func(r *Runtime) { r.backend = b }
}

// WithRegistry overrides the Prometheus registry the runtime registers its
// collectors with and serves on the metrics path.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

// Runtime owns the bridge subsystems for one privileged process.
type Runtime struct {
	name   string
	server ServerConfig

	bus      *channel.Bus
	backend  storage.Backend
	owned    bool
	listener *proxy.Listener
	proxy    *proxy.Proxy

	registry *prometheus.Registry
	logger   *slog.Logger
	observer observability.Observer
	extra    []observability.Observer
}

// New validates cfg and creates every subsystem. The listener is registered
// before New returns.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runtime{
		name:   cfg.Name,
		server: cfg.Server,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	named, err := observability.ResolveObservers(cfg.Observers...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	events := observability.NewMetricsObserver("bridge")
	r.observer = observability.NewMultiObserver(append(
		[]observability.Observer{observability.NewSlogObserver(r.logger), events, named},
		r.extra...,
	)...)

	if r.backend == nil {
		backend, err := storage.New(ctx, &cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage backend: %w", err)
		}
		r.backend = backend
		r.owned = true
	}

	chCfg := cfg.Channel
	if chCfg.Logger == nil || chCfg.Logger == slog.Default() {
		chCfg.Logger = r.logger
	}
	r.bus = channel.NewBus(ctx, chCfg)

	r.listener = proxy.NewListener(r.bus, proxy.WithLogger(r.logger), proxy.WithObserver(r.observer))
	if err := r.listener.Register(r.backend); err != nil {
		r.bus.Shutdown(shutdownTimeout)
		r.closeBackend()
		return nil, fmt.Errorf("failed to register storage listener: %w", err)
	}

	r.proxy = proxy.New(r.bus, proxy.WithLogger(r.logger), proxy.WithObserver(r.observer))

	if err := registerAll(r.registry, r.bus.Collector(), r.listener.Collector(), events); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	observability.Emit(ctx, r.observer, EventStart, observability.LevelInfo, "bridge.New", map[string]any{
		"name":    r.name,
		"driver":  cfg.Storage.Driver,
		"kind":    storage.KindOf(r.backend).String(),
		"cache":   cfg.Storage.Cache,
		"timeout": cfg.Channel.DefaultTimeout.String(),
	})

	return r, nil
}

// Proxy returns the storage proxy for goroutines of this process.
func (r *Runtime) Proxy() *proxy.Proxy {
	return r.proxy
}

func (r *Runtime) Backend() storage.Backend {
	return r.backend
}

func (r *Runtime) Bus() *channel.Bus {
	return r.bus
}

func (r *Runtime) Listener() *proxy.Listener {
	return r.listener
}

func (r *Runtime) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the listener to other processes: the Connect procedure,
// the WebSocket port and the metrics endpoint.
func (r *Runtime) Handler() http.Handler {
	mux := http.NewServeMux()

	path, handler := rpc.NewHandler(r.bus.Router(), r.logger)
	mux.Handle(path, handler)
	mux.Handle(r.server.PortPath, port.NewServer(r.bus.Router(), r.logger))
	mux.Handle(r.server.MetricsPath, promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	return mux
}

// Serve listens on the configured address until ctx is cancelled.
func (r *Runtime) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.server.Addr, err)
	}
	return r.ServeListener(ctx, ln)
}

// ServeListener serves Handler on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (r *Runtime) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(ln)
	}()

	observability.Emit(ctx, r.observer, EventServe, observability.LevelInfo, "bridge.Serve", map[string]any{
		"addr": ln.Addr().String(),
	})

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close unregisters the listener, drains the bus and closes the backend
// when the runtime opened it.
func (r *Runtime) Close() error {
	var errs []error

	if r.listener.Registered() {
		errs = append(errs, r.listener.Unregister())
	}
	errs = append(errs, r.bus.Shutdown(shutdownTimeout))
	errs = append(errs, r.closeBackend())

	observability.Emit(context.Background(), r.observer, EventClose, observability.LevelInfo, "bridge.Close", map[string]any{
		"name": r.name,
	})

	return errors.Join(errs...)
}

func (r *Runtime) closeBackend() error {
	if !r.owned {
		return nil
	}
	if closer, ok := r.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
