package proxy

import (
	"log/slog"

	"github.com/tailored-agentic-units/bridge/observability"
)

type options struct {
	logger    *slog.Logger
	observer  observability.Observer
	namespace string
}

// Option configures a Proxy or a Listener.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithObserver(observer observability.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithNamespace sets the Prometheus namespace of listener metrics.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    slog.Default(),
		observer:  observability.NoOpObserver{},
		namespace: "bridge",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = observability.NoOpObserver{}
	}
	return o
}
