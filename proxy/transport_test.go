package proxy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/channel/port"
	"github.com/tailored-agentic-units/bridge/channel/rpc"
	"github.com/tailored-agentic-units/bridge/proxy"
	"github.com/tailored-agentic-units/bridge/storage"
	"github.com/tailored-agentic-units/bridge/storage/storagetest"
)

// transport connects a proxy to a listener serving backend in another
// execution context.
type transport struct {
	name    string
	connect func(t *testing.T, backend storage.Backend) *proxy.Proxy
}

var transports = []transport{
	{
		name: "bus",
		connect: func(t *testing.T, backend storage.Backend) *proxy.Proxy {
			bus := newBus(t)
			if err := proxy.NewListener(bus).Register(backend); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			return proxy.New(bus)
		},
	},
	{
		name: "rpc",
		connect: func(t *testing.T, backend storage.Backend) *proxy.Proxy {
			router := channel.NewRouter(nil)
			if err := proxy.NewListener(router).Register(backend); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			path, handler := rpc.NewHandler(router, nil)
			mux := http.NewServeMux()
			mux.Handle(path, handler)
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			return proxy.New(rpc.NewClient(srv.Client(), srv.URL))
		},
	},
	{
		name: "port",
		connect: func(t *testing.T, backend storage.Backend) *proxy.Proxy {
			router := channel.NewRouter(nil)
			if err := proxy.NewListener(router).Register(backend); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			srv := httptest.NewServer(port.NewServer(router, nil))
			t.Cleanup(srv.Close)

			p, err := port.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			t.Cleanup(func() { p.Close() })

			return proxy.New(p)
		},
	},
}

func TestProxy_EndToEnd(t *testing.T) {
	for _, tr := range transports {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			backend := storage.NewMemory(0)
			p := tr.connect(t, backend)

			if err := p.Save(ctx, "settings.theme", "dark"); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			stored, err := backend.Get(ctx, "settings.theme")
			if err != nil || stored != "dark" {
				t.Fatalf("backend holds %v (err %v), want dark", stored, err)
			}

			got, err := p.Get(ctx, "settings.theme")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != "dark" {
				t.Errorf("Get() = %v, want dark", got)
			}

			if err := p.Remove(ctx, "settings.theme"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}

			has, err := p.Has(ctx, "settings.theme")
			if err != nil {
				t.Fatalf("Has() error = %v", err)
			}
			if has {
				t.Error("Has() = true after Remove, want false")
			}
		})
	}
}

func TestProxy_Conformance(t *testing.T) {
	for _, tr := range transports {
		t.Run(tr.name, func(t *testing.T) {
			storagetest.Run(t, func(t *testing.T) storage.Backend {
				return tr.connect(t, storage.NewMemory(0))
			})
		})
	}
}

func TestProxy_BackendErrorsCrossTransports(t *testing.T) {
	for _, tr := range transports {
		t.Run(tr.name, func(t *testing.T) {
			p := tr.connect(t, storage.NewMemory(16))

			err := p.Save(context.Background(), "k", strings.Repeat("x", 64))
			if !errors.Is(err, proxy.ErrBackend) {
				t.Fatalf("Save() error = %v, want ErrBackend", err)
			}
			if !strings.Contains(err.Error(), "quota") {
				t.Errorf("Save() error = %q, want quota message", err.Error())
			}
			if !errors.Is(err, storage.ErrQuotaExceeded) || !errors.Is(err, proxy.ErrQuotaExceeded) {
				t.Errorf("Save() error = %v, want ErrQuotaExceeded", err)
			}

			if _, err := p.Get(context.Background(), ""); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Get(\"\") error = %v, want ErrInvalidKey", err)
			}
		})
	}
}

func TestProxy_NoListener(t *testing.T) {
	bus := newBus(t)

	_, err := proxy.New(bus).Has(context.Background(), "k")
	if !errors.Is(err, channel.ErrNoReceiver) {
		t.Errorf("Has() error = %v, want ErrNoReceiver", err)
	}
}
