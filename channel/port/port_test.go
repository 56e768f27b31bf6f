package port_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/channel/port"
	"github.com/tailored-agentic-units/bridge/messaging"
)

func dial(t *testing.T, router *channel.Router) *port.Port {
	t.Helper()
	srv := httptest.NewServer(port.NewServer(router, nil))
	t.Cleanup(srv.Close)

	p, err := port.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPort_SendAndAwait(t *testing.T) {
	router := channel.NewRouter(nil)
	router.OnCommand("greet", func(ctx context.Context, payload any) (any, error) {
		return "hello " + payload.(string), nil
	})

	p := dial(t, router)

	got, err := p.SendAndAwait(context.Background(), "greet", "port")
	if err != nil {
		t.Fatalf("SendAndAwait() error = %v", err)
	}
	if got != "hello port" {
		t.Errorf("SendAndAwait() = %v, want %q", got, "hello port")
	}
}

func TestPort_SendAndAwait_NoReceiver(t *testing.T) {
	p := dial(t, channel.NewRouter(nil))

	_, err := p.SendAndAwait(context.Background(), "missing", nil)
	if !errors.Is(err, channel.ErrNoReceiver) {
		t.Errorf("SendAndAwait() error = %v, want ErrNoReceiver", err)
	}
}

func TestPort_SendAndAwait_Fault(t *testing.T) {
	errQuota := messaging.NewFault("quota", "quota exceeded")

	router := channel.NewRouter(nil)
	router.OnCommand("save", func(ctx context.Context, payload any) (any, error) {
		return nil, errQuota
	})

	p := dial(t, router)

	_, err := p.SendAndAwait(context.Background(), "save", nil)
	if !errors.Is(err, errQuota) {
		t.Errorf("SendAndAwait() error = %v, want quota fault", err)
	}
}

func TestPort_ConcurrentCallsCorrelate(t *testing.T) {
	router := channel.NewRouter(nil)
	router.OnCommand("square", func(ctx context.Context, payload any) (any, error) {
		n := payload.(float64)
		time.Sleep(time.Duration(10-int(n)%10) * time.Millisecond)
		return n * n, nil
	})

	p := dial(t, router)

	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := p.SendAndAwait(context.Background(), "square", i)
			if err != nil {
				t.Errorf("call %d error = %v", i, err)
				return
			}
			if got != float64(i*i) {
				t.Errorf("call %d got %v, want %d", i, got, i*i)
			}
		}(i)
	}
	wg.Wait()
}

func TestPort_Close_FailsPendingCalls(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	router := channel.NewRouter(nil)
	router.OnCommand("block", func(ctx context.Context, payload any) (any, error) {
		close(started)
		<-release
		return nil, nil
	})

	srv := httptest.NewServer(port.NewServer(router, nil))
	defer srv.Close()
	defer close(release)

	p, err := port.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	result := make(chan error, 1)
	go func() {
		_, err := p.SendAndAwait(context.Background(), "block", nil)
		result <- err
	}()

	<-started
	p.Close()

	select {
	case err := <-result:
		if !errors.Is(err, channel.ErrClosed) {
			t.Errorf("pending call error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("pending call did not fail after Close")
	}

	if _, err := p.SendAndAwait(context.Background(), "block", nil); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("SendAndAwait() after Close error = %v, want ErrClosed", err)
	}
}
