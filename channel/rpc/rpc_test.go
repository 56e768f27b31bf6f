package rpc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/channel/rpc"
	"github.com/tailored-agentic-units/bridge/messaging"
	"google.golang.org/protobuf/types/known/structpb"
)

func newServer(t *testing.T, router *channel.Router) *httptest.Server {
	t.Helper()
	path, handler := rpc.NewHandler(router, nil)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SendAndAwait(t *testing.T) {
	router := channel.NewRouter(nil)
	router.OnCommand("sum", func(ctx context.Context, payload any) (any, error) {
		var total float64
		for _, n := range payload.([]any) {
			total += n.(float64)
		}
		return map[string]any{"total": total}, nil
	})

	srv := newServer(t, router)
	client := rpc.NewClient(srv.Client(), srv.URL)

	got, err := client.SendAndAwait(context.Background(), "sum", []int{1, 2, 3})
	if err != nil {
		t.Fatalf("SendAndAwait() error = %v", err)
	}

	result, ok := got.(map[string]any)
	if !ok || result["total"] != float64(6) {
		t.Errorf("SendAndAwait() = %#v, want total 6", got)
	}
}

func TestClient_SendAndAwait_NoReceiver(t *testing.T) {
	srv := newServer(t, channel.NewRouter(nil))
	client := rpc.NewClient(srv.Client(), srv.URL)

	_, err := client.SendAndAwait(context.Background(), "missing", nil)
	if !errors.Is(err, channel.ErrNoReceiver) {
		t.Errorf("SendAndAwait() error = %v, want ErrNoReceiver", err)
	}
}

func TestClient_SendAndAwait_Fault(t *testing.T) {
	errDenied := messaging.NewFault("denied", "access denied")

	router := channel.NewRouter(nil)
	router.OnCommand("guarded", func(ctx context.Context, payload any) (any, error) {
		return nil, errDenied
	})

	srv := newServer(t, router)
	client := rpc.NewClient(srv.Client(), srv.URL)

	_, err := client.SendAndAwait(context.Background(), "guarded", nil)
	if !errors.Is(err, errDenied) {
		t.Fatalf("SendAndAwait() error = %v, want denied fault", err)
	}
	if err.Error() != "access denied" {
		t.Errorf("Error() = %q, want %q", err.Error(), "access denied")
	}
	if errors.Is(err, channel.ErrChannel) {
		t.Error("fault should not be reported as a channel error")
	}
}

func TestClient_SendAndAwait_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := rpc.NewClient(http.DefaultClient, url)

	_, err := client.SendAndAwait(context.Background(), "any", nil)
	if !errors.Is(err, channel.ErrChannel) {
		t.Errorf("SendAndAwait() error = %v, want ErrChannel", err)
	}
}

func TestClient_SendAndAwait_Concurrent(t *testing.T) {
	router := channel.NewRouter(nil)
	router.OnCommand("echo", func(ctx context.Context, payload any) (any, error) {
		return payload, nil
	})

	srv := newServer(t, router)
	client := rpc.NewClient(srv.Client(), srv.URL)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := client.SendAndAwait(context.Background(), "echo", i)
			if err != nil {
				t.Errorf("call %d error = %v", i, err)
				return
			}
			if got != float64(i) {
				t.Errorf("call %d got %v, want %d", i, got, i)
			}
		}(i)
	}
	wg.Wait()
}

func TestHandler_MalformedMessage(t *testing.T) {
	srv := newServer(t, channel.NewRouter(nil))
	raw := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+rpc.SendProcedure)

	st, _ := structpb.NewStruct(map[string]any{"command": "echo"})
	_, err := raw.CallUnary(context.Background(), connect.NewRequest(st))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("CodeOf() = %v, want %v", connect.CodeOf(err), connect.CodeInvalidArgument)
	}
}
