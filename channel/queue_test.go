package channel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/bridge/channel"
)

func TestQueue_SendReceive(t *testing.T) {
	q := channel.NewQueue[int](context.Background(), 2)

	if err := q.Send(context.Background(), 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}

	got, err := q.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != 1 {
		t.Errorf("Receive() = %d, want 1", got)
	}
}

func TestQueue_Send_Full(t *testing.T) {
	q := channel.NewQueue[int](context.Background(), 1)
	q.Send(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := q.Send(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() on full queue error = %v, want DeadlineExceeded", err)
	}
}

func TestQueue_Close(t *testing.T) {
	q := channel.NewQueue[int](context.Background(), 1)
	q.Close()
	q.Close()

	if !q.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := q.Send(context.Background(), 1); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if _, err := q.Receive(context.Background()); !errors.Is(err, channel.ErrClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrClosed", err)
	}
}
