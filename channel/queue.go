package channel

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO that never panics on use after Close. Closing
// wakes every blocked sender and receiver with ErrClosed.
type Queue[T any] struct {
	items      chan T
	context    context.Context
	bufferSize int
	done       chan struct{}
	closeOnce  sync.Once
}

func NewQueue[T any](ctx context.Context, bufferSize int) *Queue[T] {
	return &Queue[T]{
		items:      make(chan T, bufferSize),
		context:    ctx,
		bufferSize: bufferSize,
		done:       make(chan struct{}),
	}
}

func (q *Queue[T]) Send(ctx context.Context, item T) error {
	if q.IsClosed() {
		return ErrClosed
	}

	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.context.Done():
		return q.context.Err()
	case <-q.done:
		return ErrClosed
	}
}

func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.context.Done():
		return zero, q.context.Err()
	case <-q.done:
		return zero, ErrClosed
	}
}

func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue[T]) IsClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// BufferSize is the queue capacity.
func (q *Queue[T]) BufferSize() int {
	return q.bufferSize
}

// Len reports how many items are waiting.
func (q *Queue[T]) Len() int {
	return len(q.items)
}
