package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// KV is a Backend over a Store. Values are JSON encoded at rest.
type KV struct {
	store Store
	kind  Kind
}

var _ Backend = (*KV)(nil)

func NewKV(store Store, kind Kind) *KV {
	return &KV{store: store, kind: kind}
}

func (b *KV) Kind() Kind {
	return b.kind
}

// Store returns the underlying raw store.
func (b *KV) Store() Store {
	return b.store
}

func (b *KV) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	entries, err := b.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return decode(key, entries[0].Value)
}

func (b *KV) Has(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	_, err := b.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *KV) Save(ctx context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	data, err := encode(key, value)
	if err != nil {
		return err
	}
	return b.store.Save(ctx, Entry{Key: key, Value: data})
}

func (b *KV) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return b.store.Delete(ctx, key)
}

// Keys lists every stored key.
func (b *KV) Keys(ctx context.Context) ([]string, error) {
	return b.store.List(ctx)
}

// Close releases the underlying store when it holds resources.
func (b *KV) Close() error {
	if c, ok := b.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
