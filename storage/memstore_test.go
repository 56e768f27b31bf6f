package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/bridge/storage"
)

func TestMemory_Quota(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory(32)

	if err := b.Save(ctx, "a", "short"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err := b.Save(ctx, "b", strings.Repeat("x", 64))
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("Save() error = %v, want ErrQuotaExceeded", err)
	}

	if has, _ := b.Has(ctx, "b"); has {
		t.Error("Has(b) = true, rejected save should not be stored")
	}

	// Freed space is reusable.
	if err := b.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := b.Save(ctx, "c", "fits now"); err != nil {
		t.Errorf("Save() after Remove error = %v", err)
	}
}

func TestMemory_Quota_Overwrite(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory(20)

	// key (1) + encoded value (12) = 13 bytes; overwriting replaces it.
	for range 3 {
		if err := b.Save(ctx, "k", "0123456789"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemory(0)

	b.Save(ctx, "b", 1)
	b.Save(ctx, "a", 2)

	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
}
