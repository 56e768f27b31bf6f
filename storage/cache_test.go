package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/bridge/storage"
)

type failingStore struct {
	storage.Store
	failSave bool
}

func (s *failingStore) Save(ctx context.Context, entries ...storage.Entry) error {
	if s.failSave {
		return storage.ErrSaveFailed
	}
	return s.Store.Save(ctx, entries...)
}

func TestCache_WritesStayLocalUntilFlush(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	cache := storage.NewCache(store)

	if err := cache.Save(ctx, "k", "v"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := store.Load(ctx, "k"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("store.Load() before Flush error = %v, want ErrKeyNotFound", err)
	}
	if got := cache.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}

	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	entries, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if string(entries[0].Value) != `"v"` {
		t.Errorf("stored value = %s, want \"v\"", entries[0].Value)
	}
	if got := cache.Pending(); got != 0 {
		t.Errorf("Pending() after Flush = %d, want 0", got)
	}
}

func TestCache_RemoveFlushesDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	persistent := storage.NewKV(store, storage.Persistent)
	persistent.Save(ctx, "k", "v")

	cache := storage.NewCache(store)
	if err := cache.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// Removal hides the stored value before flush.
	if has, _ := cache.Has(ctx, "k"); has {
		t.Error("Has() = true after Remove, want false")
	}
	if has, _ := persistent.Has(ctx, "k"); !has {
		t.Error("store lost key before Flush")
	}

	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if has, _ := persistent.Has(ctx, "k"); has {
		t.Error("store still has key after Flush")
	}
}

func TestCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	persistent := storage.NewKV(store, storage.Persistent)
	persistent.Save(ctx, "k", "original")

	cache := storage.NewCache(store)
	if got, _ := cache.Get(ctx, "k"); got != "original" {
		t.Fatalf("Get() = %v, want original", got)
	}

	persistent.Save(ctx, "k", "modified")

	if got, _ := cache.Get(ctx, "k"); got != "original" {
		t.Errorf("Get() = %v, cached value should be kept", got)
	}
}

func TestCache_Bootstrap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	persistent := storage.NewKV(store, storage.Persistent)
	persistent.Save(ctx, "prefs/theme", "dark")
	persistent.Save(ctx, "session/token", "abc")

	cache := storage.NewCache(store)
	if err := cache.Bootstrap(ctx, "prefs/"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	keys := cache.Keys()
	if len(keys) != 2 || keys[0] != "prefs/theme" || keys[1] != "session/token" {
		t.Errorf("Keys() = %v, want [prefs/theme session/token]", keys)
	}

	// Preloaded values survive a store change.
	persistent.Save(ctx, "prefs/theme", "light")
	if got, _ := cache.Get(ctx, "prefs/theme"); got != "dark" {
		t.Errorf("Get(prefs/theme) = %v, want dark", got)
	}
}

func TestCache_FlushFailureKeepsChanges(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore(0), failSave: true}
	cache := storage.NewCache(store)

	cache.Save(ctx, "k", "v")

	if err := cache.Flush(ctx); !errors.Is(err, storage.ErrSaveFailed) {
		t.Fatalf("Flush() error = %v, want ErrSaveFailed", err)
	}
	if got := cache.Pending(); got != 1 {
		t.Errorf("Pending() after failed Flush = %d, want 1", got)
	}

	store.failSave = false
	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("Flush() retry error = %v", err)
	}
	if got := cache.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestCache_Close_Flushes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	cache := storage.NewCache(store)

	cache.Save(ctx, "k", true)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := store.Load(ctx, "k"); err != nil {
		t.Errorf("store.Load() after Close error = %v", err)
	}
}
