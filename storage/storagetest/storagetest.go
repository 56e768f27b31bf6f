// Package storagetest provides a conformance suite for storage.Backend
// implementations.
package storagetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/bridge/storage"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) storage.Backend

// Run exercises the Backend contract against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newBackend(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newBackend(t)) })
	t.Run("AbsentKey", func(t *testing.T) { testAbsentKey(t, newBackend(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, newBackend(t)) })
	t.Run("RemoveAbsent", func(t *testing.T) { testRemoveAbsent(t, newBackend(t)) })
	t.Run("RemoveTwice", func(t *testing.T) { testRemoveTwice(t, newBackend(t)) })
	t.Run("PrefixKeys", func(t *testing.T) { testPrefixKeys(t, newBackend(t)) })
	t.Run("ValueIsCopy", func(t *testing.T) { testValueIsCopy(t, newBackend(t)) })
	t.Run("EmptyKey", func(t *testing.T) { testEmptyKey(t, newBackend(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, newBackend(t)) })
}

var roundTripValues = []struct {
	name  string
	value any
}{
	{"string", "dark"},
	{"number", float64(42.5)},
	{"bool", true},
	{"list", []any{"a", float64(1), false}},
	{"object", map[string]any{
		"theme":  "dark",
		"volume": float64(7),
		"tags":   []any{"x", "y"},
		"nested": map[string]any{"enabled": true},
	}},
}

func testRoundTrip(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	for _, tt := range roundTripValues {
		key := "roundtrip-" + tt.name

		if err := b.Save(ctx, key, tt.value); err != nil {
			t.Fatalf("Save(%s) error = %v", key, err)
		}

		got, err := b.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
		if !reflect.DeepEqual(got, tt.value) {
			t.Errorf("Get(%s) = %#v, want %#v", key, got, tt.value)
		}

		has, err := b.Has(ctx, key)
		if err != nil {
			t.Fatalf("Has(%s) error = %v", key, err)
		}
		if !has {
			t.Errorf("Has(%s) = false, want true", key)
		}
	}
}

func testOverwrite(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	mustSave(t, b, "theme", "light")
	mustSave(t, b, "theme", "dark")

	got, err := b.Get(ctx, "theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "dark" {
		t.Errorf("Get() = %v, want dark", got)
	}
}

func testAbsentKey(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	got, err := b.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}

	has, err := b.Has(ctx, "missing")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if has {
		t.Error("Has() = true, want false")
	}
}

func testRemove(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	mustSave(t, b, "session", map[string]any{"user": "u1"})

	if err := b.Remove(ctx, "session"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	has, err := b.Has(ctx, "session")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if has {
		t.Error("Has() = true after Remove, want false")
	}

	got, err := b.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v after Remove, want nil", got)
	}
}

func testRemoveAbsent(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	for i := range 2 {
		if err := b.Remove(ctx, "never-saved"); err != nil {
			t.Errorf("Remove() call %d error = %v, want nil", i+1, err)
		}
	}
}

func testRemoveTwice(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	mustSave(t, b, "token", "t1")

	for i := range 2 {
		if err := b.Remove(ctx, "token"); err != nil {
			t.Errorf("Remove() call %d error = %v, want nil", i+1, err)
		}
	}

	has, err := b.Has(ctx, "token")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if has {
		t.Error("Has() = true after Remove, want false")
	}
}

// testPrefixKeys checks that a key which is a path prefix of a stored key
// is an independent, absent key.
func testPrefixKeys(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	mustSave(t, b, "a/b", "child")

	has, err := b.Has(ctx, "a")
	if err != nil {
		t.Fatalf("Has(a) error = %v", err)
	}
	if has {
		t.Error("Has(a) = true, want false")
	}

	got, err := b.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}
	if got != nil {
		t.Errorf("Get(a) = %v, want nil", got)
	}

	if err := b.Remove(ctx, "a"); err != nil {
		t.Errorf("Remove(a) error = %v, want nil", err)
	}

	mustSave(t, b, "a", "parent")

	for key, want := range map[string]any{"a": "parent", "a/b": "child"} {
		got, err := b.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
		if got != want {
			t.Errorf("Get(%s) = %v, want %v", key, got, want)
		}
	}

	if err := b.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove(a) error = %v", err)
	}
	if got, _ := b.Get(ctx, "a/b"); got != "child" {
		t.Errorf("Get(a/b) after Remove(a) = %v, want child", got)
	}
}

func testValueIsCopy(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	value := map[string]any{"count": float64(1)}
	mustSave(t, b, "counter", value)
	value["count"] = float64(2)

	got, err := b.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Get() = %T, want map[string]any", got)
	}
	if m["count"] != float64(1) {
		t.Errorf("count = %v, want 1; stored value shares memory with caller", m["count"])
	}

	m["count"] = float64(3)
	again, _ := b.Get(ctx, "counter")
	if again.(map[string]any)["count"] != float64(1) {
		t.Error("mutating a read value changed the stored value")
	}
}

// testEmptyKey only requires a failure: across an execution boundary the
// backend's sentinel arrives as a fault message.
func testEmptyKey(t *testing.T, b storage.Backend) {
	if err := b.Save(context.Background(), "", "value"); err == nil {
		t.Error("Save(\"\") error = nil, want error")
	}
}

func testConcurrent(t *testing.T, b storage.Backend) {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			if err := b.Save(ctx, key, float64(i)); err != nil {
				t.Errorf("Save(%s) error = %v", key, err)
				return
			}
			got, err := b.Get(ctx, key)
			if err != nil {
				t.Errorf("Get(%s) error = %v", key, err)
				return
			}
			if got != float64(i) {
				t.Errorf("Get(%s) = %v, want %d", key, got, i)
			}
		}(i)
	}
	wg.Wait()
}

func mustSave(t *testing.T, b storage.Backend, key string, value any) {
	t.Helper()
	if err := b.Save(context.Background(), key, value); err != nil {
		t.Fatalf("Save(%s) error = %v", key, err)
	}
}
