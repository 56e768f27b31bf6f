package storage

import (
	"context"
	"fmt"
)

// Backend is a named key-value namespace. Values are plain data: nil, bool,
// float64, string, []any and map[string]any, or anything that encodes to
// JSON. Implementations are safe for concurrent use.
type Backend interface {
	// Get returns the value stored under key, or nil when the key is absent.
	Get(ctx context.Context, key string) (any, error)
	Has(ctx context.Context, key string) (bool, error)
	// Save stores value under key, overwriting any previous value.
	Save(ctx context.Context, key string, value any) error
	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error
}

// Kind tells whether a backend's data outlives the process that owns it.
type Kind int

const (
	Persistent Kind = iota
	Session
)

func (k Kind) String() string {
	switch k {
	case Persistent:
		return "persistent"
	case Session:
		return "session"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf reports the kind of b. Backends that do not declare a kind are
// treated as persistent.
func KindOf(b Backend) Kind {
	if k, ok := b.(interface{ Kind() Kind }); ok {
		return k.Kind()
	}
	return Persistent
}
