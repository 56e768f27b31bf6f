// Package storage provides the key-value capability exposed to other
// execution contexts. A Backend stores arbitrary plain-data values under
// string keys; concrete backends encode values as JSON bytes into a Store,
// so a stored value never shares memory with the caller's copy.
package storage

import "context"

// Entry is a raw key-value pair as held by a Store.
type Entry struct {
	Key   string
	Value []byte
}

// Store translates between a storage medium and raw key-value entries.
// Implementations perform I/O on each call without caching.
type Store interface {
	// List returns all available keys in the store.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys. A missing key fails
	// with ErrKeyNotFound.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
