package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Cache is a session-scoped Backend over a Store. Values load from the store
// once and stay in memory; saves and removals are tracked and reach the
// store only on Flush. All methods are safe for concurrent use.
type Cache struct {
	store   Store
	cache   map[string][]byte
	index   map[string]bool
	dirty   map[string]bool
	removed map[string]bool
	mu      sync.RWMutex
}

var _ Backend = (*Cache)(nil)

func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		cache:   make(map[string][]byte),
		index:   make(map[string]bool),
		dirty:   make(map[string]bool),
		removed: make(map[string]bool),
	}
}

func (c *Cache) Kind() Kind {
	return Session
}

// Bootstrap indexes every key in the store and preloads the values of keys
// under any of the given prefixes.
func (c *Cache) Bootstrap(ctx context.Context, prefixes ...string) error {
	keys, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap index: %w", err)
	}

	c.mu.Lock()
	for _, key := range keys {
		if !c.removed[key] {
			c.index[key] = true
		}
	}
	c.mu.Unlock()

	if len(prefixes) == 0 {
		return nil
	}

	var toLoad []string
	for _, key := range keys {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				toLoad = append(toLoad, key)
				break
			}
		}
	}

	if len(toLoad) == 0 {
		return nil
	}

	entries, err := c.store.Load(ctx, toLoad...)
	if err != nil {
		return fmt.Errorf("bootstrap load: %w", err)
	}

	c.mu.Lock()
	for _, e := range entries {
		c.fill(e.Key, e.Value)
	}
	c.mu.Unlock()

	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (any, error) {
	val, ok, err := c.lookup(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return decode(key, val)
}

func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := c.lookup(ctx, key)
	return ok, err
}

func (c *Cache) Save(_ context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	data, err := encode(key, value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = data
	c.index[key] = true
	c.dirty[key] = true
	delete(c.removed, key)
	return nil
}

func (c *Cache) Remove(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, key)
	delete(c.index, key)
	delete(c.dirty, key)
	c.removed[key] = true
	return nil
}

// Flush persists pending saves and removals to the store. Changes made
// while a flush is running are kept for the next one; on failure the
// flushed changes are restored unless they were superseded.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	dirty, removed := c.dirty, c.removed
	c.dirty = make(map[string]bool)
	c.removed = make(map[string]bool)

	var toSave []Entry
	for key := range dirty {
		if val, ok := c.cache[key]; ok {
			toSave = append(toSave, Entry{Key: key, Value: val})
		}
	}
	var toDelete []string
	for key := range removed {
		toDelete = append(toDelete, key)
	}
	c.mu.Unlock()

	err := c.persist(ctx, toSave, toDelete)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	for key := range dirty {
		if _, ok := c.cache[key]; ok && !c.removed[key] {
			c.dirty[key] = true
		}
	}
	for key := range removed {
		if _, ok := c.cache[key]; !ok {
			c.removed[key] = true
		}
	}
	c.mu.Unlock()

	return err
}

// Pending reports the number of saves and removals awaiting Flush.
func (c *Cache) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.dirty) + len(c.removed)
}

// Keys returns the sorted keys known to the cache: bootstrapped, loaded or
// saved, minus removals.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.index))
	for key := range c.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Close flushes pending changes and closes the store when it holds
// resources.
func (c *Cache) Close() error {
	err := c.Flush(context.Background())
	if closer, ok := c.store.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}

func (c *Cache) persist(ctx context.Context, toSave []Entry, toDelete []string) error {
	if len(toSave) > 0 {
		if err := c.store.Save(ctx, toSave...); err != nil {
			return fmt.Errorf("flush save: %w", err)
		}
	}

	if len(toDelete) > 0 {
		if err := c.store.Delete(ctx, toDelete...); err != nil {
			return fmt.Errorf("flush delete: %w", err)
		}
	}
	return nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	c.mu.RLock()
	val, cached := c.cache[key]
	removed := c.removed[key]
	c.mu.RUnlock()

	if removed {
		return nil, false, nil
	}
	if cached {
		return val, true, nil
	}

	entries, err := c.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		c.fill(e.Key, e.Value)
	}
	val, ok := c.cache[key]
	return val, ok, nil
}

// fill caches a loaded value unless the key was saved or removed since.
// Callers hold the write lock.
func (c *Cache) fill(key string, val []byte) {
	if _, ok := c.cache[key]; ok || c.removed[key] {
		return
	}
	c.cache[key] = val
	c.index[key] = true
}
