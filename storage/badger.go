package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a badger database at path. An empty path opens an
// in-memory database.
func NewBadgerStore(path string) (Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger %s: %v", ErrLoadFailed, path, err)
	}
	return &badgerStore{db: db}, nil
}

// NewBadger opens a persistent Backend stored in a badger database.
func NewBadger(path string) (*KV, error) {
	store, err := NewBadgerStore(path)
	if err != nil {
		return nil, err
	}
	return NewKV(store, Persistent), nil
}

func (s *badgerStore) List(_ context.Context) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, mapBadgerErr(err))
	}
	return keys, nil
}

func (s *badgerStore) Load(_ context.Context, keys ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
				}
				return fmt.Errorf("%w: %s: %w", ErrLoadFailed, key, mapBadgerErr(err))
			}

			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
			}
			entries = append(entries, Entry{Key: key, Value: val})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *badgerStore) Save(_ context.Context, entries ...Entry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			if err := txn.Set([]byte(e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, mapBadgerErr(err))
	}
	return nil
}

func (s *badgerStore) Delete(_ context.Context, keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, mapBadgerErr(err))
	}
	return nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}
