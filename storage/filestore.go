package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	tempPrefix = ".tmp-"

	// maxNameLen is the common file name limit of Linux, macOS and Windows
	// filesystems.
	maxNameLen = 255
)

// fileStore keeps one file per key directly beneath dir. Keys are
// path-escaped into flat file names, so "a" and "a/b" are unrelated files.
// All access goes through an os.Root, so nothing resolves outside the
// directory even via symlinks.
type fileStore struct {
	dir string

	mu     sync.Mutex
	root   *os.Root
	closed bool
}

// NewFileStore creates a Store backed by the filesystem. Any non-empty key
// whose escaped form fits in a file name is valid. The directory is created
// on first write.
func NewFileStore(dir string) Store {
	return &fileStore{dir: dir}
}

// NewFile creates a persistent Backend rooted at the given directory.
func NewFile(dir string) *KV {
	return NewKV(NewFileStore(dir), Persistent)
}

// fileName escapes key into a single path segment. A leading dot is escaped
// too, which keeps key names apart from temp files and from "." and "..".
func fileName(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	name := url.PathEscape(key)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: %q is too long", ErrInvalidKey, key)
	}
	return name, nil
}

// open returns the directory handle, creating the directory when create is
// set. A nil root with a nil error means the directory does not exist yet.
func (s *fileStore) open(create bool) (*os.Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.root != nil {
		return s.root, nil
	}

	if create {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, err
		}
	}
	root, err := os.OpenRoot(s.dir)
	if err != nil {
		if !create && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	s.root = root
	return root, nil
}

func (s *fileStore) List(_ context.Context) ([]string, error) {
	root, err := s.open(false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if root == nil {
		return nil, nil
	}

	entries, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		key, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func (s *fileStore) Load(_ context.Context, keys ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))

	for _, key := range keys {
		name, err := fileName(key)
		if err != nil {
			return nil, err
		}

		root, err := s.open(false)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, key, err)
		}
		if root == nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		data, err := root.ReadFile(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
		entries = append(entries, Entry{Key: key, Value: data})
	}

	return entries, nil
}

// Save syncs each value to a temporary file, then renames it over the key's
// file. Readers see the old value or the new one, never a prefix.
func (s *fileStore) Save(_ context.Context, entries ...Entry) error {
	for _, e := range entries {
		name, err := fileName(e.Key)
		if err != nil {
			return err
		}

		root, err := s.open(true)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSaveFailed, e.Key, err)
		}
		if err := s.write(root, name, e.Value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSaveFailed, e.Key, err)
		}
	}

	return nil
}

func (s *fileStore) write(root *os.Root, name string, value []byte) error {
	tmpName := tempPrefix + uuid.NewString()
	tmp, err := root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	_, err = tmp.Write(value)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = root.Rename(tmpName, name)
	}
	if err != nil {
		root.Remove(tmpName)
	}
	return err
}

func (s *fileStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		name, err := fileName(key)
		if err != nil {
			return err
		}

		root, err := s.open(false)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, key, err)
		}
		if root == nil {
			continue
		}

		if err := root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %v", ErrDeleteFailed, key, err)
		}
	}

	return nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.root == nil {
		return nil
	}
	return s.root.Close()
}
