package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrUnknownObserver = errors.New("unknown observer")

var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
	mutex sync.RWMutex
)

// GetObserver returns a registered observer by name. "noop" and "slog" (the
// default logger) are always present; bridge configs reference the rest by
// the names passed to RegisterObserver.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObserver, name)
	}
	return obs, nil
}

// ResolveObservers looks up each name and combines the results into one
// MultiObserver. An unknown name fails the whole lookup.
func ResolveObservers(names ...string) (*MultiObserver, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	resolved := make([]Observer, 0, len(names))
	for _, name := range names {
		obs, exists := observers[name]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObserver, name)
		}
		resolved = append(resolved, obs)
	}
	return NewMultiObserver(resolved...), nil
}

// RegisterObserver adds or replaces a named observer in the global registry.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}
