package channel

import (
	"log/slog"
	"time"
)

// Config defines configuration for a Bus instance.
type Config struct {
	// Bus identity
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Communication settings
	BufferSize     int           `json:"buffer_size,omitempty" yaml:"buffer_size,omitempty" validate:"gte=0"`
	DefaultTimeout time.Duration `json:"default_timeout,omitempty" yaml:"default_timeout,omitempty" validate:"gte=0"`

	// Observability
	Logger *slog.Logger `json:"-" yaml:"-" validate:"-"`
}

// DefaultConfig returns a Config with no call timeout.
func DefaultConfig() Config {
	return Config{
		Name:       "default",
		BufferSize: 100,
		Logger:     slog.Default(),
	}
}

func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.BufferSize > 0 {
		c.BufferSize = source.BufferSize
	}

	if source.DefaultTimeout > 0 {
		c.DefaultTimeout = source.DefaultTimeout
	}

	if source.Logger != nil {
		c.Logger = source.Logger
	}
}
