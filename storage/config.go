package storage

import (
	"context"
	"fmt"
)

// Storage drivers selectable through Config.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverBadger   = "badger"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

const DefaultPostgresTable = "bridge_storage"

type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" validate:"gte=0"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

type PostgresConfig struct {
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
}

// Config selects and parameterizes the storage backend. The driver decides
// the backend kind: memory is session-scoped, every other driver persists.
type Config struct {
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty" validate:"omitempty,oneof=memory file badger redis postgres"`

	// Path is the root directory for the file driver and the database
	// directory for badger (empty runs badger in memory).
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Driver file"`

	// Quota caps the memory driver in bytes; zero is unlimited.
	Quota int64 `json:"quota,omitempty" yaml:"quota,omitempty" validate:"gte=0"`

	// Cache wraps the backend in a write-back Cache.
	Cache bool `json:"cache,omitempty" yaml:"cache,omitempty"`

	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
}

func DefaultConfig() Config {
	return Config{
		Driver: DriverMemory,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "bridge:",
		},
		Postgres: PostgresConfig{
			Table: DefaultPostgresTable,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Driver != "" {
		c.Driver = source.Driver
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Quota > 0 {
		c.Quota = source.Quota
	}
	if source.Cache {
		c.Cache = true
	}

	if source.Redis.Addr != "" {
		c.Redis.Addr = source.Redis.Addr
	}
	if source.Redis.Password != "" {
		c.Redis.Password = source.Redis.Password
	}
	if source.Redis.DB > 0 {
		c.Redis.DB = source.Redis.DB
	}
	if source.Redis.Prefix != "" {
		c.Redis.Prefix = source.Redis.Prefix
	}

	if source.Postgres.URL != "" {
		c.Postgres.URL = source.Postgres.URL
	}
	if source.Postgres.Table != "" {
		c.Postgres.Table = source.Postgres.Table
	}
}

// New opens the backend described by cfg. Backends holding resources
// implement io.Closer.
func New(ctx context.Context, cfg *Config) (Backend, error) {
	kv, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache {
		return NewCache(kv.Store()), nil
	}
	return kv, nil
}

func open(ctx context.Context, cfg *Config) (*KV, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(cfg.Quota), nil
	case DriverFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: file driver requires a path", ErrInvalidConfig)
		}
		return NewFile(cfg.Path), nil
	case DriverBadger:
		return NewBadger(cfg.Path)
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
