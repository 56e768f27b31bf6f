package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection. Every key is
// stored under cfg.Prefix.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connect redis %s: %v", ErrLoadFailed, cfg.Addr, err)
	}

	return &redisStore{client: client, prefix: cfg.Prefix}, nil
}

// NewRedis connects a persistent Backend stored in redis.
func NewRedis(ctx context.Context, cfg RedisConfig) (*KV, error) {
	store, err := NewRedisStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewKV(store, Persistent), nil
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, mapRedisErr(err))
	}
	return keys, nil
}

func (s *redisStore) Load(ctx context.Context, keys ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))

	for _, key := range keys {
		val, err := s.client.Get(ctx, s.prefix+key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, key, mapRedisErr(err))
		}
		entries = append(entries, Entry{Key: key, Value: val})
	}
	return entries, nil
}

func (s *redisStore) Save(ctx context.Context, entries ...Entry) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, s.prefix+e.Key, e.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, mapRedisErr(err))
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}

	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, mapRedisErr(err))
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func mapRedisErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return err
}
