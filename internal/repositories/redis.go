package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/pathfinder/internal/shared"
)

// RedisStore implements [Store] on a Redis server. Keys are namespaced with prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", shared.ErrMissingConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// SetIf watches guardKey and stores value under key in a MULTI/EXEC block only if guardKey still holds guard.
func (s *RedisStore) SetIf(ctx context.Context, key string, value []byte, guardKey string, guard []byte) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, s.key(guardKey)).Bytes()
		if errors.Is(err, redis.Nil) || (err == nil && !bytes.Equal(current, guard)) {
			return fmt.Errorf("%w: %s", shared.ErrKeyChanged, guardKey)
		}
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return pipe.Set(ctx, s.key(key), value, 0).Err()
		})
		return err
	}, s.key(guardKey))

	switch {
	case errors.Is(err, shared.ErrKeyChanged):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: %s", shared.ErrKeyChanged, guardKey)
	case err != nil:
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Update queues the mutations staged by fn into a MULTI/EXEC block.
func (s *RedisStore) Update(ctx context.Context, fn func(Writer) error) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(&redisWriter{ctx: ctx, pipe: pipe, store: s})
	})
	if err != nil {
		return fmt.Errorf("redis transaction failed: %w", err)
	}
	return nil
}

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisWriter struct {
	ctx   context.Context
	pipe  redis.Pipeliner
	store *RedisStore
}

func (w *redisWriter) Set(key string, value []byte) error {
	return w.pipe.Set(w.ctx, w.store.key(key), value, 0).Err()
}

func (w *redisWriter) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = w.store.key(k)
	}
	return w.pipe.Del(w.ctx, prefixed...).Err()
}
