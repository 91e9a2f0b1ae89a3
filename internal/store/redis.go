package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"places-enricher/internal/common/errors"
)

// RedisStore persists records in Redis. Useful when several processes on one
// box share the cache; records are written without expiry since freshness is
// advisory and evaluated by the caches, not the store.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects to Redis using the store configuration.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if cfg.RedisAddress == "" {
		cfg.RedisAddress = "localhost:6379"
	}
	if cfg.RedisPoolSize == 0 {
		cfg.RedisPoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &RedisStore{rdb: rdb, prefix: cfg.RedisPrefix}, nil
}

// NewRedisStoreWithClient wraps an existing client; used by tests backed by
// miniredis.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StorageError("failed to read record", err).WithContext("key", key)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.StorageError("failed to write record", err).WithContext("key", key)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.StorageError("failed to delete record", err).WithContext("key", key)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	iter := s.rdb.Scan(ctx, 0, s.prefix+prefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.StorageError("failed to list keys", err).WithContext("prefix", prefix)
	}
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.StorageError("failed to scan store", err)
	}

	if len(keys) > 0 {
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return errors.StorageError("failed to clear store", err)
		}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
