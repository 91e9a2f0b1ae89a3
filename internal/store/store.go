// Package store provides the persistent key-value port the caches are built
// on. Records are opaque byte slices keyed by string; there are no
// transactions and no secondary indexes. Callers treat every failure as a
// cache miss and never crash on one.
package store

import (
	"context"
	"fmt"
)

// Store is the persistence contract shared by all backends.
type Store interface {
	// Get returns the record for key. The second return is false when the
	// key is absent, which is distinct from an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes the record for key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the record for key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
	// Keys returns all stored keys beginning with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Clear removes every record in the store.
	Clear(ctx context.Context) error

	Close() error
	Health() error
}

// Type identifies a store backend.
type Type string

const (
	TypeSQLite Type = "sqlite"
	TypeRedis  Type = "redis"
	TypeMemory Type = "memory"
)

// Config selects and configures a store backend.
type Config struct {
	Type Type

	// SQLite
	Path string

	// Redis
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	RedisPrefix   string
}

// New creates a store instance based on configuration.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeSQLite:
		return NewSQLiteStore(cfg.Path)
	case TypeRedis:
		return NewRedisStore(cfg)
	case TypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
