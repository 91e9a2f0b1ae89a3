// Package cache provides the typed record caches layered over the persistent
// store. The enrichment cache and the hours cache are the same shape with
// disjoint key namespaces, so both are instances of one generic cache.
//
// Freshness is advisory: records past their TTL are still returned
// (stale-but-usable). Absence is the only signal that a record was never
// written. Storage failures degrade to cache misses and are logged, never
// propagated.
package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"places-enricher/internal/common/logging"
	"places-enricher/internal/store"
)

// Session-local L1 settings. The L1 only memoizes within one process; the
// persistent store below it is the layer that survives restarts.
const (
	l1TTL             = 15 * time.Minute
	l1CleanupInterval = 30 * time.Minute
)

// TypedCache is a generic record cache over the persistent store with an
// in-memory L1 in front of it.
type TypedCache[T any] struct {
	store  store.Store
	prefix string
	l1     *gocache.Cache
	logger logging.Logger
}

// New creates a typed cache for one key namespace. Keys passed to Get/Set are
// namespace-relative; prefix keeps the place and hours key spaces disjoint in
// the shared store.
func New[T any](st store.Store, prefix string) *TypedCache[T] {
	return &TypedCache[T]{
		store:  st,
		prefix: prefix,
		l1:     gocache.New(l1TTL, l1CleanupInterval),
		logger: logging.GetGlobalLogger().WithFields(logging.String("cache", prefix)),
	}
}

// Get returns the cached record for key, fresh or stale, or nil when the key
// was never written. Storage failures are logged and reported as a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) *T {
	if v, found := c.l1.Get(key); found {
		if record, ok := v.(*T); ok {
			return record
		}
	}

	raw, found, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		c.logger.Warn("store read failed, treating as miss",
			logging.String("key", key), logging.Err(err))
		return nil
	}
	if !found {
		return nil
	}

	record := new(T)
	if err := json.Unmarshal(raw, record); err != nil {
		c.logger.Warn("corrupt cache record, treating as miss",
			logging.String("key", key), logging.Err(err))
		return nil
	}

	c.l1.Set(key, record, gocache.DefaultExpiration)
	return record
}

// Set overwrites the record for key wholesale. The L1 is updated even when
// the persistent write fails so the session still sees its own data.
func (c *TypedCache[T]) Set(ctx context.Context, key string, record *T) error {
	c.l1.Set(key, record, gocache.DefaultExpiration)

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.prefix+key, raw)
}

// Delete removes the record for key from both layers.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	c.l1.Delete(key)
	return c.store.Delete(ctx, c.prefix+key)
}

// IsFresh reports whether a record written at updatedAt is within its
// advisory TTL. Stale records are still usable; this only tells callers
// whether a refresh should be attempted.
func IsFresh(updatedAt time.Time, ttlDays int) bool {
	return IsFreshAt(updatedAt, ttlDays, time.Now())
}

// IsFreshAt is IsFresh against an explicit clock; pure, for tests.
func IsFreshAt(updatedAt time.Time, ttlDays int, now time.Time) bool {
	return now.Sub(updatedAt) <= time.Duration(ttlDays)*24*time.Hour
}
