// Package pool stores rotated batches of candidate places per (region,
// category) pair. Reading a pool is instant and never triggers network I/O:
// the order of preference is stored pool, then bundled seed data. Refreshing
// a stale pool with live data is an external collaborator's job; this package
// only reports staleness.
package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"places-enricher/internal/common/logging"
	"places-enricher/internal/models"
	"places-enricher/internal/store"
)

// Manager owns pool and cursor persistence for one store.
type Manager struct {
	store          store.Store
	defaultTTLDays int
	logger         logging.Logger
	now            func() time.Time
}

// NewManager creates a pool manager. defaultTTLDays applies to pools that do
// not carry their own TTL.
func NewManager(st store.Store, defaultTTLDays int) *Manager {
	if defaultTTLDays <= 0 {
		defaultTTLDays = 7
	}
	return &Manager{
		store:          st,
		defaultTTLDays: defaultTTLDays,
		logger:         logging.GetGlobalLogger().WithFields(logging.String("component", "pool")),
		now:            time.Now,
	}
}

// GetPool returns the stored pool for (region, category), or nil when none
// exists. Storage failures degrade to nil.
func (m *Manager) GetPool(ctx context.Context, region, category string) *models.CachedPool {
	raw, found, err := m.store.Get(ctx, models.PoolStoreKey(region, category))
	if err != nil {
		m.logger.Warn("pool read failed, treating as miss",
			logging.String("region", region), logging.String("category", category),
			logging.Err(err))
		return nil
	}
	if !found {
		return nil
	}

	var pool models.CachedPool
	if err := json.Unmarshal(raw, &pool); err != nil {
		m.logger.Warn("corrupt pool record, treating as miss",
			logging.String("region", region), logging.String("category", category),
			logging.Err(err))
		return nil
	}
	if pool.SchemaVersion != models.PoolSchemaVersion {
		m.logger.Info("pool schema version mismatch, treating as miss",
			logging.Int("stored", pool.SchemaVersion),
			logging.Int("expected", models.PoolSchemaVersion))
		return nil
	}
	return &pool
}

// SavePool replaces the pool for (region, category) wholesale.
func (m *Manager) SavePool(ctx context.Context, region, category string, pool *models.CachedPool) error {
	pool.SchemaVersion = models.PoolSchemaVersion
	if pool.UpdatedAt.IsZero() {
		pool.UpdatedAt = m.now()
	}
	if pool.TTLDays <= 0 {
		pool.TTLDays = m.defaultTTLDays
	}

	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, models.PoolStoreKey(region, category), raw)
}

// IsStale reports whether a pool is past its TTL. ttlDays of zero means "use
// the pool's own TTL". Stale pools are still served; staleness only tells
// refresh logic elsewhere that new live data should be requested.
func (m *Manager) IsStale(pool *models.CachedPool, ttlDays int) bool {
	if pool == nil {
		return true
	}
	if ttlDays <= 0 {
		ttlDays = pool.TTLDays
	}
	if ttlDays <= 0 {
		ttlDays = m.defaultTTLDays
	}
	return m.now().Sub(pool.UpdatedAt) > time.Duration(ttlDays)*24*time.Hour
}

// Cursor returns the persisted rotation cursor for tileKey, zero when unset
// or unreadable.
func (m *Manager) Cursor(ctx context.Context, tileKey string) int {
	raw, found, err := m.store.Get(ctx, models.CursorStoreKey(tileKey))
	if err != nil {
		m.logger.Warn("cursor read failed, starting from zero",
			logging.String("tile", tileKey), logging.Err(err))
		return 0
	}
	if !found {
		return 0
	}

	var cursor int
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return 0
	}
	return cursor
}

// AdvanceCursor moves the persisted cursor forward by count, modulo poolSize,
// and returns the new value. Only an explicit "show next batch" action calls
// this.
func (m *Manager) AdvanceCursor(ctx context.Context, tileKey string, poolSize, count int) int {
	if poolSize <= 0 {
		return 0
	}
	if count <= 0 {
		count = DefaultBatchSize
	}

	cursor := NormalizeCursor(m.Cursor(ctx, tileKey)+count, poolSize)

	raw, err := json.Marshal(cursor)
	if err == nil {
		err = m.store.Set(ctx, models.CursorStoreKey(tileKey), raw)
	}
	if err != nil {
		m.logger.Warn("failed to persist cursor",
			logging.String("tile", tileKey), logging.Err(err))
	}
	return cursor
}

// PoolOrSeed returns the stored pool when one exists, falling back to the
// bundled seed dataset for the category. Never touches the network.
func (m *Manager) PoolOrSeed(ctx context.Context, region, category string) *models.CachedPool {
	if pool := m.GetPool(ctx, region, category); pool != nil {
		return pool
	}

	seeded, err := LoadSeedFile(category)
	if err != nil {
		m.logger.Warn("no pool and no seed data for category",
			logging.String("category", category), logging.Err(err))
		return nil
	}

	return &models.CachedPool{
		SchemaVersion: models.PoolSchemaVersion,
		UpdatedAt:     m.now(),
		TTLDays:       m.defaultTTLDays,
		Provenance:    models.ProvenanceSeed,
		Places:        seeded,
	}
}

// CurrentBatch returns the batch the persisted cursor currently points at.
func (m *Manager) CurrentBatch(ctx context.Context, region, category string, count int) []models.CachedPlace {
	pool := m.PoolOrSeed(ctx, region, category)
	if pool == nil {
		return nil
	}
	cursor := NormalizeCursor(m.Cursor(ctx, tileKey(region, category)), len(pool.Places))
	return RotatePlaces(pool.Places, cursor, count)
}

// NextBatch advances the cursor and returns the next batch.
func (m *Manager) NextBatch(ctx context.Context, region, category string, count int) []models.CachedPlace {
	pool := m.PoolOrSeed(ctx, region, category)
	if pool == nil {
		return nil
	}
	cursor := m.AdvanceCursor(ctx, tileKey(region, category), len(pool.Places), count)
	return RotatePlaces(pool.Places, cursor, count)
}

// SweepStale scans stored pools, logs the stale ones, and removes rotation
// cursors whose pool no longer exists. Cursors for seed-backed tiles are
// kept: those tiles rotate without ever persisting a pool, so the absence of
// a pool key does not make their cursor an orphan. It never fetches live
// data.
func (m *Manager) SweepStale(ctx context.Context) {
	poolKeys, err := m.store.Keys(ctx, models.PoolKeyPrefix)
	if err != nil {
		m.logger.Warn("pool sweep: failed to list pools", logging.Err(err))
		return
	}

	livePools := make(map[string]bool, len(poolKeys))
	stale := 0
	for _, key := range poolKeys {
		regionCategory := strings.TrimPrefix(key, models.PoolKeyPrefix)
		livePools[strings.ReplaceAll(regionCategory, ":", "_")] = true

		parts := strings.SplitN(regionCategory, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if pool := m.GetPool(ctx, parts[0], parts[1]); m.IsStale(pool, 0) {
			stale++
			m.logger.Info("pool is stale, refresh should be requested",
				logging.String("region", parts[0]), logging.String("category", parts[1]))
		}
	}

	cursorKeys, err := m.store.Keys(ctx, models.CursorKeyPrefix)
	if err != nil {
		m.logger.Warn("pool sweep: failed to list cursors", logging.Err(err))
		return
	}

	categories := SeedCategories()
	seedSuffixes := make([]string, 0, len(categories))
	for _, category := range categories {
		seedSuffixes = append(seedSuffixes, "_"+category)
	}

	removed := 0
	for _, key := range cursorKeys {
		tile := strings.TrimPrefix(key, models.CursorKeyPrefix)
		if livePools[tile] || seedBackedTile(tile, seedSuffixes) {
			continue
		}
		if err := m.store.Delete(ctx, key); err == nil {
			removed++
		}
	}

	m.logger.Info("pool sweep complete",
		logging.Int("pools", len(poolKeys)),
		logging.Int("stale", stale),
		logging.Int("orphan_cursors_removed", removed))
}

// tileKey names the cursor slot for one (region, category) display tile.
func tileKey(region, category string) string {
	return fmt.Sprintf("%s_%s", region, category)
}

// seedBackedTile reports whether a cursor tile ends in a bundled seed
// category. Categories may themselves contain underscores, so the tile is
// matched by suffix rather than split.
func seedBackedTile(tile string, seedSuffixes []string) bool {
	for _, suffix := range seedSuffixes {
		if strings.HasSuffix(tile, suffix) {
			return true
		}
	}
	return false
}
