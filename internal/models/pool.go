package models

import "time"

// PoolSchemaVersion is bumped whenever the stored pool shape changes in a way
// old readers cannot handle.
const PoolSchemaVersion = 1

// Provenance records where a pool's data came from.
type Provenance string

const (
	ProvenanceLive  Provenance = "live"
	ProvenanceCache Provenance = "cache"
	ProvenanceSeed  Provenance = "seed"
)

// CachedPlace is the lightweight display record stored in pools. It is the
// display source of truth; EnrichedPlace upgrades specific fields on top of
// it when available.
type CachedPlace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	City        string    `json:"city,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	ReviewCount int       `json:"review_count,omitempty"`
	Address     string    `json:"address,omitempty"`
	MapURL      string    `json:"map_url,omitempty"`
	MapsType    string    `json:"maps_type,omitempty"` // "place" or "search"
	Lat         float64   `json:"lat,omitempty"`
	Lng         float64   `json:"lng,omitempty"`
	Photo       *PhotoRef `json:"photo,omitempty"`
}

// CachedPool is one stored batch of candidate places for a (region, category)
// pair. Pools are created or replaced wholesale, never partially mutated.
type CachedPool struct {
	SchemaVersion int           `json:"schema_version"`
	UpdatedAt     time.Time     `json:"updated_at"`
	TTLDays       int           `json:"ttl_days"`
	Provenance    Provenance    `json:"provenance"`
	Places        []CachedPlace `json:"places"`
}
