package models

import (
	"fmt"
	"strings"
)

// Store key namespaces. Every record this subsystem persists lives under one
// of these prefixes; no other process reads them.
const (
	EnrichmentKeyPrefix = "place_enrichment:"
	HoursKeyPrefix      = "place_hours:"
	PoolKeyPrefix       = "places_pool:"
	CursorKeyPrefix     = "places_cursor:"
	CooldownKeyPrefix   = "places_cooldown:"
)

// Normalize lowercases, trims, and collapses internal whitespace so that the
// same physical place always produces the same key regardless of which code
// path computed it.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// PlaceKey returns the enrichment key for a place with a stable resolved
// identifier.
func PlaceKey(resolvedID string) string {
	return "place:" + resolvedID
}

// SeedKey returns the enrichment key derived from seed data when no resolved
// identifier is known.
func SeedKey(name, city string) string {
	return fmt.Sprintf("seed:%s|%s", Normalize(name), Normalize(city))
}

// EnrichmentKey computes the cache key for a place, preferring the resolved
// identifier when one is known.
func EnrichmentKey(name, city, resolvedID string) string {
	if resolvedID != "" {
		return PlaceKey(resolvedID)
	}
	return SeedKey(name, city)
}

// PoolStoreKey returns the store key for a (region, category) pool.
func PoolStoreKey(region, category string) string {
	return fmt.Sprintf("%s%s:%s", PoolKeyPrefix, region, category)
}

// CursorStoreKey returns the store key for a rotation cursor.
func CursorStoreKey(tileKey string) string {
	return CursorKeyPrefix + tileKey
}

// CooldownStoreKey returns the well-known store key holding a pipeline's
// cooldown timestamp.
func CooldownStoreKey(pipeline string) string {
	return CooldownKeyPrefix + pipeline
}
