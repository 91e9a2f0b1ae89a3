// Package enricher holds the two pipeline orchestrators. Each one consults
// its cache first, de-duplicates concurrent requests for the same key, and
// funnels every outbound call through its governor. Nothing in this package
// propagates an error past its public operations: the worst case is always
// "no enrichment available", and the display layer falls back to seed data.
package enricher

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"places-enricher/internal/cache"
	apperrors "places-enricher/internal/common/errors"
	"places-enricher/internal/common/logging"
	"places-enricher/internal/governor"
	"places-enricher/internal/models"
	"places-enricher/internal/places"
	"places-enricher/internal/store"
)

// PlaceEnricher orchestrates resolve-then-fetch against the lookup service.
// One instance per process; constructing a second would split the budget
// ceiling.
type PlaceEnricher struct {
	cache    *cache.TypedCache[models.EnrichedPlace]
	client   places.Client
	governor *governor.Governor
	bias     places.GeoBias
	flight   singleflight.Group
	logger   logging.Logger
	now      func() time.Time
}

// NewPlaceEnricher wires the place pipeline. bias centers identity
// resolution on the region the seed data covers.
func NewPlaceEnricher(st store.Store, client places.Client, gov *governor.Governor, bias places.GeoBias) *PlaceEnricher {
	return &PlaceEnricher{
		cache:    cache.New[models.EnrichedPlace](st, models.EnrichmentKeyPrefix),
		client:   client,
		governor: gov,
		bias:     bias,
		logger:   logging.GetGlobalLogger().WithFields(logging.String("enricher", "place")),
		now:      time.Now,
	}
}

// Enrich returns authoritative metadata for a place, from cache when
// available (fresh or stale) and via a budget-gated two-stage lookup
// otherwise. A nil result means no enrichment is available this session;
// callers cannot distinguish budget exhaustion from a place that truly has no
// data, and should not alarm the user either way.
func (e *PlaceEnricher) Enrich(ctx context.Context, name, city, knownID string) *models.EnrichedPlace {
	key := models.EnrichmentKey(name, city, knownID)

	if record := e.cache.Get(ctx, key); record != nil {
		return record
	}

	// Concurrent requests for the same key share one lookup. The entry
	// self-clears on completion, so a failed attempt does not block a later
	// one.
	v, _, _ := e.flight.Do(key, func() (interface{}, error) {
		return e.enrichOnce(ctx, key, name, city, knownID), nil
	})

	record, _ := v.(*models.EnrichedPlace)
	return record
}

// enrichOnce runs the full lookup for one key. It returns nil on any failure;
// no partial state is cached.
func (e *PlaceEnricher) enrichOnce(ctx context.Context, key, name, city, knownID string) *models.EnrichedPlace {
	// A losing racer may arrive here after the winner already wrote the
	// record.
	if record := e.cache.Get(ctx, key); record != nil {
		return record
	}

	resolvedID := knownID
	if resolvedID == "" {
		candidate, ok := e.resolve(ctx, name, city)
		if !ok {
			return nil
		}
		resolvedID = candidate.ID
	}

	details := e.fetchDetails(ctx, resolvedID)
	if details == nil {
		return nil
	}

	record := &models.EnrichedPlace{
		Key:         models.PlaceKey(resolvedID),
		ResolvedID:  resolvedID,
		Name:        details.DisplayName,
		City:        details.City,
		Rating:      details.Rating,
		ReviewCount: details.ReviewCount,
		Photo:       details.Photo,
		MapURL:      details.MapsURI,
		UpdatedAt:   e.now(),
	}
	if record.Name == "" {
		record.Name = name
	}
	if record.City == "" {
		record.City = city
	}

	e.persist(ctx, record, name, city, knownID == "")
	return record
}

// resolve runs the gated identity-resolution call and picks the best
// candidate above the minimum confidence.
func (e *PlaceEnricher) resolve(ctx context.Context, name, city string) (places.Candidate, bool) {
	if err := e.governor.Acquire(ctx); err != nil {
		e.logGateRefusal("resolve", err)
		return places.Candidate{}, false
	}

	query := name
	if city != "" {
		query += " " + city
	}

	candidates, err := e.client.ResolveIdentity(ctx, query, e.bias)
	if err != nil {
		e.handleLookupError("resolve", err)
		return places.Candidate{}, false
	}

	candidate, ok := bestCandidate(candidates, name, city)
	if !ok {
		e.logger.Debug("no candidate above minimum confidence",
			logging.String("name", name), logging.String("city", city))
		return places.Candidate{}, false
	}
	return candidate, true
}

// fetchDetails runs the gated detail-fetch call.
func (e *PlaceEnricher) fetchDetails(ctx context.Context, resolvedID string) *places.PlaceDetails {
	if err := e.governor.Acquire(ctx); err != nil {
		e.logGateRefusal("details", err)
		return nil
	}

	details, err := e.client.FetchDetails(ctx, resolvedID)
	if err != nil {
		e.handleLookupError("details", err)
		return nil
	}
	return details
}

// persist writes the record under the resolved key, and under the seed key
// too when the lookup started from name+city, so future lookups short-circuit
// without re-resolving identity.
func (e *PlaceEnricher) persist(ctx context.Context, record *models.EnrichedPlace, name, city string, fromSeed bool) {
	if err := e.cache.Set(ctx, record.Key, record); err != nil {
		e.logger.Warn("failed to persist enrichment",
			logging.String("key", record.Key), logging.Err(err))
	}

	if fromSeed {
		seedCopy := *record
		seedCopy.Key = models.SeedKey(name, city)
		if err := e.cache.Set(ctx, seedCopy.Key, &seedCopy); err != nil {
			e.logger.Warn("failed to persist seed-key copy",
				logging.String("key", seedCopy.Key), logging.Err(err))
		}
	}
}

// handleLookupError logs a failed call and trips the cooldown when the
// failure signals quota exhaustion.
func (e *PlaceEnricher) handleLookupError(operation string, err error) {
	if apperrors.IsQuota(err) {
		e.governor.SetCooldown("quota_exhausted")
		return
	}
	e.logger.Warn("lookup call failed",
		logging.String("operation", operation), logging.Err(err))
}

// logGateRefusal records why the gate refused. Budget and cooldown refusals
// are normal control flow, not failures.
func (e *PlaceEnricher) logGateRefusal(operation string, err error) {
	switch err {
	case governor.ErrBudgetExhausted, governor.ErrCooldownActive:
		e.logger.Debug("call refused by governor",
			logging.String("operation", operation), logging.String("reason", err.Error()))
	default:
		e.logger.Warn("gate wait aborted",
			logging.String("operation", operation), logging.Err(err))
	}
}

// Stats returns the non-blocking diagnostics snapshot for this pipeline.
func (e *PlaceEnricher) Stats() governor.Stats {
	return e.governor.Stats()
}
