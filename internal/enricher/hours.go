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

// HoursEnricher is the independent orchestrator for opening-hours lookups.
// It costs one call per enrichment and has its own (smaller) budget and its
// own cooldown flag, with the same gate semantics as the place pipeline.
type HoursEnricher struct {
	cache    *cache.TypedCache[models.OpeningHours]
	client   places.Client
	governor *governor.Governor
	flight   singleflight.Group
	logger   logging.Logger
	now      func() time.Time
}

// NewHoursEnricher wires the hours pipeline.
func NewHoursEnricher(st store.Store, client places.Client, gov *governor.Governor) *HoursEnricher {
	return &HoursEnricher{
		cache:    cache.New[models.OpeningHours](st, models.HoursKeyPrefix),
		client:   client,
		governor: gov,
		logger:   logging.GetGlobalLogger().WithFields(logging.String("enricher", "hours")),
		now:      time.Now,
	}
}

// EnrichHours returns structured weekly hours for a resolved place, from
// cache when available (fresh or stale) and via one budget-gated call
// otherwise. Nil means no hours are available this session.
func (e *HoursEnricher) EnrichHours(ctx context.Context, resolvedID string) *models.OpeningHours {
	if resolvedID == "" {
		return nil
	}

	if record := e.cache.Get(ctx, resolvedID); record != nil {
		return record
	}

	v, _, _ := e.flight.Do(resolvedID, func() (interface{}, error) {
		return e.fetchOnce(ctx, resolvedID), nil
	})

	record, _ := v.(*models.OpeningHours)
	return record
}

func (e *HoursEnricher) fetchOnce(ctx context.Context, resolvedID string) *models.OpeningHours {
	if record := e.cache.Get(ctx, resolvedID); record != nil {
		return record
	}

	if err := e.governor.Acquire(ctx); err != nil {
		switch err {
		case governor.ErrBudgetExhausted, governor.ErrCooldownActive:
			e.logger.Debug("hours call refused by governor",
				logging.String("reason", err.Error()))
		default:
			e.logger.Warn("hours gate wait aborted", logging.Err(err))
		}
		return nil
	}

	details, err := e.client.FetchHours(ctx, resolvedID)
	if err != nil {
		if apperrors.IsQuota(err) {
			e.governor.SetCooldown("quota_exhausted")
		} else {
			e.logger.Warn("hours fetch failed",
				logging.String("id", resolvedID), logging.Err(err))
		}
		return nil
	}

	record := &models.OpeningHours{
		ResolvedID:  resolvedID,
		Periods:     details.Periods,
		WeekdayText: details.WeekdayText,
		OpenNow:     details.OpenNow,
		UpdatedAt:   e.now(),
	}

	if err := e.cache.Set(ctx, resolvedID, record); err != nil {
		e.logger.Warn("failed to persist hours",
			logging.String("id", resolvedID), logging.Err(err))
	}
	return record
}

// Stats returns the non-blocking diagnostics snapshot for this pipeline.
func (e *HoursEnricher) Stats() governor.Stats {
	return e.governor.Stats()
}
