// Package handlers exposes the diagnostics HTTP API. Every endpoint reads or
// mutates cache state; none of them trigger live lookups except the explicit
// enrich endpoints, which go through the same governed path as any other
// caller.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"places-enricher/internal/cache"
	"places-enricher/internal/config"
	"places-enricher/internal/enricher"
	"places-enricher/internal/latenight"
	"places-enricher/internal/pool"
	"places-enricher/internal/store"
)

type Handlers struct {
	store         store.Store
	config        *config.Config
	placeEnricher *enricher.PlaceEnricher
	hoursEnricher *enricher.HoursEnricher
	pools         *pool.Manager
}

func New(st store.Store, cfg *config.Config, place *enricher.PlaceEnricher, hours *enricher.HoursEnricher, pools *pool.Manager) *Handlers {
	return &Handlers{
		store:         st,
		config:        cfg,
		placeEnricher: place,
		hoursEnricher: hours,
		pools:         pools,
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

// HealthCheck reports process and store health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	}

	code := http.StatusOK
	if err := h.store.Health(); err != nil {
		status["status"] = "degraded"
		status["store_status"] = "unhealthy"
		status["store_error"] = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		status["store_status"] = "healthy"
	}

	h.respondJSON(w, code, status)
}

// GetStats returns budget and cooldown state for both governed pipelines.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"place": h.placeEnricher.Stats(),
		"hours": h.hoursEnricher.Stats(),
	})
}

// GetPool returns the current batch for a (region, category) tile without
// advancing the rotation cursor.
func (h *Handlers) GetPool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	region, category := vars["region"], vars["category"]

	places := h.pools.CurrentBatch(r.Context(), region, category, pool.DefaultBatchSize)
	if places == nil {
		h.respondError(w, http.StatusNotFound, "no pool or seed data for this region and category")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"region":   region,
		"category": category,
		"places":   places,
	})
}

// RotatePool advances the rotation cursor and returns the next batch.
func (h *Handlers) RotatePool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	region, category := vars["region"], vars["category"]

	places := h.pools.NextBatch(r.Context(), region, category, pool.DefaultBatchSize)
	if places == nil {
		h.respondError(w, http.StatusNotFound, "no pool or seed data for this region and category")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"region":   region,
		"category": category,
		"places":   places,
	})
}

type enrichRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	KnownID string `json:"known_id,omitempty"`
}

// EnrichPlace runs one place through the governed enrichment path. A null
// result is a normal outcome when the budget is spent or the pipeline is
// cooling down.
func (h *Handlers) EnrichPlace(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" && req.KnownID == "" {
		h.respondError(w, http.StatusBadRequest, "name or known_id is required")
		return
	}

	record := h.placeEnricher.Enrich(r.Context(), req.Name, req.City, req.KnownID)
	body := map[string]interface{}{
		"place": record,
		"stats": h.placeEnricher.Stats(),
	}
	if record != nil {
		body["fresh"] = cache.IsFresh(record.UpdatedAt, h.config.EnrichmentTTLDays)
	}
	h.respondJSON(w, http.StatusOK, body)
}

// EnrichHours fetches opening hours for a resolved place and reports the
// late-night evaluation alongside them.
func (h *Handlers) EnrichHours(w http.ResponseWriter, r *http.Request) {
	resolvedID := mux.Vars(r)["id"]
	if resolvedID == "" {
		h.respondError(w, http.StatusBadRequest, "resolved place id is required")
		return
	}

	hours := h.hoursEnricher.EnrichHours(r.Context(), resolvedID)
	body := map[string]interface{}{
		"hours": hours,
		"stats": h.hoursEnricher.Stats(),
	}
	if hours != nil {
		body["late_night"] = latenight.IsLateNight(hours)
		body["open_now"] = latenight.IsOpenAt(hours, time.Now())
		body["fresh"] = cache.IsFresh(hours.UpdatedAt, h.config.EnrichmentTTLDays)
	}
	h.respondJSON(w, http.StatusOK, body)
}

// ListSeedCategories returns the categories with bundled seed data.
func (h *Handlers) ListSeedCategories(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": pool.SeedCategories(),
	})
}
