package app

import (
	"github.com/gorilla/mux"

	"places-enricher/internal/handlers"
	"places-enricher/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the diagnostics API.
func SetupRoutes(router *mux.Router, h *handlers.Handlers) {
	router.Use(middleware.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Budget and cooldown state
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	// Pool inspection and rotation
	api.HandleFunc("/pools/seeds", h.ListSeedCategories).Methods("GET")
	api.HandleFunc("/pools/{region}/{category}", h.GetPool).Methods("GET")
	api.HandleFunc("/pools/{region}/{category}/rotate", h.RotatePool).Methods("POST")

	// Governed enrichment
	api.HandleFunc("/enrich", h.EnrichPlace).Methods("POST")
	api.HandleFunc("/hours/{id}", h.EnrichHours).Methods("POST")
}
