package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"places-enricher/internal/handlers"
	"places-enricher/internal/server"
)

// RunServer builds the HTTP server with all handlers configured.
func (app *App) RunServer() (*server.Server, http.Handler) {
	h := handlers.New(app.Store, app.Config, app.PlaceEnricher, app.HoursEnricher, app.Pools)

	router := mux.NewRouter()
	SetupRoutes(router, h)

	srv := server.New(router, app.Config.Port)
	return srv, router
}
