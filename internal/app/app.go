// Package app wires the store, governors, enrichers, and pool manager
// together and runs the diagnostics server.
package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"places-enricher/internal/common/logging"
	"places-enricher/internal/config"
	"places-enricher/internal/enricher"
	"places-enricher/internal/governor"
	"places-enricher/internal/places"
	"places-enricher/internal/pool"
	"places-enricher/internal/store"
)

// App holds all the application dependencies.
type App struct {
	Config        *config.Config
	Store         store.Store
	PlaceEnricher *enricher.PlaceEnricher
	HoursEnricher *enricher.HoursEnricher
	Pools         *pool.Manager
	Logger        logging.Logger

	cron *cron.Cron
}

// New creates an application instance with all dependencies initialized.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	if err := app.initializeStore(); err != nil {
		return nil, err
	}

	if err := app.initializeEnrichers(); err != nil {
		app.Store.Close()
		return nil, err
	}

	app.Pools = pool.NewManager(app.Store, cfg.PoolTTLDays)
	app.initializeMaintenance()

	return app, nil
}

func (app *App) initializeStore() error {
	st, err := store.New(store.Config{
		Type:          store.Type(app.Config.StoreType),
		Path:          app.Config.StorePath,
		RedisAddress:  app.Config.RedisAddress,
		RedisPassword: app.Config.RedisPassword,
		RedisDB:       app.Config.RedisDB,
		RedisPoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		return err
	}
	app.Store = st
	app.Logger.Info("store initialized", logging.String("type", app.Config.StoreType))
	return nil
}

func (app *App) initializeEnrichers() error {
	client, err := places.NewHTTPClient(places.Config{
		BaseURL: app.Config.PlacesAPIBaseURL,
		APIKey:  app.Config.PlacesAPIKey,
		Timeout: app.Config.LookupTimeout,
	})
	if err != nil {
		return err
	}

	bias := places.GeoBias{
		Lat:          app.Config.BiasLat,
		Lng:          app.Config.BiasLng,
		RadiusMeters: app.Config.BiasRadiusMeters,
	}

	placeGov := governor.New(governor.Config{
		Pipeline:     "place",
		MaxCalls:     app.Config.PlaceMaxCalls,
		Spacing:      app.Config.CallSpacing,
		CooldownDays: app.Config.CooldownDays,
	}, app.Store)

	hoursGov := governor.New(governor.Config{
		Pipeline:     "hours",
		MaxCalls:     app.Config.HoursMaxCalls,
		Spacing:      app.Config.CallSpacing,
		CooldownDays: app.Config.CooldownDays,
	}, app.Store)

	app.PlaceEnricher = enricher.NewPlaceEnricher(app.Store, client, placeGov, bias)
	app.HoursEnricher = enricher.NewHoursEnricher(app.Store, client, hoursGov)
	return nil
}

func (app *App) initializeMaintenance() {
	app.cron = cron.New()
	_, err := app.cron.AddFunc(app.Config.MaintenanceSchedule, func() {
		app.Pools.SweepStale(context.Background())
	})
	if err != nil {
		app.Logger.Warn("invalid maintenance schedule, sweep disabled",
			logging.String("schedule", app.Config.MaintenanceSchedule),
			logging.Err(err))
		app.cron = nil
		return
	}
	app.cron.Start()
	app.Logger.Info("maintenance sweep scheduled",
		logging.String("schedule", app.Config.MaintenanceSchedule))
}

// Shutdown stops background work. The HTTP server is shut down separately.
func (app *App) Shutdown(ctx context.Context) error {
	if app.cron != nil {
		stopped := app.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
			app.Logger.Warn("maintenance sweep did not stop before deadline")
		}
	}
	return nil
}

// Cleanup releases all resources.
func (app *App) Cleanup() {
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn("error closing store", logging.Err(err))
		}
	}
}
