// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	beepengine "github.com/tonearm-player/tonearm/internal/adapter/audio/beep"
	"github.com/tonearm-player/tonearm/internal/adapter/audio/mock"
	"github.com/tonearm-player/tonearm/internal/adapter/catalog/memory"
	"github.com/tonearm-player/tonearm/internal/adapter/eventbus"
	"github.com/tonearm-player/tonearm/internal/adapter/scanner"
	"github.com/tonearm-player/tonearm/internal/adapter/storage/sqlite"
	"github.com/tonearm-player/tonearm/internal/config"
	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/logger"
	"github.com/tonearm-player/tonearm/internal/ports"
	"github.com/tonearm-player/tonearm/internal/scheduler"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger *slog.Logger
	cfg    *config.Config

	// Infrastructure
	eventBus ports.EventBus
	engine   ports.AudioEngine
	store    ports.PlayCountStore

	// Library
	catalog *memory.Catalog
	scanner *scanner.Scanner

	// Core
	scheduler *scheduler.Scheduler

	// Event wiring
	playCountSub domain.SubscriptionID
	trackSub     domain.SubscriptionID
	librarySub   domain.SubscriptionID
}

// New creates a new application with all dependencies wired.
// This is the main dependency injection function.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{cfg: cfg}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().Version),
		slog.String("engine", cfg.Audio.Engine))

	// Step 2: Create the event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create the audio engine
	var prober ports.MetadataProber
	switch cfg.Audio.Engine {
	case "mock":
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.engine = engine
		prober = engine
	default:
		engine := beepengine.New(app.logger.With(slog.String("engine", "beep")), cfg.Audio.SampleRate)
		app.engine = engine
		prober = engine
	}

	// Step 4: Open the statistics store
	store, err := sqlite.Open(app.logger.With(slog.String("component", "store")), cfg.Storage.Path)
	if err != nil {
		_ = app.engine.Close()
		return nil, fmt.Errorf("open statistics store: %w", err)
	}
	app.store = store

	// Step 5: Create the catalog
	app.catalog = memory.New(app.logger.With(slog.String("component", "catalog")))

	// Step 6: Create the scanner
	app.scanner = scanner.New(
		app.logger.With(slog.String("component", "scanner")),
		app.catalog,
		prober,
		app.eventBus,
		cfg.Library.Roots,
	)

	// Step 7: Create the scheduler and wire the engine callbacks
	app.scheduler = scheduler.New(
		app.logger.With(slog.String("component", "scheduler")),
		app.catalog,
		app.engine,
		app.store,
		app.eventBus,
	)
	app.engine.SetEvents(app.scheduler)

	if err := app.scheduler.SetVolume(cfg.Playback.Volume); err != nil {
		app.logger.Warn("cannot apply startup volume", slog.Any("error", err))
	}

	// Step 8: Keep the in-memory catalog consistent with listening events
	app.playCountSub = app.eventBus.Subscribe(domain.EventPlayCounted, func(event domain.Event) {
		if e, ok := event.(domain.PlayCountedEvent); ok {
			app.catalog.BumpPlayCount(e.Track.ID)
		}
	})
	app.trackSub = app.eventBus.Subscribe(domain.EventTrackChanged, func(event domain.Event) {
		if e, ok := event.(domain.TrackChangedEvent); ok {
			app.catalog.SetLastPlayed(e.Track.ID, e.Timestamp())
		}
	})

	// Persisted play counts overlay the track set once each scan has put it
	// in place; seeding before the first scan would find nothing to seed.
	app.librarySub = app.eventBus.Subscribe(domain.EventLibraryUpdated, func(domain.Event) {
		counts, err := store.PlayCounts()
		if err != nil {
			app.logger.Warn("cannot load persisted play counts", slog.Any("error", err))
			return
		}
		app.catalog.SeedPlayCounts(counts)
	})

	return app, nil
}

// Scheduler exposes the playback scheduling engine.
func (a *Application) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

// Catalog exposes the library catalog.
func (a *Application) Catalog() *memory.Catalog {
	return a.catalog
}

// Scanner exposes the library scanner.
func (a *Application) Scanner() *scanner.Scanner {
	return a.scanner
}

// EventBus exposes the event bus for display surfaces.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Run performs the initial library scan, starts the library watcher when
// enabled, and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("Tonearm started")

	if len(a.cfg.Library.Roots) > 0 {
		go func() {
			if _, err := a.scanner.Scan(ctx); err != nil && !errors.Is(err, domain.ErrScanCancelled) {
				a.logger.Warn("initial library scan failed", slog.Any("error", err))
			}
		}()

		if a.cfg.Library.WatchEnabled() {
			go func() {
				if err := a.scanner.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Warn("library watcher stopped", slog.Any("error", err))
				}
			}()
		}
	} else {
		a.logger.Warn("no library roots configured")
	}

	<-ctx.Done()
	return nil
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	a.scanner.CancelScan()

	if a.eventBus != nil {
		a.eventBus.Unsubscribe(a.playCountSub)
		a.eventBus.Unsubscribe(a.trackSub)
		a.eventBus.Unsubscribe(a.librarySub)
	}

	// Scheduler flushes by clearing playback before the engine goes away.
	if a.scheduler != nil {
		a.scheduler.Clear()
	}

	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn("failed to close audio engine", slog.Any("error", err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close statistics store", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}
