// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cohabhq/cohab/internal/allocation"
	"github.com/cohabhq/cohab/internal/api"
	"github.com/cohabhq/cohab/internal/config"
	"github.com/cohabhq/cohab/internal/database"
	"github.com/cohabhq/cohab/internal/embedding"
	"github.com/cohabhq/cohab/internal/events"
	"github.com/cohabhq/cohab/internal/logging"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/modelstore"
	"github.com/cohabhq/cohab/internal/preprocess"
	"github.com/cohabhq/cohab/internal/supervisor"
	"github.com/cohabhq/cohab/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Cohab with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_store_path", cfg.ModelStore.Path).
		Str("embedding_url", cfg.Embedding.BaseURL).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Seed the baseline room inventory if enabled (first boot, demos, CI)
	if cfg.Database.SeedRooms {
		if err := db.SeedRooms(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed room inventory")
		}
		logging.Info().Msg("Room inventory seeded")
	}

	store, err := modelstore.Open(&cfg.ModelStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open model store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()
	logging.Info().Str("path", cfg.ModelStore.Path).Msg("Model store opened")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.Logger()

	// Match engine: three trained sub-models behind one scoring surface.
	// The database supplies both profiles and co-living history.
	engine := match.NewEngine(matchConfig(cfg), logger)
	engine.SetProviders(db, db)
	engine.SetModelStore(store)
	defer engine.Stop()

	// Restore the last trained generation so scoring survives restarts.
	// A fresh deployment has no snapshot yet; that is not an error.
	if err := engine.LoadModels(ctx); err != nil {
		if errors.Is(err, modelstore.ErrModelBlobNotFound) {
			logging.Info().Msg("No model snapshot found, engine starts untrained")
		} else {
			logging.Warn().Err(err).Msg("Failed to restore model snapshot, engine starts untrained")
		}
	} else {
		status := engine.Status()
		logging.Info().
			Int("model_version", status.ModelVersion).
			Int("population", status.PopulationSize).
			Msg("Model snapshot restored")
	}

	// Event bus wires the engines together: profile edits and training
	// runs invalidate cached pair scores through the router.
	bus := events.NewBus(logger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	eventsService, err := events.NewService(bus, engine, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event router")
	}

	engine.SetOnTrained(func() {
		status := engine.Status()
		if err := bus.PublishModelsTrained(context.Background(), status.ModelVersion, status.PopulationSize); err != nil {
			logging.Warn().Err(err).Msg("Failed to publish models.trained event")
		}
	})

	allocator := allocation.NewEngine(allocation.Config{
		BudgetTolerance:     cfg.Allocation.BudgetTolerance,
		CompatibilityWeight: cfg.Allocation.CompatibilityWeight,
		BudgetWeight:        cfg.Allocation.BudgetWeight,
		LocationWeight:      cfg.Allocation.LocationWeight,
	}, logger, db, engine)

	allocator.SetOnAllocated(func(result *allocation.Result) {
		userIDs := make([]int, 0, len(result.Assignments))
		for _, a := range result.Assignments {
			userIDs = append(userIDs, a.UserID)
		}
		if err := bus.PublishAssignmentsCommitted(context.Background(), string(result.Strategy), userIDs); err != nil {
			logging.Warn().Err(err).Msg("Failed to publish assignments.committed event")
		}
	})

	embedder := embedding.NewClient(&cfg.Embedding)
	preprocessor := preprocess.New(&cfg.Preprocess, db, embedder, bus, logger)

	handler := api.NewHandler(db, engine, allocator, preprocessor)
	middleware := api.NewChiMiddlewareFromConfig(&cfg.Server)
	router := api.NewRouter(handler, middleware)

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (COHAB_DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for load tests and CI!")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Core layer services
	tree.AddCoreService(eventsService)
	logging.Info().Msg("Event router added to supervisor tree")

	if cfg.Preprocess.Enabled {
		tree.AddCoreService(preprocessor)
		logging.Info().
			Dur("interval", cfg.Preprocess.Interval).
			Msg("Preprocess worker added to supervisor tree")
	} else {
		logging.Info().Msg("Preprocess worker disabled (COHAB_PREPROCESS_ENABLED=false)")
	}

	tree.AddCoreService(services.NewTrainScheduler(engine, services.TrainSchedulerConfig{
		TrainOnStartup: cfg.Scoring.TrainOnStartup,
		TrainInterval:  cfg.Scoring.TrainInterval,
	}, logger))
	logging.Info().
		Bool("train_on_startup", cfg.Scoring.TrainOnStartup).
		Dur("train_interval", cfg.Scoring.TrainInterval).
		Msg("Train scheduler added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// matchConfig maps application settings onto the match engine tuning.
// The blend model keeps its package defaults; its hyperparameters are
// not operator-facing.
func matchConfig(cfg *config.Config) match.Config {
	return match.Config{
		Neighbor: scorer.NeighborConfig{
			K:             cfg.Scoring.NeighborK,
			MinPopulation: cfg.Scoring.MinPopulation,
		},
		Latent: scorer.LatentConfig{
			NumFactors:     cfg.Scoring.LatentFactors,
			NumIterations:  cfg.Scoring.LatentIterations,
			Regularization: cfg.Scoring.LatentRegularization,
			Alpha:          cfg.Scoring.LatentAlpha,
			MinPopulation:  cfg.Scoring.MinPopulation,
		},
		Blend:         scorer.DefaultBlendConfig(),
		MinPopulation: cfg.Scoring.MinPopulation,
		EmbeddingDim:  cfg.Embedding.Dimension,
		CacheTTL:      cfg.Scoring.CacheTTL,
	}
}
