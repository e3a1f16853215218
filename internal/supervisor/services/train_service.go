// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/match/scorer"
)

// Trainer is the slice of the scoring engine the scheduler needs.
type Trainer interface {
	Train(ctx context.Context) error
}

// TrainSchedulerConfig holds the training schedule.
type TrainSchedulerConfig struct {
	// TrainOnStartup triggers a training run when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often models are retrained. Default: 24h.
	TrainInterval time.Duration
}

// TrainScheduler keeps the compatibility models fresh: an optional
// training run at startup, then retraining on a fixed interval.
// Training failures are logged and retried on the next tick rather
// than crashing the service, since an undersized population is a
// normal state for a young deployment.
type TrainScheduler struct {
	trainer Trainer
	config  TrainSchedulerConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainScheduler creates a train scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainScheduler(trainer Trainer, cfg TrainSchedulerConfig, logger zerolog.Logger) *TrainScheduler {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 24 * time.Hour
	}
	return &TrainScheduler{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "train-scheduler").Logger(),
		name:    "train-scheduler",
	}
}

// Serve implements suture.Service. Runs the training loop until the
// context is cancelled.
func (s *TrainScheduler) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("Train scheduler starting")

	if s.config.TrainOnStartup {
		s.train(ctx)
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Train scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.train(ctx)
		}
	}
}

// train runs one training cycle. Outcomes are logged, never returned:
// a failed run must not crash the scheduler out of its loop.
func (s *TrainScheduler) train(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	err := s.trainer.Train(trainCtx)
	switch {
	case err == nil:
		s.logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled training complete")
	case errors.Is(err, scorer.ErrTrainingDataInsufficient):
		// Normal before enough profiles exist; the next tick retries.
		s.logger.Info().Err(err).Msg("Population below training minimum, skipping this cycle")
	case errors.Is(err, match.ErrTrainingInProgress):
		// An API-triggered run beat us to the lock.
		s.logger.Debug().Msg("Training already in flight, skipping scheduled run")
	case errors.Is(err, context.Canceled):
		s.logger.Debug().Msg("Training cancelled by shutdown")
	default:
		s.logger.Warn().Err(err).Msg("Scheduled training failed")
	}
}

// String identifies the service in supervisor logs.
func (s *TrainScheduler) String() string {
	return s.name
}
