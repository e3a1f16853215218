// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package preprocess turns raw intake profiles into embedding-backed
// ones. A supervised worker drains the pending set on an interval;
// the same operations are exposed for on-demand API calls.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/config"
	"github.com/cohabhq/cohab/internal/metrics"
	"github.com/cohabhq/cohab/internal/models"
)

// Store is the profile persistence surface the worker needs.
// Satisfied by *database.DB.
type Store interface {
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	ListProfilesPendingEmbedding(ctx context.Context) ([]*models.Profile, error)
	CountProfiles(ctx context.Context) (total, eligible int, err error)
	UpdateEmbedding(ctx context.Context, userID int, embedding []float64) error
}

// Embedder produces a vector for a profile text. Satisfied by
// *embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Publisher announces freshly embedded profiles. Satisfied by
// *events.Bus.
type Publisher interface {
	PublishProfileUpdated(ctx context.Context, userID int) error
}

// Service embeds pending profiles. Implements suture.Service.
type Service struct {
	store     Store
	embedder  Embedder
	publisher Publisher
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates the preprocessing worker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.PreprocessConfig, store Store, embedder Embedder, publisher Publisher, logger zerolog.Logger) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{
		store:     store,
		embedder:  embedder,
		publisher: publisher,
		interval:  interval,
		logger:    logger.With().Str("component", "preprocess").Logger(),
	}
}

// Serve implements suture.Service. Runs one catch-up pass immediately
// so restarts do not wait a full interval, then drains the pending set
// on every tick until the context is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Preprocessing worker started")

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Preprocessing worker stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Service) String() string {
	return "preprocess-worker"
}

func (s *Service) runOnce(ctx context.Context) {
	processed, failed, err := s.PreprocessAll(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("Preprocessing pass failed")
		}
		return
	}
	if processed > 0 || failed > 0 {
		s.logger.Info().
			Int("processed", processed).
			Int("failed", failed).
			Msg("Preprocessing pass complete")
	}
}

// PreprocessAll embeds every profile still missing an embedding.
// Per-profile failures are counted and logged, never fatal; the
// returned error covers only the pending-set query and context
// cancellation. Failed profiles stay pending and are retried on the
// next pass.
func (s *Service) PreprocessAll(ctx context.Context) (processed, failed int, err error) {
	metrics.PreprocessRunsTotal.Inc()

	pending, err := s.store.ListProfilesPendingEmbedding(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending profiles: %w", err)
	}
	if len(pending) == 0 {
		metrics.PreprocessPendingProfiles.Set(0)
		return 0, 0, nil
	}

	s.logger.Debug().Int("pending", len(pending)).Msg("Embedding pending profiles")

	for _, p := range pending {
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		if embedErr := s.embedProfile(ctx, p); embedErr != nil {
			failed++
			metrics.PreprocessedProfiles.WithLabelValues("failure").Inc()
			s.logger.Warn().Err(embedErr).Int("user_id", p.ID).Msg("Profile embedding failed")
			continue
		}
		processed++
		metrics.PreprocessedProfiles.WithLabelValues("success").Inc()
	}

	metrics.PreprocessPendingProfiles.Set(float64(len(pending) - processed))
	return processed, failed, err
}

// PreprocessUser embeds a single profile on demand, whether or not it
// was pending. Re-running replaces the stored vector.
func (s *Service) PreprocessUser(ctx context.Context, userID int) error {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.embedProfile(ctx, p); err != nil {
		metrics.PreprocessedProfiles.WithLabelValues("failure").Inc()
		return err
	}
	metrics.PreprocessedProfiles.WithLabelValues("success").Inc()
	return nil
}

// Stats reports embedding coverage across the population.
func (s *Service) Stats(ctx context.Context) (*models.PreprocessStats, error) {
	total, eligible, err := s.store.CountProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	stats := &models.PreprocessStats{
		TotalProfiles: total,
		Embedded:      eligible,
		Pending:       total - eligible,
	}
	metrics.PreprocessPendingProfiles.Set(float64(stats.Pending))
	return stats, nil
}

func (s *Service) embedProfile(ctx context.Context, p *models.Profile) error {
	vector, err := s.embedder.Embed(ctx, profileText(p))
	if err != nil {
		return fmt.Errorf("embed profile %d: %w", p.ID, err)
	}
	if err := s.store.UpdateEmbedding(ctx, p.ID, vector); err != nil {
		return fmt.Errorf("store embedding for profile %d: %w", p.ID, err)
	}
	if err := s.publisher.PublishProfileUpdated(ctx, p.ID); err != nil {
		// The embedding is already persisted; a lost notification only
		// delays cache eviction until the entry's TTL.
		s.logger.Warn().Err(err).Int("user_id", p.ID).Msg("profile.updated publish failed")
	}
	return nil
}

// profileText renders a profile as the pipe-joined text fed to the
// embedding model. Unset fields are omitted rather than rendered as
// "unspecified". The embedding cache keys on this text, so format
// changes silently cold-start the cache.
func profileText(p *models.Profile) string {
	parts := make([]string, 0, 13)

	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	addEnum := func(label, value string) {
		if value != "" && value != "unspecified" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Name", p.Name)
	if p.Age > 0 {
		parts = append(parts, "Age: "+strconv.Itoa(p.Age)+" years old")
	}
	addEnum("Gender", string(p.Gender))
	add("Occupation", p.Occupation)
	addEnum("Sleep schedule", string(p.SleepSchedule))
	addEnum("Cleanliness", string(p.Cleanliness))
	addEnum("Noise tolerance", string(p.NoiseTolerance))
	addEnum("Social preference", string(p.SocialPreference))
	add("Hobbies and interests", normalizeFreeText(p.Hobbies))
	add("Dietary restrictions", p.DietaryRestrictions)
	addEnum("Pet preference", string(p.PetPreference))
	addEnum("Smoking preference", string(p.SmokingPreference))
	add("Budget range", p.BudgetRange)
	add("Location preference", p.LocationPreference)

	if len(parts) == 0 {
		return "No information available"
	}
	return strings.Join(parts, " | ")
}

// normalizeFreeText collapses runs of whitespace. Hobby text arrives
// from free-form input and often carries stray newlines.
func normalizeFreeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
