// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

import (
	"time"

	"github.com/cohabhq/cohab/internal/feature"
	"github.com/cohabhq/cohab/internal/match/scorer"
)

// Config holds the engine's tuning knobs. Zero values fall back to the
// documented defaults so an empty Config is usable.
type Config struct {
	Neighbor scorer.NeighborConfig `json:"neighbor"`
	Latent   scorer.LatentConfig   `json:"latent"`
	Blend    scorer.BlendConfig    `json:"blend"`

	// MinPopulation gates training: fewer eligible profiles fail with
	// ErrTrainingDataInsufficient.
	MinPopulation int `json:"min_population"`

	// EmbeddingDim is the width of the embedding block in encoded
	// feature vectors.
	EmbeddingDim int `json:"embedding_dim"`

	// CacheTTL bounds how long a pair score may serve from cache.
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Neighbor:      scorer.DefaultNeighborConfig(),
		Latent:        scorer.DefaultLatentConfig(),
		Blend:         scorer.DefaultBlendConfig(),
		MinPopulation: scorer.MinPopulation,
		EmbeddingDim:  feature.DefaultEmbeddingDim,
		CacheTTL:      15 * time.Minute,
	}
}

// withDefaults fills unset fields. Sub-model configs handle their own
// zero values at construction.
func (c Config) withDefaults() Config {
	if c.MinPopulation <= 0 {
		c.MinPopulation = scorer.MinPopulation
	}
	if c.EmbeddingDim <= 0 {
		c.EmbeddingDim = feature.DefaultEmbeddingDim
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	return c
}

// PairScore is the full scoring result for one pair: the three sub-scores,
// the blended final score, and the evidence behind them.
type PairScore struct {
	UserA int `json:"user_a"`
	UserB int `json:"user_b"`

	NeighborScore  float64 `json:"neighbor_score"`
	LatentScore    float64 `json:"latent_score"`
	AgreementScore float64 `json:"agreement_score"`
	FinalScore     float64 `json:"final_score"`

	// LowConfidence marks pairs where at least one user was unseen at
	// training time, so neutral priors stand in for learned scores.
	LowConfidence bool `json:"low_confidence"`

	// Cached reports whether this result was served from the pair cache.
	Cached bool `json:"cached"`

	Explanation Explanation `json:"explanation"`
}

// RankResult is an ordered candidate ranking for one user. Scores are
// best-first; Skipped lists candidates excluded because their profile is
// missing or not yet eligible.
type RankResult struct {
	UserID  int         `json:"user_id"`
	Scores  []PairScore `json:"scores"`
	Skipped []int       `json:"skipped,omitempty"`
}

// Status reports the engine's model lifecycle.
type Status struct {
	State          string    `json:"state"`
	ModelVersion   int       `json:"model_version"`
	TrainedAt      time.Time `json:"trained_at"`
	PopulationSize int       `json:"population_size"`
	BlendTrained   bool      `json:"blend_trained"`
	MinimumUsers   int       `json:"minimum_users"`
}

// EngineMetrics are the engine's cumulative counters.
type EngineMetrics struct {
	ScoreRequests int64 `json:"score_requests"`
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	TrainRuns     int64 `json:"train_runs"`
}
