// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the merged configuration is usable. The process
// should refuse to start on error.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateAllocation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be at least 1, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.ModelStore.Path == "" {
		return fmt.Errorf("modelstore.path is required")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if !strings.HasPrefix(c.Embedding.BaseURL, "http://") && !strings.HasPrefix(c.Embedding.BaseURL, "https://") {
		return fmt.Errorf("embedding.base_url must start with http:// or https://, got %q", c.Embedding.BaseURL)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimension < 1 {
		return fmt.Errorf("embedding.dimension must be at least 1, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding.timeout must be positive, got %s", c.Embedding.Timeout)
	}
	if c.Embedding.RatePerSecond <= 0 {
		return fmt.Errorf("embedding.rate_per_second must be positive, got %v", c.Embedding.RatePerSecond)
	}
	if c.Embedding.RateBurst < 1 {
		return fmt.Errorf("embedding.rate_burst must be at least 1, got %d", c.Embedding.RateBurst)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("embedding.cache_size must not be negative, got %d", c.Embedding.CacheSize)
	}
	return nil
}

func (c *Config) validateScoring() error {
	if c.Scoring.NeighborK < 1 {
		return fmt.Errorf("scoring.neighbor_k must be at least 1, got %d", c.Scoring.NeighborK)
	}
	if c.Scoring.LatentFactors < 1 {
		return fmt.Errorf("scoring.latent_factors must be at least 1, got %d", c.Scoring.LatentFactors)
	}
	if c.Scoring.LatentIterations < 1 {
		return fmt.Errorf("scoring.latent_iterations must be at least 1, got %d", c.Scoring.LatentIterations)
	}
	if c.Scoring.LatentRegularization < 0 {
		return fmt.Errorf("scoring.latent_regularization must not be negative, got %v", c.Scoring.LatentRegularization)
	}
	if c.Scoring.MinPopulation < 2 {
		return fmt.Errorf("scoring.min_population must be at least 2, got %d", c.Scoring.MinPopulation)
	}
	if c.Scoring.CacheTTL <= 0 {
		return fmt.Errorf("scoring.cache_ttl must be positive, got %s", c.Scoring.CacheTTL)
	}
	if c.Scoring.TrainInterval < 0 {
		return fmt.Errorf("scoring.train_interval must not be negative, got %s", c.Scoring.TrainInterval)
	}
	return nil
}

func (c *Config) validateAllocation() error {
	if c.Allocation.BudgetTolerance < 0 {
		return fmt.Errorf("allocation.budget_tolerance must not be negative, got %v", c.Allocation.BudgetTolerance)
	}
	weights := []struct {
		name  string
		value float64
	}{
		{"allocation.compatibility_weight", c.Allocation.CompatibilityWeight},
		{"allocation.budget_weight", c.Allocation.BudgetWeight},
		{"allocation.location_weight", c.Allocation.LocationWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must not be negative, got %v", w.name, w.value)
		}
		sum += w.value
	}
	if sum <= 0 {
		return fmt.Errorf("allocation weights must sum to a positive value, got %v", sum)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
