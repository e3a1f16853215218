// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package config

import "time"

// Config is the root configuration for every Cohab component.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	ModelStore ModelStoreConfig `koanf:"modelstore"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Allocation AllocationConfig `koanf:"allocation"`
	Preprocess PreprocessConfig `koanf:"preprocess"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. The parent directory is
	// created on open.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB's memory use, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 uses the core count.
	Threads int `koanf:"threads"`

	// SeedRooms inserts the baseline room inventory on first open
	// when the rooms table is empty.
	SeedRooms bool `koanf:"seed_rooms"`
}

// ModelStoreConfig holds trained-model persistence settings.
type ModelStoreConfig struct {
	// Path is the badger directory for model snapshots.
	Path string `koanf:"path"`
}

// EmbeddingConfig holds the text-embedding client settings.
type EmbeddingConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Model     string        `koanf:"model"`
	Dimension int           `koanf:"dimension"`
	Timeout   time.Duration `koanf:"timeout"`

	// RatePerSecond and RateBurst bound outbound request rate.
	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`

	// CacheSize is the LRU capacity for text-to-vector results.
	CacheSize int `koanf:"cache_size"`
}

// ScoringConfig holds compatibility model hyperparameters.
type ScoringConfig struct {
	NeighborK int `koanf:"neighbor_k"`

	LatentFactors        int     `koanf:"latent_factors"`
	LatentIterations     int     `koanf:"latent_iterations"`
	LatentRegularization float64 `koanf:"latent_regularization"`
	LatentAlpha          float64 `koanf:"latent_alpha"`

	// MinPopulation is the smallest eligible-user count training
	// accepts.
	MinPopulation int `koanf:"min_population"`

	CacheTTL time.Duration `koanf:"cache_ttl"`

	// TrainInterval schedules periodic retraining; 0 disables the
	// ticker. TrainOnStartup triggers one run after boot.
	TrainInterval  time.Duration `koanf:"train_interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
}

// AllocationConfig tunes the allocation strategies.
type AllocationConfig struct {
	BudgetTolerance float64 `koanf:"budget_tolerance"`

	CompatibilityWeight float64 `koanf:"compatibility_weight"`
	BudgetWeight        float64 `koanf:"budget_weight"`
	LocationWeight      float64 `koanf:"location_weight"`
}

// PreprocessConfig holds the embedding backfill worker settings.
type PreprocessConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval is how often the worker looks for profiles with
	// pending embeddings.
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with every default applied. Defaults
// load first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/cohab.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
			SeedRooms: false,
		},
		ModelStore: ModelStoreConfig{
			Path: "/data/models",
		},
		Embedding: EmbeddingConfig{
			BaseURL:       "http://127.0.0.1:11434",
			Model:         "nomic-embed-text",
			Dimension:     384,
			Timeout:       60 * time.Second,
			RatePerSecond: 10,
			RateBurst:     5,
			CacheSize:     1024,
		},
		Scoring: ScoringConfig{
			NeighborK:            5,
			LatentFactors:        16,
			LatentIterations:     15,
			LatentRegularization: 0.05,
			LatentAlpha:          40.0,
			MinPopulation:        10,
			CacheTTL:             15 * time.Minute,
			TrainInterval:        24 * time.Hour,
			TrainOnStartup:       false,
		},
		Allocation: AllocationConfig{
			BudgetTolerance:     0.10,
			CompatibilityWeight: 0.5,
			BudgetWeight:        0.3,
			LocationWeight:      0.2,
		},
		Preprocess: PreprocessConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Default returns the built-in defaults without consulting a file or
// the environment. Useful for tests and tooling.
func Default() *Config {
	return defaultConfig()
}
