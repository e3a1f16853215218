// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

/*
Package config provides centralized configuration management for Cohab.

Configuration loads in three layers with later layers overriding
earlier ones:

 1. Built-in defaults
 2. An optional YAML config file (path from COHAB_CONFIG or the
    well-known locations in DefaultConfigPaths)
 3. Environment variables, via an explicit variable-to-key mapping

The package organizes configuration into logical sections:

  - ServerConfig: HTTP listener, timeouts, CORS, rate limits
  - DatabaseConfig: DuckDB storage
  - ModelStoreConfig: trained-model blob storage
  - EmbeddingConfig: text-embedding service client
  - ScoringConfig: compatibility model hyperparameters and cache
  - AllocationConfig: allocation strategy tuning
  - PreprocessConfig: embedding backfill worker
  - LoggingConfig: log level and format

Load validates the merged result; a process should refuse to start on
a validation error rather than run half-configured.
*/
package config
