// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cohab/config.yaml",
	"/etc/cohab/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "COHAB_CONFIG"

// Load builds the configuration from three layers: struct defaults,
// then an optional YAML file, then environment variables. The merged
// result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// COHAB_LOG_LEVEL -> logging.level, COHAB_HTTP_PORT -> server.port
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive from the environment as plain strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped, so stray environment
// noise cannot pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"cohab_http_host":           "server.host",
		"cohab_http_port":           "server.port",
		"cohab_http_timeout":        "server.timeout",
		"cohab_shutdown_timeout":    "server.shutdown_timeout",
		"cohab_cors_origins":        "server.cors_origins",
		"cohab_rate_limit_requests": "server.rate_limit_reqs",
		"cohab_rate_limit_window":   "server.rate_limit_window",
		"cohab_disable_rate_limit":  "server.rate_limit_disabled",

		// Database
		"cohab_duckdb_path":       "database.path",
		"cohab_duckdb_max_memory": "database.max_memory",
		"cohab_duckdb_threads":    "database.threads",
		"cohab_seed_rooms":        "database.seed_rooms",

		// Model store
		"cohab_model_store_path": "modelstore.path",

		// Embedding client
		"cohab_embedding_base_url":   "embedding.base_url",
		"cohab_embedding_model":      "embedding.model",
		"cohab_embedding_dimension":  "embedding.dimension",
		"cohab_embedding_timeout":    "embedding.timeout",
		"cohab_embedding_rate":       "embedding.rate_per_second",
		"cohab_embedding_rate_burst": "embedding.rate_burst",
		"cohab_embedding_cache_size": "embedding.cache_size",

		// Scoring
		"cohab_neighbor_k":            "scoring.neighbor_k",
		"cohab_latent_factors":        "scoring.latent_factors",
		"cohab_latent_iterations":     "scoring.latent_iterations",
		"cohab_latent_regularization": "scoring.latent_regularization",
		"cohab_latent_alpha":          "scoring.latent_alpha",
		"cohab_min_population":        "scoring.min_population",
		"cohab_score_cache_ttl":       "scoring.cache_ttl",
		"cohab_train_interval":        "scoring.train_interval",
		"cohab_train_on_startup":      "scoring.train_on_startup",

		// Allocation
		"cohab_budget_tolerance":     "allocation.budget_tolerance",
		"cohab_compatibility_weight": "allocation.compatibility_weight",
		"cohab_budget_weight":        "allocation.budget_weight",
		"cohab_location_weight":      "allocation.location_weight",

		// Preprocess worker
		"cohab_preprocess_enabled":  "preprocess.enabled",
		"cohab_preprocess_interval": "preprocess.interval",

		// Logging
		"cohab_log_level":  "logging.level",
		"cohab_log_format": "logging.format",
		"cohab_log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile invokes callback whenever the file changes. The
// caller handles reload and locking.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
