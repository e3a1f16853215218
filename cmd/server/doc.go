// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

/*
Package main is the entry point for the Cohab server.

Cohab scores roommate compatibility from questionnaire profiles and
allocates users to rooms under capacity, budget, and location
constraints. Three trained sub-models (nearest-neighbor similarity,
latent co-living factors, and a logistic blend) produce every pair
score, and four allocation strategies turn scores into assignments.

# Application Architecture

The server runs a layered Suture v4 supervision tree:

	RootSupervisor ("cohab")
	├── CoreSupervisor ("core-layer")
	│   ├── Event Router (pair-score cache invalidation)
	│   ├── Preprocess Worker (embedding backfill, optional)
	│   └── Train Scheduler (periodic model retraining)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router, REST API)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB for profiles, rooms, assignments, and pair scores
 4. Model Store: BadgerDB snapshots of trained model generations
 5. Match Engine: sub-score models restored from the last snapshot
 6. Event Bus: Watermill in-process pub/sub wiring engine callbacks
 7. Allocation Engine: strategy runner over the shared database
 8. Embedding Client: circuit-broken, rate-limited HTTP client
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

  - Environment variables (COHAB_ prefix, e.g. COHAB_HTTP_PORT)
  - Config file (config.yaml, or the path in COHAB_CONFIG)
  - Built-in defaults

Frequently tuned settings:

  - COHAB_DUCKDB_PATH: DuckDB file location
  - COHAB_MODEL_STORE_PATH: BadgerDB directory for model snapshots
  - COHAB_EMBEDDING_BASE_URL: embedding service endpoint
  - COHAB_TRAIN_ON_STARTUP: train once after boot
  - COHAB_TRAIN_INTERVAL: periodic retraining cadence
  - COHAB_SEED_ROOMS: insert the baseline room inventory

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

  - Stops accepting new connections
  - Waits for in-flight requests to complete
  - Drains the event router and training loop
  - Closes the model store and database

# Example Usage

Development with local embedding service:

	export COHAB_DUCKDB_PATH=./data/cohab.duckdb
	export COHAB_MODEL_STORE_PATH=./data/models
	export COHAB_EMBEDDING_BASE_URL=http://localhost:11434
	export COHAB_LOG_FORMAT=console
	./cohab

Production with scheduled retraining:

	export COHAB_TRAIN_ON_STARTUP=true
	export COHAB_TRAIN_INTERVAL=24h
	export COHAB_CORS_ORIGINS=https://app.example.com
	./cohab
*/
package main
