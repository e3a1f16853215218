// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Compatibility scoring latency and throughput
// - Model training runs
// - Allocation runs per strategy
// - Pair-score cache efficiency
// - Embedding client calls and circuit breaker state
// - Database query performance (DuckDB)
// - API endpoint latency and throughput

var (
	// Scoring Metrics
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of pair compatibility scoring in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	ScoringRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of pair scoring requests",
		},
		[]string{"result"}, // "success", "cached", "not_eligible", "not_trained", "error"
	)

	RankingRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_requests_total",
			Help: "Total number of candidate ranking requests",
		},
	)

	// Training Metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of full model training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"result"}, // "success", "insufficient_data", "in_progress", "error"
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	TrainingPopulation = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_population",
			Help: "Number of eligible profiles in the last training run",
		},
	)

	// Allocation Metrics
	AllocationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_runs_total",
			Help: "Total number of allocation runs",
		},
		[]string{"strategy", "result"}, // result: "success", "infeasible", "in_progress", "error"
	)

	AllocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocation_duration_seconds",
			Help:    "Duration of allocation runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	AllocationAssignedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "allocation_assigned_users",
			Help: "Number of users assigned in the last allocation run",
		},
	)

	AllocationOccupancyRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "allocation_occupancy_rate",
			Help: "Room occupancy rate after the last allocation run (percent)",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "pair_score", "embedding"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or invalidation)",
		},
		[]string{"cache_type"},
	)

	// Embedding Client Metrics
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding service requests",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	EmbeddingRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of embedding service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of events handled by subscribers",
		},
		[]string{"topic", "result"}, // result: "success", "error"
	)

	// Preprocess Metrics
	PreprocessRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preprocess_runs_total",
			Help: "Total number of preprocessing batch runs",
		},
	)

	PreprocessedProfiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preprocessed_profiles_total",
			Help: "Total number of profiles processed for embeddings",
		},
		[]string{"result"}, // "success", "failure"
	)

	PreprocessPendingProfiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preprocess_pending_profiles",
			Help: "Number of profiles still waiting for an embedding",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordScore records one pair scoring request and its outcome
func RecordScore(result string, duration time.Duration) {
	ScoringRequestsTotal.WithLabelValues(result).Inc()
	ScoringDuration.Observe(duration.Seconds())
}

// RecordTraining records one training run and its outcome
func RecordTraining(result string, duration time.Duration, population int) {
	TrainingRunsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		TrainingDuration.Observe(duration.Seconds())
		TrainingLastSuccess.Set(float64(time.Now().Unix()))
		TrainingPopulation.Set(float64(population))
	}
}

// RecordAllocation records one allocation run and its outcome
func RecordAllocation(strategy, result string, duration time.Duration, assigned int, occupancyRate float64) {
	AllocationRunsTotal.WithLabelValues(strategy, result).Inc()
	if result == "success" || result == "infeasible" {
		AllocationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
		AllocationAssignedUsers.Set(float64(assigned))
		AllocationOccupancyRate.Set(occupancyRate)
	}
}

// RecordEmbeddingRequest records one embedding service call
func RecordEmbeddingRequest(result string, duration time.Duration) {
	EmbeddingRequestsTotal.WithLabelValues(result).Inc()
	EmbeddingRequestDuration.Observe(duration.Seconds())
}

// SetBreakerState updates the circuit breaker state gauge.
// 0=closed, 1=half-open, 2=open.
func SetBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerTransition records a circuit breaker state change
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
