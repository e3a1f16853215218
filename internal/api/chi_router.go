// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP routing tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a new router. A nil middleware factory falls back to
// the secure defaults.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Unmatched routes and wrong methods still answer in the API envelope.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring tools can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Preprocessing Endpoints
	// ========================
	// Batch runs hit the embedding endpoint for every pending profile, so
	// they share the strict run limiter.
	r.Route("/api/v1/preprocess", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.With(router.chiMiddleware.RateLimitRuns()).Post("/", router.handler.PreprocessBatch)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/user/{userID}", router.handler.PreprocessUser)
		r.Get("/stats", router.handler.PreprocessStats)
	})

	// ========================
	// Model Lifecycle Endpoints
	// ========================
	r.Route("/api/v1/models", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.With(router.chiMiddleware.RateLimitRuns()).Post("/train", router.handler.ModelsTrain)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/load", router.handler.ModelsLoad)
		r.Get("/status", router.handler.ModelsStatus)
		r.Get("/requirements", router.handler.ModelsRequirements)
	})

	// ========================
	// Scoring Endpoints
	// ========================
	r.Route("/api/v1/compatibility", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.Get("/{userA}/{userB}", router.handler.CompatibilityPair)
	})

	r.Route("/api/v1/match", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.Get("/user/{userID}", router.handler.MatchUser)
	})

	// ========================
	// Allocation Endpoints
	// ========================
	r.Route("/api/v1/allocations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.With(router.chiMiddleware.RateLimitRuns()).Post("/", router.handler.AllocationsRun)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/user/{userID}", router.handler.AllocationsUser)
		r.With(router.chiMiddleware.RateLimitWrite()).Delete("/user/{userID}", router.handler.AllocationsRemove)
		r.Get("/status", router.handler.AllocationsStatus)
	})

	r.Route("/api/v1/rooms", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(prometheusMetrics)
		r.Get("/", router.handler.Rooms)
		r.Get("/{roomID}", router.handler.RoomByID)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
