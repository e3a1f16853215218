// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package embedding turns profile text into dense vectors via an
// external embedding endpoint. The HTTP client is wrapped in a circuit
// breaker so a dead or flapping endpoint cannot stall preprocessing,
// and an outbound rate limiter keeps batch runs polite. Identical text
// always yields the identical vector upstream, so responses are cached
// by input text.
package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cohabhq/cohab/internal/cache"
	"github.com/cohabhq/cohab/internal/config"
	"github.com/cohabhq/cohab/internal/logging"
	"github.com/cohabhq/cohab/internal/metrics"
)

// Embedder generates a vector for a piece of profile text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// breakerName labels the embedding breaker in logs and metrics.
const breakerName = "embedding-api"

// ErrEmptyText is returned when there is nothing to embed.
var ErrEmptyText = errors.New("embedding text is empty")

// Client is an Embedder backed by an HTTP embedding endpoint.
type Client struct {
	baseURL   string
	model     string
	dimension int

	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]float64]
	cache   *cache.LRU[[]float64]
}

// embedRequest is the embedding endpoint request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the embedding endpoint response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewClient creates an embedding client from configuration.
//
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewClient(cfg *config.EmbeddingConfig) *Client {
	metrics.SetBreakerState(breakerName, 0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening embedding circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.SetBreakerState(name, stateToFloat(to))
			metrics.RecordBreakerTransition(name, fromStr, toStr)
		},
	})

	return &Client{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		cb:      cb,
		cache:   cache.NewLRU[[]float64](cfg.CacheSize, 0),
	}
}

// Dimension returns the expected vector width.
func (c *Client) Dimension() int {
	return c.dimension
}

// State exposes the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

// Embed returns the vector for text, from cache when possible. Failures
// feed the circuit breaker; a rejected call (open breaker) returns
// immediately without touching the network.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	if vec, ok := c.cache.Get(text); ok {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		out := make([]float64, len(vec))
		copy(out, vec)
		return out, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit wait: %w", err)
	}

	start := time.Now()
	vec, err := c.cb.Execute(func() ([]float64, error) {
		return c.doEmbed(ctx, text)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordEmbeddingRequest("rejected", time.Since(start))
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Embedding request rejected")
		} else {
			metrics.RecordEmbeddingRequest("failure", time.Since(start))
		}
		return nil, err
	}

	metrics.RecordEmbeddingRequest("success", time.Since(start))

	c.cache.Add(text, vec)
	metrics.CacheSize.WithLabelValues("embedding").Set(float64(c.cache.Len()))

	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}

// doEmbed performs the HTTP round trip.
func (c *Client) doEmbed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedding endpoint: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	if len(embedResp.Embedding) == 0 {
		return nil, errors.New("embedding endpoint returned an empty vector")
	}
	if c.dimension > 0 && len(embedResp.Embedding) != c.dimension {
		return nil, fmt.Errorf("embedding dimension %d does not match configured %d",
			len(embedResp.Embedding), c.dimension)
	}

	return embedResp.Embedding, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
