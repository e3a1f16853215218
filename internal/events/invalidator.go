// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/metrics"
)

// PairCacheInvalidator evicts cached pair scores. Satisfied by the
// scoring engine.
type PairCacheInvalidator interface {
	InvalidateUser(userID int)
	InvalidateAll()
}

// Service routes events to their consumers. The main consumer keeps
// the pair-score cache coherent: a profile edit invalidates that
// user's cached pairs, a completed training run invalidates all of
// them. Runs under the supervision tree via Serve.
type Service struct {
	router      *message.Router
	invalidator PairCacheInvalidator
	logger      zerolog.Logger
}

// NewService builds the router and registers all consumer handlers.
func NewService(bus *Bus, invalidator PairCacheInvalidator, logger zerolog.Logger) (*Service, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Logger:          bus.logger,
	}.Middleware)

	s := &Service{
		router:      router,
		invalidator: invalidator,
		logger:      logger,
	}

	router.AddConsumerHandler(
		"pair-cache-profile-updated",
		TopicProfileUpdated,
		bus.Subscriber(),
		s.handleProfileUpdated,
	)
	router.AddConsumerHandler(
		"pair-cache-models-trained",
		TopicModelsTrained,
		bus.Subscriber(),
		s.handleModelsTrained,
	)
	router.AddConsumerHandler(
		"assignments-audit",
		TopicAssignmentsCommitted,
		bus.Subscriber(),
		s.handleAssignmentsCommitted,
	)

	return s, nil
}

func (s *Service) handleProfileUpdated(msg *message.Message) error {
	var event ProfileUpdated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		metrics.EventsHandled.WithLabelValues(TopicProfileUpdated, "error").Inc()
		// Malformed payloads never become valid; dropping beats a retry loop.
		s.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed profile.updated event")
		return nil
	}

	s.invalidator.InvalidateUser(event.UserID)
	metrics.EventsHandled.WithLabelValues(TopicProfileUpdated, "success").Inc()
	s.logger.Debug().Int("user_id", event.UserID).Str("event_id", event.EventID).Msg("Invalidated cached pair scores for user")
	return nil
}

func (s *Service) handleModelsTrained(msg *message.Message) error {
	var event ModelsTrained
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		metrics.EventsHandled.WithLabelValues(TopicModelsTrained, "error").Inc()
		s.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed models.trained event")
		return nil
	}

	s.invalidator.InvalidateAll()
	metrics.EventsHandled.WithLabelValues(TopicModelsTrained, "success").Inc()
	s.logger.Info().
		Int("model_version", event.ModelVersion).
		Int("population", event.Population).
		Msg("New model generation live, pair score cache purged")
	return nil
}

func (s *Service) handleAssignmentsCommitted(msg *message.Message) error {
	var event AssignmentsCommitted
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		metrics.EventsHandled.WithLabelValues(TopicAssignmentsCommitted, "error").Inc()
		s.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed assignments.committed event")
		return nil
	}

	metrics.EventsHandled.WithLabelValues(TopicAssignmentsCommitted, "success").Inc()
	s.logger.Info().
		Str("strategy", event.Strategy).
		Int("assigned", len(event.UserIDs)).
		Str("event_id", event.EventID).
		Msg("Assignments committed")
	return nil
}

// Serve runs the router until ctx is cancelled. Blocks, for the
// supervision tree.
func (s *Service) Serve(ctx context.Context) error {
	s.logger.Info().Msg("Event router starting")
	return s.router.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *Service) String() string {
	return "event-router"
}

// Running returns a channel closed once all handlers are subscribed.
// Tests wait on it before publishing.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

// Close stops the router outside of supervision.
func (s *Service) Close() error {
	return s.router.Close()
}
