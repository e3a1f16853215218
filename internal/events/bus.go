// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/metrics"
)

// Bus is the in-process Pub/Sub. Everything runs over a single
// gochannel instance, so publishers and the router must share one Bus.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the gochannel Pub/Sub. Messages published with no
// subscriber are dropped, matching fire-and-forget semantics for
// notifications.
func NewBus(logger zerolog.Logger) *Bus {
	adapter := NewLoggerAdapter(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, adapter)

	return &Bus{
		pubsub: pubsub,
		logger: adapter,
	}
}

// Subscriber exposes the bus for router wiring.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Publish marshals an event and sends it to topic. The message UUID is
// the event's own ID so logs on both sides correlate.
func (b *Bus) Publish(ctx context.Context, topic, eventID string, event any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(eventID, data)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// PublishProfileUpdated announces a profile change.
func (b *Bus) PublishProfileUpdated(ctx context.Context, userID int) error {
	event := NewProfileUpdated(userID)
	return b.Publish(ctx, TopicProfileUpdated, event.EventID, event)
}

// PublishModelsTrained announces a new live model generation.
func (b *Bus) PublishModelsTrained(ctx context.Context, modelVersion, population int) error {
	event := NewModelsTrained(modelVersion, population)
	return b.Publish(ctx, TopicModelsTrained, event.EventID, event)
}

// PublishAssignmentsCommitted announces a committed allocation run.
func (b *Bus) PublishAssignmentsCommitted(ctx context.Context, strategy string, userIDs []int) error {
	event := NewAssignmentsCommitted(strategy, userIDs)
	return b.Publish(ctx, TopicAssignmentsCommitted, event.EventID, event)
}

// Close shuts the Pub/Sub down. Subscribers' channels are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
