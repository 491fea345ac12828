// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/metrics"
)

// Bus publishes domain events through a Watermill publisher behind a
// circuit breaker, so a broker outage degrades to dropped events instead of
// stalling mutations. Events here are notifications, not state: the store
// has already committed before Publish is called.
type Bus struct {
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool
}

// NewBus wraps a Watermill publisher. Works with the NATS publisher in
// production and the gochannel Pub/Sub in tests.
func NewBus(pub message.Publisher) *Bus {
	settings := gobreaker.Settings{
		Name: "event-publisher",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("event publisher breaker state change")
		},
	}
	return &Bus{
		pub:     pub,
		breaker: gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// Publish marshals the event and sends it. Breaker-open and transport
// failures are returned to the caller, who treats them as non-fatal.
func (b *Bus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	msg, err := NewMessage(ctx, event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(topic, "failure").Inc()
		return err
	}

	_, err = b.breaker.Execute(func() (interface{}, error) {
		return nil, b.pub.Publish(topic, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EventsPublishedTotal.WithLabelValues(topic, "breaker_open").Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	case err != nil:
		metrics.EventsPublishedTotal.WithLabelValues(topic, "failure").Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, "success").Inc()
	return nil
}

// Close shuts down the underlying publisher. Publish calls after Close fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pub.Close()
}
