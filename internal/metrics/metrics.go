// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package metrics defines the Prometheus collectors for Goalpost:
// HTTP traffic, DuckDB query performance, the sticker ledger, and the
// domain event pipeline. All collectors register through promauto on the
// default registry and are served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goalpost_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Database metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goalpost_db_query_duration_seconds",
			Help:    "DuckDB query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_db_query_errors_total",
			Help: "Total DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Ledger metrics

	StickerGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_sticker_grants_total",
			Help: "Total sticker ledger mutations by direction and outcome",
		},
		[]string{"direction", "outcome"}, // direction: grant, revoke; outcome: applied, rejected, replayed
	)

	GoalsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalpost_goals_completed_total",
			Help: "Total grant operations that reached the goal's sticker target",
		},
	)

	IdempotencyReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalpost_idempotency_replays_total",
			Help: "Total grant calls answered from the idempotency store",
		},
	)

	// Event pipeline metrics

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_events_published_total",
			Help: "Total domain events published by topic and outcome",
		},
		[]string{"topic", "outcome"}, // outcome: success, failure, breaker_open
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_events_consumed_total",
			Help: "Total domain events consumed by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goalpost_websocket_connections",
			Help: "Currently connected websocket clients",
		},
	)
)

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery records one database query.
func ObserveDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
