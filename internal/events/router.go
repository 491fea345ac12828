// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/metrics"
)

// LedgerCleaner removes all ledger entries for a deleted goal. The cleanup
// is idempotent, so redelivered goal.deleted events are harmless.
type LedgerCleaner interface {
	CleanupGoal(ctx context.Context, goalID string) error
}

// Nudger pushes a pending_changed hint to a user's live connections.
// Implemented by the websocket hub; a nil-safe no-op is fine in tests.
type Nudger interface {
	NotifyPendingChanged(userID string)
}

// Router consumes domain events: goal deletions trigger the ledger cascade
// cleanup, and user-affecting events nudge the relevant users to re-query
// their pending items.
type Router struct {
	router *message.Router
}

// NewRouter builds a Watermill router with retry and recovery middleware
// and the goalpost consumer handlers attached.
func NewRouter(sub message.Subscriber, cleaner LedgerCleaner, nudger Nudger) (*Router, error) {
	logger := NewLoggerAdapter(logging.WithComponent("events"))

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	wmRouter.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      5,
			InitialInterval: time.Second,
			MaxInterval:     time.Minute,
			Multiplier:      2.0,
			Logger:          logger,
		}.Middleware,
	)

	wmRouter.AddNoPublisherHandler("goal-deleted-ledger-cleanup", TopicGoalDeleted, sub,
		consume(TopicGoalDeleted, func(ctx context.Context, ev *GoalDeleted) error {
			return cleaner.CleanupGoal(ctx, ev.GoalID)
		}),
	)
	wmRouter.AddNoPublisherHandler("follow-approved-nudge", TopicFollowApproved, sub,
		consume(TopicFollowApproved, func(_ context.Context, ev *FollowApproved) error {
			nudge(nudger, ev.FollowerID)
			return nil
		}),
	)
	wmRouter.AddNoPublisherHandler("invitation-accepted-nudge", TopicInvitationAccepted, sub,
		consume(TopicInvitationAccepted, func(_ context.Context, ev *InvitationAccepted) error {
			nudge(nudger, ev.CandidateID, ev.ResponderID)
			return nil
		}),
	)
	wmRouter.AddNoPublisherHandler("sticker-granted-nudge", TopicStickerGranted, sub,
		consume(TopicStickerGranted, func(_ context.Context, ev *StickerGranted) error {
			nudge(nudger, ev.RecipientID)
			return nil
		}),
	)

	return &Router{router: wmRouter}, nil
}

// Run blocks serving messages until the context is canceled.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel closed once the router is serving. Tests wait
// on it before publishing.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router and its subscriptions.
func (r *Router) Close() error {
	return r.router.Close()
}

func nudge(n Nudger, userIDs ...string) {
	if n == nil {
		return
	}
	for _, id := range userIDs {
		if id != "" {
			n.NotifyPendingChanged(id)
		}
	}
}

// consume adapts a typed event handler to a Watermill handler, counting
// outcomes per topic. Unmarshalable payloads are dropped, not retried.
func consume[E any](topic string, fn func(ctx context.Context, ev *E) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var ev E
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			metrics.EventsConsumedTotal.WithLabelValues(topic, "malformed").Inc()
			logging.Err(err).Str("topic", topic).Str("message_id", msg.UUID).
				Msg("dropping malformed event")
			return nil
		}
		if err := fn(msg.Context(), &ev); err != nil {
			metrics.EventsConsumedTotal.WithLabelValues(topic, "failure").Inc()
			return err
		}
		metrics.EventsConsumedTotal.WithLabelValues(topic, "success").Inc()
		return nil
	}
}
