// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package events carries the domain events published after state changes:
// goal deletion (which triggers the downstream ledger cleanup), sticker
// grants, invitation acceptances, and follow approvals. Transport is
// Watermill over NATS JetStream; tests use the in-process gochannel Pub/Sub.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mjseo/goalpost/internal/logging"
)

// Topics. One subject per event type under the goalpost.> stream.
const (
	TopicGoalDeleted        = "goalpost.goal.deleted"
	TopicStickerGranted     = "goalpost.sticker.granted"
	TopicInvitationAccepted = "goalpost.invitation.accepted"
	TopicFollowApproved     = "goalpost.follow.approved"
)

// StreamName is the JetStream stream holding all goalpost subjects.
const StreamName = "GOALPOST"

// GoalDeleted is published after a goal and its memberships are removed.
// The sticker ledger consumes it to run its idempotent cascade cleanup.
type GoalDeleted struct {
	GoalID     string    `json:"goal_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StickerGranted is published after a ledger entry is committed.
type StickerGranted struct {
	GoalID        string    `json:"goal_id"`
	RecipientID   string    `json:"recipient_id"`
	GrantedBy     string    `json:"granted_by"`
	Delta         int       `json:"delta"`
	NewCount      int       `json:"new_count"`
	GoalCompleted bool      `json:"goal_completed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// InvitationAccepted is published after an invitation is accepted and the
// candidate's participant row exists.
type InvitationAccepted struct {
	InvitationID string    `json:"invitation_id"`
	GoalID       string    `json:"goal_id"`
	CandidateID  string    `json:"candidate_id"`
	ResponderID  string    `json:"responder_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// FollowApproved is published after a follow edge transitions to approved.
type FollowApproved struct {
	FollowID    string    `json:"follow_id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher is the narrow interface services publish through. Implemented
// by Bus; Nop is the disabled stand-in.
type Publisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}

// Nop discards all events. Used when eventing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// NewMessage marshals an event into a Watermill message with a fresh UUID
// and the correlation ID from the context, if any.
func NewMessage(ctx context.Context, event interface{}) (*message.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(uuid.New().String(), body)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set("correlation_id", cid)
	}
	return msg, nil
}
