// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package stickerledger owns the append-only sticker progress ledger and
// the cached per-participant counter. Only the goal's creator may grant or
// revoke; the counter never leaves [0, stickerTarget].
package stickerledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/events"
	"github.com/mjseo/goalpost/internal/fault"
	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/metrics"
	"github.com/mjseo/goalpost/internal/models"
)

// Store is the storage surface the service needs. Satisfied by
// *database.DB.
type Store interface {
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	GetGoalVisibleTo(ctx context.Context, id, viewerID string) (*models.Goal, error)
	AppendGrant(ctx context.Context, entry *models.StickerGrantEntry, target int, idempotencyKey string) (int, error)
	ListGrantEntries(ctx context.Context, goalID, recipientID string) ([]models.StickerGrantEntry, error)
	DeleteGrantEntriesForGoal(ctx context.Context, goalID string) (int64, error)
}

// Service implements sticker grant accounting.
type Service struct {
	store   Store
	replays *ReplayStore
	events  events.Publisher
	logger  zerolog.Logger
}

// New creates the service. replays may be nil to disable idempotency-key
// handling; pub may be events.Nop{} when eventing is off.
func New(store Store, replays *ReplayStore, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:   store,
		replays: replays,
		events:  pub,
		logger:  logging.WithComponent("stickerledger"),
	}
}

// GrantInput carries one grant or revoke command.
type GrantInput struct {
	GoalID      string
	GranterID   string
	RecipientID string
	Delta       int
	Reason      string

	// IdempotencyKey, when set, makes retries of the same command safe:
	// a repeated key within the TTL returns the recorded result instead
	// of applying the delta again.
	IdempotencyKey string
}

// GrantOrRevoke appends a ledger entry and returns the new counter value.
// GoalCompleted is set when the count reaches the target; it is a signal
// for the caller's completion UX and does not change the goal's status.
func (s *Service) GrantOrRevoke(ctx context.Context, input GrantInput) (*models.GrantResult, error) {
	if input.Delta == 0 {
		return nil, fault.InvalidArgument("delta must be non-zero")
	}

	goal, err := s.store.GetGoal(ctx, input.GoalID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil {
		return nil, fault.NotFound("goal %s not found", input.GoalID)
	}
	if input.GranterID != goal.CreatorID {
		return nil, fault.PermissionDenied("only the goal creator may grant or revoke stickers")
	}

	if input.IdempotencyKey != "" && s.replays != nil {
		prior, found, err := s.replays.Recall(input.GoalID, input.GranterID, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if found {
			metrics.IdempotencyReplaysTotal.Inc()
			metrics.StickerGrantsTotal.WithLabelValues(direction(input.Delta), "replayed").Inc()
			prior.Replayed = true
			return prior, nil
		}
	}

	entry := &models.StickerGrantEntry{
		ID:          uuid.New().String(),
		GoalID:      input.GoalID,
		RecipientID: input.RecipientID,
		GrantedBy:   input.GranterID,
		Delta:       input.Delta,
		Reason:      input.Reason,
		Timestamp:   time.Now().UTC(),
	}
	newCount, err := s.store.AppendGrant(ctx, entry, goal.StickerTarget, input.IdempotencyKey)
	switch {
	case errors.Is(err, database.ErrNoActiveParticipant):
		return nil, fault.NotFound("user %s is not an active participant", input.RecipientID)
	case errors.Is(err, database.ErrCountOutOfRange):
		metrics.StickerGrantsTotal.WithLabelValues(direction(input.Delta), "rejected").Inc()
		return nil, fault.Wrap(fault.KindInvalidArgument, err,
			"delta %+d would leave the count outside [0, %d]", input.Delta, goal.StickerTarget)
	case err != nil:
		return nil, err
	}

	result := &models.GrantResult{
		Entry:         *entry,
		NewCount:      newCount,
		GoalCompleted: newCount == goal.StickerTarget,
	}
	metrics.StickerGrantsTotal.WithLabelValues(direction(input.Delta), "applied").Inc()
	if result.GoalCompleted {
		metrics.GoalsCompletedTotal.Inc()
	}

	if input.IdempotencyKey != "" && s.replays != nil {
		if err := s.replays.Remember(input.GoalID, input.GranterID, input.IdempotencyKey, result); err != nil {
			// The grant is committed; a lost replay record only weakens
			// retry dedup for this one key.
			s.logger.Warn().Err(err).Str("goal_id", input.GoalID).Msg("grant replay record not stored")
		}
	}

	if err := s.events.Publish(ctx, events.TopicStickerGranted, &events.StickerGranted{
		GoalID:        input.GoalID,
		RecipientID:   input.RecipientID,
		GrantedBy:     input.GranterID,
		Delta:         input.Delta,
		NewCount:      newCount,
		GoalCompleted: result.GoalCompleted,
		OccurredAt:    entry.Timestamp,
	}); err != nil {
		s.logger.Warn().Err(err).Str("goal_id", input.GoalID).Msg("sticker.granted event not published")
	}

	s.logger.Info().
		Str("goal_id", input.GoalID).
		Str("recipient_id", input.RecipientID).
		Int("delta", input.Delta).
		Int("new_count", newCount).
		Bool("completed", result.GoalCompleted).
		Msg("sticker ledger entry applied")
	return result, nil
}

// History returns the chronological ledger for a (goal, recipient) pair,
// visibility-checked for the viewer.
func (s *Service) History(ctx context.Context, goalID, recipientID, viewerID string) ([]models.StickerGrantEntry, error) {
	goal, err := s.store.GetGoalVisibleTo(ctx, goalID, viewerID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fault.NotFound("goal %s not found", goalID)
	}
	return s.store.ListGrantEntries(ctx, goalID, recipientID)
}

// CleanupGoal removes all ledger entries for a deleted goal. Idempotent;
// invoked from the goal.deleted event consumer.
func (s *Service) CleanupGoal(ctx context.Context, goalID string) error {
	n, err := s.store.DeleteGrantEntriesForGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Str("goal_id", goalID).Int64("entries", n).Msg("ledger entries removed for deleted goal")
	}
	return nil
}

func direction(delta int) string {
	if delta > 0 {
		return "grant"
	}
	return "revoke"
}
