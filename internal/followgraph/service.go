// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package followgraph owns the follow edges between users: the request,
// approval, block, and unfollow transitions and the status/list reads.
package followgraph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/events"
	"github.com/mjseo/goalpost/internal/fault"
	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/models"
)

// Store is the storage surface the service needs. Satisfied by
// *database.DB.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	InsertFollowEdge(ctx context.Context, edge *models.FollowEdge) error
	GetFollowEdgeByID(ctx context.Context, id string) (*models.FollowEdge, error)
	GetFollowEdge(ctx context.Context, followerID, followingID string) (*models.FollowEdge, error)
	UpdateFollowStatus(ctx context.Context, id string, status models.FollowStatus, approvedAt *time.Time) error
	DeleteFollowEdge(ctx context.Context, followerID, followingID string) error
	ListFollowEdges(ctx context.Context, userID string, statusFilter models.FollowStatus) ([]models.FollowEdge, error)
}

// Service implements the follow-graph state machine.
type Service struct {
	store  Store
	events events.Publisher
	logger zerolog.Logger
}

// New creates the service. pub may be events.Nop{} when eventing is off.
func New(store Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:  store,
		events: pub,
		logger: logging.WithComponent("followgraph"),
	}
}

// RequestFollow creates a pending edge from follower to target. If an edge
// already exists for the pair in either status it is returned unchanged, so
// retries and double-taps are harmless.
func (s *Service) RequestFollow(ctx context.Context, followerID, followingID string) (*models.FollowEdge, error) {
	if followerID == followingID {
		return nil, fault.InvalidArgument("cannot follow yourself")
	}

	target, err := s.store.GetUserByID(ctx, followingID)
	if err != nil {
		return nil, fmt.Errorf("load follow target: %w", err)
	}
	if target == nil {
		return nil, fault.NotFound("user %s not found", followingID)
	}

	if existing, err := s.store.GetFollowEdge(ctx, followerID, followingID); err != nil {
		return nil, fmt.Errorf("check existing edge: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	edge := &models.FollowEdge{
		ID:          uuid.New().String(),
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      models.FollowPending,
		CreatedAt:   time.Now().UTC(),
	}
	err = s.store.InsertFollowEdge(ctx, edge)
	if errors.Is(err, database.ErrDuplicateKey) {
		// Lost the insert race; the winner's edge is the logical edge.
		existing, readErr := s.store.GetFollowEdge(ctx, followerID, followingID)
		if readErr != nil {
			return nil, fmt.Errorf("reread edge after duplicate: %w", readErr)
		}
		if existing == nil {
			return nil, fmt.Errorf("edge vanished after duplicate insert")
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("follow_id", edge.ID).
		Str("follower_id", followerID).
		Str("following_id", followingID).
		Msg("follow requested")
	return edge, nil
}

// Approve transitions a pending edge to approved. Only the followed user
// may approve. Approving an already-approved edge is a no-op returning the
// same edge.
func (s *Service) Approve(ctx context.Context, followID, actorID string) (*models.FollowEdge, error) {
	edge, err := s.store.GetFollowEdgeByID(ctx, followID)
	if err != nil {
		return nil, fmt.Errorf("load edge: %w", err)
	}
	if edge == nil {
		return nil, fault.NotFound("follow %s not found", followID)
	}
	if actorID != edge.FollowingID {
		return nil, fault.PermissionDenied("only the followed user may approve")
	}

	switch edge.Status {
	case models.FollowApproved:
		return edge, nil
	case models.FollowBlocked:
		return nil, fault.InvalidState("follow %s is blocked", followID)
	case models.FollowPending:
	default:
		return nil, fault.InvalidState("follow %s has unknown status %q", followID, edge.Status)
	}

	now := time.Now().UTC()
	if err := s.store.UpdateFollowStatus(ctx, edge.ID, models.FollowApproved, &now); err != nil {
		return nil, fmt.Errorf("approve edge: %w", err)
	}
	edge.Status = models.FollowApproved
	edge.ApprovedAt = &now

	if err := s.events.Publish(ctx, events.TopicFollowApproved, &events.FollowApproved{
		FollowID:    edge.ID,
		FollowerID:  edge.FollowerID,
		FollowingID: edge.FollowingID,
		OccurredAt:  now,
	}); err != nil {
		s.logger.Warn().Err(err).Str("follow_id", edge.ID).Msg("follow.approved event not published")
	}
	return edge, nil
}

// Block transitions an edge to blocked. Only the followed user may block;
// allowed from pending or approved. Blocking an already-blocked edge is a
// no-op. There is no unblock operation.
func (s *Service) Block(ctx context.Context, followID, actorID string) (*models.FollowEdge, error) {
	edge, err := s.store.GetFollowEdgeByID(ctx, followID)
	if err != nil {
		return nil, fmt.Errorf("load edge: %w", err)
	}
	if edge == nil {
		return nil, fault.NotFound("follow %s not found", followID)
	}
	if actorID != edge.FollowingID {
		return nil, fault.PermissionDenied("only the followed user may block")
	}
	if edge.Status == models.FollowBlocked {
		return edge, nil
	}

	if err := s.store.UpdateFollowStatus(ctx, edge.ID, models.FollowBlocked, edge.ApprovedAt); err != nil {
		return nil, fmt.Errorf("block edge: %w", err)
	}
	edge.Status = models.FollowBlocked

	s.logger.Info().
		Str("follow_id", edge.ID).
		Str("follower_id", edge.FollowerID).
		Msg("follow blocked")
	return edge, nil
}

// Unfollow removes the caller's own outgoing edge.
func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	err := s.store.DeleteFollowEdge(ctx, followerID, followingID)
	if errors.Is(err, sql.ErrNoRows) {
		return fault.NotFound("no follow edge to %s", followingID)
	}
	return err
}

// CheckStatus reports whether follower has an approved edge to following,
// along with the edge itself if any exists.
func (s *Service) CheckStatus(ctx context.Context, followerID, followingID string) (*models.FollowStatusResult, error) {
	edge, err := s.store.GetFollowEdge(ctx, followerID, followingID)
	if err != nil {
		return nil, fmt.Errorf("load edge: %w", err)
	}
	return &models.FollowStatusResult{
		IsFollowed: edge != nil && edge.Status == models.FollowApproved,
		Edge:       edge,
	}, nil
}

// ListEdges returns the user's edges on either side, optionally narrowed
// by status.
func (s *Service) ListEdges(ctx context.Context, userID string, statusFilter models.FollowStatus) ([]models.FollowEdge, error) {
	if statusFilter != "" && !statusFilter.Valid() {
		return nil, fault.InvalidArgument("unknown follow status %q", statusFilter)
	}
	return s.store.ListFollowEdges(ctx, userID, statusFilter)
}
