// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package notifications derives the pending-items view: open follow
// requests and open goal invitations, partitioned by direction. It holds
// no state of its own and is safe to call repeatedly.
package notifications

import (
	"context"

	"github.com/mjseo/goalpost/internal/models"
)

// Store is the read surface the aggregator composes over. Satisfied by
// *database.DB.
type Store interface {
	ListFollowEdges(ctx context.Context, userID string, statusFilter models.FollowStatus) ([]models.FollowEdge, error)
	ListInvitationsForUser(ctx context.Context, userID string, statusFilter models.InvitationStatus) ([]models.GoalInvitation, error)
}

// Aggregator produces the pending-items view.
type Aggregator struct {
	store Store
}

// New creates the aggregator.
func New(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// PendingFollowRequests partitions the user's pending follow edges into
// requests they sent and requests awaiting their approval.
func (a *Aggregator) PendingFollowRequests(ctx context.Context, userID string) (*models.PendingFollows, error) {
	edges, err := a.store.ListFollowEdges(ctx, userID, models.FollowPending)
	if err != nil {
		return nil, err
	}

	result := &models.PendingFollows{
		Sent:     []models.FollowEdge{},
		Received: []models.FollowEdge{},
	}
	for _, edge := range edges {
		if edge.FollowerID == userID {
			result.Sent = append(result.Sent, edge)
		} else {
			result.Received = append(result.Received, edge)
		}
	}
	return result, nil
}

// PendingInvitations partitions the user's pending goal invitations by
// which side they initiated.
func (a *Aggregator) PendingInvitations(ctx context.Context, userID string) (*models.PendingInvitations, error) {
	invitations, err := a.store.ListInvitationsForUser(ctx, userID, models.InvitePending)
	if err != nil {
		return nil, err
	}

	result := &models.PendingInvitations{
		Sent:     []models.GoalInvitation{},
		Received: []models.GoalInvitation{},
	}
	for _, inv := range invitations {
		if inv.FromUserID == userID {
			result.Sent = append(result.Sent, inv)
		} else {
			result.Received = append(result.Received, inv)
		}
	}
	return result, nil
}

// PendingItems combines both pending views for the notification screen.
func (a *Aggregator) PendingItems(ctx context.Context, userID string) (*models.PendingItems, error) {
	follows, err := a.PendingFollowRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	invitations, err := a.PendingInvitations(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PendingItems{
		Follows:     *follows,
		Invitations: *invitations,
	}, nil
}
