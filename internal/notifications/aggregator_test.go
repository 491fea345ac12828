// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/models"
)

func setupAggregator(t *testing.T) (*Aggregator, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "500MB"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db), db
}

func createUser(t *testing.T, db *database.DB, nickname string) string {
	t.Helper()

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        nickname + "@example.com",
		Nickname:     nickname,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", nickname, err)
	}
	return user.ID
}

func insertEdge(t *testing.T, db *database.DB, followerID, followingID string, status models.FollowStatus) {
	t.Helper()

	edge := &models.FollowEdge{
		ID:          uuid.NewString(),
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.InsertFollowEdge(context.Background(), edge); err != nil {
		t.Fatalf("insert follow edge: %v", err)
	}
}

func insertGoalAndInvitation(t *testing.T, db *database.DB, creatorID, fromID, toID string, invType models.InvitationType, status models.InvitationStatus) string {
	t.Helper()

	ctx := context.Background()
	goal := &models.Goal{
		ID:            uuid.NewString(),
		CreatorID:     creatorID,
		Title:         "test goal",
		StickerTarget: 10,
		Mode:          models.ModeChallengerRecruitment,
		Visibility:    models.VisibilityPublic,
		Status:        models.GoalActive,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := db.InsertGoal(ctx, goal); err != nil {
		t.Fatalf("insert goal: %v", err)
	}

	inv := &models.GoalInvitation{
		ID:         uuid.NewString(),
		GoalID:     goal.ID,
		FromUserID: fromID,
		ToUserID:   toID,
		Type:       invType,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.InsertInvitation(ctx, inv); err != nil {
		t.Fatalf("insert invitation: %v", err)
	}
	return inv.ID
}

func TestPendingFollowRequestsPartition(t *testing.T) {
	agg, db := setupAggregator(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	// Alice asked to follow Bob, Carol asked to follow Alice. The
	// approved edge must not show up in either partition.
	insertEdge(t, db, alice, bob, models.FollowPending)
	insertEdge(t, db, carol, alice, models.FollowPending)
	insertEdge(t, db, bob, alice, models.FollowApproved)

	pending, err := agg.PendingFollowRequests(ctx, alice)
	if err != nil {
		t.Fatalf("pending follow requests: %v", err)
	}
	if len(pending.Sent) != 1 || pending.Sent[0].FollowingID != bob {
		t.Errorf("sent = %+v, want single request to bob", pending.Sent)
	}
	if len(pending.Received) != 1 || pending.Received[0].FollowerID != carol {
		t.Errorf("received = %+v, want single request from carol", pending.Received)
	}
}

func TestPendingInvitationsPartition(t *testing.T) {
	agg, db := setupAggregator(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	// Alice invited Bob to her goal, Carol requested to join Alice's
	// other goal. A rejected invitation stays out of the view.
	insertGoalAndInvitation(t, db, alice, alice, bob, models.InviteTypeInvite, models.InvitePending)
	insertGoalAndInvitation(t, db, alice, carol, alice, models.InviteTypeRequest, models.InvitePending)
	insertGoalAndInvitation(t, db, alice, alice, carol, models.InviteTypeInvite, models.InviteRejected)

	pending, err := agg.PendingInvitations(ctx, alice)
	if err != nil {
		t.Fatalf("pending invitations: %v", err)
	}
	if len(pending.Sent) != 1 || pending.Sent[0].ToUserID != bob {
		t.Errorf("sent = %+v, want single invite to bob", pending.Sent)
	}
	if len(pending.Received) != 1 || pending.Received[0].FromUserID != carol {
		t.Errorf("received = %+v, want single request from carol", pending.Received)
	}
}

func TestPendingItemsEmpty(t *testing.T) {
	agg, db := setupAggregator(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	items, err := agg.PendingItems(ctx, alice)
	if err != nil {
		t.Fatalf("pending items: %v", err)
	}
	if len(items.Follows.Sent) != 0 || len(items.Follows.Received) != 0 {
		t.Errorf("follows = %+v, want empty partitions", items.Follows)
	}
	if len(items.Invitations.Sent) != 0 || len(items.Invitations.Received) != 0 {
		t.Errorf("invitations = %+v, want empty partitions", items.Invitations)
	}

	// Slices serialize as [] rather than null.
	if items.Follows.Sent == nil || items.Invitations.Received == nil {
		t.Error("pending partitions should be non-nil empty slices")
	}
}

func TestPendingItemsCombined(t *testing.T) {
	agg, db := setupAggregator(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	insertEdge(t, db, bob, alice, models.FollowPending)
	insertGoalAndInvitation(t, db, alice, alice, bob, models.InviteTypeInvite, models.InvitePending)

	items, err := agg.PendingItems(ctx, alice)
	if err != nil {
		t.Fatalf("pending items: %v", err)
	}
	if len(items.Follows.Received) != 1 {
		t.Errorf("follows received = %d, want 1", len(items.Follows.Received))
	}
	if len(items.Invitations.Sent) != 1 {
		t.Errorf("invitations sent = %d, want 1", len(items.Invitations.Sent))
	}
}
