// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package stickerledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/fault"
	"github.com/mjseo/goalpost/internal/models"
)

func setupService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "500MB"})
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})

	replays, err := OpenReplayStore("", time.Hour)
	if err != nil {
		t.Fatalf("open replay store: %v", err)
	}
	t.Cleanup(func() {
		if err := replays.Close(); err != nil {
			t.Errorf("close replay store: %v", err)
		}
	})

	return New(db, replays, nil), db
}

func createUser(t *testing.T, db *database.DB, nickname string) *models.User {
	t.Helper()

	u := &models.User{
		ID:           uuid.New().String(),
		Nickname:     nickname,
		Email:        nickname + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", nickname, err)
	}
	return u
}

func createGoalWithParticipant(t *testing.T, db *database.DB, creatorID, memberID string, target int) *models.Goal {
	t.Helper()

	now := time.Now().UTC()
	goal := &models.Goal{
		ID:            uuid.New().String(),
		CreatorID:     creatorID,
		Title:         "collect stickers",
		StickerTarget: target,
		Mode:          models.ModeCompetition,
		Visibility:    models.VisibilityPublic,
		Status:        models.GoalActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.InsertGoal(context.Background(), goal); err != nil {
		t.Fatalf("insert goal: %v", err)
	}
	if memberID != "" {
		if err := db.UpsertActiveParticipant(context.Background(), goal.ID, memberID, now); err != nil {
			t.Fatalf("insert participant: %v", err)
		}
	}
	return goal
}

// Target 10: +4 then +6 reaches the target exactly; +1 more is rejected
// and the count stays at 10.
func TestGrantProgressionToTarget(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	goal := createGoalWithParticipant(t, db, creator.ID, member.ID, 10)
	ctx := context.Background()

	res, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 4,
	})
	if err != nil {
		t.Fatalf("grant +4: %v", err)
	}
	if res.NewCount != 4 || res.GoalCompleted {
		t.Fatalf("after +4: count=%d completed=%v, want 4/false", res.NewCount, res.GoalCompleted)
	}

	res, err = svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 6,
	})
	if err != nil {
		t.Fatalf("grant +6: %v", err)
	}
	if res.NewCount != 10 || !res.GoalCompleted {
		t.Fatalf("after +6: count=%d completed=%v, want 10/true", res.NewCount, res.GoalCompleted)
	}

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 1,
	}); !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("grant past target: got %v, want InvalidArgument", err)
	}

	sum, err := db.SumGrantEntries(ctx, goal.ID, member.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 10 {
		t.Fatalf("ledger sum = %d, want 10", sum)
	}
}

func TestGrantPermissionAndExistenceChecks(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	outsider := createUser(t, db, "outsider")
	goal := createGoalWithParticipant(t, db, creator.ID, member.ID, 10)
	ctx := context.Background()

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: outsider.ID, RecipientID: member.ID, Delta: 1,
	}); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("non-creator grant: got %v, want PermissionDenied", err)
	}
	// The denied grant left no ledger entry.
	entries, err := db.ListGrantEntries(ctx, goal.ID, member.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("denied grant wrote %d entries", len(entries))
	}

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: outsider.ID, Delta: 1,
	}); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("grant to non-participant: got %v, want NotFound", err)
	}
	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: uuid.New().String(), GranterID: creator.ID, RecipientID: member.ID, Delta: 1,
	}); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("grant on missing goal: got %v, want NotFound", err)
	}
	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 0,
	}); !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("zero delta: got %v, want InvalidArgument", err)
	}
}

func TestGrantIdempotencyKeyReplay(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	goal := createGoalWithParticipant(t, db, creator.ID, member.ID, 10)
	ctx := context.Background()

	input := GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID,
		Delta: 3, IdempotencyKey: "retry-1",
	}
	first, err := svc.GrantOrRevoke(ctx, input)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if first.Replayed || first.NewCount != 3 {
		t.Fatalf("first = %+v, want fresh grant with count 3", first)
	}

	// The retried call returns the recorded result without a second delta.
	second, err := svc.GrantOrRevoke(ctx, input)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !second.Replayed || second.NewCount != 3 {
		t.Fatalf("retry = %+v, want replayed result with count 3", second)
	}
	sum, err := db.SumGrantEntries(ctx, goal.ID, member.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 3 {
		t.Fatalf("ledger sum = %d, want 3 after replay", sum)
	}

	// A different key applies normally.
	third, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID,
		Delta: 3, IdempotencyKey: "retry-2",
	})
	if err != nil {
		t.Fatalf("second key: %v", err)
	}
	if third.Replayed || third.NewCount != 6 {
		t.Fatalf("second key = %+v, want fresh grant with count 6", third)
	}
}

func TestRevokeBelowZero(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	goal := createGoalWithParticipant(t, db, creator.ID, member.ID, 10)
	ctx := context.Background()

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: -1,
	}); !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("revoke at zero: got %v, want InvalidArgument", err)
	}

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 2,
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	res, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: -2,
	})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.NewCount != 0 {
		t.Fatalf("count = %d, want 0", res.NewCount)
	}
}

func TestHistoryVisibility(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	stranger := createUser(t, db, "stranger")
	ctx := context.Background()

	now := time.Now().UTC()
	goal := &models.Goal{
		ID:            uuid.New().String(),
		CreatorID:     creator.ID,
		Title:         "private goal",
		StickerTarget: 5,
		Mode:          models.ModePersonal,
		Visibility:    models.VisibilityPrivate,
		Status:        models.GoalActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.InsertGoal(ctx, goal); err != nil {
		t.Fatalf("insert goal: %v", err)
	}
	if err := db.UpsertActiveParticipant(ctx, goal.ID, member.ID, now); err != nil {
		t.Fatalf("insert participant: %v", err)
	}
	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 2,
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if _, err := svc.History(ctx, goal.ID, member.ID, stranger.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("stranger history: got %v, want NotFound", err)
	}
	entries, err := svc.History(ctx, goal.ID, member.ID, creator.ID)
	if err != nil {
		t.Fatalf("creator history: %v", err)
	}
	if len(entries) != 1 || entries[0].Delta != 2 {
		t.Fatalf("history = %+v, want single +2 entry", entries)
	}
}

func TestCleanupGoalIdempotent(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	goal := createGoalWithParticipant(t, db, creator.ID, member.ID, 10)
	ctx := context.Background()

	if _, err := svc.GrantOrRevoke(ctx, GrantInput{
		GoalID: goal.ID, GranterID: creator.ID, RecipientID: member.ID, Delta: 5,
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := svc.CleanupGoal(ctx, goal.ID); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := svc.CleanupGoal(ctx, goal.ID); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	entries, err := db.ListGrantEntries(ctx, goal.ID, member.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after cleanup = %d, want 0", len(entries))
	}
}

func TestReplayStoreClosed(t *testing.T) {
	replays, err := OpenReplayStore("", time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := replays.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := replays.Recall("g", "u", "k"); err != ErrReplayStoreClosed {
		t.Fatalf("recall after close: got %v, want ErrReplayStoreClosed", err)
	}
	if err := replays.Remember("g", "u", "k", &models.GrantResult{}); err != ErrReplayStoreClosed {
		t.Fatalf("remember after close: got %v, want ErrReplayStoreClosed", err)
	}
	if err := replays.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
