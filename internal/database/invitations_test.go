// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mjseo/goalpost/internal/models"
)

func insertTestInvitation(t *testing.T, db *DB, goalID string, invType models.InvitationType, fromID, toID string) *models.GoalInvitation {
	t.Helper()

	inv := &models.GoalInvitation{
		ID:         uuid.New().String(),
		GoalID:     goalID,
		FromUserID: fromID,
		ToUserID:   toID,
		Type:       invType,
		Status:     models.InvitePending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.InsertInvitation(context.Background(), inv); err != nil {
		t.Fatalf("insert invitation: %v", err)
	}
	return inv
}

func TestInsertInvitationPendingUniqueness(t *testing.T) {
	db := setupTestDB(t)
	creator := insertTestUser(t, db, "creator")
	candidate := insertTestUser(t, db, "candidate")
	goal := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)

	insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, candidate.ID, creator.ID)

	// A second request from the same candidate collides.
	dup := &models.GoalInvitation{
		ID:         uuid.New().String(),
		GoalID:     goal.ID,
		FromUserID: candidate.ID,
		ToUserID:   creator.ID,
		Type:       models.InviteTypeRequest,
		Status:     models.InvitePending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.InsertInvitation(context.Background(), dup); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("duplicate request: got %v, want ErrDuplicateKey", err)
	}

	// So does a creator invite for the same candidate: uniqueness is keyed
	// on the proposed member, not on the direction.
	invite := &models.GoalInvitation{
		ID:         uuid.New().String(),
		GoalID:     goal.ID,
		FromUserID: creator.ID,
		ToUserID:   candidate.ID,
		Type:       models.InviteTypeInvite,
		Status:     models.InvitePending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.InsertInvitation(context.Background(), invite); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("cross-direction duplicate: got %v, want ErrDuplicateKey", err)
	}

	// A different goal does not collide.
	goal2 := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)
	insertTestInvitation(t, db, goal2.ID, models.InviteTypeRequest, candidate.ID, creator.ID)
}

func TestRespondToInvitationAcceptCreatesParticipant(t *testing.T) {
	db := setupTestDB(t)
	creator := insertTestUser(t, db, "creator")
	candidate := insertTestUser(t, db, "candidate")
	goal := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)

	inv := insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, candidate.ID, creator.ID)

	now := time.Now().UTC()
	if err := db.RespondToInvitation(context.Background(), inv, models.InviteAccepted, now); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, err := db.GetInvitation(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if got.Status != models.InviteAccepted || got.RespondedAt == nil {
		t.Fatalf("invitation = %+v, want accepted with responded_at", got)
	}

	p, err := db.GetParticipant(context.Background(), goal.ID, candidate.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p == nil || p.Status != models.ParticipantActive || p.CurrentStickerCount != 0 {
		t.Fatalf("participant = %+v, want active with zero count", p)
	}
}

func TestRespondToInvitationRejectLeavesNoParticipant(t *testing.T) {
	db := setupTestDB(t)
	creator := insertTestUser(t, db, "creator")
	candidate := insertTestUser(t, db, "candidate")
	goal := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)

	inv := insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, candidate.ID, creator.ID)

	if err := db.RespondToInvitation(context.Background(), inv, models.InviteRejected, time.Now().UTC()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	p, err := db.GetParticipant(context.Background(), goal.ID, candidate.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p != nil {
		t.Fatal("participant created on reject")
	}

	// After the response the candidate may open a new proposal.
	insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, candidate.ID, creator.ID)
}

func TestRespondToInvitationSecondResponseLoses(t *testing.T) {
	db := setupTestDB(t)
	creator := insertTestUser(t, db, "creator")
	candidate := insertTestUser(t, db, "candidate")
	goal := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)

	inv := insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, candidate.ID, creator.ID)

	if err := db.RespondToInvitation(context.Background(), inv, models.InviteAccepted, time.Now().UTC()); err != nil {
		t.Fatalf("first response: %v", err)
	}
	err := db.RespondToInvitation(context.Background(), inv, models.InviteRejected, time.Now().UTC())
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second response: got %v, want sql.ErrNoRows", err)
	}

	// The first outcome stands.
	got, err := db.GetInvitation(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if got.Status != models.InviteAccepted {
		t.Fatalf("status = %s, want accepted", got.Status)
	}
}

func TestListInvitationsForUser(t *testing.T) {
	db := setupTestDB(t)
	creator := insertTestUser(t, db, "creator")
	a := insertTestUser(t, db, "a")
	b := insertTestUser(t, db, "b")
	goal := insertTestGoal(t, db, creator.ID, 10, models.ModeCompetition, models.VisibilityPublic)

	reqA := insertTestInvitation(t, db, goal.ID, models.InviteTypeRequest, a.ID, creator.ID)
	insertTestInvitation(t, db, goal.ID, models.InviteTypeInvite, creator.ID, b.ID)

	if err := db.RespondToInvitation(context.Background(), reqA, models.InviteRejected, time.Now().UTC()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	all, err := db.ListInvitationsForUser(context.Background(), creator.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("creator sees %d invitations, want 2", len(all))
	}

	pending, err := db.ListInvitationsForUser(context.Background(), creator.ID, models.InvitePending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ToUserID != b.ID {
		t.Fatalf("pending = %+v, want only the open invite to b", pending)
	}

	forA, err := db.ListInvitationsForUser(context.Background(), a.ID, "")
	if err != nil {
		t.Fatalf("list for a: %v", err)
	}
	if len(forA) != 1 || forA[0].ID != reqA.ID {
		t.Fatalf("a sees %d invitations, want their own request", len(forA))
	}
}
