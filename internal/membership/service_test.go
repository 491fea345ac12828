// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package membership

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
	return New(db, nil), db
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

func approveFollow(t *testing.T, db *database.DB, followerID, followingID string) {
	t.Helper()

	now := time.Now().UTC()
	edge := &models.FollowEdge{
		ID:          uuid.New().String(),
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      models.FollowApproved,
		CreatedAt:   now,
		ApprovedAt:  &now,
	}
	if err := db.InsertFollowEdge(context.Background(), edge); err != nil {
		t.Fatalf("insert approved edge: %v", err)
	}
}

func recruitmentGoal(t *testing.T, svc *Service, creatorID string) *models.Goal {
	t.Helper()

	goal, err := svc.CreateGoal(context.Background(), creatorID, CreateGoalInput{
		Title:         "morning run club",
		StickerTarget: 10,
		Mode:          models.ModeChallengerRecruitment,
		Visibility:    models.VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return goal
}

func TestCreateGoalValidation(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateGoalInput
	}{
		{"empty title", CreateGoalInput{StickerTarget: 5, Mode: models.ModePersonal, Visibility: models.VisibilityPublic}},
		{"zero target", CreateGoalInput{Title: "t", Mode: models.ModePersonal, Visibility: models.VisibilityPublic}},
		{"negative target", CreateGoalInput{Title: "t", StickerTarget: -1, Mode: models.ModePersonal, Visibility: models.VisibilityPublic}},
		{"bad mode", CreateGoalInput{Title: "t", StickerTarget: 5, Mode: "sprint", Visibility: models.VisibilityPublic}},
		{"bad visibility", CreateGoalInput{Title: "t", StickerTarget: 5, Mode: models.ModePersonal, Visibility: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateGoal(ctx, creator.ID, tt.input); !fault.IsKind(err, fault.KindInvalidArgument) {
				t.Fatalf("got %v, want InvalidArgument", err)
			}
		})
	}

	goal, err := svc.CreateGoal(ctx, creator.ID, CreateGoalInput{
		Title:         "read 12 books",
		StickerTarget: 12,
		Mode:          models.ModePersonal,
		Visibility:    models.VisibilityPrivate,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if goal.Status != models.GoalActive {
		t.Fatalf("status = %s, want active", goal.Status)
	}

	// No implicit creator participant row.
	p, err := db.GetParticipant(ctx, goal.ID, creator.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p != nil {
		t.Fatal("creator participant row should not exist until self-join")
	}
}

func TestJoinOwnGoal(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	other := createUser(t, db, "other")
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	if _, err := svc.JoinOwnGoal(ctx, goal.ID, other.ID); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("non-creator self-join: got %v, want PermissionDenied", err)
	}

	p, err := svc.JoinOwnGoal(ctx, goal.ID, creator.ID)
	if err != nil {
		t.Fatalf("self-join: %v", err)
	}
	if p.Status != models.ParticipantActive || p.CurrentStickerCount != 0 {
		t.Fatalf("participant = %+v, want active with zero count", p)
	}
}

// Join-request precondition: a recruitment goal accepts requests only from
// users with an approved follow edge to the creator, in either direction.
func TestCreateJoinRequestFollowPrecondition(t *testing.T) {
	svc, db := setupService(t)
	creatorX := createUser(t, db, "creator-x")
	userY := createUser(t, db, "user-y")
	goal := recruitmentGoal(t, svc, creatorX.ID)
	ctx := context.Background()

	_, err := svc.CreateJoinRequest(ctx, goal.ID, userY.ID, "let me in")
	if !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("without follow: got %v, want PermissionDenied", err)
	}

	approveFollow(t, db, userY.ID, creatorX.ID)

	inv, err := svc.CreateJoinRequest(ctx, goal.ID, userY.ID, "let me in")
	if err != nil {
		t.Fatalf("with follow: %v", err)
	}
	if inv.Status != models.InvitePending || inv.Type != models.InviteTypeRequest {
		t.Fatalf("invitation = %+v, want pending request", inv)
	}
	if inv.ToUserID != creatorX.ID {
		t.Fatalf("responder = %s, want the creator", inv.ToUserID)
	}
}

func TestCreateJoinRequestModeAndDuplicates(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	approveFollow(t, db, member.ID, creator.ID)
	ctx := context.Background()

	personal, err := svc.CreateGoal(ctx, creator.ID, CreateGoalInput{
		Title: "solo goal", StickerTarget: 5,
		Mode: models.ModePersonal, Visibility: models.VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("create personal goal: %v", err)
	}
	if _, err := svc.CreateJoinRequest(ctx, personal.ID, member.ID, ""); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("personal goal: got %v, want PermissionDenied", err)
	}

	goal := recruitmentGoal(t, svc, creator.ID)
	if _, err := svc.CreateJoinRequest(ctx, goal.ID, member.ID, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.CreateJoinRequest(ctx, goal.ID, member.ID, ""); !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("duplicate request: got %v, want Conflict", err)
	}
}

func TestRespondToInvitation(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	outsider := createUser(t, db, "outsider")
	approveFollow(t, db, member.ID, creator.ID)
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	inv, err := svc.CreateJoinRequest(ctx, goal.ID, member.ID, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Only the goal creator may respond to a request.
	if _, err := svc.RespondToInvitation(ctx, inv.ID, member.ID, models.DecisionAccept); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("requester responding: got %v, want PermissionDenied", err)
	}
	if _, err := svc.RespondToInvitation(ctx, inv.ID, outsider.ID, models.DecisionAccept); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("outsider responding: got %v, want PermissionDenied", err)
	}

	accepted, err := svc.RespondToInvitation(ctx, inv.ID, creator.ID, models.DecisionAccept)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != models.InviteAccepted || accepted.RespondedAt == nil {
		t.Fatalf("invitation = %+v, want accepted", accepted)
	}

	p, err := db.GetParticipant(ctx, goal.ID, member.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p == nil || p.Status != models.ParticipantActive {
		t.Fatalf("participant = %+v, want active", p)
	}

	// Responses are terminal.
	if _, err := svc.RespondToInvitation(ctx, inv.ID, creator.ID, models.DecisionReject); !fault.IsKind(err, fault.KindInvalidState) {
		t.Fatalf("second response: got %v, want InvalidState", err)
	}
}

func TestRespondToInviteTypeInvitation(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	invited := createUser(t, db, "invited")
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	inv, err := svc.CreateInvite(ctx, goal.ID, creator.ID, invited.ID, "join us")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	// The invited user responds, not the creator.
	if _, err := svc.RespondToInvitation(ctx, inv.ID, creator.ID, models.DecisionAccept); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("creator responding to invite: got %v, want PermissionDenied", err)
	}

	rejected, err := svc.RespondToInvitation(ctx, inv.ID, invited.ID, models.DecisionReject)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.InviteRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	p, err := db.GetParticipant(ctx, goal.ID, invited.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p != nil {
		t.Fatal("reject should not create a participant")
	}
}

func TestCreateInviteChecks(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	member := createUser(t, db, "member")
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	if _, err := svc.CreateInvite(ctx, goal.ID, member.ID, creator.ID, ""); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("non-creator inviting: got %v, want PermissionDenied", err)
	}
	if _, err := svc.CreateInvite(ctx, goal.ID, creator.ID, creator.ID, ""); !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("self-invite: got %v, want InvalidArgument", err)
	}
	if _, err := svc.CreateInvite(ctx, goal.ID, creator.ID, uuid.New().String(), ""); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("invite missing user: got %v, want NotFound", err)
	}

	inv, err := svc.CreateInvite(ctx, goal.ID, creator.ID, member.ID, "")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.RespondToInvitation(ctx, inv.ID, member.ID, models.DecisionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.CreateInvite(ctx, goal.ID, creator.ID, member.ID, ""); !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("invite active participant: got %v, want Conflict", err)
	}
}

// Delete precondition: a goal with other active participants cannot be
// deleted until they leave.
func TestDeleteGoalBlockedByActiveParticipants(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	userA := createUser(t, db, "user-a")
	approveFollow(t, db, userA.ID, creator.ID)
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	if _, err := svc.JoinOwnGoal(ctx, goal.ID, creator.ID); err != nil {
		t.Fatalf("creator join: %v", err)
	}
	inv, err := svc.CreateJoinRequest(ctx, goal.ID, userA.ID, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RespondToInvitation(ctx, inv.ID, creator.ID, models.DecisionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := svc.DeleteGoal(ctx, goal.ID, userA.ID); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("non-creator delete: got %v, want PermissionDenied", err)
	}
	if err := svc.DeleteGoal(ctx, goal.ID, creator.ID); !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("delete with active participant: got %v, want Conflict", err)
	}

	// The creator cannot leave their own goal.
	if err := svc.LeaveGoal(ctx, goal.ID, creator.ID); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("creator leave: got %v, want PermissionDenied", err)
	}

	if err := svc.LeaveGoal(ctx, goal.ID, userA.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.LeaveGoal(ctx, goal.ID, userA.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("second leave: got %v, want NotFound", err)
	}

	if err := svc.DeleteGoal(ctx, goal.ID, creator.ID); err != nil {
		t.Fatalf("delete after leave: %v", err)
	}
	if _, err := svc.GetGoal(ctx, goal.ID, creator.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("get deleted goal: got %v, want NotFound", err)
	}
}

func TestGoalStatusTransitions(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	other := createUser(t, db, "other")
	goal := recruitmentGoal(t, svc, creator.ID)
	ctx := context.Background()

	if _, err := svc.CompleteGoal(ctx, goal.ID, other.ID); !fault.IsKind(err, fault.KindPermissionDenied) {
		t.Fatalf("non-creator complete: got %v, want PermissionDenied", err)
	}

	done, err := svc.CompleteGoal(ctx, goal.ID, creator.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.GoalCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}

	// Completing again is a no-op; cancelling a completed goal is not.
	if _, err := svc.CompleteGoal(ctx, goal.ID, creator.ID); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if _, err := svc.CancelGoal(ctx, goal.ID, creator.ID); !fault.IsKind(err, fault.KindInvalidState) {
		t.Fatalf("cancel completed: got %v, want InvalidState", err)
	}

	// Completed goals accept no new join requests.
	if _, err := svc.CreateJoinRequest(ctx, goal.ID, creator.ID, ""); !fault.IsKind(err, fault.KindInvalidState) {
		t.Fatalf("request on completed goal: got %v, want InvalidState", err)
	}
}

func TestGetGoalVisibility(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")
	stranger := createUser(t, db, "stranger")
	ctx := context.Background()

	private, err := svc.CreateGoal(ctx, creator.ID, CreateGoalInput{
		Title: "secret", StickerTarget: 5,
		Mode: models.ModePersonal, Visibility: models.VisibilityPrivate,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetGoal(ctx, private.ID, stranger.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("stranger reading private goal: got %v, want NotFound", err)
	}
	if _, err := svc.GetGoal(ctx, private.ID, creator.ID); err != nil {
		t.Fatalf("creator reading own goal: %v", err)
	}
}

func TestListInvitationsFilter(t *testing.T) {
	svc, db := setupService(t)
	creator := createUser(t, db, "creator")

	if _, err := svc.ListInvitations(context.Background(), creator.ID, "bogus"); !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("bogus filter: got %v, want InvalidArgument", err)
	}
}
