// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package membership owns goals, their participants, and the invitation
// lifecycle: creation, join requests and invites, responses, leaving, and
// the creator-controlled goal status transitions.
package membership

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
	"github.com/mjseo/goalpost/internal/validation"
)

// Store is the storage surface the service needs. Satisfied by
// *database.DB.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	HasApprovedFollowBetween(ctx context.Context, userA, userB string) (bool, error)

	InsertGoal(ctx context.Context, goal *models.Goal) error
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	GetGoalVisibleTo(ctx context.Context, id, viewerID string) (*models.Goal, error)
	UpdateGoalStatus(ctx context.Context, id string, status models.GoalStatus, updatedAt time.Time) error
	DeleteGoalCascade(ctx context.Context, goalID string) error
	ListGoalsByCreator(ctx context.Context, creatorID, viewerID string) ([]models.Goal, error)
	ListGoalsForFollowingFeed(ctx context.Context, viewerID string) ([]models.Goal, error)
	SearchGoalsByTitle(ctx context.Context, title, viewerID string) ([]models.Goal, error)

	GetParticipant(ctx context.Context, goalID, userID string) (*models.GoalParticipant, error)
	UpsertActiveParticipant(ctx context.Context, goalID, userID string, joinedAt time.Time) error
	WithdrawParticipant(ctx context.Context, goalID, userID string) error
	CountOtherActiveParticipants(ctx context.Context, goalID, excludeUserID string) (int, error)
	ListParticipants(ctx context.Context, goalID string) ([]models.GoalParticipant, error)

	InsertInvitation(ctx context.Context, inv *models.GoalInvitation) error
	GetInvitation(ctx context.Context, id string) (*models.GoalInvitation, error)
	RespondToInvitation(ctx context.Context, inv *models.GoalInvitation, status models.InvitationStatus, respondedAt time.Time) error
	ListInvitationsForUser(ctx context.Context, userID string, statusFilter models.InvitationStatus) ([]models.GoalInvitation, error)
}

// Service implements goal membership and invitation semantics.
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
		logger: logging.WithComponent("membership"),
	}
}

// CreateGoalInput carries the validated fields for goal creation.
// AutoApprove is accepted and persisted but no code path branches on it;
// join requests always land pending.
type CreateGoalInput struct {
	Title         string                `json:"title" validate:"required,min=1,max=200"`
	Description   string                `json:"description" validate:"max=2000"`
	StickerTarget int                   `json:"sticker_target" validate:"required,gt=0"`
	Mode          models.GoalMode       `json:"mode" validate:"required,goal_mode"`
	Visibility    models.GoalVisibility `json:"visibility" validate:"required,goal_visibility"`
	AutoApprove   bool                  `json:"auto_approve"`
}

// CreateGoal creates an active goal. The creator does not get a
// participant row automatically; they join explicitly via JoinOwnGoal.
func (s *Service) CreateGoal(ctx context.Context, creatorID string, input CreateGoalInput) (*models.Goal, error) {
	if verr := validation.ValidateStruct(&input); verr != nil {
		return nil, fault.Wrap(fault.KindInvalidArgument, verr, "invalid goal")
	}

	now := time.Now().UTC()
	goal := &models.Goal{
		ID:            uuid.New().String(),
		CreatorID:     creatorID,
		Title:         input.Title,
		Description:   input.Description,
		StickerTarget: input.StickerTarget,
		Mode:          input.Mode,
		Visibility:    input.Visibility,
		Status:        models.GoalActive,
		AutoApprove:   input.AutoApprove,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertGoal(ctx, goal); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("goal_id", goal.ID).
		Str("creator_id", creatorID).
		Str("mode", string(goal.Mode)).
		Msg("goal created")
	return goal, nil
}

// JoinOwnGoal creates the creator's own participant row. The client calls
// this after creating a recruitment goal the creator also competes in.
func (s *Service) JoinOwnGoal(ctx context.Context, goalID, actorID string) (*models.GoalParticipant, error) {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if actorID != goal.CreatorID {
		return nil, fault.PermissionDenied("only the creator may self-join")
	}
	if goal.Status != models.GoalActive {
		return nil, fault.InvalidState("goal %s is %s", goalID, goal.Status)
	}

	now := time.Now().UTC()
	if err := s.store.UpsertActiveParticipant(ctx, goalID, actorID, now); err != nil {
		return nil, err
	}
	return s.store.GetParticipant(ctx, goalID, actorID)
}

// CreateJoinRequest opens a request-type invitation from the requester to
// the goal creator. Non-creators may only request to join
// challenger_recruitment goals, and only with an approved follow edge to
// the creator in either direction. The creator bypasses both checks.
func (s *Service) CreateJoinRequest(ctx context.Context, goalID, requesterID, message string) (*models.GoalInvitation, error) {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, fault.InvalidState("goal %s is %s", goalID, goal.Status)
	}

	if requesterID != goal.CreatorID {
		if goal.Mode != models.ModeChallengerRecruitment {
			return nil, fault.PermissionDenied("goal does not accept join requests")
		}
		followed, err := s.store.HasApprovedFollowBetween(ctx, requesterID, goal.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("check follow precondition: %w", err)
		}
		if !followed {
			return nil, fault.PermissionDenied("joining requires an approved follow with the creator")
		}
	}

	if p, err := s.store.GetParticipant(ctx, goalID, requesterID); err != nil {
		return nil, err
	} else if p != nil && p.Status == models.ParticipantActive {
		return nil, fault.Conflict("already a participant of goal %s", goalID)
	}

	inv := &models.GoalInvitation{
		ID:         uuid.New().String(),
		GoalID:     goalID,
		FromUserID: requesterID,
		ToUserID:   goal.CreatorID,
		Type:       models.InviteTypeRequest,
		Status:     models.InvitePending,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.insertInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invitation_id", inv.ID).
		Str("goal_id", goalID).
		Str("requester_id", requesterID).
		Msg("join request created")
	return inv, nil
}

// CreateInvite opens an invite-type invitation from the creator to a user.
func (s *Service) CreateInvite(ctx context.Context, goalID, actorID, toUserID, message string) (*models.GoalInvitation, error) {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if actorID != goal.CreatorID {
		return nil, fault.PermissionDenied("only the creator may invite")
	}
	if goal.Status != models.GoalActive {
		return nil, fault.InvalidState("goal %s is %s", goalID, goal.Status)
	}
	if toUserID == actorID {
		return nil, fault.InvalidArgument("cannot invite yourself")
	}

	invited, err := s.store.GetUserByID(ctx, toUserID)
	if err != nil {
		return nil, fmt.Errorf("load invited user: %w", err)
	}
	if invited == nil {
		return nil, fault.NotFound("user %s not found", toUserID)
	}

	if p, err := s.store.GetParticipant(ctx, goalID, toUserID); err != nil {
		return nil, err
	} else if p != nil && p.Status == models.ParticipantActive {
		return nil, fault.Conflict("user %s is already a participant", toUserID)
	}

	inv := &models.GoalInvitation{
		ID:         uuid.New().String(),
		GoalID:     goalID,
		FromUserID: actorID,
		ToUserID:   toUserID,
		Type:       models.InviteTypeInvite,
		Status:     models.InvitePending,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.insertInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invitation_id", inv.ID).
		Str("goal_id", goalID).
		Str("to_user_id", toUserID).
		Msg("invite created")
	return inv, nil
}

func (s *Service) insertInvitation(ctx context.Context, inv *models.GoalInvitation) error {
	err := s.store.InsertInvitation(ctx, inv)
	if errors.Is(err, database.ErrDuplicateKey) {
		return fault.Conflict("a pending invitation already exists for this goal and user")
	}
	return err
}

// RespondToInvitation finalizes a pending invitation. Only the authorized
// responder may act: the goal creator for request-type, the invited user
// for invite-type. Accepting creates or reactivates the candidate's
// participant row atomically with the status change.
func (s *Service) RespondToInvitation(ctx context.Context, invitationID, actorID string, decision models.InvitationDecision) (*models.GoalInvitation, error) {
	if !decision.Valid() {
		return nil, fault.InvalidArgument("unknown decision %q", decision)
	}

	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	if inv == nil {
		return nil, fault.NotFound("invitation %s not found", invitationID)
	}
	if actorID != inv.Responder() {
		return nil, fault.PermissionDenied("not the authorized responder")
	}
	if inv.Status.Terminal() {
		return nil, fault.InvalidState("invitation %s already %s", invitationID, inv.Status)
	}

	status := models.InviteAccepted
	if decision == models.DecisionReject {
		status = models.InviteRejected
	}

	now := time.Now().UTC()
	err = s.store.RespondToInvitation(ctx, inv, status, now)
	if errors.Is(err, sql.ErrNoRows) {
		// A concurrent response won; the invitation is terminal now.
		return nil, fault.InvalidState("invitation %s already responded to", invitationID)
	}
	if err != nil {
		return nil, err
	}
	inv.Status = status
	inv.RespondedAt = &now

	if status == models.InviteAccepted {
		if err := s.events.Publish(ctx, events.TopicInvitationAccepted, &events.InvitationAccepted{
			InvitationID: inv.ID,
			GoalID:       inv.GoalID,
			CandidateID:  inv.Candidate(),
			ResponderID:  actorID,
			OccurredAt:   now,
		}); err != nil {
			s.logger.Warn().Err(err).Str("invitation_id", inv.ID).
				Msg("invitation.accepted event not published")
		}
	}

	s.logger.Info().
		Str("invitation_id", inv.ID).
		Str("goal_id", inv.GoalID).
		Str("status", string(status)).
		Msg("invitation responded")
	return inv, nil
}

// LeaveGoal withdraws the user's active participation. The creator cannot
// leave their own goal; they must delete it instead.
func (s *Service) LeaveGoal(ctx context.Context, goalID, userID string) error {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if userID == goal.CreatorID {
		return fault.PermissionDenied("the creator cannot leave; delete the goal instead")
	}

	err = s.store.WithdrawParticipant(ctx, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fault.NotFound("no active participation in goal %s", goalID)
	}
	return err
}

// DeleteGoal removes the goal with its participants and invitations. It
// fails while any participant other than the creator is still active. The
// sticker ledger is cleaned up downstream via the goal.deleted event.
func (s *Service) DeleteGoal(ctx context.Context, goalID, actorID string) error {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if actorID != goal.CreatorID {
		return fault.PermissionDenied("only the creator may delete")
	}

	others, err := s.store.CountOtherActiveParticipants(ctx, goalID, goal.CreatorID)
	if err != nil {
		return err
	}
	if others > 0 {
		return fault.Conflict("goal has %d other active participants", others)
	}

	if err := s.store.DeleteGoalCascade(ctx, goalID); err != nil {
		return err
	}

	if err := s.events.Publish(ctx, events.TopicGoalDeleted, &events.GoalDeleted{
		GoalID:     goalID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("goal_id", goalID).Msg("goal.deleted event not published")
	}

	s.logger.Info().Str("goal_id", goalID).Str("actor_id", actorID).Msg("goal deleted")
	return nil
}

// CompleteGoal transitions an active goal to completed. Creator only;
// repeating the call on an already-completed goal is a no-op.
func (s *Service) CompleteGoal(ctx context.Context, goalID, actorID string) (*models.Goal, error) {
	return s.transitionStatus(ctx, goalID, actorID, models.GoalCompleted)
}

// CancelGoal transitions an active goal to cancelled. Creator only;
// repeating the call on an already-cancelled goal is a no-op.
func (s *Service) CancelGoal(ctx context.Context, goalID, actorID string) (*models.Goal, error) {
	return s.transitionStatus(ctx, goalID, actorID, models.GoalCancelled)
}

func (s *Service) transitionStatus(ctx context.Context, goalID, actorID string, target models.GoalStatus) (*models.Goal, error) {
	goal, err := s.requireGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if actorID != goal.CreatorID {
		return nil, fault.PermissionDenied("only the creator may change goal status")
	}
	if goal.Status == target {
		return goal, nil
	}
	if goal.Status != models.GoalActive {
		return nil, fault.InvalidState("goal %s is %s", goalID, goal.Status)
	}

	now := time.Now().UTC()
	if err := s.store.UpdateGoalStatus(ctx, goalID, target, now); err != nil {
		return nil, err
	}
	goal.Status = target
	goal.UpdatedAt = now
	return goal, nil
}

// GetGoal returns the goal if it is visible to the viewer. Invisible and
// missing goals are indistinguishable to the caller.
func (s *Service) GetGoal(ctx context.Context, goalID, viewerID string) (*models.Goal, error) {
	goal, err := s.store.GetGoalVisibleTo(ctx, goalID, viewerID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fault.NotFound("goal %s not found", goalID)
	}
	return goal, nil
}

// ListGoalsByCreator returns the creator's goals visible to the viewer.
func (s *Service) ListGoalsByCreator(ctx context.Context, creatorID, viewerID string) ([]models.Goal, error) {
	return s.store.ListGoalsByCreator(ctx, creatorID, viewerID)
}

// ListGoalsForFollowingFeed returns visible goals from users the viewer
// has an approved follow with.
func (s *Service) ListGoalsForFollowingFeed(ctx context.Context, viewerID string) ([]models.Goal, error) {
	return s.store.ListGoalsForFollowingFeed(ctx, viewerID)
}

// SearchGoalsByTitle returns visible goals matching the title substring.
func (s *Service) SearchGoalsByTitle(ctx context.Context, title, viewerID string) ([]models.Goal, error) {
	if title == "" {
		return nil, fault.InvalidArgument("empty search query")
	}
	return s.store.SearchGoalsByTitle(ctx, title, viewerID)
}

// ListParticipants returns a visible goal's participants.
func (s *Service) ListParticipants(ctx context.Context, goalID, viewerID string) ([]models.GoalParticipant, error) {
	if _, err := s.GetGoal(ctx, goalID, viewerID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, goalID)
}

// GetInvitation returns an invitation the actor is a party to.
func (s *Service) GetInvitation(ctx context.Context, invitationID, actorID string) (*models.GoalInvitation, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	if inv == nil || (inv.FromUserID != actorID && inv.ToUserID != actorID) {
		return nil, fault.NotFound("invitation %s not found", invitationID)
	}
	return inv, nil
}

// ListInvitations returns all invitations where the actor is on either
// side, optionally narrowed by status.
func (s *Service) ListInvitations(ctx context.Context, actorID string, statusFilter models.InvitationStatus) ([]models.GoalInvitation, error) {
	if statusFilter != "" && !statusFilter.Valid() {
		return nil, fault.InvalidArgument("unknown invitation status %q", statusFilter)
	}
	return s.store.ListInvitationsForUser(ctx, actorID, statusFilter)
}

func (s *Service) requireGoal(ctx context.Context, goalID string) (*models.Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil {
		return nil, fault.NotFound("goal %s not found", goalID)
	}
	return goal, nil
}
