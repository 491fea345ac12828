// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// InvitationType distinguishes who initiated the proposal to join a goal.
type InvitationType string

const (
	// InviteTypeInvite is creator-initiated: the goal creator invites a user.
	InviteTypeInvite InvitationType = "invite"

	// InviteTypeRequest is user-initiated: a user asks to join a goal.
	InviteTypeRequest InvitationType = "request"
)

// Valid reports whether t is a known invitation type.
func (t InvitationType) Valid() bool {
	switch t {
	case InviteTypeInvite, InviteTypeRequest:
		return true
	}
	return false
}

// InvitationStatus is the lifecycle state of an invitation.
// Once non-pending it is terminal.
type InvitationStatus string

const (
	InvitePending  InvitationStatus = "pending"
	InviteAccepted InvitationStatus = "accepted"
	InviteRejected InvitationStatus = "rejected"
)

// Valid reports whether s is a known invitation status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteRejected:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transition.
func (s InvitationStatus) Terminal() bool {
	return s == InviteAccepted || s == InviteRejected
}

// InvitationDecision is a responder's decision on a pending invitation.
type InvitationDecision string

const (
	DecisionAccept InvitationDecision = "accept"
	DecisionReject InvitationDecision = "reject"
)

// Valid reports whether d is a known decision.
func (d InvitationDecision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// GoalInvitation is a pending proposal to join a goal.
//
// For a request-type invitation FromUserID is the requester and ToUserID is
// the goal creator; the creator is the authorized responder. For an
// invite-type invitation FromUserID is the creator and ToUserID is the
// invited user, who is the authorized responder.
//
// Invariant: at most one pending invitation exists per (GoalID, Candidate()).
type GoalInvitation struct {
	ID          string           `json:"id"`
	GoalID      string           `json:"goal_id"`
	FromUserID  string           `json:"from_user_id"`
	ToUserID    string           `json:"to_user_id"`
	Type        InvitationType   `json:"type"`
	Status      InvitationStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// Responder returns the user ID authorized to respond to the invitation.
// For requests that is the goal creator (the ToUserID side); for invites it
// is the invited user.
func (i *GoalInvitation) Responder() string {
	return i.ToUserID
}

// Candidate returns the user whose membership is proposed: the requester for
// request-type invitations, the invited user for invite-type. The pending
// uniqueness rule is keyed on (GoalID, Candidate), so a user cannot hold two
// open proposals for the same goal regardless of direction.
func (i *GoalInvitation) Candidate() string {
	if i.Type == InviteTypeRequest {
		return i.FromUserID
	}
	return i.ToUserID
}
