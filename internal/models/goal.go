// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// GoalMode determines how users may participate in a goal.
type GoalMode string

const (
	// ModePersonal is a solo goal; only the creator participates.
	ModePersonal GoalMode = "personal"

	// ModeCompetition is a multi-user goal joined by creator invitation.
	ModeCompetition GoalMode = "competition"

	// ModeChallengerRecruitment accepts join requests from any user,
	// without the follow-relationship precondition applied to other modes.
	ModeChallengerRecruitment GoalMode = "challenger_recruitment"
)

// Valid reports whether m is a known goal mode.
func (m GoalMode) Valid() bool {
	switch m {
	case ModePersonal, ModeCompetition, ModeChallengerRecruitment:
		return true
	}
	return false
}

// ParseGoalMode converts a raw string into a GoalMode.
func ParseGoalMode(raw string) (GoalMode, bool) {
	m := GoalMode(raw)
	return m, m.Valid()
}

// GoalVisibility controls who can see a goal in reads and searches.
type GoalVisibility string

const (
	// VisibilityPublic goals are visible to everyone.
	VisibilityPublic GoalVisibility = "public"

	// VisibilityFollowers goals are visible only to users with an approved
	// follow edge to the creator (either direction).
	VisibilityFollowers GoalVisibility = "followers"

	// VisibilityPrivate goals are visible only to the creator.
	VisibilityPrivate GoalVisibility = "private"
)

// Valid reports whether v is a known visibility.
func (v GoalVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFollowers, VisibilityPrivate:
		return true
	}
	return false
}

// ParseGoalVisibility converts a raw string into a GoalVisibility.
func ParseGoalVisibility(raw string) (GoalVisibility, bool) {
	v := GoalVisibility(raw)
	return v, v.Valid()
}

// GoalStatus is the lifecycle state of a goal.
//
// Reaching the sticker target never changes this by itself; completed and
// cancelled are explicit creator actions.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalCancelled:
		return true
	}
	return false
}

// Goal is a user-defined target of StickerTarget stickers to collect.
type Goal struct {
	ID            string         `json:"id"`
	CreatorID     string         `json:"creator_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	StickerTarget int            `json:"sticker_target"`
	Mode          GoalMode       `json:"mode"`
	Visibility    GoalVisibility `json:"visibility"`
	Status        GoalStatus     `json:"status"`

	// AutoApprove is stored and returned but no code path branches on it;
	// join requests always land pending. Reserved until the product
	// decides whether it should auto-accept requests.
	AutoApprove bool `json:"auto_approve"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParticipantStatus is the membership state of a goal participant.
type ParticipantStatus string

const (
	ParticipantActive    ParticipantStatus = "active"
	ParticipantWithdrawn ParticipantStatus = "withdrawn"
)

// Valid reports whether s is a known participant status.
func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantActive, ParticipantWithdrawn:
		return true
	}
	return false
}

// GoalParticipant is a user's membership record in a goal. The
// (GoalID, UserID) pair is unique. CurrentStickerCount is a cached running
// sum over the sticker ledger and is written only by the sticker ledger
// service; it always satisfies 0 <= CurrentStickerCount <= Goal.StickerTarget.
type GoalParticipant struct {
	GoalID              string            `json:"goal_id"`
	UserID              string            `json:"user_id"`
	Status              ParticipantStatus `json:"status"`
	CurrentStickerCount int               `json:"current_sticker_count"`
	JoinedAt            time.Time         `json:"joined_at"`
}
