// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// FollowStatus is the lifecycle state of a follow edge.
//
// State machine: pending -> approved (target approves), and
// pending|approved -> blocked (target blocks, terminal). Edges are never
// hard-deleted except by the follower's own unfollow.
type FollowStatus string

const (
	FollowPending  FollowStatus = "pending"
	FollowApproved FollowStatus = "approved"
	FollowBlocked  FollowStatus = "blocked"
)

// Valid reports whether s is a known follow status.
func (s FollowStatus) Valid() bool {
	switch s {
	case FollowPending, FollowApproved, FollowBlocked:
		return true
	}
	return false
}

// ParseFollowStatus converts a raw string into a FollowStatus.
// The second return value is false for unknown values.
func ParseFollowStatus(raw string) (FollowStatus, bool) {
	s := FollowStatus(raw)
	return s, s.Valid()
}

// FollowEdge is a directed follow relationship between two users.
// The (FollowerID, FollowingID) pair is unique; self-follow is rejected
// before the edge is ever created.
type FollowEdge struct {
	ID          string       `json:"id"`
	FollowerID  string       `json:"follower_id"`
	FollowingID string       `json:"following_id"`
	Status      FollowStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ApprovedAt  *time.Time   `json:"approved_at,omitempty"`
}

// Involves reports whether userID is on either side of the edge.
func (e *FollowEdge) Involves(userID string) bool {
	return e.FollowerID == userID || e.FollowingID == userID
}

// FollowStatusResult is the result of a follow-status check.
type FollowStatusResult struct {
	IsFollowed bool        `json:"is_followed"`
	Edge       *FollowEdge `json:"edge,omitempty"`
}
