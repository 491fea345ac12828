// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// StickerGrantEntry is one append-only record in the sticker ledger.
// Positive Delta is a grant, negative a revoke; zero is never stored.
//
// The ledger is the source of truth for progress: for every participant the
// cached GoalParticipant.CurrentStickerCount equals the sum of that
// participant's entry deltas at all times.
type StickerGrantEntry struct {
	ID          string    `json:"id"`
	GoalID      string    `json:"goal_id"`
	RecipientID string    `json:"recipient_id"`
	GrantedBy   string    `json:"granted_by"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// GrantResult is the outcome of a sticker grant or revoke.
//
// GoalCompleted signals that the new count reached the goal's sticker target.
// It is a hint for the caller's completion UX only; goal status stays under
// explicit creator control.
type GrantResult struct {
	Entry         StickerGrantEntry `json:"entry"`
	NewCount      int               `json:"new_count"`
	GoalCompleted bool              `json:"goal_completed"`

	// Replayed is true when an idempotency key was supplied and the call
	// matched an already-applied grant; the stored result is returned and
	// no new ledger entry is appended.
	Replayed bool `json:"replayed,omitempty"`
}
