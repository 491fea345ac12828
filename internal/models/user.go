// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// User represents an account holder. Identity fields are immutable after
// registration; every other entity references users by ID only.
type User struct {
	ID              string    `json:"id"`
	Nickname        string    `json:"nickname"`
	Email           string    `json:"email"`
	ProfileImageRef string    `json:"profile_image_ref,omitempty"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
