// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package models defines the domain entities owned by the Goalpost services:
// users, follow edges, goals, goal participants, goal invitations, and
// sticker ledger entries.
//
// Status and mode values are modeled as closed string types with explicit
// Valid() checks and Parse helpers rather than free-form strings, so invalid
// states are rejected at the service boundary instead of leaking into storage.
//
// Entity ownership:
//   - FollowEdge: internal/followgraph
//   - Goal, GoalParticipant, GoalInvitation: internal/membership
//   - StickerGrantEntry (and the cached participant counter): internal/stickerledger
//
// The structs here are shared read/write records; all mutation goes through
// the owning service.
package models
