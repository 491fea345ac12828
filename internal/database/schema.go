// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

/*
schema.go - Database Schema Management

Five logical tables correspond 1:1 to the domain entities, plus users:

  - users: account records (bcrypt password hash, never plaintext)
  - follow_edges: directed follow relationships; UNIQUE(follower_id,
    following_id) makes concurrent duplicate requests collapse to one edge
  - goals: goal definitions
  - goal_participants: membership rows with the cached sticker counter;
    UNIQUE(goal_id, user_id)
  - goal_invitations: join proposals; the nullable pending_key column is
    UNIQUE and holds goal_id/candidate while status is pending, so at most
    one pending invitation can exist per goal and candidate member (NULLs
    are distinct, responded invitations do not collide)
  - sticker_ledger: append-only grant/revoke entries

All schema statements are idempotent (IF NOT EXISTS); the full schema is
defined up front rather than through migrations.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			nickname TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			profile_image_ref TEXT,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS follow_edges (
			id UUID PRIMARY KEY,
			follower_id UUID NOT NULL,
			following_id UUID NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			approved_at TIMESTAMP,
			UNIQUE (follower_id, following_id),
			CHECK (follower_id <> following_id),
			CHECK (status IN ('pending', 'approved', 'blocked'))
		)`,

		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY,
			creator_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			sticker_target INTEGER NOT NULL,
			mode TEXT NOT NULL,
			visibility TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			auto_approve BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (sticker_target > 0),
			CHECK (mode IN ('personal', 'competition', 'challenger_recruitment')),
			CHECK (visibility IN ('public', 'followers', 'private')),
			CHECK (status IN ('active', 'completed', 'cancelled'))
		)`,

		`CREATE TABLE IF NOT EXISTS goal_participants (
			goal_id UUID NOT NULL,
			user_id UUID NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			current_sticker_count INTEGER NOT NULL DEFAULT 0,
			joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (goal_id, user_id),
			CHECK (status IN ('active', 'withdrawn')),
			CHECK (current_sticker_count >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS goal_invitations (
			id UUID PRIMARY KEY,
			goal_id UUID NOT NULL,
			from_user_id UUID NOT NULL,
			to_user_id UUID NOT NULL,
			invitation_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			message TEXT,
			pending_key TEXT UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			responded_at TIMESTAMP,
			CHECK (invitation_type IN ('invite', 'request')),
			CHECK (status IN ('pending', 'accepted', 'rejected'))
		)`,

		`CREATE TABLE IF NOT EXISTS sticker_ledger (
			id UUID PRIMARY KEY,
			goal_id UUID NOT NULL,
			recipient_id UUID NOT NULL,
			granted_by UUID NOT NULL,
			delta INTEGER NOT NULL,
			reason TEXT,
			idempotency_key TEXT,
			ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (delta <> 0)
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_follow_follower ON follow_edges (follower_id)`,
		`CREATE INDEX IF NOT EXISTS idx_follow_following ON follow_edges (following_id)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_creator ON goals (creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_goal ON goal_invitations (goal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_from ON goal_invitations (from_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_to ON goal_invitations (to_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_goal_recipient ON sticker_ledger (goal_id, recipient_id)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
