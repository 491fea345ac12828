// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mjseo/goalpost/internal/metrics"
	"github.com/mjseo/goalpost/internal/models"
)

// ErrDuplicateKey is returned when an insert violates a uniqueness
// constraint. Callers translate it to the appropriate domain fault.
var ErrDuplicateKey = errors.New("duplicate key")

// isConstraintViolation detects DuckDB unique/primary key violations.
// DuckDB surfaces them as generic errors mentioning the constraint, so the
// check is textual.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint") || strings.Contains(msg, "duplicate key")
}

// CreateUser inserts a new user. Returns ErrDuplicateKey when the email is
// already registered.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, nickname, email, profile_image_ref, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		user.ID, user.Nickname, user.Email, nullable(user.ProfileImageRef),
		user.PasswordHash, user.CreatedAt,
	)
	metrics.ObserveDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicateKey)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID, or nil when absent.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, nickname, email, profile_image_ref, password_hash, created_at
		FROM users WHERE id = ?
	`
	return scanUser(db.conn.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, or nil when absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, nickname, email, profile_image_ref, password_hash, created_at
		FROM users WHERE email = ?
	`
	return scanUser(db.conn.QueryRowContext(ctx, query, email))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var imageRef sql.NullString
	err := row.Scan(&u.ID, &u.Nickname, &u.Email, &imageRef, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ProfileImageRef = imageRef.String
	return &u, nil
}

// nullable converts "" to NULL for optional text columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
