// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package auth covers account registration, login, and session token
// verification. Sessions are stateless HS256 tokens; there is no
// server-side revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/fault"
	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/models"
	"github.com/mjseo/goalpost/internal/validation"
)

// Store is the account persistence the service needs. Satisfied by
// *database.DB.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Service implements registration and login.
type Service struct {
	store      Store
	jwt        *JWTManager
	bcryptCost int
	log        zerolog.Logger
}

// NewService wires the account service.
func NewService(store Store, jwt *JWTManager, cfg *config.SecurityConfig) *Service {
	return &Service{
		store:      store,
		jwt:        jwt,
		bcryptCost: cfg.BcryptCost,
		log:        logging.WithComponent("auth"),
	}
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Nickname string `json:"nickname" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates an account. Emails are normalized to lower case so
// that the uniqueness constraint is case-insensitive.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateStruct(in); err != nil {
		return nil, fault.Wrap(fault.KindInvalidArgument, err, "invalid registration")
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalidArgument, err, "invalid password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Nickname:     in.Nickname,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, fault.Conflict("email %s is already registered", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies credentials and issues a session token. A missing
// account and a wrong password produce the same error so the endpoint
// does not leak which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fault.InvalidArgument("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, fault.PermissionDenied("invalid credentials")
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Nickname)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &LoginResult{Token: token, User: user}, nil
}

// GetUser returns the account for an authenticated subject.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fault.NotFound("user %s not found", userID)
	}
	return user, nil
}
