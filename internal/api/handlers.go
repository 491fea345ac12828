// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package api provides the HTTP surface: chi routing, request decoding,
// the response envelope, and the mapping from domain faults to status
// codes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/mjseo/goalpost/internal/auth"
	"github.com/mjseo/goalpost/internal/fault"
	"github.com/mjseo/goalpost/internal/followgraph"
	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/membership"
	"github.com/mjseo/goalpost/internal/models"
	"github.com/mjseo/goalpost/internal/notifications"
	"github.com/mjseo/goalpost/internal/stickerledger"
	"github.com/mjseo/goalpost/internal/websocket"
)

// maxBodyBytes caps request bodies well above any legitimate payload.
const maxBodyBytes = 64 * 1024

// Pinger is the readiness probe dependency, satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	accounts      *auth.Service
	follows       *followgraph.Service
	memberships   *membership.Service
	stickers      *stickerledger.Service
	notifications *notifications.Aggregator
	hub           *websocket.Hub
	db            Pinger
}

// NewHandler wires the handler. hub may be nil when the live channel is
// disabled; the websocket endpoint then answers 503.
func NewHandler(
	accounts *auth.Service,
	follows *followgraph.Service,
	memberships *membership.Service,
	stickers *stickerledger.Service,
	aggregator *notifications.Aggregator,
	hub *websocket.Hub,
	db Pinger,
) *Handler {
	return &Handler{
		accounts:      accounts,
		follows:       follows,
		memberships:   memberships,
		stickers:      stickers,
		notifications: aggregator,
		hub:           hub,
		db:            db,
	}
}

// respondJSON writes the success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError writes the error envelope with an explicit status.
func respondError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

// respondFault maps a service error to the HTTP status and stable code
// for its kind. Unknown kinds are logged and masked as 500.
func respondFault(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	status, code := httpStatus(kind)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		respondError(w, status, code, "internal error")
		return
	}

	message := err.Error()
	var ferr *fault.Error
	if errors.As(err, &ferr) {
		message = ferr.Message()
	}
	respondError(w, status, code, message)
}

func httpStatus(kind fault.Kind) (int, string) {
	switch kind {
	case fault.KindInvalidArgument:
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case fault.KindPermissionDenied:
		return http.StatusForbidden, "PERMISSION_DENIED"
	case fault.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case fault.KindInvalidState:
		return http.StatusConflict, "INVALID_STATE"
	case fault.KindConflict:
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeEnvelope(w http.ResponseWriter, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

// decodeBody decodes a JSON request body into dst. A malformed body is
// reported to the client and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body")
		return false
	}
	return true
}

// actor returns the authenticated user ID. The auth middleware
// guarantees it is present on protected routes.
func actor(r *http.Request) string {
	return auth.ActorID(r.Context())
}
