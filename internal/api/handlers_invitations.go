// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjseo/goalpost/internal/models"
)

// RespondToInvitation handles POST /api/v1/invitations/{invitationID}/respond.
func (h *Handler) RespondToInvitation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Decision models.InvitationDecision `json:"decision"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if !in.Decision.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "decision must be accept or reject")
		return
	}

	inv, err := h.memberships.RespondToInvitation(r.Context(), chi.URLParam(r, "invitationID"), actor(r), in.Decision)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// GetInvitation handles GET /api/v1/invitations/{invitationID}.
func (h *Handler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.memberships.GetInvitation(r.Context(), chi.URLParam(r, "invitationID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// ListInvitations handles GET /api/v1/invitations?status=.
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	filter := models.InvitationStatus(r.URL.Query().Get("status"))
	invs, err := h.memberships.ListInvitations(r.Context(), actor(r), filter)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invs)
}
