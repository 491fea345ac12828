// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/mjseo/goalpost/internal/auth"
)

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	result, err := h.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Me handles GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
