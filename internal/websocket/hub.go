// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package websocket pushes live hints to connected clients. The only
// message the server originates is pending_changed, telling the client
// to refetch its pending-items view; no domain data travels over the
// socket.
package websocket

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/metrics"
)

// Message types exchanged with clients.
const (
	MessageTypePendingChanged = "pending_changed"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message is the websocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub tracks live connections per user. A user may hold several
// connections at once (phone and web); a nudge reaches all of them.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	log    zerolog.Logger
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		log:    logging.WithComponent("websocket"),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	conns, ok := h.byUser[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.byUser[c.userID] = conns
	}
	conns[c] = struct{}{}
	metrics.WebsocketConnections.Inc()
	h.log.Debug().Str("user_id", c.userID).Int("connections", len(conns)).Msg("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.byUser[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.byUser, c.userID)
	}
	close(c.send)
	metrics.WebsocketConnections.Dec()
	h.log.Debug().Str("user_id", c.userID).Msg("client disconnected")
}

// NotifyPendingChanged nudges every live connection of the user. A
// client whose send buffer is full is skipped; it will catch up on its
// next refetch.
func (h *Hub) NotifyPendingChanged(userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.byUser[userID] {
		select {
		case c.send <- Message{Type: MessageTypePendingChanged}:
		default:
		}
	}
}

// ConnectionCount reports the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// Close disconnects all clients and rejects further registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, conns := range h.byUser {
		for c := range conns {
			close(c.send)
			metrics.WebsocketConnections.Dec()
		}
		delete(h.byUser, userID)
	}
}
