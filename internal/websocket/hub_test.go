// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHubServer(t *testing.T, h *Hub) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		_ = h.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, userID string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?user="+userID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, h *Hub, userID string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ConnectionCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("connection count for %s never reached %d", userID, want)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func TestNotifyPendingChangedReachesAllUserConnections(t *testing.T) {
	h := NewHub()
	t.Cleanup(h.Close)
	url := startHubServer(t, h)

	alicePhone := dial(t, url, "alice")
	aliceWeb := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	waitForConnections(t, h, "alice", 2)
	waitForConnections(t, h, "bob", 1)

	h.NotifyPendingChanged("alice")

	for _, conn := range []*websocket.Conn{alicePhone, aliceWeb} {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypePendingChanged {
			t.Errorf("type = %q, want %q", msg.Type, MessageTypePendingChanged)
		}
	}

	// Bob gets nothing; the next frame he sees is his pong reply.
	if err := bob.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readMessage(t, bob); msg.Type != MessageTypePong {
		t.Errorf("bob got %q, want %q", msg.Type, MessageTypePong)
	}
}

func TestNotifyWithoutConnectionsIsNoop(t *testing.T) {
	h := NewHub()
	t.Cleanup(h.Close)

	h.NotifyPendingChanged("nobody")
}

func TestDisconnectRemovesClient(t *testing.T) {
	h := NewHub()
	t.Cleanup(h.Close)
	url := startHubServer(t, h)

	conn := dial(t, url, "alice")
	waitForConnections(t, h, "alice", 1)

	conn.Close()
	waitForConnections(t, h, "alice", 0)
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := NewHub()
	url := startHubServer(t, h)

	conn := dial(t, url, "alice")
	waitForConnections(t, h, "alice", 1)

	h.Close()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err == nil {
		t.Error("expected close after hub shutdown")
	}
	if h.ConnectionCount("alice") != 0 {
		t.Error("hub should have no connections after close")
	}
}
