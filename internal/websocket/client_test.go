// FLWarden - Freelancer Server Supervisor and FLHook Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flwarden

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// liveServer upgrades every request and registers the client with h.
func liveServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn)
		if !h.Register(r.Context(), c) {
			_ = conn.Close()
			return
		}
		c.Start()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_ReceivesNotifications(t *testing.T) {
	h := NewHub()
	startHub(t, h)
	conn := dial(t, liveServer(t, h))
	waitClients(t, h, 1)

	h.Notify(MessageTypeTrafficAlert, map[string]any{"ip": "203.0.113.7", "kbps": 512})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypeTrafficAlert {
		t.Errorf("Type = %q", msg.Type)
	}
}

func TestClient_PingPong(t *testing.T) {
	h := NewHub()
	startHub(t, h)
	conn := dial(t, liveServer(t, h))
	waitClients(t, h, 1)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	h := NewHub()
	startHub(t, h)
	conn := dial(t, liveServer(t, h))
	waitClients(t, h, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitClients(t, h, 0)
}

func TestClientTimings(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be below pongWait %v", pingPeriod, pongWait)
	}
	if a, b := NewClient(nil, nil), NewClient(nil, nil); b.ID() <= a.ID() {
		t.Errorf("ids not increasing: %d, %d", a.ID(), b.ID())
	}
}
