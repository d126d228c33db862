package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
)

func newWSTestServer(hub *Hub, userID, petID string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r, userID, petID)
	}))
}

func dialWS(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	return conn
}

func readEnvelope(t *testing.T, conn *gws.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read envelope: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	return env
}

// A reconnect for the same user id must replace the old session without
// the old session's teardown evicting the new one.
func TestReconnectKeepsReplacementSession(t *testing.T) {
	hub := newTestHub()
	defer hub.Stop()
	srv := newWSTestServer(hub, "A", "42")
	defer srv.Close()

	first := dialWS(t, srv)
	defer first.Close()
	if env := readEnvelope(t, first); env.Type != MessageTypeConnect {
		t.Fatalf("first session expected connect confirmation, got %q", env.Type)
	}

	second := dialWS(t, srv)
	defer second.Close()
	if env := readEnvelope(t, second); env.Type != MessageTypeConnect || env.ClientID != "A" {
		t.Fatalf("second session expected connect confirmation for A, got %+v", env)
	}

	// The server closes the displaced socket; wait until the first
	// session observes it so its teardown callback has fired (or is
	// about to) before asserting on the replacement.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	time.Sleep(100 * time.Millisecond)

	if got := hub.ConnectionCount(); got != 1 {
		t.Fatalf("after reconnect, ConnectionCount=%d, want 1", got)
	}
	if got := hub.RoomMembers("42"); len(got) != 1 || got[0] != "A" {
		t.Fatalf("after reconnect, room 42 members=%v, want [A]", got)
	}

	// The replacement session must still be wired for delivery.
	hub.SendMetricsUpdate("42", map[string]interface{}{"hunger": 25.0})
	env := readEnvelope(t, second)
	if env.Type != MessageTypePetMetricsUpdate || env.PetID != "42" {
		t.Fatalf("replacement session should receive room traffic, got %+v", env)
	}
}
