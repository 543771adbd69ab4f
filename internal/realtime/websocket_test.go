package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"silowatch/internal/events"
)

type fakeIdentity struct {
	users map[string]struct{ userID, orgID string }
}

func (f *fakeIdentity) Resolve(ctx context.Context, credential string) (string, string, error) {
	u, ok := f.users[credential]
	if !ok {
		return "", "", ErrUnauthorized
	}
	return u.userID, u.orgID, nil
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]struct{ userID, orgID string }{
		"good-token":  {"user-1", "org-1"},
		"no-org-token": {"user-2", ""},
	}}
}

func TestWSHandler_RejectsBadCredentials(t *testing.T) {
	hub := NewHub(events.NewBus())
	handler := NewWSHandler(hub, newFakeIdentity())

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing credential", "", "", http.StatusUnauthorized},
		{"invalid token", "Bearer expired-or-garbage", "", http.StatusUnauthorized},
		{"malformed header", "Basic abc", "", http.StatusUnauthorized},
		{"no organization", "Bearer no-org-token", "", http.StatusForbidden},
		{"query token invalid", "", "garbage", http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			url := "/ws"
			if c.query != "" {
				url += "?token=" + c.query
			}
			r := httptest.NewRequest(http.MethodGet, url, nil)
			if c.header != "" {
				r.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != c.status {
				t.Errorf("status = %d, want %d", w.Code, c.status)
			}
		})
	}
}

func TestWSHandler_DeliversOrgEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	hub := NewHub(bus)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(NewWSHandler(hub, newFakeIdentity()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good-token"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the session to land in the room before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("org-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	bus.Publish(events.Event{
		Kind:    events.KindAlertCreated,
		OrgID:   "org-1",
		Payload: json.RawMessage(`{"level":"critical"}`),
		At:      time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Kind != string(events.KindAlertCreated) {
		t.Errorf("kind = %q", f.Kind)
	}
}

func TestWSHandler_DisconnectTearsDownSession(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	hub := NewHub(bus)
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(NewWSHandler(hub, newFakeIdentity()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good-token"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("org-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.RoomSize("org-1") != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.RoomSize("org-1"); got != 0 {
		t.Errorf("room size after disconnect = %d, want 0", got)
	}
}
