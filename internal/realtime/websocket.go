package realtime

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSHandler upgrades viewer connections and binds them to their org room.
type WSHandler struct {
	hub      *Hub
	identity IdentityResolver
	upgrader websocket.Upgrader
}

// NewWSHandler returns the WebSocket endpoint handler.
func NewWSHandler(hub *Hub, identity IdentityResolver) *WSHandler {
	return &WSHandler{
		hub:      hub,
		identity: identity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot set Authorization on WebSocket requests, so the
			// credential may arrive as a query parameter instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// BearerCredential extracts the viewer credential from the Authorization
// header or, failing that, the token query parameter.
func BearerCredential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP authenticates the viewer, resolves the owning organization, and on
// success joins the connection to the org room. Missing, invalid, or expired
// credentials and org-less identities are rejected before the upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := BearerCredential(r)
	if credential == "" {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}
	userID, orgID, err := h.identity.Resolve(r.Context(), credential)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}
		http.Error(w, "identity resolution failed", http.StatusInternalServerError)
		return
	}
	if orgID == "" {
		http.Error(w, "no organization", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	session := h.hub.Join(userID, orgID)
	go h.writePump(conn, session)
	h.readPump(conn, session)
}

// writePump pushes hub frames to the connection and keeps it alive with pings.
// Exits when the session leaves the hub or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes (and discards) client messages to process control frames.
// When the connection drops, the session is torn down synchronously so no
// further delivery is attempted.
func (h *WSHandler) readPump(conn *websocket.Conn, s *Session) {
	defer func() {
		h.hub.Leave(s)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
