// Package realtime delivers live events to authenticated viewers: an
// organization-scoped WebSocket room per org and a per-device SSE update
// stream. Both are projections over the same event bus subscription model.
package realtime

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned for a missing, invalid, or expired viewer
// credential. Connections are rejected, never retried.
var ErrUnauthorized = errors.New("unauthorized")

// IdentityResolver verifies a bearer credential and resolves it to an owning
// organization. orgID is empty when the identity has no organization.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (userID, orgID string, err error)
}

// Session is one viewer connection bound to an organization for its lifetime.
// The binding is immutable after Join.
type Session struct {
	ID     string
	UserID string
	OrgID  string

	send chan []byte
}

func newSession(userID, orgID string, buffer int) *Session {
	return &Session{
		ID:     uuid.New().String(),
		UserID: userID,
		OrgID:  orgID,
		send:   make(chan []byte, buffer),
	}
}

// Send returns the channel the hub delivers frames on. It is closed when the
// session leaves the hub.
func (s *Session) Send() <-chan []byte {
	return s.send
}
