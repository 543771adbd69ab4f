package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"silowatch/internal/events"
)

// sessionBuffer is the per-connection frame backlog. A viewer that falls
// further behind is disconnected rather than allowed to stall dispatch.
const sessionBuffer = 256

// frame is the wire shape delivered to viewers on both transports.
type frame struct {
	Kind     string          `json:"kind"`
	DeviceID string          `json:"deviceId,omitempty"`
	Channel  string          `json:"channel,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

func encodeFrame(e events.Event) []byte {
	b, err := json.Marshal(frame{
		Kind:     string(e.Kind),
		DeviceID: e.DeviceID,
		Channel:  e.Channel,
		Payload:  e.Payload,
		At:       e.At,
	})
	if err != nil {
		return nil
	}
	return b
}

// Hub routes live events to viewer sessions grouped into per-organization
// rooms. Events are delivered at most once per session; an event published
// before a session joins is never replayed.
type Hub struct {
	bus *events.Bus

	mu      sync.Mutex
	rooms   map[string]map[*Session]struct{}
	started bool
	sub     *events.Subscription
	done    chan struct{}
}

// NewHub returns a hub over the given bus.
func NewHub(bus *events.Bus) *Hub {
	return &Hub{bus: bus, rooms: make(map[string]map[*Session]struct{})}
}

// Start subscribes to the bus and begins dispatching. Idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return
	}
	h.started = true
	h.sub = h.bus.Subscribe()
	h.done = make(chan struct{})
	go h.run()
}

// Stop unsubscribes and waits for the dispatch loop to exit. Sessions are not
// closed; their connections tear them down individually.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	sub, done := h.sub, h.done
	h.mu.Unlock()

	sub.Close()
	<-done
}

func (h *Hub) run() {
	defer close(h.done)
	for e := range h.sub.C {
		h.dispatch(e)
	}
}

// Join binds a new session to its organization's room. The caller must have
// authenticated the viewer and resolved a non-empty orgID first.
func (h *Hub) Join(userID, orgID string) *Session {
	s := newSession(userID, orgID, sessionBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[orgID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[orgID] = room
	}
	room[s] = struct{}{}
	return s
}

// Leave removes the session from its room and closes its send channel. It is
// synchronous: once it returns, no further delivery attempts are made. Safe to
// call more than once.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Session) {
	room, ok := h.rooms[s.OrgID]
	if !ok {
		return
	}
	if _, ok := room[s]; !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, s.OrgID)
	}
	close(s.send)
}

// RoomSize returns the number of sessions bound to an organization.
func (h *Hub) RoomSize(orgID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[orgID])
}

// dispatch delivers an event to every session in the event's organization
// room. Sessions in other rooms never observe it. A session whose buffer is
// full is disconnected so one slow viewer cannot affect the rest.
func (h *Hub) dispatch(e events.Event) {
	if e.OrgID == "" {
		// Relay and other unscoped events are only visible on per-device
		// streams, which filter the bus directly.
		return
	}
	msg := encodeFrame(e)
	if msg == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[e.OrgID] {
		select {
		case s.send <- msg:
		default:
			log.Printf("realtime: disconnecting slow viewer %s (org %s)", s.ID, s.OrgID)
			h.removeLocked(s)
		}
	}
}
