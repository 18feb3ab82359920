// Package realtime routes events to live websocket sessions grouped in
// named rooms.
//
// Delivery is best effort. A session that is not connected, or whose outbound
// buffer is full, misses the event; there is no replay. Clients reconcile by
// re-reading the REST list endpoints after reconnecting.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/helpline/internal/token"
)

var ErrUnauthorized = errors.New("unauthorized")

// Emitter publishes messages to rooms. It returns the number of sessions the
// message was queued for.
type Emitter interface {
	EmitToRoom(room string, msg Message) int
}

// Verifier validates a handshake credential.
type Verifier interface {
	Verify(raw string) (*token.Identity, error)
}

// Hub owns the room registry for this process.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	rooms    map[string]map[*Session]struct{}
	verifier Verifier
	logger   *slog.Logger
}

func NewHub(verifier Verifier, logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		rooms:    make(map[string]map[*Session]struct{}),
		verifier: verifier,
		logger:   logger,
	}
}

// BindSession validates the credential once and returns a session carrying
// the room set for its identity. The session joins its rooms when it runs.
func (h *Hub) BindSession(credential string) (*Session, error) {
	id, err := h.verifier.Verify(credential)
	if err != nil {
		if token.IsAuthError(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("bind session: %w", err)
	}
	return newSession(h, uuid.NewString(), id), nil
}

// Register adds a session to the hub and to each of its rooms.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s] = struct{}{}
	for _, room := range s.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Session]struct{})
			h.rooms[room] = members
		}
		members[s] = struct{}{}
	}
}

// Unregister removes a session from every room and closes its send channel.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	for _, room := range s.rooms {
		members := h.rooms[room]
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(s.send)
}

// EmitToRoom queues msg for every session in room. Unknown or empty rooms
// are a no-op.
func (h *Hub) EmitToRoom(room string, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal event", "event", msg.Event, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.deliver(h.rooms[room], data, msg.Event)
}

// Broadcast queues msg for every connected session regardless of room.
func (h *Hub) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "event", msg.Event, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.deliver(h.sessions, data, msg.Event)
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(targets map[*Session]struct{}, data []byte, event string) int {
	delivered := 0
	for s := range targets {
		select {
		case s.send <- data:
			delivered++
		default:
			h.logger.Debug("send buffer full, dropping event", "session", s.id, "event", event)
		}
	}
	return delivered
}

// Shutdown asks every live session to close. Sessions unregister themselves
// as their connections finish.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		s.stop()
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomSize returns the number of sessions in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
