package realtime

import (
	"context"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/token"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Session is one live websocket connection bound to a verified identity.
// Its rooms are fixed for its lifetime.
type Session struct {
	id        string
	hub       *Hub
	conn      *ws.Conn
	accountID int64
	role      model.Role
	rooms     []string
	expiresAt time.Time
	send      chan []byte
	quit      chan struct{}
	quitOnce  sync.Once
}

func newSession(hub *Hub, id string, ident *token.Identity) *Session {
	return &Session{
		id:        id,
		hub:       hub,
		accountID: ident.Account.ID,
		role:      ident.Account.Role,
		rooms:     RoomsFor(ident.Account.ID, ident.Account.Role),
		expiresAt: ident.ExpiresAt,
		send:      make(chan []byte, sendBufferSize),
		quit:      make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) AccountID() int64 { return s.accountID }

func (s *Session) Role() model.Role { return s.role }

// Rooms returns a copy of the session's room names.
func (s *Session) Rooms() []string { return append([]string(nil), s.rooms...) }

func (s *Session) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// Run attaches the session to conn, joins its rooms, and pumps messages until
// the peer disconnects, the credential expires, or the hub shuts down.
func (s *Session) Run(ctx context.Context, conn *ws.Conn) {
	s.conn = conn
	s.hub.Register(s)
	defer s.hub.Unregister(s)

	logger := s.hub.logger.With("session", s.id, "account_id", s.accountID, "role", s.role.String())
	logger.Info("session bound", "rooms", s.rooms)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		s.readPump(ctx)
		close(readDone)
	}()
	go s.writePump(ctx)

	expiry := time.NewTimer(time.Until(s.expiresAt))
	defer expiry.Stop()

	select {
	case <-readDone:
		logger.Info("session closed by peer")
	case <-expiry.C:
		logger.Info("credential expired, closing session")
		s.conn.Close(ws.StatusPolicyViolation, "credential expired")
	case <-s.quit:
		s.conn.Close(ws.StatusGoingAway, "server shutting down")
	case <-ctx.Done():
		s.conn.Close(ws.StatusGoingAway, "")
	}
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (s *Session) readPump(ctx context.Context) {
	for {
		_, _, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, ws.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
