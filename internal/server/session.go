// Package server tracks per-connection session state: verified identity,
// authentication status, and the room the connection currently occupies.
package server

import (
	"sync"

	"github.com/parley-chat/parley/internal/auth"
)

// Session is the server-side state for one live connection. It is created
// unauthenticated when the connection registers and destroyed on disconnect.
type Session struct {
	client *Client

	mu            sync.Mutex
	identity      auth.Identity
	authenticated bool
	room          string
}

// Authenticated reports whether the handshake has completed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Identity returns the verified identity. Zero-valued until authenticated.
func (s *Session) Identity() auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Username returns the authenticated username, or "" before the handshake.
func (s *Session) Username() string {
	return s.Identity().Username
}

// Room returns the id of the room the session currently occupies, or ""
// when it is not in a room.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// authenticate attaches the identity exactly once. A second attempt fails
// and never re-attaches a different identity.
func (s *Session) authenticate(identity auth.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		return errAlreadyAuthenticated
	}
	s.identity = identity
	s.authenticated = true
	return nil
}

// setRoom updates the session's current room. Callers are responsible for
// keeping the room directory consistent; the directory mutates this field
// only inside its own critical section.
func (s *Session) setRoom(roomID string) {
	s.mu.Lock()
	s.room = roomID
	s.mu.Unlock()
}

// Registry owns the set of live connections and their sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Client]*Session
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[*Client]*Session)}
}

// Register creates an unauthenticated session for the connection. It always
// succeeds.
func (r *Registry) Register(c *Client) *Session {
	s := &Session{client: c}

	r.mu.Lock()
	r.sessions[c] = s
	c.closed = false
	r.mu.Unlock()

	return s
}

// Unregister removes the connection's session and returns it, or nil when
// the connection was already unregistered. Removing twice is a no-op.
func (r *Registry) Unregister(c *Client) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[c]
	if !ok {
		return nil
	}
	delete(r.sessions, c)
	c.closed = true
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// clients returns a snapshot of every registered connection.
func (r *Registry) clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.sessions))
	for c := range r.sessions {
		out = append(out, c)
	}
	return out
}

// deliver enqueues a frame on the connection's send channel if it is still
// registered. The read lock is held across the send so the channel cannot
// be closed underneath it; the recover is a backstop for teardown races.
func (r *Registry) deliver(c *Client, frame []byte) (ok bool) {
	if frame == nil {
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.sessions[c]; !exists || c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}
