package server

import (
	"testing"

	"github.com/parley-chat/parley/internal/auth"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}

	s := r.Register(c)
	if s == nil {
		t.Fatal("Register returned nil session")
	}
	if s.Authenticated() {
		t.Error("new session must start unauthenticated")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 live session, got %d", r.Len())
	}

	if got := r.Unregister(c); got != s {
		t.Error("Unregister should return the removed session")
	}
	if r.Len() != 0 {
		t.Errorf("expected 0 live sessions, got %d", r.Len())
	}
}

func TestRegistryUnregisterTwiceIsNoop(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}

	r.Register(c)
	r.Unregister(c)

	if got := r.Unregister(c); got != nil {
		t.Error("second Unregister should be a no-op returning nil")
	}
}

func TestSessionAuthenticateOnce(t *testing.T) {
	s := &Session{}
	identity := auth.Identity{UserID: "u1", Username: "ana", Email: "ana@example.com"}

	if err := s.authenticate(identity); err != nil {
		t.Fatalf("first authenticate failed: %v", err)
	}
	if !s.Authenticated() {
		t.Error("session should be authenticated")
	}

	other := auth.Identity{UserID: "u2", Username: "ben", Email: "ben@example.com"}
	if err := s.authenticate(other); err == nil {
		t.Error("second authenticate must fail")
	}
	if got := s.Identity(); got.UserID != "u1" {
		t.Errorf("identity must never be re-attached, got %q", got.UserID)
	}
}

func TestRegistryDeliver(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}
	r.Register(c)

	if !r.deliver(c, []byte(`{}`)) {
		t.Error("delivery to a registered client should succeed")
	}
	if r.deliver(c, []byte(`{}`)) {
		t.Error("delivery should fail when the send buffer is full")
	}

	drained := <-c.send
	_ = drained
	r.Unregister(c)
	if r.deliver(c, []byte(`{}`)) {
		t.Error("delivery to an unregistered client must fail")
	}
}
