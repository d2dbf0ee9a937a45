// Package server maintains the room membership relation: which sessions
// currently occupy which room.
package server

import "sync"

// Membership is the storage seam for room membership. The in-memory
// implementation is process-lifetime only; a durable directory can be
// substituted without touching the protocol state machine.
type Membership interface {
	// Join atomically moves the session into roomID: it leaves the
	// previous room if one differs, adds the session to the target set,
	// and updates the session's current room. It returns the vacated room
	// id when the session left one.
	Join(s *Session, roomID string) (previous string, left bool)

	// Leave removes the session from its current room and clears the
	// session's room. It is a no-op for sessions not in a room.
	Leave(s *Session) (previous string, left bool)

	// MembersOf returns a point-in-time copy of the room's members, safe
	// to iterate while the directory keeps mutating.
	MembersOf(roomID string) []*Session
}

// roomDirectory is the in-memory Membership implementation. Its mutex is
// the consistency boundary for the invariant that a session appears in
// exactly the set matching its own current room, and in no other.
type roomDirectory struct {
	mu      sync.RWMutex
	members map[string]map[*Session]struct{}
}

// NewRoomDirectory creates an empty in-memory membership directory.
func NewRoomDirectory() Membership {
	return &roomDirectory{members: make(map[string]map[*Session]struct{})}
}

func (d *roomDirectory) Join(s *Session, roomID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := s.Room()
	if previous == roomID {
		// Re-join of the current room refreshes membership without a
		// departure.
		d.addLocked(s, roomID)
		return "", false
	}

	left := false
	if previous != "" {
		d.removeLocked(s, previous)
		left = true
	}

	d.addLocked(s, roomID)
	s.setRoom(roomID)
	return previous, left
}

func (d *roomDirectory) Leave(s *Session) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := s.Room()
	if previous == "" {
		return "", false
	}

	d.removeLocked(s, previous)
	s.setRoom("")
	return previous, true
}

func (d *roomDirectory) MembersOf(roomID string) []*Session {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set, ok := d.members[roomID]
	if !ok {
		return nil
	}

	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func (d *roomDirectory) addLocked(s *Session, roomID string) {
	set, ok := d.members[roomID]
	if !ok {
		set = make(map[*Session]struct{})
		d.members[roomID] = set
	}
	set[s] = struct{}{}
}

func (d *roomDirectory) removeLocked(s *Session, roomID string) {
	set, ok := d.members[roomID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(d.members, roomID)
	}
}
