// Package catalog owns room metadata: identity, display name, and creator.
// Membership and history are managed by the session layer; the catalog only
// answers existence and name lookups and serves the room CRUD endpoints.
package catalog

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNameRequired = errors.New("room name is required")
	ErrNameExists   = errors.New("room with this name already exists")
)

// Room is the catalog's metadata record for one chat room.
type Room struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Creator string `json:"creator"`
}

// Store is an in-memory room catalog.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]Room
	order []string

	log zerolog.Logger
}

// NewStore creates a catalog seeded with the default rooms.
func NewStore(logger zerolog.Logger) *Store {
	s := &Store{
		rooms: make(map[string]Room),
		log:   logger.With().Str("component", "catalog").Logger(),
	}
	s.add(Room{ID: "general", Name: "General Chat", Creator: "system"})
	s.add(Room{ID: "random", Name: "Random Talk", Creator: "system"})
	return s
}

func (s *Store) add(room Room) {
	s.rooms[room.ID] = room
	s.order = append(s.order, room.ID)
}

// Exists reports whether a room with the given id is in the catalog.
func (s *Store) Exists(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// NameOf returns the display name for a room id.
func (s *Store) NameOf(roomID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room.Name, ok
}

// Create adds a new room with a generated id. Room names are unique.
func (s *Store) Create(name, creator string) (Room, error) {
	if name == "" {
		return Room{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range s.rooms {
		if room.Name == name {
			return Room{}, ErrNameExists
		}
	}

	room := Room{ID: uuid.NewString(), Name: name, Creator: creator}
	s.add(room)
	s.log.Info().Str("room", room.ID).Str("name", name).Str("creator", creator).Msg("room created")
	return room, nil
}

// List returns all rooms in creation order.
func (s *Store) List() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rooms[id])
	}
	return out
}
