package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/auth"
)

func TestStoreSeedsDefaultRooms(t *testing.T) {
	req := require.New(t)
	store := NewStore(zerolog.Nop())

	req.True(store.Exists("general"))
	req.True(store.Exists("random"))
	req.False(store.Exists("nope"))

	name, ok := store.NameOf("general")
	req.True(ok)
	req.Equal("General Chat", name)

	_, ok = store.NameOf("nope")
	req.False(ok)
}

func TestCreateRoom(t *testing.T) {
	req := require.New(t)
	store := NewStore(zerolog.Nop())

	room, err := store.Create("Dev Talk", "ana")
	req.NoError(err)
	req.NotEmpty(room.ID)
	req.Equal("Dev Talk", room.Name)
	req.Equal("ana", room.Creator)
	req.True(store.Exists(room.ID))

	_, err = store.Create("Dev Talk", "ben")
	req.ErrorIs(err, ErrNameExists)

	_, err = store.Create("", "ana")
	req.ErrorIs(err, ErrNameRequired)
}

func TestListReturnsCreationOrder(t *testing.T) {
	req := require.New(t)
	store := NewStore(zerolog.Nop())

	first, err := store.Create("Alpha", "ana")
	req.NoError(err)
	second, err := store.Create("Beta", "ana")
	req.NoError(err)

	rooms := store.List()
	req.Len(rooms, 4)
	req.Equal("general", rooms[0].ID)
	req.Equal("random", rooms[1].ID)
	req.Equal(first.ID, rooms[2].ID)
	req.Equal(second.ID, rooms[3].ID)
}

func TestRoomEndpoints(t *testing.T) {
	req := require.New(t)
	store := NewStore(zerolog.Nop())
	handler := NewHandler(store)

	svc := auth.NewService("test-secret", time.Hour, zerolog.Nop())
	_, err := svc.Register("ana@example.com", "ana", "s3cret")
	req.NoError(err)
	token, err := svc.Login("ana@example.com", "s3cret")
	req.NoError(err)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/rooms", nil))
	req.Equal(http.StatusOK, w.Code)

	var rooms []Room
	req.NoError(json.Unmarshal(w.Body.Bytes(), &rooms))
	req.Len(rooms, 2)

	// Create goes through the auth middleware.
	protected := auth.Middleware(svc)(http.HandlerFunc(handler.Create))

	r := httptest.NewRequest("POST", "/api/rooms", strings.NewReader(`{"name":"Dev Talk"}`))
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest("POST", "/api/rooms", strings.NewReader(`{"name":"Dev Talk"}`))
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	req.Equal(http.StatusCreated, w.Code)

	var resp struct {
		Room Room `json:"room"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal("Dev Talk", resp.Room.Name)
	req.Equal("ana", resp.Room.Creator)
}
