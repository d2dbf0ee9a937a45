package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parley-chat/parley/internal/auth"
)

// Handler exposes the room list and create endpoints.
type Handler struct {
	store *Store
}

// NewHandler creates an HTTP handler backed by the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/rooms.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// Create handles POST /api/rooms. Requires an authenticated identity in the
// request context.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication token required.")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	room, err := h.store.Create(req.Name, identity.Username)
	switch {
	case errors.Is(err, ErrNameRequired):
		writeError(w, http.StatusBadRequest, "Room name is required.")
	case errors.Is(err, ErrNameExists):
		writeError(w, http.StatusConflict, "Room with this name already exists.")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Room creation failed.")
	default:
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Room created successfully!",
			"room":    room,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
