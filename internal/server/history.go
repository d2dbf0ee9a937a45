// Package server keeps a bounded replay buffer of recent messages per room.
package server

import (
	"sync"
	"time"

	"github.com/parley-chat/parley/internal/metrics"
)

// DefaultHistoryLimit is the per-room buffer capacity when none is configured.
const DefaultHistoryLimit = 100

// Message is one chat message as recorded in a room's history. Immutable
// once created; sequence numbers increase monotonically per room.
type Message struct {
	RoomID    string
	Username  string
	Text      string
	Timestamp int64
	Seq       uint64
}

// History is the storage seam for per-room replay buffers. The in-memory
// implementation lives for the process only; a durable store can be
// substituted without touching the protocol state machine.
type History interface {
	// Append records a message, assigning its timestamp and per-room
	// sequence number, and evicts the oldest entry once the buffer is full.
	Append(roomID, username, text string) Message

	// Replay returns a consistent snapshot of the room's buffer, oldest
	// first. It never mutates state and may return an empty slice.
	Replay(roomID string) []Message
}

type roomHistory struct {
	messages []Message
	nextSeq  uint64
}

// memoryHistory is the in-memory History implementation. History outlives
// membership: messages stay replayable after their sender leaves.
type memoryHistory struct {
	mu    sync.Mutex
	limit int
	rooms map[string]*roomHistory
}

// NewMemoryHistory creates an in-memory history store holding at most
// limit messages per room.
func NewMemoryHistory(limit int) History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &memoryHistory{
		limit: limit,
		rooms: make(map[string]*roomHistory),
	}
}

func (h *memoryHistory) Append(roomID, username, text string) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	rh, ok := h.rooms[roomID]
	if !ok {
		rh = &roomHistory{}
		h.rooms[roomID] = rh
	}

	msg := Message{
		RoomID:    roomID,
		Username:  username,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		Seq:       rh.nextSeq,
	}
	rh.nextSeq++

	rh.messages = append(rh.messages, msg)
	if len(rh.messages) > h.limit {
		// Copy down instead of reslicing so the evicted entry is freed.
		n := copy(rh.messages, rh.messages[1:])
		rh.messages = rh.messages[:n]
	}

	metrics.MessagesAppended.Inc()
	return msg
}

func (h *memoryHistory) Replay(roomID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	rh, ok := h.rooms[roomID]
	if !ok {
		return nil
	}

	out := make([]Message, len(rh.messages))
	copy(out, rh.messages)
	return out
}
