// Package server coordinates session registration, room membership, history
// replay, and fanout for the Parley session layer via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/metrics"
)

// IdentityVerifier resolves an opaque credential to a verified identity.
type IdentityVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RoomCatalog answers room display-name lookups; a failed lookup doubles
// as the existence check on join. Room metadata is owned elsewhere; the
// session layer treats room ids as opaque.
type RoomCatalog interface {
	NameOf(roomID string) (string, bool)
}

// Hub owns the session layer's shared state: the connection registry, the
// room membership directory, and the per-room history buffers. One Hub is
// constructed at server start and torn down at shutdown; nothing in this
// package keeps process-wide state.
type Hub struct {
	cfg      *config.Config
	verifier IdentityVerifier
	catalog  RoomCatalog

	registry *Registry
	rooms    Membership
	history  History

	register   chan *Client
	unregister chan *Client

	// roomMu is the room consistency boundary: membership changes, history
	// appends, and the member snapshots used for fanout are serialized, so
	// every member observes one room's events in append order and no fanout
	// sees a half-updated membership set.
	roomMu sync.Mutex

	log    zerolog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub with in-memory membership and history stores. The
// returned Hub is ready to run; Run must be started in its own goroutine.
func NewHub(cfg *config.Config, verifier IdentityVerifier, catalog RoomCatalog, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:        cfg,
		verifier:   verifier,
		catalog:    catalog,
		registry:   NewRegistry(),
		rooms:      NewRoomDirectory(),
		history:    NewMemoryHistory(cfg.HistoryLimit),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logger.With().Str("component", "hub").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's lifecycle loop, handling connection registration and
// teardown. It runs until Shutdown and must be called in its own goroutine;
// protocol frames are dispatched by each connection's reader, not here.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownConnections()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}

			client.session = h.registry.Register(client)
			metrics.ConnectionsActive.Set(float64(h.registry.Len()))
			metrics.ConnectionsTotal.Inc()
			h.log.Info().Str("addr", client.addr).Int("connections", h.registry.Len()).Msg("connection registered")

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.dropClient(client)
		}
	}
}

// dropClient tears a connection down: it leaves the current room, notifies
// the remaining members, removes the session, and releases the send
// channel. A second teardown of the same connection is a no-op.
func (h *Hub) dropClient(c *Client) {
	h.roomMu.Lock()
	session := h.registry.Unregister(c)
	if session == nil {
		h.roomMu.Unlock()
		return
	}

	if previous, left := h.rooms.Leave(session); left {
		h.fanoutLocked(previous, encodeFrame(PresenceFrame{
			Type:      FrameUserLeft,
			Username:  session.Username(),
			Timestamp: time.Now().UnixMilli(),
		}), nil)
	}
	h.roomMu.Unlock()

	// Close the channel after releasing the locks; the write pump drains
	// remaining frames and sends the close message.
	close(c.send)

	metrics.ConnectionsActive.Set(float64(h.registry.Len()))
	h.log.Info().Str("addr", c.addr).Int("connections", h.registry.Len()).Msg("connection unregistered")
}

// joinRoom atomically moves the session into the room and emits the
// departure notice, join confirmation, history replay, and arrival notice.
func (h *Hub) joinRoom(session *Session, roomID, roomName string) {
	h.roomMu.Lock()
	defer h.roomMu.Unlock()

	now := time.Now().UnixMilli()
	previous, left := h.rooms.Join(session, roomID)
	if left {
		h.fanoutLocked(previous, encodeFrame(PresenceFrame{
			Type:      FrameUserLeft,
			Username:  session.Username(),
			Timestamp: now,
		}), nil)
	}

	h.reply(session.client, JoinedRoomFrame{
		Type:     FrameJoinedRoom,
		RoomID:   roomID,
		RoomName: roomName,
		Message:  "Joined room: " + roomName,
	})
	h.reply(session.client, HistoricalMessagesFrame{
		Type:     FrameHistoricalMessages,
		Messages: historyEntries(h.history.Replay(roomID)),
	})

	h.fanoutLocked(roomID, encodeFrame(PresenceFrame{
		Type:      FrameUserJoined,
		Username:  session.Username(),
		Timestamp: now,
	}), session)

	metrics.RoomJoins.Inc()
	h.log.Debug().Str("username", session.Username()).Str("room", roomID).Msg("joined room")
}

// chat appends the message to the room's history and fans it out to every
// member except the sender. The room check runs inside the consistency
// boundary so a concurrent departure cannot slip a message into a room the
// sender already vacated.
func (h *Hub) chat(session *Session, roomID, text string) error {
	h.roomMu.Lock()
	defer h.roomMu.Unlock()

	if session.Room() != roomID {
		return errNotInRoom
	}

	msg := h.history.Append(roomID, session.Username(), text)
	h.fanoutLocked(roomID, encodeFrame(ChatFrame{
		Type:      FrameChatMessage,
		Username:  msg.Username,
		Message:   msg.Text,
		Timestamp: msg.Timestamp,
	}), session)
	return nil
}

// fanoutLocked delivers a frame to every current member of the room except
// exclude. Callers must hold roomMu. Delivery per recipient is independent:
// a recipient that cannot accept the frame is ejected through its own
// disconnect path and never surfaces an error to the sender.
func (h *Hub) fanoutLocked(roomID string, frame []byte, exclude *Session) {
	var failed []*Client
	for _, member := range h.rooms.MembersOf(roomID) {
		if member == exclude {
			continue
		}
		if h.registry.deliver(member.client, frame) {
			metrics.FanoutDeliveries.Inc()
		} else {
			failed = append(failed, member.client)
		}
	}

	for _, c := range failed {
		metrics.FanoutDrops.Inc()
		h.log.Warn().Str("addr", c.addr).Msg("ejecting member after failed delivery")
		h.eject(c)
	}
}

// reply sends a frame to a single connection, ejecting it on failure.
func (h *Hub) reply(c *Client, frame any) {
	if !h.registry.deliver(c, encodeFrame(frame)) {
		h.eject(c)
	}
}

// eject closes the connection's socket, which triggers that connection's
// own reader-driven teardown. It is safe to call for connections that are
// already gone.
func (h *Hub) eject(c *Client) {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func historyEntries(messages []Message) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, HistoryEntry{
			Username:  msg.Username,
			Message:   msg.Text,
			Timestamp: msg.Timestamp,
		})
	}
	return entries
}

// shutdownConnections tears down every live connection during shutdown.
// Each client goes through the normal drop path so its send channel closes
// and the write pump can flush and exit; closing the socket ends the read
// pump, whose teardown handoff is a no-op once the registry is empty.
func (h *Hub) shutdownConnections() {
	clients := h.registry.clients()
	for _, c := range clients {
		h.dropClient(c)
		if c.conn != nil {
			if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Warn().Err(err).Str("addr", c.addr).Msg("error closing connection")
			}
		}
	}
	h.log.Info().Int("connections", len(clients)).Msg("closed all connections")
}

// Shutdown stops the hub and waits for the connection goroutines to finish
// or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info().Msg("hub shutting down")

	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info().Msg("hub shutdown complete")
		return nil
	case <-time.After(timeout):
		h.log.Warn().Msg("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}
