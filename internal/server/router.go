// Package server dispatches inbound frames through the per-connection
// protocol state machine: Unauthenticated, Authenticated without a room,
// Authenticated inside a room.
package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/metrics"
)

// handleFrame parses one inbound frame and dispatches it. It runs on the
// connection's reader goroutine, so a connection's frames are processed
// strictly in arrival order.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.sendError(c, errInvalidFrame)
		return
	}

	metrics.FramesReceived.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case FrameAuthenticate:
		h.handleAuthenticate(c, frame.Payload)
	case FrameJoinRoom:
		h.handleJoinRoom(c, frame.Payload)
	case FrameChatMessage:
		h.handleChatMessage(c, frame.Payload)
	default:
		h.log.Debug().Str("addr", c.addr).Str("type", frame.Type).Msg("unknown frame type")
		h.sendError(c, errUnknownFrameType)
	}
}

// handleAuthenticate runs the one-shot handshake. Success moves the session
// to Authenticated; failure emits authFailed and closes the connection.
func (h *Hub) handleAuthenticate(c *Client, payload json.RawMessage) {
	if c.session.Authenticated() {
		h.sendError(c, errAlreadyAuthenticated)
		return
	}

	var p AuthenticatePayload
	_ = json.Unmarshal(payload, &p)

	identity, err := h.verifier.Verify(p.Token)
	if err != nil {
		metrics.AuthFailures.Inc()
		h.log.Info().Str("addr", c.addr).Err(err).Msg("authentication failed")
		h.reply(c, AuthFailedFrame{Type: FrameAuthFailed, Message: authFailureMessage(err)})
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		return
	}

	if err := c.session.authenticate(identity); err != nil {
		var sessionErr *SessionError
		if errors.As(err, &sessionErr) {
			h.sendError(c, sessionErr)
		}
		return
	}

	h.log.Info().Str("addr", c.addr).Str("username", identity.Username).Msg("client authenticated")
	h.reply(c, AuthenticatedFrame{
		Type:    FrameAuthenticated,
		Message: "Successfully authenticated.",
		User:    UserInfo{Username: identity.Username, Email: identity.Email},
	})
}

// handleJoinRoom validates the target against the room catalog and hands
// the atomic switch to the hub.
func (h *Hub) handleJoinRoom(c *Client, payload json.RawMessage) {
	if !c.session.Authenticated() {
		h.sendError(c, errNotAuthenticated)
		return
	}

	var p JoinRoomPayload
	_ = json.Unmarshal(payload, &p)

	name, ok := h.catalog.NameOf(p.RoomID)
	if !ok {
		h.sendError(c, errRoomNotFound)
		return
	}

	h.joinRoom(c.session, p.RoomID, name)
}

// handleChatMessage validates and forwards one chat message. The sender
// does not receive its own echo; its UI already reflects the send.
func (h *Hub) handleChatMessage(c *Client, payload json.RawMessage) {
	var p ChatMessagePayload
	_ = json.Unmarshal(payload, &p)

	if !c.session.Authenticated() || p.RoomID == "" || c.session.Room() != p.RoomID {
		h.sendError(c, errNotInRoom)
		return
	}

	text := strings.TrimSpace(p.Message)
	if text == "" {
		h.sendError(c, errEmptyMessage)
		return
	}

	if err := h.chat(c.session, p.RoomID, text); err != nil {
		var sessionErr *SessionError
		if errors.As(err, &sessionErr) {
			h.sendError(c, sessionErr)
		}
	}
}

// sendError emits an error frame to the originating connection only. The
// connection stays open and no protocol state changes.
func (h *Hub) sendError(c *Client, err *SessionError) {
	metrics.FrameErrors.WithLabelValues(string(err.Kind)).Inc()
	h.reply(c, ErrorFrame{Type: FrameError, Message: err.Message})
}

// authFailureMessage maps verification failures onto the handshake's wire
// messages.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenRequired):
		return "Authentication token required."
	case errors.Is(err, auth.ErrUnknownSubject):
		return "User not found."
	default:
		return "Invalid or expired token."
	}
}
