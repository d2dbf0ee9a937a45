// Package server defines the wire frames exchanged over a Parley
// connection. Inbound frames carry a {type, payload} envelope; outbound
// frames are flat objects tagged with a type field.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound frame types.
const (
	FrameAuthenticate = "authenticate"
	FrameJoinRoom     = "joinRoom"
	FrameChatMessage  = "chatMessage"
)

// Outbound frame types.
const (
	FrameAuthenticated      = "authenticated"
	FrameAuthFailed         = "authFailed"
	FrameJoinedRoom         = "joinedRoom"
	FrameHistoricalMessages = "historicalMessages"
	FrameUserJoined         = "userJoined"
	FrameUserLeft           = "userLeft"
	FrameError              = "error"
)

// InboundFrame is the envelope for every client-to-server frame.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuthenticatePayload carries the credential for the authenticate frame.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// JoinRoomPayload names the room the client wants to switch into.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatMessagePayload carries one chat message addressed to a room.
type ChatMessagePayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// UserInfo is the public identity echoed back after authentication.
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthenticatedFrame confirms a successful handshake.
type AuthenticatedFrame struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// AuthFailedFrame reports a failed handshake; the connection closes after it.
type AuthFailedFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JoinedRoomFrame confirms a room switch to the joining client.
type JoinedRoomFrame struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	Message  string `json:"message"`
}

// HistoryEntry is one replayed message inside a historicalMessages frame.
type HistoryEntry struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// HistoricalMessagesFrame replays the room buffer to a joining client,
// oldest first. Messages is always present, empty when the room is quiet.
type HistoricalMessagesFrame struct {
	Type     string         `json:"type"`
	Messages []HistoryEntry `json:"messages"`
}

// ChatFrame delivers one chat message to a room member.
type ChatFrame struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// PresenceFrame announces a member joining or leaving a room.
type PresenceFrame struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorFrame reports a recoverable protocol failure; the connection stays open.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// encodeFrame marshals an outbound frame. The frame structs marshal without
// error by construction, so a failure is reported as nil and dropped by the
// delivery path.
func encodeFrame(frame any) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil
	}
	return data
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
