// Package server classifies protocol failures so the router can map them
// onto error and authFailed frames.
package server

// ErrorKind labels the failure classes surfaced to a connection.
type ErrorKind string

const (
	// ProtocolError covers malformed or unknown frames.
	ProtocolError ErrorKind = "protocol"
	// AuthError covers missing or invalid credentials; it closes the connection.
	AuthError ErrorKind = "auth"
	// StateError covers actions attempted from a disallowed protocol state.
	StateError ErrorKind = "state"
	// NotFoundError covers joins targeting rooms the catalog does not know.
	NotFoundError ErrorKind = "not_found"
	// ValidationError covers rejected frame contents, such as empty chat text.
	ValidationError ErrorKind = "validation"
)

// SessionError is a failure surfaced to exactly one connection as an error
// or authFailed frame. It never mutates protocol state by itself.
type SessionError struct {
	Kind    ErrorKind
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}

// The router's fixed error vocabulary. Messages are part of the wire
// contract observed by clients.
var (
	errInvalidFrame         = &SessionError{Kind: ProtocolError, Message: "Invalid message format or server error."}
	errUnknownFrameType     = &SessionError{Kind: ProtocolError, Message: "Unknown message type"}
	errNotAuthenticated     = &SessionError{Kind: StateError, Message: "Not authenticated."}
	errAlreadyAuthenticated = &SessionError{Kind: StateError, Message: "Already authenticated."}
	errNotInRoom            = &SessionError{Kind: StateError, Message: "Not authenticated or not in this room."}
	errRoomNotFound         = &SessionError{Kind: NotFoundError, Message: "Room not found."}
	errEmptyMessage         = &SessionError{Kind: ValidationError, Message: "Message cannot be empty."}
)
