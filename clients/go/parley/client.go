// Package parley provides a Go client for the Parley chat protocol: the
// authenticate handshake, room joins, chat messages, and automatic
// fixed-delay reconnection.
package parley

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultReconnectDelay is the fixed pause before a reconnect attempt.
const DefaultReconnectDelay = 3 * time.Second

// UserInfo is the identity echoed back after a successful handshake.
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ChatMessage is one delivered or replayed chat message.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Handlers are the application callbacks for server frames. Nil handlers
// are skipped. Callbacks run on the client's read goroutine.
type Handlers struct {
	OnAuthenticated func(user UserInfo)
	OnAuthFailed    func(message string)
	OnJoinedRoom    func(roomID, roomName, message string)
	OnHistory       func(messages []ChatMessage)
	OnChat          func(msg ChatMessage)
	OnUserJoined    func(username string, timestamp int64)
	OnUserLeft      func(username string, timestamp int64)
	OnError         func(message string)
	OnDisconnect    func(err error)
}

// AuthError is a rejected handshake; the client does not retry it.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type serverFrame struct {
	Type      string        `json:"type"`
	Message   string        `json:"message"`
	User      UserInfo      `json:"user"`
	RoomID    string        `json:"roomId"`
	RoomName  string        `json:"roomName"`
	Username  string        `json:"username"`
	Timestamp int64         `json:"timestamp"`
	Messages  []ChatMessage `json:"messages"`
}

// Client is a Parley connection. On unexpected close it waits
// ReconnectDelay, redials, and re-runs the authenticate handshake; the
// server keeps no resumption state, so the client rejoins its room after
// reconnecting.
type Client struct {
	url      string
	token    string
	handlers Handlers

	// ReconnectDelay overrides the fixed reconnect pause when set before Dial.
	ReconnectDelay time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	room   string
	closed bool
}

// NewClient creates an unconnected client for the ws:// or wss:// URL.
func NewClient(url, token string, handlers Handlers) *Client {
	return &Client{
		url:            url,
		token:          token,
		handlers:       handlers,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

// Dial connects and completes the authenticate handshake, then starts the
// read loop. It returns *AuthError when the server rejects the credential.
func (c *Client) Dial(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	go c.readLoop(ctx)
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err := conn.WriteJSON(envelope{
		Type:    "authenticate",
		Payload: map[string]string{"token": c.token},
	}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("send authenticate: %w", err)
	}

	// Drain frames until the handshake resolves.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("handshake read: %w", err)
		}

		var frame serverFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "authenticated":
			c.mu.Lock()
			c.conn = conn
			room := c.room
			c.mu.Unlock()

			if c.handlers.OnAuthenticated != nil {
				c.handlers.OnAuthenticated(frame.User)
			}
			if room != "" {
				return c.JoinRoom(room)
			}
			return nil

		case "authFailed":
			_ = conn.Close()
			if c.handlers.OnAuthFailed != nil {
				c.handlers.OnAuthFailed(frame.Message)
			}
			return &AuthError{Message: frame.Message}

		default:
			c.dispatch(frame)
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.handlers.OnDisconnect != nil {
				c.handlers.OnDisconnect(err)
			}
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		var frame serverFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		c.dispatch(frame)
	}
}

// reconnect redials with the fixed delay until it succeeds, the context
// ends, the client is closed, or the credential is rejected.
func (c *Client) reconnect(ctx context.Context) bool {
	for {
		c.mu.Lock()
		closed := c.closed
		c.conn = nil
		c.mu.Unlock()
		if closed {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.ReconnectDelay):
		}

		err := c.connect(ctx)
		if err == nil {
			return true
		}

		var authErr *AuthError
		if errors.As(err, &authErr) {
			return false
		}
	}
}

func (c *Client) dispatch(frame serverFrame) {
	switch frame.Type {
	case "joinedRoom":
		if c.handlers.OnJoinedRoom != nil {
			c.handlers.OnJoinedRoom(frame.RoomID, frame.RoomName, frame.Message)
		}
	case "historicalMessages":
		if c.handlers.OnHistory != nil {
			c.handlers.OnHistory(frame.Messages)
		}
	case "chatMessage":
		if c.handlers.OnChat != nil {
			c.handlers.OnChat(ChatMessage{
				Username:  frame.Username,
				Message:   frame.Message,
				Timestamp: frame.Timestamp,
			})
		}
	case "userJoined":
		if c.handlers.OnUserJoined != nil {
			c.handlers.OnUserJoined(frame.Username, frame.Timestamp)
		}
	case "userLeft":
		if c.handlers.OnUserLeft != nil {
			c.handlers.OnUserLeft(frame.Username, frame.Timestamp)
		}
	case "error":
		if c.handlers.OnError != nil {
			c.handlers.OnError(frame.Message)
		}
	}
}

// JoinRoom asks the server to switch this connection into the room.
func (c *Client) JoinRoom(roomID string) error {
	c.mu.Lock()
	c.room = roomID
	c.mu.Unlock()
	return c.write(envelope{
		Type:    "joinRoom",
		Payload: map[string]string{"roomId": roomID},
	})
}

// SendMessage sends one chat message to the room this connection is in.
func (c *Client) SendMessage(roomID, text string) error {
	return c.write(envelope{
		Type:    "chatMessage",
		Payload: map[string]string{"roomId": roomID, "message": text},
	})
}

func (c *Client) write(frame envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(frame)
}

// Close shuts the connection down and disables reconnection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
