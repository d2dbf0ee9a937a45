// Package testhelpers provides shared utilities for the integration tests.
//
// It boots the full application stack behind an httptest.Server and offers
// helpers for the REST endpoints and for driving the websocket protocol
// frame by frame.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/catalog"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/server"
)

// TestOrigin is the origin allowed by the stack's websocket checker.
const TestOrigin = "http://localhost:8080"

// Stack is a running application instance for one test.
type Stack struct {
	Server *httptest.Server
	Config *config.Config
	Auth   *auth.Service
	Rooms  *catalog.Store
	Hub    *server.Hub
}

// StartStack boots the auth service, room catalog, hub, and router behind a
// test HTTP server. Everything is torn down when the test finishes.
func StartStack(t *testing.T) *Stack {
	t.Helper()

	cfg := &config.Config{
		Port:            "0",
		Env:             "test",
		JWTSecret:       "integration-test-secret",
		TokenTTL:        time.Hour,
		AllowedOrigins:  []string{TestOrigin},
		MaxMessageSize:  4096,
		HistoryLimit:    100,
		RateLimit:       config.RateLimitConfig{Burst: 100, RefillInterval: time.Millisecond},
		ShutdownTimeout: 5 * time.Second,
	}

	logger := zerolog.Nop()
	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, logger)
	rooms := catalog.NewStore(logger)
	hub := server.NewHub(cfg, authService, rooms, logger)
	go hub.Run()

	ts := httptest.NewServer(server.NewRouter(logger, cfg, hub, authService, rooms))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(cfg.ShutdownTimeout)
	})

	return &Stack{Server: ts, Config: cfg, Auth: authService, Rooms: rooms, Hub: hub}
}

// WebSocketURL returns the stack's websocket endpoint.
func (s *Stack) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws"
}

// RegisterUser creates an account through the REST API and returns an access
// token obtained by logging in.
func (s *Stack) RegisterUser(t *testing.T, email, username, password string) string {
	t.Helper()

	resp := s.PostJSON(t, "/api/auth/register", map[string]string{
		"email": email, "username": username, "password": password,
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusCreated)

	return s.Login(t, email, password)
}

// Login obtains an access token for existing credentials.
func (s *Stack) Login(t *testing.T, email, password string) string {
	t.Helper()

	resp := s.PostJSON(t, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatal("login response contained no access token")
	}
	return body.AccessToken
}

// PostJSON sends a JSON POST to the stack.
func (s *Stack) PostJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.Server.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	return resp
}

// Get sends a GET request to the stack, with an optional bearer token.
func (s *Stack) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.Server.URL+path, http.NoBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}
	return resp
}

// AssertStatusCode fails the test if the response status is not the expected one.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// Dial opens a websocket connection to the stack with the allowed origin.
func (s *Stack) Dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, err := DialOrigin(s.WebSocketURL(), TestOrigin)
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialOrigin opens a websocket connection presenting the given origin.
func DialOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendFrame writes one enveloped frame to the connection.
func SendFrame(t *testing.T, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()

	if err := conn.WriteJSON(map[string]any{"type": frameType, "payload": payload}); err != nil {
		t.Fatalf("failed to send %s frame: %v", frameType, err)
	}
}

// ReadFrame reads one frame from the connection within the deadline.
func ReadFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return frame
}

// ExpectFrame reads one frame and fails unless it has the expected type.
func ExpectFrame(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()

	frame := ReadFrame(t, conn)
	if frame["type"] != frameType {
		t.Fatalf("expected %s frame, got %v", frameType, frame)
	}
	return frame
}

// ExpectClosed fails unless the next read reports a closed connection.
func ExpectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed, but read succeeded")
	}
}

// Authenticate performs the token handshake and fails unless it succeeds.
func Authenticate(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()

	SendFrame(t, conn, "authenticate", map[string]string{"token": token})
	ExpectFrame(t, conn, "authenticated")
}

// JoinRoom joins the given room and returns the replayed history entries.
// It consumes the joinedRoom and historicalMessages frames.
func JoinRoom(t *testing.T, conn *websocket.Conn, roomID string) []any {
	t.Helper()

	SendFrame(t, conn, "joinRoom", map[string]string{"roomId": roomID})
	joined := ExpectFrame(t, conn, "joinedRoom")
	if joined["roomId"] != roomID {
		t.Fatalf("joinedRoom confirmed room %v, want %s", joined["roomId"], roomID)
	}

	history := ExpectFrame(t, conn, "historicalMessages")
	messages, ok := history["messages"].([]any)
	if !ok {
		t.Fatalf("historicalMessages frame missing messages array: %v", history)
	}
	return messages
}

// SendChat sends one chat message to the given room.
func SendChat(t *testing.T, conn *websocket.Conn, roomID, message string) {
	t.Helper()
	SendFrame(t, conn, "chatMessage", map[string]string{"roomId": roomID, "message": message})
}
