package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLoginEndpoints(t *testing.T) {
	req := require.New(t)
	svc := NewService("test-secret", time.Hour, zerolog.Nop())
	handler := NewHandler(svc)

	body := `{"email":"ana@example.com","username":"ana","password":"s3cret"}`
	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))
	req.Equal(http.StatusCreated, w.Code)

	// Duplicate registration conflicts.
	w = httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body)))
	req.Equal(http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"s3cret"}`)))
	req.Equal(http.StatusOK, w.Code)

	var resp map[string]string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.NotEmpty(resp["accessToken"])

	identity, err := svc.Verify(resp["accessToken"])
	req.NoError(err)
	req.Equal("ana", identity.Username)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	svc := NewService("test-secret", time.Hour, zerolog.Nop())
	handler := NewHandler(svc)

	w := httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"ghost@example.com","password":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware(t *testing.T) {
	req := require.New(t)
	svc := NewService("test-secret", time.Hour, zerolog.Nop())
	_, err := svc.Register("ana@example.com", "ana", "s3cret")
	req.NoError(err)
	token, err := svc.Login("ana@example.com", "s3cret")
	req.NoError(err)

	var captured Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	protected := Middleware(svc)(next)

	// No token.
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest("POST", "/api/rooms", nil))
	req.Equal(http.StatusUnauthorized, w.Code)

	// Invalid token.
	r := httptest.NewRequest("POST", "/api/rooms", nil)
	r.Header.Set("Authorization", "Bearer junk")
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	req.Equal(http.StatusForbidden, w.Code)

	// Valid token reaches the handler with the identity attached.
	r = httptest.NewRequest("POST", "/api/rooms", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, r)
	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("ana", captured.Username)
}
