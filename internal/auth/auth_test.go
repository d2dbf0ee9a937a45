package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService("test-secret", time.Hour, zerolog.Nop())
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	user, err := svc.Register("ana@example.com", "ana", "s3cret-pass")
	req.NoError(err)
	req.NotEmpty(user.ID)
	req.NotEqual("s3cret-pass", user.PasswordHash)

	token, err := svc.Login("ana@example.com", "s3cret-pass")
	req.NoError(err)

	identity, err := svc.Verify(token)
	req.NoError(err)
	req.Equal(user.ID, identity.UserID)
	req.Equal("ana", identity.Username)
	req.Equal("ana@example.com", identity.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		email    string
		username string
		password string
		wantErr  error
	}{
		{"missing email", "", "ana", "pass", ErrMissingFields},
		{"missing username", "ana@example.com", "", "pass", ErrMissingFields},
		{"missing password", "ana@example.com", "ana", "", ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.email, tt.username, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	_, err := svc.Register("ana@example.com", "ana", "pass-one")
	req.NoError(err)

	_, err = svc.Register("ana@example.com", "other", "pass-two")
	req.ErrorIs(err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	_, err := svc.Register("ana@example.com", "ana", "right-pass")
	req.NoError(err)

	_, err = svc.Login("ana@example.com", "wrong-pass")
	req.ErrorIs(err, ErrInvalidCredentials)

	_, err = svc.Login("ghost@example.com", "right-pass")
	req.ErrorIs(err, ErrInvalidCredentials)
}

func TestVerifyFailureReasons(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	_, err := svc.Verify("")
	req.ErrorIs(err, ErrTokenRequired)

	_, err = svc.Verify("not-a-jwt")
	req.ErrorIs(err, ErrTokenMalformed)

	// Token signed by a service with a different secret.
	other := NewService("other-secret", time.Hour, zerolog.Nop())
	_, err = other.Register("ben@example.com", "ben", "pass")
	req.NoError(err)
	foreign, err := other.Login("ben@example.com", "pass")
	req.NoError(err)
	_, err = svc.Verify(foreign)
	req.ErrorIs(err, ErrTokenSignature)

	// Expired token.
	expiredSvc := NewService("test-secret", -time.Minute, zerolog.Nop())
	_, err = expiredSvc.Register("old@example.com", "old", "pass")
	req.NoError(err)
	expired, err := expiredSvc.Login("old@example.com", "pass")
	req.NoError(err)
	_, err = expiredSvc.Verify(expired)
	req.ErrorIs(err, ErrTokenExpired)

	// Valid token whose subject is unknown on this verifier.
	twin := NewService("test-secret", time.Hour, zerolog.Nop())
	_, err = twin.Register("cat@example.com", "cat", "pass")
	req.NoError(err)
	orphan, err := twin.Login("cat@example.com", "pass")
	req.NoError(err)
	_, err = svc.Verify(orphan)
	req.ErrorIs(err, ErrUnknownSubject)
}
