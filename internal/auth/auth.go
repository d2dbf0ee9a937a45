// Package auth implements credential issuance and verification for Parley:
// an in-memory user store, bcrypt password hashing, and HS256 JWT access
// tokens. The session layer consumes it only through token verification.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Verification and credential failures surfaced to callers.
var (
	ErrTokenRequired      = errors.New("authentication token required")
	ErrTokenMalformed     = errors.New("token is malformed")
	ErrTokenExpired       = errors.New("token is expired")
	ErrTokenSignature     = errors.New("token signature is invalid")
	ErrUnknownSubject     = errors.New("token subject not found")
	ErrEmailTaken         = errors.New("email address already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("email, username, and password are required")
)

// Identity is the verified identity attached to an authenticated session.
// It is immutable once issued.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// User is a registered account. The password is stored only as a bcrypt hash.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
}

// Service owns the user store and signs and verifies access tokens.
type Service struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User

	tokens *tokenCodec
	log    zerolog.Logger
}

// NewService creates a Service signing tokens with secret. Tokens expire
// after ttl.
func NewService(secret string, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
		tokens:  newTokenCodec([]byte(secret), ttl),
		log:     logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new user. Emails are unique; usernames are not.
func (s *Service) Register(email, username, password string) (*User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, ErrEmailTaken
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	s.byEmail[email] = user
	s.byID[user.ID] = user

	s.log.Info().Str("username", username).Msg("user registered")
	return user, nil
}

// Login checks the credentials and mints an access token.
func (s *Service) Login(email, password string) (string, error) {
	s.mu.RLock()
	user, ok := s.byEmail[strings.TrimSpace(email)]
	s.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.mint(user)
}

// Verify validates an access token and resolves its subject against the
// user store. Failures are one of ErrTokenRequired, ErrTokenMalformed,
// ErrTokenExpired, ErrTokenSignature, or ErrUnknownSubject.
func (s *Service) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrTokenRequired
	}

	claims, err := s.tokens.parse(token)
	if err != nil {
		return Identity{}, err
	}

	s.mu.RLock()
	user, ok := s.byID[claims.UserID]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, ErrUnknownSubject
	}

	return Identity{UserID: user.ID, Username: user.Username, Email: user.Email}, nil
}
