package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

const (
	sessionTokenBytes = 32
	sessionExpiry     = 30 * 24 * time.Hour
)

// SessionStore maps opaque bearer tokens to user ids. Tokens are kept only as
// SHA-256 hashes. Expiry is fixed at creation and never extended on read.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

// Create issues a new 256-bit random token for userID valid for 30 days.
func (s *SessionStore) Create(userID uuid.UUID) (string, error) {
	token, hashHex, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.sessions[hashHex] = model.Session{
		TokenHash: hashHex,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionExpiry),
	}
	s.mu.Unlock()

	return token, nil
}

// Resolve returns the user owning token. Unknown and expired tokens fail closed.
func (s *SessionStore) Resolve(token string) (uuid.UUID, bool) {
	if token == "" {
		return uuid.Nil, false
	}

	s.mu.RLock()
	session, ok := s.sessions[hashSessionToken(token)]
	s.mu.RUnlock()

	if !ok || !s.now().Before(session.ExpiresAt) {
		return uuid.Nil, false
	}
	return session.UserID, true
}

// Revoke deletes the session for token. Revoking an unknown token is a no-op.
func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, hashSessionToken(token))
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// generateSessionToken returns a random Base64URL token and its SHA-256 hash as hex
func generateSessionToken() (token string, hashHex string, err error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, hashSessionToken(token), nil
}

func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
