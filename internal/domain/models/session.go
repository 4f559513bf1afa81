package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionPrefix = "sid"

// Session is a server-side login session. The id is scoped by user so every
// session of one user can be found by prefix.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a session for userID valid for ttl
func NewSession(userID uint, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:        NewSessionID(userID),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// NewSessionID returns a fresh sid:<userId>:<uuid> key
func NewSessionID(userID uint) string {
	return fmt.Sprintf("%s:%d:%s", sessionPrefix, userID, uuid.NewString())
}

// SessionPrefix returns the key prefix shared by all sessions of userID
func SessionPrefix(userID uint) string {
	return fmt.Sprintf("%s:%d:", sessionPrefix, userID)
}

// SessionBelongsTo reports whether a session id was issued to userID
func SessionBelongsTo(id string, userID uint) bool {
	return strings.HasPrefix(id, SessionPrefix(userID))
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
