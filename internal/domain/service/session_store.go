package service

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/domain/models"
)

// SessionStore persists login sessions with expiry
type SessionStore interface {
	// Save stores a session until its ExpiresAt
	Save(ctx context.Context, session *models.Session) error

	// Get returns a live session or a not found error
	Get(ctx context.Context, id string) (*models.Session, error)

	// Delete removes one session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every session of userID except keepID and returns how many went
	DeleteByUser(ctx context.Context, userID uint, keepID string) (int, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}
