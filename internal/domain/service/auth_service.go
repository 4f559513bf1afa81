package service

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/domain/models"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// AuthenticatePassword verifies email and password
	// Returns the authenticated user or an unauthorized error
	AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error)

	// AuthenticateSession resolves a signed session cookie value to its session and user
	AuthenticateSession(ctx context.Context, token string) (*models.Session, *models.User, error)

	// StartSession creates a session for user and returns the signed cookie value
	StartSession(ctx context.Context, user *models.User, userAgent string) (*models.Session, string, error)

	// EndSession deletes a session. With everywhere set, every other session of the user goes too.
	EndSession(ctx context.Context, session *models.Session, everywhere bool) error

	// HashPassword generates a secure hash from a plain text password
	HashPassword(password string) (string, error)

	// VerifyPassword compares a hashed password with a plain text password
	// Returns nil if they match, or an error if they don't
	VerifyPassword(hash, password string) error
}
