package repository

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access operations
type UserRepository interface {
	// CreateWithAuth stores the credentials and the profile in one transaction
	CreateWithAuth(ctx context.Context, auth *models.AuthUser, user *models.User) error

	// FindByID retrieves a user by their ID
	FindByID(ctx context.Context, id uint) (*models.User, error)

	// FindByEmail retrieves a user by their email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindAuthByEmail retrieves the credentials row for an email
	FindAuthByEmail(ctx context.Context, email string) (*models.AuthUser, error)

	// FindByAuthUserID retrieves the profile linked to a credentials row
	FindByAuthUserID(ctx context.Context, authUserID uuid.UUID) (*models.User, error)

	// ExistsByEmail checks if a user with the given email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByPhone checks if a user with the given phone exists
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}
