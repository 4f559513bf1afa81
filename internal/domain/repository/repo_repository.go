package repository

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/domain/models"
)

// ListFilter narrows a user's tracked repositories
type ListFilter struct {
	// Search is a case-insensitive substring matched against name, owner and full name
	Search string
	Limit  int
	Offset int
}

// RepoRepository defines the interface for tracked repository data access.
// Every lookup is scoped by owning user.
type RepoRepository interface {
	// Create inserts a repository. A duplicate (user_id, full_name) returns a conflict.
	Create(ctx context.Context, repo *models.Repository) error

	// FindByIDAndUser finds a repository by id owned by userID
	FindByIDAndUser(ctx context.Context, id, userID uint) (*models.Repository, error)

	// ExistsByFullName checks if userID already tracks fullName
	ExistsByFullName(ctx context.Context, userID uint, fullName string) (bool, error)

	// ListByUser returns one page of matching repositories, newest first, and the total match count
	ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*models.Repository, int64, error)

	// UpdateCounts persists stars, forks and open issues of repo
	UpdateCounts(ctx context.Context, repo *models.Repository) error

	// Delete removes a repository owned by userID
	Delete(ctx context.Context, id, userID uint) error
}
