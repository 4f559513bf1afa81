package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/repository"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
)

// likeEscaper makes %, _ and \ match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const searchClause = `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(owner) LIKE ? ESCAPE '\' OR LOWER(full_name) LIKE ? ESCAPE '\')`

// RepoRepoImpl implements the RepoRepository interface using GORM
type RepoRepoImpl struct {
	db *gorm.DB
}

// NewRepoRepository creates a new instance of RepoRepoImpl
func NewRepoRepository(db *gorm.DB) repository.RepoRepository {
	return &RepoRepoImpl{db: db}
}

// Create creates a new repository in the database
func (r *RepoRepoImpl) Create(ctx context.Context, repo *models.Repository) error {
	if err := r.db.WithContext(ctx).Create(repo).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("repository already exists", apperror.ErrRepositoryExists)
		}
		return apperror.DatabaseError("create", err)
	}
	return nil
}

// FindByIDAndUser retrieves a repository by id, scoped to its owner
func (r *RepoRepoImpl) FindByIDAndUser(ctx context.Context, id, userID uint) (*models.Repository, error) {
	var repo models.Repository
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("repository", apperror.ErrNotFound)
		}
		return nil, apperror.DatabaseError("find", err)
	}
	return &repo, nil
}

// ExistsByFullName checks if userID already tracks fullName
func (r *RepoRepoImpl) ExistsByFullName(ctx context.Context, userID uint, fullName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Repository{}).
		Where("user_id = ? AND full_name = ?", userID, fullName).
		Count(&count).Error
	if err != nil {
		return false, apperror.DatabaseError("exists check", err)
	}
	return count > 0, nil
}

// ListByUser returns one page of a user's repositories, highest id first
func (r *RepoRepoImpl) ListByUser(ctx context.Context, userID uint, filter repository.ListFilter) ([]*models.Repository, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Repository{}).
		Where("user_id = ?", userID)

	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		query = query.Where(searchClause, pattern, pattern, pattern)
	}
	// Shared by the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.DatabaseError("count", err)
	}

	repos := make([]*models.Repository, 0, filter.Limit)
	err := query.
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&repos).Error
	if err != nil {
		return nil, 0, apperror.DatabaseError("list", err)
	}

	return repos, total, nil
}

// UpdateCounts persists only the counters so identity fields can never drift
func (r *RepoRepoImpl) UpdateCounts(ctx context.Context, repo *models.Repository) error {
	result := r.db.WithContext(ctx).
		Model(&models.Repository{}).
		Where("id = ? AND user_id = ?", repo.ID, repo.UserID).
		Updates(map[string]any{
			"stars":       repo.Stars,
			"forks":       repo.Forks,
			"open_issues": repo.OpenIssues,
		})
	if result.Error != nil {
		return apperror.DatabaseError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("repository", apperror.ErrNotFound)
	}
	return nil
}

// Delete deletes a repository owned by userID
func (r *RepoRepoImpl) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Repository{})
	if result.Error != nil {
		return apperror.DatabaseError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("repository", apperror.ErrNotFound)
	}
	return nil
}
