package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/repository"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	"github.com/bravo68web/ghcrm/internal/observability"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// Upstream search tuning
const (
	MinSearchQueryLength = 3
	MaxSearchResults     = 10
)

// RepoService handles tracked repository operations for one user at a time
type RepoService struct {
	repoRepo repository.RepoRepository
	upstream service.UpstreamClient
	log      *logger.Logger
}

// NewRepoService creates a new RepoService instance
func NewRepoService(
	repoRepo repository.RepoRepository,
	upstream service.UpstreamClient,
) *RepoService {
	return &RepoService{
		repoRepo: repoRepo,
		upstream: upstream,
		log:      logger.Get().WithFields(logger.Component("repo-service")),
	}
}

// ListRepositories returns one page of the user's repositories, newest first.
// total counts every match of the search, independent of the page.
func (s *RepoService) ListRepositories(ctx context.Context, userID uint, query dto.ListRepositoriesQuery) ([]*models.Repository, int64, error) {
	if err := query.Validate(); err != nil {
		return nil, 0, err
	}

	repos, total, err := s.repoRepo.ListByUser(ctx, userID, repository.ListFilter{
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset(),
	})
	if err != nil {
		s.log.Error("Failed to list repositories", logger.UserID(userID), logger.Error(err))
		return nil, 0, err
	}

	return repos, total, nil
}

// AddRepository looks path up on GitHub and starts tracking it
func (s *RepoService) AddRepository(ctx context.Context, userID uint, path string) (*models.Repository, error) {
	path = strings.TrimSpace(path)
	if err := dto.ValidateRepoPath(path); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logger.UserID(userID), logger.FullName(path))

	if err := s.ensureNotTracked(ctx, userID, path); err != nil {
		log.Debug("Repository already tracked")
		return nil, err
	}

	upstream, err := s.upstream.FetchByPath(ctx, path)
	if err != nil {
		log.Warn("GitHub lookup failed", logger.Error(err))
		return nil, err
	}

	// GitHub resolves renames and case; the canonical name is the key
	if upstream.FullName != path {
		if err := s.ensureNotTracked(ctx, userID, upstream.FullName); err != nil {
			return nil, err
		}
	}

	repo := models.NewRepositoryFromUpstream(userID, upstream)
	if err := s.repoRepo.Create(ctx, repo); err != nil {
		if !apperrors.IsConflict(err) {
			log.Error("Failed to store repository", logger.Error(err))
		}
		return nil, err
	}

	observability.RecordRepositoryAdded()
	log.Info("Repository added", logger.RepositoryID(repo.ID), logger.Int("stars", repo.Stars))

	return repo, nil
}

func (s *RepoService) ensureNotTracked(ctx context.Context, userID uint, fullName string) error {
	exists, err := s.repoRepo.ExistsByFullName(ctx, userID, fullName)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Conflict("repository already exists", apperrors.ErrRepositoryExists)
	}
	return nil
}

// RefreshRepository overwrites the star, fork and issue counts from GitHub
func (s *RepoService) RefreshRepository(ctx context.Context, userID, id uint) (*models.Repository, error) {
	repo, err := s.repoRepo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logger.UserID(userID), logger.RepositoryID(id), logger.FullName(repo.FullName))

	upstream, err := s.upstream.FetchByPath(ctx, repo.FullName)
	if err != nil {
		log.Warn("GitHub refresh failed", logger.Error(err))
		return nil, err
	}

	repo.ApplyCounts(upstream)
	if err := s.repoRepo.UpdateCounts(ctx, repo); err != nil {
		log.Error("Failed to store refreshed counts", logger.Error(err))
		return nil, err
	}

	log.Info("Repository refreshed",
		logger.Int("stars", repo.Stars),
		logger.Int("forks", repo.Forks),
		logger.Int("open_issues", repo.OpenIssues),
	)

	return repo, nil
}

// DeleteRepository stops tracking a repository
func (s *RepoService) DeleteRepository(ctx context.Context, userID, id uint) error {
	if err := s.repoRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.log.Info("Repository deleted", logger.UserID(userID), logger.RepositoryID(id))
	return nil
}

// SearchUpstream proxies a typeahead search to GitHub. Queries shorter than
// MinSearchQueryLength return nothing without calling GitHub.
func (s *RepoService) SearchUpstream(ctx context.Context, query string) ([]*models.UpstreamRepository, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return []*models.UpstreamRepository{}, nil
	}

	repos, err := s.upstream.SearchByQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	if len(repos) > MaxSearchResults {
		repos = repos[:MaxSearchResults]
	}

	return repos, nil
}
