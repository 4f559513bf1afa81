package dto

import (
	"math"
	"regexp"
	"strings"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
)

// Pagination bounds for repository listings
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var repoPathRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

// AddRepositoryRequest represents a request to start tracking a GitHub repository
type AddRepositoryRequest struct {
	Path string `json:"path"`
}

// Validate checks the path looks like owner/repo
func (r *AddRepositoryRequest) Validate() error {
	r.Path = strings.TrimSpace(r.Path)
	return ValidateRepoPath(r.Path)
}

// ValidateRepoPath checks path is a bare owner/repo pair
func ValidateRepoPath(path string) error {
	if path == "" {
		return apperrors.ValidationError("path", "path is required")
	}
	if !repoPathRegex.MatchString(path) {
		return apperrors.ValidationError("path", "path must be in the format owner/repo")
	}
	if _, _, ok := models.SplitFullName(path); !ok {
		return apperrors.ValidationError("path", "path must be in the format owner/repo")
	}
	return nil
}

// ListRepositoriesQuery holds the list endpoint's query string
type ListRepositoriesQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Validate rejects out of range pagination
func (q *ListRepositoriesQuery) Validate() error {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		return apperrors.ValidationError("page", "page must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return apperrors.ValidationError("limit", "limit must be between 1 and 100")
	}
	// Offset must stay representable
	if q.Page-1 > math.MaxInt/q.Limit {
		return apperrors.ValidationError("page", "page is too large")
	}
	return nil
}

// Offset returns the number of rows before the requested page
func (q *ListRepositoriesQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// RepositoryResponse is the wire form of a tracked repository.
// created_at is the upstream creation date in seconds since epoch.
type RepositoryResponse struct {
	ID         uint   `json:"id"`
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	URL        string `json:"url"`
	Stars      int    `json:"stars"`
	Forks      int    `json:"forks"`
	OpenIssues int    `json:"open_issues"`
	CreatedAt  int64  `json:"created_at"`
	UserID     uint   `json:"user_id"`
}

// RepositoryListResponse represents one page of tracked repositories
type RepositoryListResponse struct {
	Items []RepositoryResponse `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// SearchOwner is the owner block of a search result
type SearchOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// SearchResultResponse mirrors the fields of GitHub's search items the client reads
type SearchResultResponse struct {
	ID              int64       `json:"id"`
	FullName        string      `json:"full_name"`
	Description     string      `json:"description"`
	StargazersCount int         `json:"stargazers_count"`
	Owner           SearchOwner `json:"owner"`
}

// ToRepositoryResponse converts a model to its wire form
func ToRepositoryResponse(repo *models.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:         repo.ID,
		Owner:      repo.Owner,
		Name:       repo.Name,
		FullName:   repo.FullName,
		URL:        repo.URL,
		Stars:      repo.Stars,
		Forks:      repo.Forks,
		OpenIssues: repo.OpenIssues,
		CreatedAt:  repo.CreatedAt.Unix(),
		UserID:     repo.UserID,
	}
}

// ToRepositoryListResponse converts a page of models
func ToRepositoryListResponse(repos []*models.Repository, total int64, page, limit int) RepositoryListResponse {
	items := make([]RepositoryResponse, 0, len(repos))
	for _, repo := range repos {
		items = append(items, ToRepositoryResponse(repo))
	}
	return RepositoryListResponse{Items: items, Total: total, Page: page, Limit: limit}
}

// ToSearchResults converts upstream search hits
func ToSearchResults(repos []*models.UpstreamRepository) []SearchResultResponse {
	results := make([]SearchResultResponse, 0, len(repos))
	for _, r := range repos {
		results = append(results, SearchResultResponse{
			ID:              r.ID,
			FullName:        r.FullName,
			Description:     r.Description,
			StargazersCount: r.Stars,
			Owner:           SearchOwner{Login: r.Owner, AvatarURL: r.OwnerAvatar},
		})
	}
	return results
}
