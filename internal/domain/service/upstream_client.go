package service

import (
	"context"

	"github.com/bravo68web/ghcrm/internal/domain/models"
)

// UpstreamClient looks repositories up on GitHub
type UpstreamClient interface {
	// FetchByPath returns the repository at owner/name.
	// A missing repository is a not found error; every other failure is an upstream error.
	FetchByPath(ctx context.Context, path string) (*models.UpstreamRepository, error)

	// SearchByQuery runs a repository search ranked by stars. Empty results are not an error.
	SearchByQuery(ctx context.Context, query string) ([]*models.UpstreamRepository, error)
}
