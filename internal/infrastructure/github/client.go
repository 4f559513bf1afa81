// Package github adapts the GitHub REST API to the CRM's upstream lookups.
package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	"github.com/bravo68web/ghcrm/internal/observability"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// SearchLimit caps search results
const SearchLimit = 10

// Client implements service.UpstreamClient on go-github
type Client struct {
	gh  *gh.Client
	log *logger.Logger
}

var _ service.UpstreamClient = (*Client)(nil)

// NewClient builds a GitHub client. The token is optional; without it calls
// are anonymous and rate limited harder.
func NewClient(cfg *config.GitHubConfig) (*Client, error) {
	log := logger.Get().WithFields(logger.Component("github"))

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = cfg.Timeout
	} else {
		log.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API access")
	}

	client := gh.NewClient(httpClient)

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, apperror.Wrap(err, "invalid github base url")
		}
		client.BaseURL = base
	}

	log.Debug("GitHub client configured",
		logger.String("base_url", client.BaseURL.String()),
		logger.Bool("authenticated", cfg.Token != ""),
	)

	return &Client{gh: client, log: log}, nil
}

// FetchByPath returns the repository at owner/name
func (c *Client) FetchByPath(ctx context.Context, path string) (*models.UpstreamRepository, error) {
	owner, name, ok := models.SplitFullName(path)
	if !ok {
		return nil, apperror.ValidationError("path", "path must look like owner/repo")
	}

	start := time.Now()
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if isNotFound(err) {
			observability.RecordUpstream("fetch", observability.OutcomeNotFound, time.Since(start))
			return nil, apperror.NewAppError(apperror.CodeNotFound, "repository not found on GitHub", apperror.ErrNotFound)
		}
		observability.RecordUpstream("fetch", observability.OutcomeError, time.Since(start))
		c.log.Warn("GitHub repository lookup failed", logger.FullName(path), logger.Error(err))
		return nil, apperror.UpstreamError("lookup", err)
	}

	// Anything but a repository object, such as the API root, has no full name
	if _, _, ok := models.SplitFullName(repo.GetFullName()); !ok {
		observability.RecordUpstream("fetch", observability.OutcomeNotFound, time.Since(start))
		c.log.Warn("GitHub returned no repository for path", logger.FullName(path))
		return nil, apperror.NewAppError(apperror.CodeNotFound, "repository not found on GitHub", apperror.ErrNotFound)
	}

	observability.RecordUpstream("fetch", observability.OutcomeSuccess, time.Since(start))
	return toUpstream(repo), nil
}

// SearchByQuery searches repositories ranked by stars, at most SearchLimit of them
func (c *Client) SearchByQuery(ctx context.Context, query string) ([]*models.UpstreamRepository, error) {
	opts := &gh.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: SearchLimit},
	}

	start := time.Now()
	result, _, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		observability.RecordUpstream("search", observability.OutcomeError, time.Since(start))
		c.log.Warn("GitHub repository search failed", logger.Query(query), logger.Error(err))
		return nil, apperror.UpstreamError("search", err)
	}
	observability.RecordUpstream("search", observability.OutcomeSuccess, time.Since(start))

	repos := make([]*models.UpstreamRepository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toUpstream(r))
	}

	// GitHub already sorts; keep the contract even if a proxy reorders
	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	if len(repos) > SearchLimit {
		repos = repos[:SearchLimit]
	}

	return repos, nil
}

func isNotFound(err error) bool {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func toUpstream(r *gh.Repository) *models.UpstreamRepository {
	return &models.UpstreamRepository{
		ID:          r.GetID(),
		Owner:       r.GetOwner().GetLogin(),
		OwnerAvatar: r.GetOwner().GetAvatarURL(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		CreatedAt:   r.GetCreatedAt().Time,
	}
}
