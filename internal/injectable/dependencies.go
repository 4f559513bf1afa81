package injectable

import (
	"context"
	"fmt"

	"github.com/bravo68web/ghcrm/internal/application/service"
	"github.com/bravo68web/ghcrm/internal/config"
	domainservice "github.com/bravo68web/ghcrm/internal/domain/service"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	"github.com/bravo68web/ghcrm/internal/infrastructure/github"
	"github.com/bravo68web/ghcrm/internal/infrastructure/repository"
	"github.com/bravo68web/ghcrm/internal/infrastructure/session"
)

// Dependencies holds all the dependencies required by the router
type Dependencies struct {
	// Services
	AuthService domainservice.AuthService
	RepoService *service.RepoService
	UserService *service.UserService

	// Infrastructure
	Sessions domainservice.SessionStore
	Upstream domainservice.UpstreamClient
}

// LoadDependencies builds the session store and GitHub client from cfg and wires the services
func LoadDependencies(ctx context.Context, cfg *config.Config, db *database.Database) (*Dependencies, error) {
	sessions, err := session.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	upstream, err := github.NewClient(&cfg.GitHub)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to initialize github client: %w", err)
	}

	return NewDependencies(cfg, db, sessions, upstream), nil
}

// NewDependencies wires services over already constructed infrastructure
func NewDependencies(
	cfg *config.Config,
	db *database.Database,
	sessions domainservice.SessionStore,
	upstream domainservice.UpstreamClient,
) *Dependencies {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	repoRepo := repository.NewRepoRepository(db.DB())

	// Initialize services
	authService := service.NewAuthService(userRepo, sessions, &cfg.Session)
	userService := service.NewUserService(userRepo, authService)
	repoService := service.NewRepoService(repoRepo, upstream)

	return &Dependencies{
		AuthService: authService,
		RepoService: repoService,
		UserService: userService,
		Sessions:    sessions,
		Upstream:    upstream,
	}
}

// Close releases the session store connection
func (d *Dependencies) Close() error {
	return d.Sessions.Close()
}
