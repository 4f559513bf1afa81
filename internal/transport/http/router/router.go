package router

import (
	"github.com/bravo68web/ghcrm/internal/injectable"
	"github.com/bravo68web/ghcrm/internal/server"
	"github.com/bravo68web/ghcrm/internal/transport/http/middleware"
)

type Router struct {
	server *server.Server
	Deps   *injectable.Dependencies

	auth *middleware.AuthMiddleware
}

// NewRouter creates a new Router instance.
func NewRouter(s *server.Server, deps *injectable.Dependencies) *Router {
	return &Router{
		server: s,
		Deps:   deps,
		auth:   middleware.NewAuthMiddleware(deps.AuthService, s.Config.Session.CookieName),
	}
}

// RegisterRoutes sets up the routes for the server.
func (r *Router) RegisterRoutes() {
	r.healthRouter()
	r.authRouter()
	r.repoRouter()
	r.docsRouter()
}
