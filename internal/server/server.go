package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	"github.com/bravo68web/ghcrm/internal/transport/http/middleware"
	"github.com/bravo68web/ghcrm/pkg/logger"
	"github.com/bravo68web/ghcrm/pkg/openapi"
)

// Version is reported in the API document
var Version = "dev"

// Server is the gin engine plus what routes need to reach
type Server struct {
	*gin.Engine

	Config *config.Config
	DB     *database.Database

	OpenAPIGenerator *openapi.Generator

	log *logger.Logger
}

// New creates a Server with recovery, access logging and CORS installed
func New(cfg *config.Config, db *database.Database) *Server {
	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(cfg.CORS.AllowedOrigins),
	)

	docs := openapi.NewGenerator(engine,
		openapi.Info{
			Title:       "GitHub CRM API",
			Description: "Track GitHub repositories and their star, fork and issue counts.",
			Version:     Version,
		},
		[]openapi.Server{{URL: "/"}},
		[]openapi.Tag{
			{Name: "Auth", Description: "Accounts and cookie sessions"},
			{Name: "Repositories", Description: "Tracked repositories"},
			{Name: "Health", Description: "Probes and metrics"},
		},
	).WithCookieAuth(cfg.Session.CookieName)

	return &Server{
		Engine:           engine,
		Config:           cfg,
		DB:               db,
		OpenAPIGenerator: docs,
		log:              logger.Get().WithFields(logger.Component("http-server")),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
// for up to the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.ServerAddress(),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server", logger.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
