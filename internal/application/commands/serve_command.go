package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/configs"
	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	"github.com/bravo68web/ghcrm/internal/infrastructure/otel"
	"github.com/bravo68web/ghcrm/internal/injectable"
	"github.com/bravo68web/ghcrm/internal/server"
	"github.com/bravo68web/ghcrm/internal/transport/http/router"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml",
		Sources: cli.EnvVars("GHCRM_CONFIG"),
	}
}

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API server",
		Flags:  []cli.Flag{configFlag()},
		Action: runServe,
	}
}

func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := bootstrap(ctx, cmd)
			if err != nil {
				return err
			}
			defer log.Close()

			db, err := database.NewDatabase(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.RunMigrations()
		},
	}
}

// bootstrap loads configuration and installs the process logger
func bootstrap(ctx context.Context, cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEmbedded(cmd.String("config"), configs.FS)
	if err != nil {
		return nil, nil, err
	}

	otel.ServiceVersion = Version
	server.Version = Version
	log, err := otel.NewLogger(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(log)

	return cfg, log, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx, cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("Starting ghcrm",
		logger.String("version", Version),
		logger.Environment(cfg.Server.Mode),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	deps, err := injectable.LoadDependencies(ctx, cfg, db)
	if err != nil {
		log.Error("Failed to load dependencies", logger.Error(err))
		return err
	}
	defer deps.Close()

	srv := server.New(cfg, db)
	router.NewRouter(srv, deps).RegisterRoutes()

	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server stopped", logger.Error(err))
		return err
	}

	log.Info("Shutdown complete")
	return nil
}
