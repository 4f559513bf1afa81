package commands

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/configs"
	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/injectable"
	"github.com/bravo68web/ghcrm/internal/server"
	"github.com/bravo68web/ghcrm/internal/transport/http/router"
)

func OpenAPICommand() *cli.Command {
	return &cli.Command{
		Name:  "openapi",
		Usage: "Print the HTTP API as an OpenAPI 3 YAML document",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadWithEmbedded(cmd.String("config"), configs.FS)
			if err != nil {
				return err
			}

			// Routes only need to be registered, never served
			server.Version = Version
			srv := server.New(cfg, nil)
			router.NewRouter(srv, &injectable.Dependencies{}).RegisterRoutes()

			var w io.Writer = stdout(cmd)
			if out := cmd.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return srv.OpenAPIGenerator.Generate().WriteYAML(w)
		},
	}
}
