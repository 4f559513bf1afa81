package commands

import (
	"context"
	"io"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/pkg/client"
)

const defaultAPIURL = "http://localhost:3000"

func apiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api",
			Usage:   "Base URL of the ghcrm server",
			Value:   defaultAPIURL,
			Sources: cli.EnvVars("GHCRM_API_URL"),
		},
		&cli.StringFlag{
			Name:    "email",
			Aliases: []string{"e"},
			Usage:   "Account email",
			Sources: cli.EnvVars("GHCRM_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password",
			Sources: cli.EnvVars("GHCRM_PASSWORD"),
		},
	}
}

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("api"), client.WithUserAgent("ghcrm-cli/"+Version))
}

// signedInClient logs in with --email and --password. The session lives in
// the client's cookie jar for the rest of the command.
func signedInClient(ctx context.Context, cmd *cli.Command) (*client.Client, *client.User, error) {
	email, password := cmd.String("email"), cmd.String("password")
	if email == "" || password == "" {
		return nil, nil, cli.Exit("--email and --password (or GHCRM_EMAIL and GHCRM_PASSWORD) are required", 1)
	}

	c := newClient(cmd)
	user, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	return c, user, nil
}

func idArg(cmd *cli.Command) (uint, error) {
	if cmd.Args().Len() != 1 {
		return 0, cli.Exit("expected exactly one repository id", 1)
	}
	id, err := strconv.ParseUint(cmd.Args().First(), 10, 0)
	if err != nil || id == 0 {
		return 0, cli.Exit("repository id must be a positive integer", 1)
	}
	return uint(id), nil
}

// stdout is where command output goes. Only the root command gets a writer by default.
func stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}
