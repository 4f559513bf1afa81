package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/internal/ui"
	"github.com/bravo68web/ghcrm/pkg/client"
)

func AuthCommands() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account",
		Commands: []*cli.Command{
			SignUp(),
			Login(),
			WhoAmI(),
		},
	}
}

func SignUp() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account",
		Flags: append(apiFlags(),
			&cli.StringFlag{
				Name:     "first-name",
				Usage:    "First name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "last-name",
				Usage:    "Last name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "phone",
				Usage:    "Phone number",
				Required: true,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			user, err := newClient(cmd).SignUp(ctx, client.SignUpRequest{
				FirstName: cmd.String("first-name"),
				LastName:  cmd.String("last-name"),
				Email:     cmd.String("email"),
				Phone:     cmd.String("phone"),
				Password:  cmd.String("password"),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout(cmd), "Account created")
			ui.RenderUser(stdout(cmd), user)
			return nil
		},
	}
}

func Login() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Check your credentials",
		Flags: apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, user, err := signedInClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.Logout(ctx, false)

			fmt.Fprintf(stdout(cmd), "Signed in as %s\n", user.Email)
			return nil
		},
	}
}

func WhoAmI() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the account behind your credentials",
		Flags: apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, _, err := signedInClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.Logout(ctx, false)

			me, err := c.Me(ctx)
			if err != nil {
				return err
			}
			ui.RenderUser(stdout(cmd), me)
			return nil
		},
	}
}
