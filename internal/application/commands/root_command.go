package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Version is stamped at build time with -ldflags
var Version = "dev"

type CommandRegistry struct {
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

func (*CommandRegistry) RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:                  "ghcrm",
		Usage:                 "Track GitHub repositories you care about",
		Version:               Version,
		Suggest:               true,
		EnableShellCompletion: true,
		Action:                RootCommand(),
		Commands: []*cli.Command{
			ServeCommand(),
			MigrateCommand(),
			AuthCommands(),
			RepoCommands(),
			OpenAPICommand(),
		},
	}
}

func RootCommand() cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		fmt.Fprintln(cmd.Writer, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintln(cmd.Writer, "Welcome to GitHub CRM!")
		fmt.Fprintln(cmd.Writer, "Use 'ghcrm --help' to see available commands.")
		fmt.Fprintln(cmd.Writer, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		return nil
	}
}
