package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bravo68web/ghcrm/internal/application/commands"
)

func main() {
	registry := commands.NewCommandRegistry()

	if err := registry.RegisterCLI().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
