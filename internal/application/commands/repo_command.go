package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/internal/tui"
	"github.com/bravo68web/ghcrm/internal/ui"
	"github.com/bravo68web/ghcrm/pkg/logger"
	"github.com/bravo68web/ghcrm/pkg/tracker"
)

func RepoCommands() *cli.Command {
	return &cli.Command{
		Name:  "repo",
		Usage: "Manage tracked repositories",
		Commands: []*cli.Command{
			List(),
			Add(),
			Refresh(),
			Delete(),
			Search(),
			Browse(),
		},
	}
}

// openStore signs in and returns a tracker over the session. Close it when done.
func openStore(ctx context.Context, cmd *cli.Command) (*tracker.Store, func(), error) {
	c, _, err := signedInClient(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}

	store := tracker.NewStore(c)
	return store, func() {
		store.Close()
		_ = c.Logout(ctx, false)
	}, nil
}

func List() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List tracked repositories",
		Flags: append(apiFlags(),
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: tracker.DefaultPage,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Repositories per page (1-100)",
				Value:   tracker.DefaultLimit,
			},
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Only repositories whose full name contains this text",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, done, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer done()

			search := cmd.String("search")
			store.FetchRepositories(ctx, tracker.FetchOverrides{
				Page:   int(cmd.Int("page")),
				Limit:  int(cmd.Int("limit")),
				Search: &search,
			})

			snap := store.Snapshot()
			if snap.Errors.Fetch != "" {
				return errors.New(snap.Errors.Fetch)
			}
			ui.RenderRepositories(stdout(cmd), snap.Repositories, snap.Pagination, search)
			return nil
		},
	}
}

func Add() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Start tracking a GitHub repository",
		ArgsUsage: "<owner/repo>",
		Flags:     apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("expected exactly one owner/repo", 1)
			}

			store, done, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer done()

			if !store.AddRepository(ctx, cmd.Args().First()) {
				return errors.New(store.Snapshot().Errors.Add)
			}

			repos := store.Snapshot().Repositories
			ui.RenderRepository(stdout(cmd), repos[len(repos)-1])
			return nil
		},
	}
}

func Refresh() *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "Re-read a repository's counts from GitHub",
		ArgsUsage: "<id>",
		Flags:     apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := idArg(cmd)
			if err != nil {
				return err
			}

			c, _, err := signedInClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.Logout(ctx, false)

			repo, err := c.RefreshRepository(ctx, id)
			if err != nil {
				return err
			}
			ui.RenderRepository(stdout(cmd), *repo)
			return nil
		},
	}
}

func Delete() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Stop tracking a repository",
		ArgsUsage: "<id>",
		Flags:     apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := idArg(cmd)
			if err != nil {
				return err
			}

			store, done, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer done()

			store.DeleteRepository(ctx, id)
			if msg := store.Snapshot().Errors.Delete; msg != "" {
				return errors.New(msg)
			}

			fmt.Fprintf(stdout(cmd), "Deleted repository %d\n", id)
			return nil
		},
	}
}

func Search() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search GitHub for repositories to track",
		ArgsUsage: "<query>",
		Flags:     apiFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if utf8.RuneCountInString(query) < tracker.MinSearchLength {
				return cli.Exit(fmt.Sprintf("query must be at least %d characters", tracker.MinSearchLength), 1)
			}

			store, done, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer done()

			snap, err := searchAndWait(ctx, store, query)
			if err != nil {
				return err
			}
			if snap.Errors.Search != "" {
				return errors.New(snap.Errors.Search)
			}
			ui.RenderSuggestions(stdout(cmd), snap.Suggestions)
			return nil
		},
	}
}

// searchAndWait runs a debounced search and blocks until its result lands
func searchAndWait(ctx context.Context, store *tracker.Store, query string) (tracker.Snapshot, error) {
	result := make(chan tracker.Snapshot, 1)
	var started atomic.Bool

	unsubscribe := store.Subscribe(func(s tracker.Snapshot) {
		if s.Loading.Search {
			started.Store(true)
			return
		}
		if started.Load() {
			select {
			case result <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	store.SearchRepositories(query)

	select {
	case s := <-result:
		return s, nil
	case <-ctx.Done():
		return tracker.Snapshot{}, ctx.Err()
	}
}

func Browse() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse tracked repositories interactively",
		Flags: append(apiFlags(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the terminal UI is open",
				Value: filepath.Join(os.TempDir(), "ghcrm-browse.log"),
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := logger.New(&logger.Config{
				Level:    "debug",
				Output:   logger.OutputFile,
				Format:   "json",
				FilePath: cmd.String("log-file"),
			})
			if err != nil {
				return err
			}
			defer log.Close()
			logger.SetGlobal(log)

			store, done, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer done()

			return tui.Run(ctx, store)
		},
	}
}
