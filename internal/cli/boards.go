package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kanban-cli/internal/layout"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/session"
)

func newBoardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "Board commands",
	}
	cmd.AddCommand(newBoardsListCmd(app))
	cmd.AddCommand(newBoardsShowCmd(app))
	cmd.AddCommand(newBoardsCreateCmd(app))
	cmd.AddCommand(newBoardsEditCmd(app))
	cmd.AddCommand(newBoardsDeleteCmd(app))
	return cmd
}

func newBoardsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			boards, err := app.client().ListBoards(cmd.Context())
			if err != nil {
				return writeErr(cmd, explain("list boards", err))
			}
			return writeOut(cmd, app, map[string]any{"data": boards})
		},
	}
}

func newBoardsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.client().GetBoard(cmd.Context(), args[0])
			if errors.Is(err, remote.ErrNotFound) {
				return writeErr(cmd, errNotFound("board", args[0]))
			}
			if err != nil {
				return writeErr(cmd, explain("show board", err))
			}
			return writeOut(cmd, app, map[string]any{"data": b})
		},
	}
}

func newBoardsCreateCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return writeErr(cmd, errors.New("board name is required"))
			}
			b, err := app.client().CreateBoard(cmd.Context(), remote.BoardInput{
				Name:        strings.TrimSpace(name),
				Description: strings.TrimSpace(description),
			})
			if err != nil {
				return writeErr(cmd, explain("create board", err))
			}
			return writeOut(cmd, app, map[string]any{"data": b})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Board name")
	cmd.Flags().StringVar(&description, "description", "", "Board description")
	return cmd
}

func newBoardsEditCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "edit <board-id>",
		Short: "Rename a board or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.client()
			b, err := c.GetBoard(cmd.Context(), args[0])
			if errors.Is(err, remote.ErrNotFound) {
				return writeErr(cmd, errNotFound("board", args[0]))
			}
			if err != nil {
				return writeErr(cmd, explain("edit board", err))
			}
			if cmd.Flags().Changed("name") {
				b.Name = strings.TrimSpace(name)
			}
			if cmd.Flags().Changed("description") {
				b.Description = strings.TrimSpace(description)
			}
			if b.Name == "" {
				return writeErr(cmd, errors.New("name is required"))
			}
			if err := c.UpdateBoard(cmd.Context(), b.ID, remote.BoardInput{Name: b.Name, Description: b.Description}); err != nil {
				return writeErr(cmd, explain("update board", err))
			}
			return writeOut(cmd, app, map[string]any{"data": b})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newBoardsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().DeleteBoard(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, remote.ErrNotFound) {
					return writeErr(cmd, errNotFound("board", args[0]))
				}
				return writeErr(cmd, explain("delete board", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[0], "deleted": true}})
		},
	}
}

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open or watch a single board",
	}
	cmd.AddCommand(newBoardOpenCmd(app))
	cmd.AddCommand(newBoardWatchCmd(app))
	return cmd
}

func newBoardOpenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open <board-id>",
		Short: "Open a board in the TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, args[0])
		},
	}
}

func newBoardWatchCmd(app *App) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch <board-id>",
		Short: "Print the board layout on every poll until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := session.Open(ctx, app.client(), args[0], app.sink(), session.Options{
				PollInterval: app.pollInterval(),
				Logger:       app.Logger(),
			})
			if err != nil {
				return writeErr(cmd, explain("open board", err))
			}
			defer s.Close()

			emit := func(snap layout.Snapshot, refreshErr error) error {
				meta := map[string]any{"version": snap.Version}
				if snap.Dropped > 0 {
					meta["dropped"] = snap.Dropped
				}
				if refreshErr != nil {
					meta["error"] = refreshErr.Error()
				}
				return writeOut(cmd, app, map[string]any{"data": snap.Columns, "meta": meta})
			}
			if err := emit(s.Layout.Snapshot(), nil); err != nil {
				return err
			}
			s.Start()

			for n := 0; count <= 0 || n < count; n++ {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-s.Poller.Events():
					if err := emit(s.Layout.Snapshot(), ev.Err); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many refreshes (0 = until interrupted)")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
