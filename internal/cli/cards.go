package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/format"
	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/session"
	"kanban-cli/internal/statusutil"
)

func newCardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Card commands",
	}
	cmd.AddCommand(newCardsListCmd(app))
	cmd.AddCommand(newCardsCreateCmd(app))
	cmd.AddCommand(newCardsEditCmd(app))
	cmd.AddCommand(newCardsDeleteCmd(app))
	cmd.AddCommand(newCardsMoveCmd(app))
	return cmd
}

func newCardsListCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list <board-id>",
		Short: "List a board's cards grouped by column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := app.client().ListCards(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, explain("list cards", err))
			}
			snap := layout.New().ReplaceFromCards(cards)
			if strings.TrimSpace(status) != "" {
				st, err := statusutil.Parse(status)
				if err != nil {
					return writeErr(cmd, err)
				}
				col, _ := snap.Column(st)
				return writeOut(cmd, app, map[string]any{"data": col.Cards})
			}
			meta := map[string]any{}
			if snap.Dropped > 0 {
				meta["dropped"] = snap.Dropped
			}
			return writeOut(cmd, app, format.Envelope(snap.Columns, meta))
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only this column (todo|doing|done)")
	return cmd
}

func newCardsCreateCmd(app *App) *cobra.Command {
	var name, description, status string

	cmd := &cobra.Command{
		Use:   "create <board-id>",
		Short: "Create a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := model.StatusTodo
			if strings.TrimSpace(status) != "" {
				var err error
				if st, err = statusutil.Parse(status); err != nil {
					return writeErr(cmd, err)
				}
			}
			card, err := app.client().CreateCard(cmd.Context(), args[0], remote.CardInput{
				Name:        strings.TrimSpace(name),
				Description: strings.TrimSpace(description),
				Status:      st,
			})
			if errors.Is(err, remote.ErrNoCardID) {
				return writeErr(cmd, userError{msg: "API error: Could not create card.", cause: err})
			}
			if err != nil {
				return writeErr(cmd, explain("create card", err))
			}
			return writeOut(cmd, app, map[string]any{"data": card})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Card name")
	cmd.Flags().StringVar(&description, "description", "", "Card description")
	cmd.Flags().StringVar(&status, "status", "todo", "Column (todo|doing|done)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// findCard fetches the board's cards and returns the one with id cardID.
func findCard(cmd *cobra.Command, c *remote.Client, boardID, cardID string) (model.Card, error) {
	cards, err := c.ListCards(cmd.Context(), boardID)
	if err != nil {
		return model.Card{}, explain("load cards", err)
	}
	for _, card := range cards {
		if card.ID == cardID {
			return card, nil
		}
	}
	return model.Card{}, errNotFound("card", cardID)
}

func newCardsEditCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "edit <board-id> <card-id>",
		Short: "Change a card's name or description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.client()
			card, err := findCard(cmd, c, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("name") {
				card.Name = strings.TrimSpace(name)
			}
			if cmd.Flags().Changed("description") {
				card.Description = strings.TrimSpace(description)
			}
			if card.Name == "" {
				return writeErr(cmd, errors.New("name is required"))
			}
			in := remote.CardInput{Name: card.Name, Description: card.Description, Status: card.Status}
			if err := c.UpdateCard(cmd.Context(), args[0], card.ID, in); err != nil {
				return writeErr(cmd, explain("update card", err))
			}
			return writeOut(cmd, app, map[string]any{"data": card})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newCardsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id> <card-id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().DeleteCard(cmd.Context(), args[0], args[1]); err != nil {
				if errors.Is(err, remote.ErrNotFound) {
					return writeErr(cmd, errNotFound("card", args[1]))
				}
				return writeErr(cmd, explain("delete card", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[1], "deleted": true}})
		},
	}
}

func newCardsMoveCmd(app *App) *cobra.Command {
	var to string
	var index int

	cmd := &cobra.Command{
		Use:   "move <board-id> <card-id>",
		Short: "Move a card to a column (same path as a TUI drag)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, err := statusutil.Parse(to)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := session.Open(cmd.Context(), app.client(), args[0], app.sink(), session.Options{Logger: app.Logger()})
			if err != nil {
				return writeErr(cmd, explain("open board", err))
			}
			defer s.Close()

			src, srcIndex, ok := s.Layout.Locate(args[1])
			if !ok {
				return writeErr(cmd, errNotFound("card", args[1]))
			}
			if index < 0 {
				col, _ := s.Layout.Snapshot().Column(dst)
				index = len(col.Cards)
			}
			res, persisted := s.DragEnd(drag.DropResult{
				Draggable:   drag.Card(args[1]),
				Source:      drag.Location{Target: drag.Column(src), Index: srcIndex},
				Destination: &drag.Location{Target: drag.Column(dst), Index: index},
			})
			if res.Err != nil {
				return writeErr(cmd, explain("move card", res.Err))
			}
			card, _ := s.Layout.Card(args[1])
			_, at, _ := s.Layout.Locate(args[1])
			return writeOut(cmd, app, map[string]any{
				"data": card,
				"meta": map[string]any{"from": src, "to": card.Status, "index": at, "persisted": persisted},
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Destination column (todo|doing|done)")
	cmd.Flags().IntVar(&index, "index", -1, "Position in the destination column (default: end)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
