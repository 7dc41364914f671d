package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/session"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	return cmd
}

type taskView struct {
	model.Task
	Assignees []string `json:"assignees,omitempty"`
}

func newTasksListCmd(app *App) *cobra.Command {
	var withAssignees bool

	cmd := &cobra.Command{
		Use:   "list <board-id> <card-id>",
		Short: "List a card's tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.client()
			tasks, err := c.ListTasks(cmd.Context(), args[0], args[1])
			if errors.Is(err, remote.ErrNotFound) {
				return writeErr(cmd, errNotFound("card", args[1]))
			}
			if err != nil {
				return writeErr(cmd, explain("list tasks", err))
			}
			if !withAssignees {
				return writeOut(cmd, app, map[string]any{"data": tasks})
			}

			out := make([]taskView, 0, len(tasks))
			for _, t := range tasks {
				as, err := c.ListAssignees(cmd.Context(), model.TaskRef{BoardID: args[0], CardID: args[1], TaskID: t.ID})
				if err != nil {
					return writeErr(cmd, explain("list assignees", err))
				}
				v := taskView{Task: t, Assignees: make([]string, 0, len(as))}
				for _, a := range as {
					v.Assignees = append(v.Assignees, a.MemberID)
				}
				out = append(out, v)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().BoolVar(&withAssignees, "assignees", false, "Include each task's assigned members")
	return cmd
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create <board-id> <card-id>",
		Short: "Add a task to a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.client().CreateTask(cmd.Context(), args[0], args[1], remote.TaskInput{
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(description),
			})
			if err != nil {
				return writeErr(cmd, explain("create task", err))
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id> <card-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := model.TaskRef{BoardID: args[0], CardID: args[1], TaskID: args[2]}
			if err := app.client().DeleteTask(cmd.Context(), ref); err != nil {
				if errors.Is(err, remote.ErrNotFound) {
					return writeErr(cmd, errNotFound("task", args[2]))
				}
				return writeErr(cmd, explain("delete task", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": args[2], "deleted": true}})
		},
	}
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "move <board-id> <task-id>",
		Short: "Move a task to another card (same path as a TUI drag)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Open(cmd.Context(), app.client(), args[0], app.sink(), session.Options{Logger: app.Logger()})
			if err != nil {
				return writeErr(cmd, explain("open board", err))
			}
			defer s.Close()

			for _, id := range []string{from, to} {
				if _, ok := s.Layout.Card(id); !ok {
					return writeErr(cmd, errNotFound("card", id))
				}
			}
			if err := s.ReloadTasks(cmd.Context(), from); err != nil {
				return writeErr(cmd, explain("load tasks", err))
			}
			if cardID, _, ok := s.Tasks.FindTask(args[1]); !ok || cardID != from {
				return writeErr(cmd, errNotFound("task", args[1]))
			}

			res, persisted := s.DragEnd(drag.DropResult{
				Draggable:   drag.Task(args[1]),
				Source:      drag.Location{Target: drag.TaskList(from)},
				Destination: &drag.Location{Target: drag.TaskList(to)},
			})
			if res.Err != nil {
				return writeErr(cmd, explain("move task", res.Err))
			}
			if len(res.Reload) > 0 {
				if err := s.ReloadTasks(cmd.Context(), res.Reload...); err != nil {
					return writeErr(cmd, explain("reload tasks", err))
				}
			}
			_, task, _ := s.Tasks.FindTask(args[1])
			return writeOut(cmd, app, map[string]any{
				"data": task,
				"meta": map[string]any{"from": from, "to": to, "persisted": persisted && from != to},
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Card the task is in now")
	cmd.Flags().StringVar(&to, "to", "", "Destination card")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
