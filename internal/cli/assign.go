package cli

import (
	"github.com/spf13/cobra"

	"kanban-cli/internal/assign"
	"kanban-cli/internal/model"
)

func newAssignCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Task assignment commands",
	}
	cmd.AddCommand(newAssignListCmd(app))
	cmd.AddCommand(newAssignAddCmd(app))
	cmd.AddCommand(newAssignRmCmd(app))
	return cmd
}

func taskRefArgs(args []string) model.TaskRef {
	return model.TaskRef{BoardID: args[0], CardID: args[1], TaskID: args[2]}
}

func newAssignListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <board-id> <card-id> <task-id>",
		Short: "List a task's assigned members",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := assign.New(app.client()).Load(cmd.Context(), taskRefArgs(args))
			if err != nil {
				return writeErr(cmd, explain("list assignees", err))
			}
			return writeOut(cmd, app, map[string]any{"data": members})
		},
	}
}

func newAssignAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <board-id> <card-id> <task-id> <member>",
		Short: "Assign a board member to a task",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := taskRefArgs(args)
			cache := assign.New(app.client())
			if err := cache.Assign(cmd.Context(), ref, args[3]); err != nil {
				app.Logger().WithError(err).WithField("task", ref.TaskID).Debug("assign failed")
				return writeErr(cmd, userError{msg: assign.UserMessage(err), cause: err})
			}
			members, _ := cache.Get(ref.TaskID)
			return writeOut(cmd, app, map[string]any{
				"data": members,
				"meta": map[string]any{"message": assign.UserMessage(nil)},
			})
		},
	}
}

func newAssignRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <board-id> <card-id> <task-id> <member>",
		Aliases: []string{"remove"},
		Short:   "Remove a member from a task",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := taskRefArgs(args)
			cache := assign.New(app.client())
			if err := cache.Unassign(cmd.Context(), ref, args[3]); err != nil {
				return writeErr(cmd, explain("unassign member", err))
			}
			members, _ := cache.Get(ref.TaskID)
			return writeOut(cmd, app, map[string]any{"data": members})
		},
	}
}
