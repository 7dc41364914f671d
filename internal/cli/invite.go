package cli

import (
	"github.com/spf13/cobra"
)

func newInviteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Board invitations",
	}
	cmd.AddCommand(newInviteSendCmd(app))
	cmd.AddCommand(newInviteRespondCmd(app))
	return cmd
}

func newInviteSendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <board-id> <email>",
		Short: "Invite someone to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := app.client().Invite(cmd.Context(), args[0], args[1])
			if err != nil {
				return writeErr(cmd, explain("send invite", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"board": args[0], "email": args[1], "message": msg}})
		},
	}
}

func newInviteRespondCmd(app *App) *cobra.Command {
	var email, response string

	cmd := &cobra.Command{
		Use:   "respond <board-id>",
		Short: "Accept or decline an invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := app.client().RespondInvite(cmd.Context(), args[0], email, response)
			if err != nil {
				return writeErr(cmd, explain("respond to invite", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"board": args[0], "response": response, "message": msg}})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Invited email address")
	cmd.Flags().StringVar(&response, "response", "accept", "accept or decline")
	return cmd
}
