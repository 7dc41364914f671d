package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kanban-cli/internal/config"
	"kanban-cli/internal/remote"
)

func newLoginCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return writeErr(cmd, errors.New("token is required"))
			}
			if remote.TokenExpired(token, time.Now()) {
				return writeErr(cmd, remote.ErrTokenExpired)
			}
			if err := config.Update(func(c *config.Config) { c.Token = token }); err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{"loggedIn": true}
			if claims, err := remote.Claims(token); err == nil {
				out["subject"] = remote.Subject(claims)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "JWT issued by the board service")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Update(func(c *config.Config) { c.Token = "" }); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"loggedIn": false}})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity in the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(app.Token) == "" {
				return writeErr(cmd, errors.New("not logged in; run `kanban login --token <jwt>`"))
			}
			claims, err := remote.Claims(app.Token)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{
				"subject": remote.Subject(claims),
				"expired": remote.TokenExpired(app.Token, time.Now()),
				"claims":  claims,
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}
