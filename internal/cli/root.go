package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanban-cli/internal/config"
	"kanban-cli/internal/format"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
	"kanban-cli/internal/tui"
)

type App struct {
	APIURL     string
	Token      string
	LogFile    string
	PrettyJSON bool
	Format     string

	cfg       *config.Config
	logger    *log.Logger
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Kanban board CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Pick a board and open it in the TUI
  kanban

  # Open a board directly (shortcut for: kanban board open <board-id>)
  kanban 64f0c2

  # Scriptable commands
  kanban cards list 64f0c2
  kanban cards move 64f0c2 card-17 --to doing
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board picker.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.close()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", envOr("KANBAN_API_URL", ""), "Board service base URL (default from config, then http://localhost:3000/)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("KANBAN_TOKEN", ""), "Bearer token (default: token stored by `kanban login`)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("KANBAN_LOG_FILE", ""), "Where background failures are logged (default ~/.kanban/kanban.log)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("KANBAN_FORMAT", "json"), "Output format (json|edn)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newCardsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newAssignCmd(app))
	cmd.AddCommand(newInviteCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// IsCommand reports whether name is a top-level command (or cobra builtin), so
// the board-id shortcut does not shadow it.
func IsCommand(name string) bool {
	switch name {
	case "help", "completion", "__complete", "__completeNoDesc":
		return true
	}
	for _, c := range NewRootCmd().Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// load resolves settings: flags, then env, then config file, then defaults.
func (app *App) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app.cfg = cfg
	if strings.TrimSpace(app.APIURL) == "" {
		app.APIURL = cfg.APIURL
	}
	if strings.TrimSpace(app.Token) == "" {
		app.Token = cfg.Token
	}
	if strings.TrimSpace(app.LogFile) == "" {
		app.LogFile = cfg.LogPath()
	}
	return nil
}

func (app *App) close() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

// Logger opens the log file on first use. A log file that cannot be opened
// silences logging rather than failing the command.
func (app *App) Logger() *log.Logger {
	if app.logger != nil {
		return app.logger
	}
	debug := app.cfg != nil && app.cfg.Debug
	logger, closer, err := report.OpenLogger(app.LogFile, debug)
	if err != nil {
		logger, closer, _ = report.OpenLogger("", false)
	}
	app.logger = logger
	app.logCloser = closer
	return logger
}

func (app *App) sink() report.Sink {
	return report.NewLogSink(app.Logger())
}

func (app *App) pollInterval() time.Duration {
	if app.cfg == nil {
		return 0
	}
	return app.cfg.PollInterval.Std()
}

func (app *App) client() *remote.Client {
	return remote.New(remote.Options{
		BaseURL:        app.APIURL,
		Token:          app.Token,
		OnUnauthorized: app.forceLogout,
	})
}

// forceLogout drops the stored token after the service (or the token's own
// exp claim) says the session is over.
func (app *App) forceLogout(cause error) {
	app.Logger().WithError(cause).Warn("session ended; clearing stored token")
	if err := config.Update(func(c *config.Config) { c.Token = "" }); err != nil {
		app.Logger().WithError(err).Warn("clear stored token")
	}
}

func runTUI(cmd *cobra.Command, app *App, boardID string) error {
	colorProfile := ""
	if app.cfg != nil {
		colorProfile = app.cfg.ColorProfile
	}
	err := tui.Run(tui.Options{
		Client:       app.client(),
		Sink:         app.sink(),
		Logger:       app.Logger(),
		PollInterval: app.pollInterval(),
		ColorProfile: colorProfile,
		BoardID:      boardID,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
