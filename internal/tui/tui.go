// Package tui is the interactive board client: a board picker and a column
// view where cards and tasks are dragged with the keyboard.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
)

type Options struct {
	Client       *remote.Client
	Sink         report.Sink
	Logger       *log.Logger
	PollInterval time.Duration
	// ColorProfile forces ascii|ansi|ansi256|truecolor; empty detects.
	ColorProfile string
	// BoardID opens that board directly instead of the picker.
	BoardID string
}

func Run(opts Options) error {
	applyColorProfilePreference(opts.ColorProfile)
	applyThemePreference()

	final, err := tea.NewProgram(newAppModel(opts), tea.WithAltScreen()).Run()
	if m, ok := final.(appModel); ok {
		m.closeSession()
	}
	return err
}
