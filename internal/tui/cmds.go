package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
	"kanban-cli/internal/poller"
	"kanban-cli/internal/report"
	"kanban-cli/internal/session"
)

// Network calls run in tea.Cmd goroutines and come back as these messages.
// Messages that belong to a board session carry it, and Update drops those
// whose session is no longer the open one.

type boardsLoadedMsg struct {
	boards []model.Board
	err    error
}

type sessionOpenedMsg struct {
	s   *session.Session
	err error
}

type refreshedMsg struct {
	s  *session.Session
	ev poller.Refreshed
}

type tickMsg struct {
	s *session.Session
	n uint64
}

type persistedMsg struct {
	s   *session.Session
	res drag.Result
}

type tasksLoadedMsg struct {
	s   *session.Session
	err error
}

// actionDoneMsg ends a user-initiated edit. text goes to the minibuffer;
// refresh asks for a card-list poll and reload names task lists to refetch.
type actionDoneMsg struct {
	s       *session.Session
	text    string
	err     error
	refresh bool
	reload  []string
	boards  bool
}

type reloadTickMsg struct{}

const minibufferAutoClearAfter = 4 * time.Second

func tickReload() tea.Cmd {
	return tea.Tick(750*time.Millisecond, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func (m appModel) loadBoards() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		boards, err := c.ListBoards(context.Background())
		return boardsLoadedMsg{boards: boards, err: err}
	}
}

func (m appModel) openBoard(boardID string) tea.Cmd {
	c, sink, logger, interval := m.client, m.sink, m.logger, m.pollInterval
	return func() tea.Msg {
		s, err := session.Open(context.Background(), c, boardID, sink, session.Options{
			PollInterval: interval,
			Logger:       logger,
		})
		return sessionOpenedMsg{s: s, err: err}
	}
}

// waitForRefresh relays the next poller event. It returns nil once the
// session's scope ends.
func waitForRefresh(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.Context().Done():
			return nil
		case ev := <-s.Poller.Events():
			return refreshedMsg{s: s, ev: ev}
		}
	}
}

// waitForTick relays refresh-tick bumps.
func waitForTick(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.Context().Done():
			return nil
		case <-s.Tick().C():
			return tickMsg{s: s, n: s.Tick().Value()}
		}
	}
}

func pollNow(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Poller.PollOnce(s.Context())
		// PollOnce emits its own event; the error is for the minibuffer.
		if err != nil {
			return actionDoneMsg{s: s, err: err, text: "Failed to refresh board"}
		}
		return nil
	}
}

// persist runs a drop's Op off the UI loop.
func persist(s *session.Session, op drag.Op) tea.Cmd {
	return func() tea.Msg {
		return persistedMsg{s: s, res: s.Coordinator.Run(s.Context(), op)}
	}
}

func reloadTasks(s *session.Session, cardIDs ...string) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{s: s, err: s.ReloadTasks(s.Context(), cardIDs...)}
	}
}

// runAction runs a user-initiated call under the session scope. A failure is
// also recorded in the sink so the log has the cause behind the short message.
func runAction(s *session.Session, sink report.Sink, op string, f func(ctx context.Context) actionDoneMsg) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if s != nil {
			ctx = s.Context()
		}
		msg := f(ctx)
		msg.s = s
		if msg.err != nil && sink != nil {
			fail := report.Failure{Op: op, Err: msg.err}
			if s != nil {
				fail.BoardID = s.BoardID
			}
			sink.Report(ctx, fail)
		}
		return msg
	}
}
