package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"kanban-cli/internal/assign"
	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
	"kanban-cli/internal/remote"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalNewBoard
	modalNewCard
	modalEditCard
	modalNewTask
	modalAssign
	modalUnassign
	modalInvite
	modalConfirmDelete
)

func (k modalKind) prompt() string {
	switch k {
	case modalNewBoard:
		return "New board name"
	case modalNewCard:
		return "New card name"
	case modalEditCard:
		return "Card name"
	case modalNewTask:
		return "New task title"
	case modalAssign:
		return "Assign member (email)"
	case modalUnassign:
		return "Unassign member"
	case modalInvite:
		return "Invite (email)"
	case modalConfirmDelete:
		return "Delete"
	}
	return ""
}

type deleteTarget struct {
	item  drag.Draggable
	label string
}

func (m *appModel) openModal(kind modalKind, value string) tea.Cmd {
	m.modal = kind
	m.input.Reset()
	m.input.Prompt = ""
	m.input.Placeholder = ""
	m.input.ShowSuggestions = false
	m.input.SetSuggestions(nil)
	m.input.SetValue(value)
	m.input.CursorEnd()
	if kind == modalConfirmDelete {
		m.input.Blur()
		return nil
	}
	return m.input.Focus()
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.input.Blur()
	m.input.Reset()
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal == modalConfirmDelete {
		switch msg.String() {
		case "y", "Y", "enter":
			cmd := m.deleteCmd(m.target)
			m.closeModal()
			return m, cmd
		case "n", "N", "esc", "q":
			m.closeModal()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		kind, value := m.modal, strings.TrimSpace(m.input.Value())
		m.closeModal()
		return m, m.submit(kind, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit turns a confirmed form into the call that performs it.
func (m appModel) submit(kind modalKind, value string) tea.Cmd {
	c, s := m.client, m.sess
	switch kind {
	case modalNewBoard:
		return runAction(nil, m.sink, "board.create", func(ctx context.Context) actionDoneMsg {
			if value == "" {
				return actionDoneMsg{text: "Board name is required", err: errors.New("board name is required")}
			}
			if _, err := c.CreateBoard(ctx, remote.BoardInput{Name: value}); err != nil {
				return actionDoneMsg{text: errorText("Failed to create board", err), err: err}
			}
			return actionDoneMsg{text: "Board created", boards: true}
		})
	case modalInvite:
		if s == nil {
			return nil
		}
		return runAction(s, m.sink, "board.invite", func(ctx context.Context) actionDoneMsg {
			msg, err := c.Invite(ctx, s.BoardID, value)
			if err != nil {
				return actionDoneMsg{text: errorText("Failed to send invite", err), err: err}
			}
			if msg == "" {
				msg = "Invitation sent"
			}
			return actionDoneMsg{text: msg}
		})
	}

	if s == nil {
		return nil
	}
	switch kind {
	case modalNewCard:
		st := model.Statuses[m.col]
		return runAction(s, m.sink, "card.create", func(ctx context.Context) actionDoneMsg {
			if value == "" {
				return actionDoneMsg{text: "Name is required", err: errors.New("name is required")}
			}
			_, err := c.CreateCard(ctx, s.BoardID, remote.CardInput{Name: value, Status: st})
			if errors.Is(err, remote.ErrNoCardID) {
				return actionDoneMsg{text: "API error: Could not create card.", err: err, refresh: true}
			}
			if err != nil {
				return actionDoneMsg{text: errorText("Failed to create card", err), err: err}
			}
			return actionDoneMsg{text: "Card created", refresh: true}
		})
	case modalEditCard:
		card, ok := m.selectedCard()
		if !ok {
			return nil
		}
		return runAction(s, m.sink, "card.update", func(ctx context.Context) actionDoneMsg {
			if value == "" {
				return actionDoneMsg{text: "Name is required", err: errors.New("name is required")}
			}
			in := remote.CardInput{Name: value, Description: card.Description, Status: card.Status}
			if err := c.UpdateCard(ctx, s.BoardID, card.ID, in); err != nil {
				return actionDoneMsg{text: errorText("Failed to update card", err), err: err}
			}
			return actionDoneMsg{text: "Card updated", refresh: true}
		})
	case modalNewTask:
		cardID := m.cardID
		return runAction(s, m.sink, "task.create", func(ctx context.Context) actionDoneMsg {
			if _, err := c.CreateTask(ctx, s.BoardID, cardID, remote.TaskInput{Title: value}); err != nil {
				return actionDoneMsg{text: errorText("Failed to create task", err), err: err}
			}
			return actionDoneMsg{text: "Task created", reload: []string{cardID}}
		})
	case modalAssign:
		t, ok := m.selectedTask()
		if !ok {
			return nil
		}
		ref := s.TaskRef(m.cardID, t.ID)
		return runAction(s, m.sink, "task.assign", func(ctx context.Context) actionDoneMsg {
			err := s.Assignments.Assign(ctx, ref, value)
			return actionDoneMsg{text: assign.UserMessage(err), err: err}
		})
	case modalUnassign:
		t, ok := m.selectedTask()
		if !ok {
			return nil
		}
		ref := s.TaskRef(m.cardID, t.ID)
		return runAction(s, m.sink, "task.unassign", func(ctx context.Context) actionDoneMsg {
			if err := s.Assignments.Unassign(ctx, ref, value); err != nil {
				return actionDoneMsg{text: errorText("Failed to unassign member", err), err: err}
			}
			return actionDoneMsg{text: "Member unassigned"}
		})
	}
	return nil
}

func (m appModel) deleteCmd(t deleteTarget) tea.Cmd {
	c, s := m.client, m.sess
	if s == nil {
		return nil
	}
	switch t.item.Kind {
	case drag.KindCard:
		return runAction(s, m.sink, "card.delete", func(ctx context.Context) actionDoneMsg {
			if err := c.DeleteCard(ctx, s.BoardID, t.item.ID); err != nil {
				return actionDoneMsg{text: errorText("Failed to delete card", err), err: err}
			}
			s.Tasks.Forget(t.item.ID)
			return actionDoneMsg{text: "Card deleted", refresh: true}
		})
	case drag.KindTask:
		ref := s.TaskRef(m.cardID, t.item.ID)
		return runAction(s, m.sink, "task.delete", func(ctx context.Context) actionDoneMsg {
			if err := c.DeleteTask(ctx, ref); err != nil {
				return actionDoneMsg{text: errorText("Failed to delete task", err), err: err}
			}
			return actionDoneMsg{text: "Task deleted", reload: []string{ref.CardID}}
		})
	}
	return nil
}

// errorText is the minibuffer line for a failed call: an ended login always
// reads the same, otherwise the fallback plus the service's message if any.
func errorText(fallback string, err error) string {
	if remote.IsAuth(err) {
		return "Session expired; log in again"
	}
	var se *remote.StatusError
	if errors.As(err, &se) && strings.TrimSpace(se.Message) != "" {
		if fallback == "" {
			return se.Message
		}
		return fallback + ": " + se.Message
	}
	if fallback == "" {
		return err.Error()
	}
	return fallback
}

func (m appModel) renderModal(width int) string {
	if m.modal == modalNone {
		return ""
	}
	label := lipgloss.NewStyle().Bold(true).Render(m.modal.prompt() + ": ")
	if m.modal == modalConfirmDelete {
		return fitWidth(label+truncate(m.target.label, width/2)+styleMuted().Render("  (y/n)"), width)
	}
	bodyW := max(width-xansi.StringWidth(label), 10)
	return label + renderInputLine(bodyW, m.input.View())
}

func renderInputLine(bodyW int, inputView string) string {
	// Input must stay on one visual line.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Terminate styling so the cut does not bleed color.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
