package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"kanban-cli/internal/model"
)

type boardItem struct {
	board model.Board
}

func (i boardItem) FilterValue() string { return i.board.Name }
func (i boardItem) Title() string       { return emptyAsDash(i.board.Name) }
func (i boardItem) Description() string {
	switch n := len(i.board.Members); n {
	case 0:
		return i.board.ID
	case 1:
		return fmt.Sprintf("%s  1 member", i.board.ID)
	default:
		return fmt.Sprintf("%s  %d members", i.board.ID, n)
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app renders its own header and footer.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("board", "boards")
	// ESC means back here, not quit.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

// setBoards replaces the picker's items and keeps the cursor on the same board.
func (m *appModel) setBoards(boards []model.Board) {
	curID := ""
	if it, ok := m.boardsList.SelectedItem().(boardItem); ok {
		curID = it.board.ID
	}
	items := make([]list.Item, 0, len(boards))
	for _, b := range boards {
		items = append(items, boardItem{board: b})
	}
	m.boardsList.SetItems(items)
	for i, it := range items {
		if it.(boardItem).board.ID == curID {
			m.boardsList.Select(i)
			break
		}
	}
}
