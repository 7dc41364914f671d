package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
	"kanban-cli/internal/statusutil"
)

// updateDrag handles keys while a card or task is picked up. Arrows move the
// hover destination, drop hands the result to the coordinator, and esc ends
// the drag with no destination.
func (m appModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sess == nil {
		m.gesture = drag.Gesture{}
		return m, nil
	}
	switch {
	case msg.String() == "esc":
		r, err := m.gesture.Cancel()
		if err == nil {
			m.sess.Coordinator.OnDragEnd(r)
		}
		m.gesture.Settle()
		return m, nil
	case key.Matches(msg, m.keys.Drop):
		return m.drop()
	case msg.String() == "ctrl+c":
		m.closeSession()
		return m, tea.Quit
	}

	over, ok := m.gesture.Over()
	if !ok {
		over = m.gesture.Source()
	}
	switch m.gesture.Item().Kind {
	case drag.KindCard:
		m.gesture.MoveTo(m.moveCardHover(over, msg))
	case drag.KindTask:
		m.gesture.MoveTo(m.moveTaskHover(over, msg))
	}
	return m, nil
}

func (m appModel) moveCardHover(over drag.Location, msg tea.KeyMsg) drag.Location {
	st := over.Target.Status()
	switch {
	case key.Matches(msg, m.keys.Left):
		st = statusutil.Prev(st)
	case key.Matches(msg, m.keys.Right):
		st = statusutil.Next(st)
	case key.Matches(msg, m.keys.Up):
		over.Index--
	case key.Matches(msg, m.keys.Down):
		over.Index++
	}
	col, _ := m.sess.Layout.Snapshot().Column(st)
	limit := len(col.Cards)
	if st == m.gesture.Source().Target.Status() {
		// The picked-up card leaves a gap in its own column.
		limit--
	}
	over.Target = drag.Column(st)
	over.Index = min(max(over.Index, 0), max(limit, 0))
	return over
}

// moveTaskHover cycles the destination through the board's cards in column
// order; every direction key steps one card.
func (m appModel) moveTaskHover(over drag.Location, msg tea.KeyMsg) drag.Location {
	cards := m.sess.Layout.Snapshot().Cards()
	if len(cards) == 0 {
		return over
	}
	i := 0
	for j, c := range cards {
		if c.ID == over.Target.ID {
			i = j
		}
	}
	switch {
	case key.Matches(msg, m.keys.Left, m.keys.Up):
		i = (i - 1 + len(cards)) % len(cards)
	case key.Matches(msg, m.keys.Right, m.keys.Down):
		i = (i + 1) % len(cards)
	}
	return drag.Location{Target: drag.TaskList(cards[i].ID)}
}

func (m appModel) drop() (tea.Model, tea.Cmd) {
	r, err := m.gesture.Drop()
	if err != nil {
		return m, nil
	}
	op := m.sess.Coordinator.OnDragEnd(r)
	if r.Draggable.Kind == drag.KindCard {
		m.selectCard(r.Draggable.ID)
	}
	if op == nil {
		m.gesture.Settle()
		return m, nil
	}
	return m, persist(m.sess, op)
}

// selectCard moves the column cursor onto cardID.
func (m *appModel) selectCard(cardID string) {
	st, idx, ok := m.sess.Layout.Locate(cardID)
	if !ok {
		return
	}
	if i := statusutil.ColumnIndex(st); i >= 0 {
		m.col = i
		m.rows[i] = idx
	}
}

// hoverColumn reports where a dragged card would land in column st.
func (m appModel) hoverColumn(st model.Status) (int, bool) {
	if !m.gesture.Active() || m.gesture.Item().Kind != drag.KindCard {
		return 0, false
	}
	over, ok := m.gesture.Over()
	if !ok || over.Target.Kind != drag.KindColumn || over.Target.Status() != st {
		return 0, false
	}
	return over.Index, true
}
