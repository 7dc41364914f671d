package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
)

func (m appModel) View() string {
	width := max(m.width, 40)
	bodyH := max(m.height-4, 8)

	var body string
	switch m.view {
	case viewBoards:
		body = m.boardsList.View()
	case viewBoard:
		body = m.viewBoard(width, bodyH)
	}

	return strings.Join([]string{
		m.viewHeader(width),
		normalizePane(body, width, bodyH),
		m.viewMinibuffer(width),
		m.viewFooter(width),
	}, "\n")
}

func (m appModel) viewHeader(width int) string {
	parts := []string{"Kanban"}
	switch {
	case m.sess != nil:
		b := m.sess.Board()
		parts = append(parts, "Board="+emptyAsDash(b.Name))
		if n := len(b.Members); n > 0 {
			parts = append(parts, fmt.Sprintf("Members=%d", n))
		}
	case m.opening != "":
		parts = append(parts, "Opening "+m.opening+"…")
	}
	if m.client != nil {
		parts = append(parts, "API="+m.client.BaseURL())
	}
	return fitWidth(lipgloss.NewStyle().Bold(true).Render(strings.Join(parts, "  ")), width)
}

func (m appModel) viewMinibuffer(width int) string {
	if m.modal != modalNone {
		return m.renderModal(width)
	}
	if m.minibufferText == "" {
		return ""
	}
	return fitWidth(styleMinibuffer(m.minibufferErr).Render(m.minibufferText), width)
}

func (m appModel) viewFooter(width int) string {
	h := m.help
	h.Width = width
	if m.gesture.Active() {
		return h.ShortHelpView(m.keys.dragHelp())
	}
	return h.View(m.keys)
}

func (m appModel) viewBoard(width, height int) string {
	if m.sess == nil {
		return styleMuted().Render("Loading board…")
	}
	colsW := width
	detailW := 0
	if m.pane == paneTasks || m.taskDragging() {
		detailW = max(width*2/5, 30)
		colsW = width - detailW - 1
	}

	snap := m.sess.Layout.Snapshot()
	colW := max(colsW/len(model.Statuses), 12)
	rendered := make([]string, 0, len(model.Statuses))
	for i, st := range model.Statuses {
		col, _ := snap.Column(st)
		rendered = append(rendered, normalizePane(m.renderColumn(i, col, colW-1, height), colW, height))
	}
	columns := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if detailW == 0 {
		return columns
	}
	detail := normalizePane(m.renderDetail(detailW-1, height), detailW, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, normalizePane(columns, colsW, height), " ", detail)
}

func (m appModel) renderColumn(idx int, col model.Column, width, height int) string {
	hdr := styleHeader()
	if c, ok := colorColumn[string(col.ID)]; ok {
		hdr = hdr.Foreground(c)
	}
	if idx == m.col && m.pane == paneColumns {
		hdr = hdr.Underline(true)
	}
	lines := []string{hdr.Render(fmt.Sprintf("%s (%d)", col.Name, len(col.Cards)))}

	dropAt, hovering := m.hoverColumn(col.ID)
	dragged := ""
	if m.gesture.Active() && m.gesture.Item().Kind == drag.KindCard {
		dragged = m.gesture.Item().ID
	}

	pos := 0
	for i, card := range col.Cards {
		if card.ID == dragged {
			lines = append(lines, m.renderCard(card, width, false, true))
			continue
		}
		if hovering && pos == dropAt {
			lines = append(lines, styleDropMarker().Render(fitWidth(" ▸ drop here", width)))
		}
		selected := idx == m.col && i == m.rows[idx] && m.pane == paneColumns && !m.gesture.Active()
		lines = append(lines, m.renderCard(card, width, selected, false))
		pos++
	}
	if hovering && pos <= dropAt {
		lines = append(lines, styleDropMarker().Render(fitWidth(" ▸ drop here", width)))
	}
	if len(col.Cards) == 0 && !hovering {
		lines = append(lines, styleMuted().Render("(empty)"))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderCard(card model.Card, width int, selected, dragging bool) string {
	inner := max(width-4, 4)
	title := truncate(emptyAsDash(card.Name), inner)
	body := title
	if tasks, ok := m.sess.Tasks.Get(card.ID); ok {
		body += "\n" + styleMuted().Render(truncate(fmt.Sprintf("%d tasks", len(tasks)), inner))
	}
	return styleCard(selected, dragging).Width(width - 2).Render(body)
}

func (m appModel) taskDragging() bool {
	return m.gesture.Active() && m.gesture.Item().Kind == drag.KindTask
}

func (m appModel) renderDetail(width, height int) string {
	card, ok := m.sess.Layout.Card(m.cardID)
	if !ok {
		return styleMuted().Render("No card selected.")
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(truncate(card.Name, width)))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(card.Status.Label()))
	b.WriteString("\n")
	if desc := renderMarkdown(card.Description, width); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleHeader().Render("Tasks"))
	b.WriteString("\n")

	tasks, loaded := m.sess.Tasks.Get(m.cardID)
	switch {
	case !loaded:
		b.WriteString(styleMuted().Render("Loading…"))
	case len(tasks) == 0:
		b.WriteString(styleMuted().Render("(no tasks)"))
	}

	moving := ""
	if m.taskDragging() {
		moving = m.gesture.Item().ID
	}
	for i, t := range tasks {
		line := "  " + t.Title
		if members, ok := m.sess.Assignments.Get(t.ID); ok && len(members) > 0 {
			line += styleMuted().Render("  @" + strings.Join(members, ", @"))
		}
		line = fitWidth(line, width)
		switch {
		case t.ID == moving:
			line = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(line)
		case i == m.taskRow && m.pane == paneTasks && !m.gesture.Active():
			line = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if t, ok := m.selectedTask(); ok && t.Description != "" && !m.gesture.Active() {
		b.WriteString("\n")
		b.WriteString(renderMarkdown(t.Description, width))
		b.WriteString("\n")
	}
	if over, ok := m.gesture.Over(); ok && m.taskDragging() {
		dst, _ := m.sess.Layout.Card(over.Target.ID)
		b.WriteString("\n")
		b.WriteString(styleDropMarker().Render(fitWidth(" ▸ move to "+emptyAsDash(dst.Name), width)))
	}
	return b.String()
}
