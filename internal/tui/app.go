package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"kanban-cli/internal/drag"
	"kanban-cli/internal/model"
	"kanban-cli/internal/perm"
	"kanban-cli/internal/remote"
	"kanban-cli/internal/report"
	"kanban-cli/internal/session"
)

type view int

const (
	viewBoards view = iota
	viewBoard
)

type pane int

const (
	paneColumns pane = iota
	paneTasks
)

type appModel struct {
	client       *remote.Client
	sink         report.Sink
	logger       *log.Logger
	pollInterval time.Duration

	width  int
	height int

	view view
	pane pane
	keys keyMap
	help help.Model

	boardsList list.Model

	// opening is the board whose session is being opened; a session that
	// arrives for any other board is closed unused.
	opening string
	sess    *session.Session

	col  int
	rows []int

	// cardID is the card whose tasks are shown in paneTasks.
	cardID  string
	taskRow int

	gesture drag.Gesture

	modal  modalKind
	input  textinput.Model
	target deleteTarget

	minibufferText  string
	minibufferErr   bool
	minibufferSetAt time.Time
}

func newAppModel(opts Options) appModel {
	logger := opts.Logger
	if logger == nil {
		logger, _, _ = report.OpenLogger("", false)
	}
	sink := opts.Sink
	if sink == nil {
		sink = report.NewLogSink(logger)
	}
	m := appModel{
		client:       opts.Client,
		sink:         sink,
		logger:       logger,
		pollInterval: opts.PollInterval,
		view:         viewBoards,
		keys:         defaultKeyMap(),
		help:         help.New(),
		rows:         make([]int, len(model.Statuses)),
		input:        textinput.New(),
	}
	m.boardsList = newList("Boards", []list.Item{})
	if opts.BoardID != "" {
		m.view = viewBoard
		m.opening = opts.BoardID
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.opening != "" {
		return tea.Batch(tickReload(), m.openBoard(m.opening))
	}
	return tea.Batch(tickReload(), m.loadBoards())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case reloadTickMsg:
		if m.minibufferText != "" && time.Since(m.minibufferSetAt) > minibufferAutoClearAfter {
			m.minibufferText = ""
			m.minibufferErr = false
		}
		return m, tickReload()

	case boardsLoadedMsg:
		if msg.err != nil {
			m.showError(errorText("Failed to load boards", msg.err))
			return m, nil
		}
		m.setBoards(msg.boards)
		return m, nil

	case sessionOpenedMsg:
		return m.sessionOpened(msg)

	case refreshedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.clampSelection()
		if msg.ev.Err != nil && remote.IsAuth(msg.ev.Err) {
			m.showError(errorText("", msg.ev.Err))
		}
		return m, waitForRefresh(m.sess)

	case tickMsg:
		if msg.s != m.sess {
			return m, nil
		}
		return m, tea.Batch(reloadTasks(m.sess), waitForTick(m.sess))

	case persistedMsg:
		return m.persisted(msg)

	case tasksLoadedMsg:
		if msg.s != m.sess {
			return m, nil
		}
		m.clampTaskRow()
		return m, nil

	case actionDoneMsg:
		return m.actionDone(msg)

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.gesture.Active() {
			return m.updateDrag(msg)
		}
		switch m.view {
		case viewBoards:
			return m.updateBoards(msg)
		case viewBoard:
			return m.updateBoard(msg)
		}
	}

	if m.modal != modalNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.view == viewBoards {
		var cmd tea.Cmd
		m.boardsList, cmd = m.boardsList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateBoards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.boardsList.SettingFilter() {
		var cmd tea.Cmd
		m.boardsList, cmd = m.boardsList.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadBoards()
	case key.Matches(msg, m.keys.New):
		return m, m.openModal(modalNewBoard, "")
	case key.Matches(msg, m.keys.Open):
		it, ok := m.boardsList.SelectedItem().(boardItem)
		if !ok {
			return m, nil
		}
		m.view = viewBoard
		m.opening = it.board.ID
		return m, m.openBoard(it.board.ID)
	}
	var cmd tea.Cmd
	m.boardsList, cmd = m.boardsList.Update(msg)
	return m, cmd
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeSession()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.sess == nil {
		if key.Matches(msg, m.keys.Back) {
			m.leaveBoard()
			return m, m.loadBoards()
		}
		return m, nil
	}
	if m.pane == paneTasks {
		return m.updateTasks(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.leaveBoard()
		return m, m.loadBoards()
	case key.Matches(msg, m.keys.Left):
		m.col = max(m.col-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.col = min(m.col+1, len(model.Statuses)-1)
	case key.Matches(msg, m.keys.Up):
		m.rows[m.col] = max(m.rows[m.col]-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.rows[m.col]++
		m.clampSelection()
	case key.Matches(msg, m.keys.Reload):
		return m, pollNow(m.sess)
	case key.Matches(msg, m.keys.Grab):
		if card, ok := m.selectedCard(); ok {
			_ = m.gesture.Begin(drag.Card(card.ID), drag.Location{Target: drag.Column(card.Status), Index: m.rows[m.col]})
		}
	case key.Matches(msg, m.keys.Open):
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.pane = paneTasks
		m.cardID = card.ID
		m.taskRow = 0
		return m, reloadTasks(m.sess, card.ID)
	case key.Matches(msg, m.keys.New):
		return m, m.openModal(modalNewCard, "")
	case key.Matches(msg, m.keys.Edit):
		if card, ok := m.selectedCard(); ok {
			return m, m.openModal(modalEditCard, card.Name)
		}
	case key.Matches(msg, m.keys.Delete):
		if card, ok := m.selectedCard(); ok {
			m.target = deleteTarget{item: drag.Card(card.ID), label: card.Name}
			return m, m.openModal(modalConfirmDelete, "")
		}
	case key.Matches(msg, m.keys.Invite):
		return m, m.openModal(modalInvite, "")
	}
	return m, nil
}

func (m appModel) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.pane = paneColumns
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.taskRow = max(m.taskRow-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.taskRow++
		m.clampTaskRow()
	case key.Matches(msg, m.keys.Reload):
		return m, reloadTasks(m.sess, m.cardID)
	case key.Matches(msg, m.keys.Grab):
		if t, ok := m.selectedTask(); ok {
			_ = m.gesture.Begin(drag.Task(t.ID), drag.Location{Target: drag.TaskList(m.cardID), Index: m.taskRow})
		}
	case key.Matches(msg, m.keys.New):
		return m, m.openModal(modalNewTask, "")
	case key.Matches(msg, m.keys.Assign):
		if t, ok := m.selectedTask(); ok {
			assigned, _ := m.sess.Assignments.Get(t.ID)
			cmd := m.openModal(modalAssign, "")
			m.input.SetSuggestions(perm.AssignableMembers(m.sess.Board(), assigned))
			m.input.ShowSuggestions = true
			return m, cmd
		}
	case key.Matches(msg, m.keys.Unasgn):
		if t, ok := m.selectedTask(); ok {
			members, _ := m.sess.Assignments.Get(t.ID)
			first := ""
			if len(members) > 0 {
				first = members[0]
			}
			return m, m.openModal(modalUnassign, first)
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selectedTask(); ok {
			m.target = deleteTarget{item: drag.Task(t.ID), label: t.Title}
			return m, m.openModal(modalConfirmDelete, "")
		}
	case key.Matches(msg, m.keys.Invite):
		return m, m.openModal(modalInvite, "")
	}
	return m, nil
}

func (m appModel) sessionOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.opening = ""
		m.view = viewBoards
		m.showError(errorText("Failed to open board", msg.err))
		return m, m.loadBoards()
	}
	if m.view != viewBoard || msg.s.BoardID != m.opening {
		msg.s.Close()
		return m, nil
	}
	m.closeSession()
	m.sess = msg.s
	m.opening = ""
	m.pane = paneColumns
	m.col = 0
	m.rows = make([]int, len(model.Statuses))
	m.gesture = drag.Gesture{}
	m.sess.Start()
	return m, tea.Batch(waitForRefresh(m.sess), waitForTick(m.sess))
}

func (m appModel) persisted(msg persistedMsg) (tea.Model, tea.Cmd) {
	if msg.s != m.sess {
		return m, nil
	}
	m.gesture.Settle()
	if !m.sess.Apply(msg.res) {
		return m, nil
	}
	// Persistence failures are in the sink; only an ended login is shown.
	if msg.res.Err != nil && remote.IsAuth(msg.res.Err) {
		m.showError(errorText("", msg.res.Err))
	}
	// Task lists follow the refresh tick that Apply bumped.
	return m, nil
}

func (m appModel) actionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.s != nil && msg.s != m.sess {
		return m, nil
	}
	if msg.err != nil {
		m.showError(msg.text)
	} else if msg.text != "" {
		m.showMinibuffer(msg.text)
	}

	var cmds []tea.Cmd
	if msg.boards {
		cmds = append(cmds, m.loadBoards())
	}
	if m.sess != nil {
		if msg.refresh {
			cmds = append(cmds, pollNow(m.sess))
		}
		if len(msg.reload) > 0 {
			cmds = append(cmds, reloadTasks(m.sess, msg.reload...))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *appModel) leaveBoard() {
	m.closeSession()
	m.view = viewBoards
	m.pane = paneColumns
	m.opening = ""
	m.cardID = ""
}

// closeSession ends the open board's scope; anything still in flight for it is
// dropped when it arrives.
func (m *appModel) closeSession() {
	if m.sess != nil {
		m.sess.Close()
		m.sess = nil
	}
	m.gesture = drag.Gesture{}
}

func (m *appModel) showMinibuffer(text string) {
	m.minibufferText = text
	m.minibufferErr = false
	m.minibufferSetAt = time.Now()
}

func (m *appModel) showError(text string) {
	m.showMinibuffer(text)
	m.minibufferErr = true
}

func (m *appModel) resizeLists() {
	h := max(m.height-5, 8)
	w := max(m.width, 40)
	m.boardsList.SetSize(w, h)
	m.help.Width = w
}

// Selection.

func (m appModel) selectedCard() (model.Card, bool) {
	if m.sess == nil {
		return model.Card{}, false
	}
	col, ok := m.sess.Layout.Snapshot().Column(model.Statuses[m.col])
	if !ok || m.rows[m.col] >= len(col.Cards) {
		return model.Card{}, false
	}
	return col.Cards[m.rows[m.col]], true
}

func (m appModel) cardTasks() []model.Task {
	if m.sess == nil || m.cardID == "" {
		return nil
	}
	tasks, _ := m.sess.Tasks.Get(m.cardID)
	return tasks
}

func (m appModel) selectedTask() (model.Task, bool) {
	tasks := m.cardTasks()
	if m.taskRow < 0 || m.taskRow >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.taskRow], true
}

func (m *appModel) clampSelection() {
	if m.sess == nil {
		return
	}
	snap := m.sess.Layout.Snapshot()
	for i, st := range model.Statuses {
		col, _ := snap.Column(st)
		m.rows[i] = min(m.rows[i], max(len(col.Cards)-1, 0))
	}
	if m.cardID != "" {
		if _, ok := m.sess.Layout.Card(m.cardID); !ok {
			m.pane = paneColumns
			m.cardID = ""
		}
	}
}

func (m *appModel) clampTaskRow() {
	m.taskRow = min(m.taskRow, max(len(m.cardTasks())-1, 0))
}
