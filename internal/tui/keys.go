package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Open   key.Binding
	Back   key.Binding
	Grab   key.Binding
	Drop   key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Assign key.Binding
	Unasgn key.Binding
	Invite key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Grab:   key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space/m", "pick up")),
		Drop:   key.NewBinding(key.WithKeys(" ", "m", "enter"), key.WithHelp("space/enter", "drop")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Assign: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "assign")),
		Unasgn: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "unassign")),
		Invite: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp implement help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Grab, k.New, k.Assign, k.Back, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Open, k.Back, k.Grab, k.Drop},
		{k.New, k.Edit, k.Delete, k.Invite},
		{k.Assign, k.Unasgn, k.Reload, k.Quit},
	}
}

// dragHelp is shown while something is picked up.
func (k keyMap) dragHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("left", "right", "up", "down"), key.WithHelp("←→↑↓", "move")),
		k.Drop,
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
