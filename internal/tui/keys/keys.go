package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys are the bindings every console mode understands.
type CommonKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i", "I"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
	}
}

// ConsoleKeys adds tool selection, transcript and connection bindings.
type ConsoleKeys struct {
	CommonKeys
	Enter      key.Binding
	Complete   key.Binding
	Up         key.Binding
	Down       key.Binding
	Pick       key.Binding
	Clear      key.Binding
	Reconnect  key.Binding
	GotoTop    key.Binding
	GotoBottom key.Binding
}

func NewConsoleKeys() ConsoleKeys {
	return ConsoleKeys{
		CommonKeys: NewCommonKeys(),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "call tool"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete tool"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Pick: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("p/enter", "use selected tool"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear transcript"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "connect"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "transcript top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "transcript bottom"),
		),
	}
}

func (k ConsoleKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Pick, k.Reconnect, k.Quit}
}

func (k ConsoleKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Enter, k.Complete},
		{k.Up, k.Down, k.Pick, k.Clear},
		{k.GotoTop, k.GotoBottom, k.Reconnect},
		{k.Help, k.Quit},
	}
}
