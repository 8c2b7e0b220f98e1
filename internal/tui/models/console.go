// Package models holds the console's Bubble Tea model.
package models

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
	"github.com/allbin/mcp2serial/internal/dispatch"
	"github.com/allbin/mcp2serial/internal/tui/components"
	"github.com/allbin/mcp2serial/internal/tui/keys"
	"github.com/allbin/mcp2serial/internal/tui/styles"
)

// InputMode is the vim-like editing mode.
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// refreshInterval is how often the status bar re-reads the connection.
const refreshInterval = time.Second

// Invoker runs tool calls. *dispatch.Dispatcher implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) ([]bridge.ResponseItem, error)
	Catalog() *catalog.Catalog
}

// Link is the connection state the console displays and can reconnect.
type Link interface {
	State() bridge.State
	Port() string
	LastError() error
	Connect(ctx context.Context) (bool, error)
}

// ConnectionStatusMsg reports the outcome of a connect attempt.
type ConnectionStatusMsg struct {
	State bridge.State
	Port  string
	Err   error
}

// CallResultMsg carries a finished tool call.
type CallResultMsg struct {
	Exchange components.Exchange
}

type tickMsg time.Time

// Console is the interactive tool console.
type Console struct {
	ctx     context.Context
	invoker Invoker
	link    Link
	names   []string

	mode   InputMode
	ready  bool
	busy   bool
	width  int
	height int

	tools      *components.ToolTable
	transcript *components.Transcript
	input      *components.Input
	statusBar  *components.StatusBar
	help       help.Model
	keys       keys.ConsoleKeys

	now func() time.Time
}

// NewConsole creates the console. Calls run under ctx, which should be
// cancelled once the program exits.
func NewConsole(ctx context.Context, inv Invoker, link Link, settings config.Settings) *Console {
	tools := inv.Catalog().Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}

	c := &Console{
		ctx:        ctx,
		invoker:    inv,
		link:       link,
		names:      names,
		tools:      components.NewToolTable(tools),
		transcript: components.NewTranscript(0, 0),
		input:      components.NewInput("tool key=value ..."),
		statusBar:  components.NewStatusBar(settings, len(tools)),
		help:       help.New(),
		keys:       keys.NewConsoleKeys(),
		now:        time.Now,
	}
	c.input.Blur()
	return c
}

// Mode returns the current input mode.
func (m *Console) Mode() InputMode {
	return m.mode
}

// Busy reports whether a call is in flight.
func (m *Console) Busy() bool {
	return m.busy
}

// Transcript exposes the transcript pane.
func (m *Console) Transcript() *components.Transcript {
	return m.transcript
}

// Input exposes the command line.
func (m *Console) Input() *components.Input {
	return m.input
}

func (m *Console) Init() tea.Cmd {
	return tea.Batch(m.connect(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Console) connect() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.link.Connect(m.ctx)
		if err == nil && !ok {
			err = m.link.LastError()
		}
		return ConnectionStatusMsg{State: m.link.State(), Port: m.link.Port(), Err: err}
	}
}

func (m *Console) call(name string, args map[string]any) tea.Cmd {
	return func() tea.Msg {
		start := m.now()
		items, err := m.invoker.Invoke(m.ctx, name, args)
		return CallResultMsg{Exchange: components.Exchange{
			Time:    start,
			Tool:    name,
			Args:    args,
			Items:   items,
			Err:     err,
			Elapsed: m.now().Sub(start),
		}}
	}
}

func (m *Console) refreshStatus() {
	m.statusBar.SetConnection(m.link.State(), m.link.Port(), m.link.LastError())
}

func (m *Console) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// input box 3, status bar 1, plus the help block
	helpHeight := lipgloss.Height(m.help.View(m.keys))
	bodyHeight := m.height - 3 - 1 - helpHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	toolWidth := m.width * 2 / 5
	if toolWidth < 30 {
		toolWidth = 30
	}
	if toolWidth > 72 {
		toolWidth = 72
	}

	m.tools.SetSize(toolWidth, bodyHeight)
	// pane border takes one column, content border one line
	m.transcript.SetSize(m.width-toolWidth-1, bodyHeight-1)
	m.input.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
}

func (m *Console) setMode(mode InputMode) {
	m.mode = mode
	if mode == InputModeInsert {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()

	case tickMsg:
		m.refreshStatus()
		return m, tick()

	case ConnectionStatusMsg:
		m.statusBar.SetConnection(msg.State, msg.Port, msg.Err)
		switch {
		case msg.State == bridge.Connected:
			m.transcript.Note(m.now(), "connected to "+msg.Port)
		case msg.Err != nil:
			m.transcript.Note(m.now(), "connect failed: "+msg.Err.Error())
		}

	case CallResultMsg:
		m.busy = false
		m.statusBar.SetBusy(false)
		m.transcript.Add(msg.Exchange)
		m.refreshStatus()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode == InputModeInsert {
			return m.updateInsert(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Console) updateInsert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.setMode(InputModeNormal)
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m, m.submit()
	case key.Matches(msg, m.keys.Complete):
		m.input.Complete(m.names)
		return m, nil
	case msg.Type == tea.KeyUp:
		m.input.NavigateHistoryUp()
		return m, nil
	case msg.Type == tea.KeyDown:
		m.input.NavigateHistoryDown()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Console) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.InsertMode):
		m.setMode(InputModeInsert)
	case key.Matches(msg, m.keys.Up):
		m.tools.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tools.MoveDown()
	case key.Matches(msg, m.keys.Pick):
		if skeleton := m.tools.Skeleton(); skeleton != "" {
			m.input.SetValue(skeleton)
			m.setMode(InputModeInsert)
		}
	case key.Matches(msg, m.keys.Clear):
		m.transcript.Clear()
	case key.Matches(msg, m.keys.Reconnect):
		m.transcript.Note(m.now(), "connecting...")
		return m, m.connect()
	case key.Matches(msg, m.keys.GotoTop):
		m.transcript.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.transcript.GotoBottom()
	}
	return m, nil
}

// submit parses the input line and starts the call. Parse errors are shown
// in the transcript without touching the device.
func (m *Console) submit() tea.Cmd {
	line := m.input.Value()
	if line == "" {
		return nil
	}
	if m.busy {
		m.transcript.Note(m.now(), "a call is already in progress")
		return nil
	}

	m.input.AddToHistory(line)
	m.input.Reset()

	name, args, err := dispatch.ParseCall(m.invoker.Catalog(), line)
	if err != nil {
		m.transcript.Add(components.Exchange{Time: m.now(), Tool: name, Err: err})
		return nil
	}
	m.tools.Select(name)
	m.busy = true
	m.statusBar.SetBusy(true)
	return m.call(name, args)
}

func (m *Console) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	toolPane := styles.ToolPaneStyle.Render(m.tools.View())
	transcript := styles.ContentBorderStyle.Render(m.transcript.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, toolPane, transcript)

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		m.input.ViewWithMode(m.mode == InputModeInsert),
		m.help.View(m.keys),
		m.statusBar.View(m.mode.String(), m.now().Format("15:04:05")),
	)
}
