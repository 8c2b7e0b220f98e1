package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/config"
	"github.com/allbin/mcp2serial/internal/tui/colors"
	"github.com/allbin/mcp2serial/internal/tui/styles"
)

// StatusBar is the bottom line: input mode, port, link state and settings.
type StatusBar struct {
	settings config.Settings
	port     string
	state    bridge.State
	err      error
	busy     bool
	tools    int
	width    int
}

func NewStatusBar(settings config.Settings, tools int) *StatusBar {
	return &StatusBar{
		settings: settings,
		port:     settings.Port,
		tools:    tools,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// SetConnection records the connection state, the port in use and the last
// connect error.
func (sb *StatusBar) SetConnection(state bridge.State, port string, err error) {
	sb.state = state
	if port != "" {
		sb.port = port
	}
	sb.err = err
}

// SetBusy marks a call in flight.
func (sb *StatusBar) SetBusy(busy bool) {
	sb.busy = busy
}

// PortLabel is the port shown, or "auto" while autodetect has not picked one.
func (sb *StatusBar) PortLabel() string {
	if sb.port == "" {
		return "auto"
	}
	return sb.port
}

// Details summarizes the line settings.
func (sb *StatusBar) Details() string {
	s := fmt.Sprintf("⚡ %d %s %s", sb.settings.BaudRate, sb.settings.Framing(), sb.settings.FlowControl)
	if sb.busy {
		s += " ⏸"
	}
	return s
}

func (sb *StatusBar) View(inputMode, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(colors.Blue).
		Bold(true).
		Padding(0, 1)
	if inputMode == "INSERT" {
		modeStyle = modeStyle.Background(colors.Green)
	}
	mode := modeStyle.Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.PortLabel())

	indicator := styles.StatusStyle(sb.state).Render(styles.StatusGlyph(sb.state) + " " + sb.state.String())

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, indicator, divider)
	if sb.err != nil && sb.state != bridge.Connected {
		errText := lipgloss.NewStyle().
			Foreground(colors.Red).
			Render(truncate(sb.err.Error(), width/3))
		left = lipgloss.JoinHorizontal(lipgloss.Left, left, errText)
	}

	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("%s │ %d tools", sb.Details(), sb.tools))
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)
	right := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 2 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
