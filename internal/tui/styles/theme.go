package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	StatusConnectingStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	StatusClosedStyle = lipgloss.NewStyle().
				Foreground(colors.Overlay0).
				Bold(true)

	// Transcript pane
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Tool table pane
	ToolPaneStyle = lipgloss.NewStyle().
			BorderRight(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colors.Surface1)

	ToolHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Text)

	ToolHighlightStyle = lipgloss.NewStyle().
				Foreground(colors.Text).
				Background(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	ToolNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Peach)

	ResponseStyle = lipgloss.NewStyle().
			Foreground(colors.Teal)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)
)

// StatusStyle returns the indicator style for a connection state.
func StatusStyle(state bridge.State) lipgloss.Style {
	switch state {
	case bridge.Connected:
		return StatusConnectedStyle
	case bridge.Connecting:
		return StatusConnectingStyle
	case bridge.Closed:
		return StatusClosedStyle
	default:
		return StatusDisconnectedStyle
	}
}

// StatusGlyph returns the single character shown for a connection state.
func StatusGlyph(state bridge.State) string {
	switch state {
	case bridge.Connected:
		return "●"
	case bridge.Closed:
		return "✗"
	default:
		return "○"
	}
}
