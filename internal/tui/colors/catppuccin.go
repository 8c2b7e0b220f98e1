// Package colors holds the Catppuccin Mocha palette the console renders with.
package colors

import "github.com/charmbracelet/lipgloss"

// Surfaces and text
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")
)

// Accents
var (
	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Teal   = lipgloss.Color("#94e2d5")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)
