package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/mcp2serial/internal/tui/colors"
	"github.com/allbin/mcp2serial/internal/tui/styles"
)

const maxHistory = 100

// Input is the command line: a tool name followed by key=value arguments.
type Input struct {
	textInput     textinput.Model
	history       []string
	historyIndex  int
	currentInput  string // kept while browsing history
	terminalWidth int
}

func NewInput(placeholder string) *Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.Focus()

	return &Input{
		textInput:    ti,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.terminalWidth = width
	// border(2) + padding(2) + prompt(1) + space(1)
	usableWidth := width - 6
	if usableWidth < 20 {
		usableWidth = 20
	}
	i.textInput.Width = usableWidth
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
	i.textInput.CursorEnd()
}

func (i *Input) Reset() {
	i.textInput.Reset()
}

// Complete extends the first word to the longest prefix shared by the
// matching tool names. It reports whether the value changed.
func (i *Input) Complete(names []string) bool {
	value := i.textInput.Value()
	if strings.ContainsRune(value, ' ') {
		return false
	}
	var matches []string
	for _, n := range names {
		if strings.HasPrefix(n, value) {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return false
	}
	sort.Strings(matches)
	completed := commonPrefix(matches)
	if len(matches) == 1 {
		completed += " "
	}
	if completed == value {
		return false
	}
	i.SetValue(completed)
	return true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// ViewWithMode renders the boxed input, highlighted while inserting.
func (i *Input) ViewWithMode(isInsertMode bool) string {
	prompt := lipgloss.NewStyle().
		Foreground(colors.Green).
		Bold(true).
		Render(">")

	var content string
	if isInsertMode {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		instruction := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press 'i' to type a tool call, 'p' to use the selected tool")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", instruction)
	}

	// RoundedBorder and horizontal padding take 4 columns
	adjustedWidth := i.terminalWidth - 4
	if adjustedWidth < 10 {
		adjustedWidth = 10
	}

	style := styles.InputStyle.
		Width(adjustedWidth).
		AlignHorizontal(lipgloss.Left)
	if isInsertMode {
		style = style.BorderForeground(colors.Green)
	}
	return style.Render(content)
}

// AddToHistory records a submitted line unless it is blank or repeats the
// previous one.
func (i *Input) AddToHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(i.history) > 0 && i.history[len(i.history)-1] == line {
		return
	}

	i.history = append(i.history, line)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
	i.historyIndex = -1
	i.currentInput = ""
}

// History returns the recorded lines, oldest first.
func (i *Input) History() []string {
	return append([]string(nil), i.history...)
}

// NavigateHistoryUp moves to the previous history entry
func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}

	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}

	i.SetValue(i.history[i.historyIndex])
}

// NavigateHistoryDown moves to the next history entry, ending on the line
// that was being typed.
func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.SetValue(i.currentInput)
	i.currentInput = ""
}
