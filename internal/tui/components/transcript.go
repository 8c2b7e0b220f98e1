package components

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/tui/styles"
)

// maxEntries bounds the transcript so long sessions don't grow without limit.
const maxEntries = 500

// Exchange is one tool call and what came back.
type Exchange struct {
	Time    time.Time
	Tool    string
	Args    map[string]any
	Items   []bridge.ResponseItem
	Err     error
	Elapsed time.Duration
}

// Transcript is the scrolling log of exchanges and notices.
type Transcript struct {
	viewport viewport.Model
	entries  []string
}

func NewTranscript(width, height int) *Transcript {
	return &Transcript{viewport: viewport.New(width, height)}
}

func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

// Add appends a formatted exchange and scrolls to it.
func (t *Transcript) Add(ex Exchange) {
	t.append(FormatExchange(ex))
}

// Note appends a timestamped informational line.
func (t *Transcript) Note(at time.Time, text string) {
	t.append(fmt.Sprintf("%s %s",
		styles.TimestampStyle.Render("["+at.Format("15:04:05.000")+"]"),
		styles.InfoStyle.Render(text)))
}

func (t *Transcript) append(entry string) {
	t.entries = append(t.entries, entry)
	if len(t.entries) > maxEntries {
		t.entries = t.entries[len(t.entries)-maxEntries:]
	}
	t.viewport.SetContent(strings.Join(t.entries, "\n"))
	t.viewport.GotoBottom()
}

// Len returns the number of entries kept.
func (t *Transcript) Len() int {
	return len(t.entries)
}

func (t *Transcript) Clear() {
	t.entries = nil
	t.viewport.SetContent("")
}

func (t *Transcript) GotoTop() {
	t.viewport.GotoTop()
}

func (t *Transcript) GotoBottom() {
	t.viewport.GotoBottom()
}

func (t *Transcript) ScrollUp() {
	t.viewport.LineUp(1)
}

func (t *Transcript) ScrollDown() {
	t.viewport.LineDown(1)
}

func (t *Transcript) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Key messages are handled by the console so they never reach the viewport.
	switch msg.(type) {
	case tea.WindowSizeMsg:
		return t.viewport.Update(msg)
	default:
		return t.viewport, nil
	}
}

func (t *Transcript) View() string {
	return t.viewport.View()
}

// FormatExchange renders an exchange as a call line followed by one line
// per response item, or the error.
func FormatExchange(ex Exchange) string {
	var b strings.Builder
	b.WriteString(styles.TimestampStyle.Render("[" + ex.Time.Format("15:04:05.000") + "]"))
	b.WriteString(" ↗ ")
	b.WriteString(styles.ToolNameStyle.Render(ex.Tool))
	if args := FormatArgs(ex.Args); args != "" {
		b.WriteString(" " + args)
	}
	if ex.Elapsed > 0 {
		b.WriteString(styles.InfoStyle.Render(fmt.Sprintf(" (%s)", ex.Elapsed.Round(time.Millisecond))))
	}

	if ex.Err != nil {
		b.WriteString("\n  ")
		b.WriteString(styles.ErrorStyle.Render("✗ " + ex.Err.Error()))
		return b.String()
	}
	if len(ex.Items) == 0 {
		b.WriteString("\n  ")
		b.WriteString(styles.InfoStyle.Render("↙ (no response text)"))
		return b.String()
	}
	for _, item := range ex.Items {
		for _, line := range strings.Split(item.Text, "\n") {
			b.WriteString("\n  ")
			b.WriteString(styles.ResponseStyle.Render("↙ " + line))
		}
	}
	return b.String()
}

// FormatArgs renders arguments as sorted key=value pairs.
func FormatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return strings.Join(parts, " ")
}
