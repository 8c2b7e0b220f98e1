package components_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
	"github.com/allbin/mcp2serial/internal/tui/components"
)

func TestFormatExchange(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 12, 30, 5, 250e6, time.UTC)

	out := components.FormatExchange(components.Exchange{
		Time:    at,
		Tool:    "servo",
		Args:    map[string]any{"pin": 3, "angle": 90},
		Items:   []bridge.ResponseItem{bridge.Text("moved\nOK")},
		Elapsed: 42 * time.Millisecond,
	})
	assert.Contains(t, out, "12:30:05.250")
	assert.Contains(t, out, "servo angle=90 pin=3")
	assert.Contains(t, out, "42ms")
	assert.Contains(t, out, "↙ moved")
	assert.Contains(t, out, "↙ OK")

	out = components.FormatExchange(components.Exchange{Time: at, Tool: "servo", Err: errors.New("timed out")})
	assert.Contains(t, out, "✗ timed out")

	out = components.FormatExchange(components.Exchange{Time: at, Tool: "ping"})
	assert.Contains(t, out, "no response text")
}

func TestFormatArgs(t *testing.T) {
	t.Parallel()
	assert.Empty(t, components.FormatArgs(nil))
	assert.Equal(t, "a=1 b=x", components.FormatArgs(map[string]any{"b": "x", "a": 1}))
}

func TestTranscript_Bounded(t *testing.T) {
	t.Parallel()
	tr := components.NewTranscript(80, 10)
	for i := 0; i < 600; i++ {
		tr.Note(time.Now(), "line")
	}
	assert.Equal(t, 500, tr.Len())

	tr.Clear()
	assert.Zero(t, tr.Len())
	assert.Empty(t, strings.TrimSpace(tr.View()))
}

func TestInput_Complete(t *testing.T) {
	t.Parallel()
	names := []string{"set_pwm", "set_led", "read_temp"}

	tests := []struct {
		value   string
		want    string
		changed bool
	}{
		{"se", "set_", true},
		{"set_p", "set_pwm ", true},
		{"set_", "set_", false},
		{"x", "x", false},
		{"set_pwm f", "set_pwm f", false},
		{"", "", false},
	}
	for _, tt := range tests {
		in := components.NewInput("")
		in.SetValue(tt.value)
		assert.Equal(t, tt.changed, in.Complete(names), tt.value)
		assert.Equal(t, tt.want, in.Value(), tt.value)
	}
}

func TestInput_History(t *testing.T) {
	t.Parallel()
	in := components.NewInput("")

	in.AddToHistory("one")
	in.AddToHistory("one")
	in.AddToHistory("  ")
	in.AddToHistory("two")
	assert.Equal(t, []string{"one", "two"}, in.History())

	in.SetValue("draft")
	in.NavigateHistoryUp()
	assert.Equal(t, "two", in.Value())
	in.NavigateHistoryUp()
	in.NavigateHistoryUp()
	assert.Equal(t, "one", in.Value())
	in.NavigateHistoryDown()
	assert.Equal(t, "two", in.Value())
	in.NavigateHistoryDown()
	assert.Equal(t, "draft", in.Value())

	for i := 0; i < 150; i++ {
		in.AddToHistory(strings.Repeat("x", i+1))
	}
	assert.Len(t, in.History(), 100)
}

func TestStatusBar(t *testing.T) {
	t.Parallel()
	settings := config.DefaultSettings()
	sb := components.NewStatusBar(settings, 2)
	sb.SetWidth(100)

	assert.Equal(t, "auto", sb.PortLabel())
	assert.Equal(t, "⚡ 115200 8N1 none", sb.Details())

	sb.SetConnection(bridge.Connected, "/dev/ttyUSB0", nil)
	sb.SetBusy(true)
	assert.Equal(t, "/dev/ttyUSB0", sb.PortLabel())
	assert.Contains(t, sb.Details(), "⏸")

	view := sb.View("NORMAL", "12:00:00")
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, "2 tools")

	sb.SetConnection(bridge.Disconnected, "", errors.New("permission denied"))
	assert.Equal(t, "/dev/ttyUSB0", sb.PortLabel())
	assert.Contains(t, sb.View("INSERT", "12:00:01"), "permission denied")
}

func TestToolTable(t *testing.T) {
	t.Parallel()
	cfg, err := config.Parse([]byte(`
commands:
  servo:
    command: "SERVO {pin} {angle}"
  status:
    command: "STATUS"
`))
	require.NoError(t, err)
	tt := components.NewToolTable(catalog.Build(cfg.Commands))

	assert.Equal(t, 2, tt.Len())
	assert.Equal(t, "servo pin= angle=", tt.Skeleton())

	tt.MoveUp()
	sel, ok := tt.Selected()
	require.True(t, ok)
	assert.Equal(t, "servo", sel.Name)

	tt.MoveDown()
	tt.MoveDown()
	assert.Equal(t, "status", tt.Skeleton())

	assert.True(t, tt.Select("servo"))
	assert.False(t, tt.Select("missing"))
	sel, _ = tt.Selected()
	assert.Equal(t, "servo", sel.Name)

	assert.Contains(t, tt.View(), "SERVO")

	empty := components.NewToolTable(nil)
	_, ok = empty.Selected()
	assert.False(t, ok)
	assert.Empty(t, empty.Skeleton())
	assert.Contains(t, empty.View(), "No commands configured")
}
