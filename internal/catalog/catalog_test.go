package catalog_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
)

const testConfig = `
commands:
  set_pwm:
    command: "PWM {frequency}"
    prompts:
      - "把PWM调到最大"
      - "set the PWM to 50 Hz"
      - "turn the PWM off"
      - "halve the PWM"
  servo:
    command: "SERVO {pin} {angle} {label}"
    description: Move a hobby servo
    parameters:
      angle:
        type: integer
        description: Angle in degrees
      label:
        description: Free text shown on the display
  read_temp:
    command: "TEMP?"
    need_parse: true
`

func loadRegistry(t *testing.T) *config.Registry {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	return cfg.Commands
}

func TestBuild(t *testing.T) {
	t.Parallel()
	tools := catalog.Build(loadRegistry(t))
	require.Len(t, tools, 3)

	names := make([]string, len(tools))
	for i, d := range tools {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"set_pwm", "servo", "read_temp"}, names)

	pwm := tools[0]
	assert.Equal(t, "Send `PWM {frequency}` to the serial device", pwm.Description)
	assert.Equal(t, catalog.InputSchema{
		Type:       "object",
		Properties: map[string]catalog.Property{"frequency": {Type: "number"}},
		Required:   []string{"frequency"},
	}, pwm.InputSchema)
	assert.Len(t, pwm.Prompts, 4)
	assert.Equal(t, "把PWM调到最大", pwm.Prompts[0])

	servo := tools[1]
	assert.Equal(t, "Move a hobby servo", servo.Description)
	assert.Equal(t, []string{"pin", "angle", "label"}, servo.InputSchema.Required)
	assert.Equal(t, []catalog.Parameter{
		{Name: "pin", Type: "number"},
		{Name: "angle", Type: "integer", Description: "Angle in degrees", Declared: true},
		{Name: "label", Type: "string", Description: "Free text shown on the display"},
	}, servo.Parameters)

	temp := tools[2]
	assert.Empty(t, temp.InputSchema.Properties)
	assert.NotNil(t, temp.InputSchema.Required)
	assert.NotNil(t, temp.Prompts)
}

func TestBuild_EmptyRegistry(t *testing.T) {
	t.Parallel()
	cfg, err := config.Parse([]byte("commands:\n"))
	require.NoError(t, err)
	assert.Empty(t, catalog.Build(cfg.Commands))
}

func TestBuild_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	reg := loadRegistry(t)
	want, err := json.Marshal(catalog.Build(reg))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got, err := json.Marshal(catalog.Build(reg))
				if !assert.NoError(t, err) || !assert.JSONEq(t, string(want), string(got)) {
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDescriptorJSON(t *testing.T) {
	t.Parallel()
	tools := catalog.Build(loadRegistry(t))
	b, err := json.Marshal(tools[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "read_temp",
		"description": "Send `+"`TEMP?`"+` to the serial device",
		"inputSchema": {"type": "object", "properties": {}, "required": []},
		"prompts": []
	}`, string(b))
}

func TestInferType(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"frequency":  "number",
		"Speed":      "number",
		"angle":      "number",
		"duty":       "number",
		"pin":        "number",
		"delay_ms":   "number",
		"carrier_hz": "number",
		"device_id":  "number",
		"led_pin":    "number",
		"name":       "string",
		"mode":       "string",
		"text":       "string",
		"pinout":     "string",
	}
	for name, want := range tests {
		assert.Equal(t, want, catalog.InferType(name), name)
	}
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()
	cat, err := catalog.New(loadRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	tests := []struct {
		name string
		tool string
		args map[string]any
		ok   bool
	}{
		{"number", "set_pwm", map[string]any{"frequency": 50.0}, true},
		{"json number", "set_pwm", map[string]any{"frequency": json.Number("12.5")}, true},
		{"string for number", "set_pwm", map[string]any{"frequency": "fast"}, false},
		{"missing", "set_pwm", map[string]any{}, false},
		{"integer", "servo", map[string]any{"pin": 9.0, "angle": 90.0, "label": "arm"}, true},
		{"fractional integer", "servo", map[string]any{"pin": 9.0, "angle": 90.5, "label": "arm"}, false},
		{"no params nil args", "read_temp", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := cat.Validate(tt.tool, tt.args)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, catalog.ErrInvalidArguments)
		})
	}

	assert.ErrorIs(t, cat.Validate("nope", nil), catalog.ErrUnknownTool)
}

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()
	cat, err := catalog.New(loadRegistry(t))
	require.NoError(t, err)

	d, ok := cat.Lookup("servo")
	require.True(t, ok)
	assert.Equal(t, "SERVO {pin} {angle} {label}", d.Command)

	_, ok = cat.Lookup("missing")
	assert.False(t, ok)

	tools := cat.Tools()
	tools[0].Name = "mutated"
	assert.Equal(t, "set_pwm", cat.Tools()[0].Name)

	b, err := json.Marshal(cat)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `[{"name":"set_pwm"`))
}

func TestMCPTool(t *testing.T) {
	t.Parallel()
	tools := catalog.Build(loadRegistry(t))

	pwm := catalog.MCPTool(tools[0])
	assert.Equal(t, "set_pwm", pwm.Name)
	assert.Equal(t, "object", pwm.InputSchema.Type)
	assert.Equal(t, []string{"frequency"}, pwm.InputSchema.Required)
	assert.Equal(t, map[string]any{"type": "number"}, pwm.InputSchema.Properties["frequency"])

	assert.Contains(t, pwm.Description, "Examples:")
	for i, p := range tools[0].Prompts {
		if i < 3 {
			assert.Contains(t, pwm.Description, p)
		} else {
			assert.NotContains(t, pwm.Description, p)
		}
	}

	servo := catalog.MCPTool(tools[1])
	assert.Equal(t, "Move a hobby servo", servo.Description)
	assert.Equal(t, map[string]any{"type": "integer", "description": "Angle in degrees"}, servo.InputSchema.Properties["angle"])

	b, err := json.Marshal(servo)
	require.NoError(t, err)
	assert.Contains(t, string(b), fmt.Sprintf("%q", "inputSchema"))
}
