// Package catalog turns the command registry into tool descriptors and
// validates tool arguments against their input schemas.
package catalog

import (
	"fmt"
	"strings"

	"github.com/allbin/mcp2serial/internal/config"
)

// Property is one entry of an input schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// InputSchema is the JSON Schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Parameter is a placeholder of the command template with its resolved type.
type Parameter struct {
	Name        string
	Type        string
	Description string
	// Declared is true when the type came from the parameters section
	// rather than inference.
	Declared bool
}

// ToolDescriptor is what a client sees for one command.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
	Prompts     []string    `json:"prompts"`

	// Parameters lists the placeholders in template order.
	Parameters []Parameter `json:"-"`
	// Command is the raw template the tool sends.
	Command string `json:"-"`
}

// Build returns one descriptor per command, in declaration order. It only
// reads the registry and is safe to call concurrently.
func Build(reg *config.Registry) []ToolDescriptor {
	specs := reg.All()
	out := make([]ToolDescriptor, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Describe(spec))
	}
	return out
}

// Describe builds the descriptor for a single command.
func Describe(spec *config.CommandSpec) ToolDescriptor {
	placeholders := spec.Template.Placeholders()

	d := ToolDescriptor{
		Name:        spec.Name,
		Description: spec.Description,
		InputSchema: InputSchema{
			Type:       "object",
			Properties: make(map[string]Property, len(placeholders)),
			Required:   make([]string, 0, len(placeholders)),
		},
		Prompts:    make([]string, len(spec.Prompts)),
		Parameters: make([]Parameter, 0, len(placeholders)),
		Command:    spec.Command,
	}
	copy(d.Prompts, spec.Prompts)
	if d.Description == "" {
		d.Description = fmt.Sprintf("Send `%s` to the serial device", spec.Command)
	}

	for _, name := range placeholders {
		p := Parameter{Name: name, Type: InferType(name)}
		if decl, ok := spec.Parameters[name]; ok {
			if decl.Type != "" {
				p.Type = decl.Type
				p.Declared = true
			}
			p.Description = decl.Description
		}
		d.Parameters = append(d.Parameters, p)
		d.InputSchema.Properties[name] = Property{Type: p.Type, Description: p.Description}
		d.InputSchema.Required = append(d.InputSchema.Required, name)
	}
	return d
}

// numericNames are parameter names that almost always carry a number on
// microcontroller command sets.
var numericNames = map[string]bool{
	"angle":       true,
	"brightness":  true,
	"channel":     true,
	"count":       true,
	"delay":       true,
	"duration":    true,
	"duty":        true,
	"freq":        true,
	"frequency":   true,
	"index":       true,
	"level":       true,
	"num":         true,
	"number":      true,
	"percent":     true,
	"pin":         true,
	"position":    true,
	"speed":       true,
	"steps":       true,
	"temperature": true,
	"times":       true,
	"voltage":     true,
}

var numericSuffixes = []string{"_ms", "_us", "_hz", "_id", "_count", "_num", "_pct"}

// InferType guesses a JSON Schema type from a placeholder name.
func InferType(name string) string {
	lower := strings.ToLower(name)
	if numericNames[lower] {
		return config.TypeNumber
	}
	for _, suffix := range numericSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return config.TypeNumber
		}
	}
	if i := strings.LastIndexByte(lower, '_'); i >= 0 && numericNames[lower[i+1:]] {
		return config.TypeNumber
	}
	return config.TypeString
}
