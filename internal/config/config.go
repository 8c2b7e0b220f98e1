// Package config loads the bridge configuration: serial link settings and
// the ordered registry of commands exposed as tools.
package config

import (
	"regexp"
	"strconv"
	"time"

	"github.com/allbin/mcp2serial/internal/command"
)

// Defaults applied to omitted serial settings.
const (
	DefaultBaudRate            = 115200
	DefaultTimeout             = time.Second
	DefaultReadTimeout         = 2 * time.Second
	DefaultResponseStartString = "OK"
	DefaultLineEnding          = "\r\n"
	DefaultParseSeparator      = ":"
	DefaultFlowControl         = "none"
	DefaultDataBits            = 8
	DefaultStopBits            = 1
	DefaultParity              = "none"
)

// Parameter types accepted in a command's parameters section.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Settings describes the serial link. A zero Port means autodetect.
type Settings struct {
	Port                string
	BaudRate            int
	DataBits            int
	StopBits            int
	Parity              string
	Timeout             time.Duration
	ReadTimeout         time.Duration
	ResponseStartString string
	LineEnding          string
	Handshake           string
	HandshakeResponse   string
	ParseSeparator      string
	FlowControl         string
	// CommandInterval is the minimum gap between two commands. Zero
	// disables pacing.
	CommandInterval time.Duration
}

// DefaultSettings returns the settings used for every omitted field.
func DefaultSettings() Settings {
	return Settings{
		BaudRate:            DefaultBaudRate,
		DataBits:            DefaultDataBits,
		StopBits:            DefaultStopBits,
		Parity:              DefaultParity,
		Timeout:             DefaultTimeout,
		ReadTimeout:         DefaultReadTimeout,
		ResponseStartString: DefaultResponseStartString,
		LineEnding:          DefaultLineEnding,
		ParseSeparator:      DefaultParseSeparator,
		FlowControl:         DefaultFlowControl,
	}
}

// Framing returns the character framing in the usual short form, e.g. "8N1".
func (s Settings) Framing() string {
	parity := "N"
	switch s.Parity {
	case "odd":
		parity = "O"
	case "even":
		parity = "E"
	}
	return strconv.Itoa(s.DataBits) + parity + strconv.Itoa(s.StopBits)
}

// Autodetect reports whether the port must be discovered.
func (s Settings) Autodetect() bool {
	return s.Port == ""
}

// Parameter is the optional declaration of one placeholder.
type Parameter struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// CommandSpec maps a tool name to a serial command template.
type CommandSpec struct {
	Name        string
	Command     string
	Template    *command.Template
	NeedParse   bool
	Description string
	Parameters  map[string]Parameter
	Prompts     []string
}

// Registry is the ordered set of commands, in declaration order.
type Registry struct {
	specs  []*CommandSpec
	byName map[string]*CommandSpec
}

// NewRegistry builds a registry, rejecting duplicate names.
func NewRegistry(specs ...*CommandSpec) (*Registry, error) {
	r := &Registry{byName: make(map[string]*CommandSpec, len(specs))}
	for _, s := range specs {
		if _, dup := r.byName[s.Name]; dup {
			return nil, schemaError("commands."+s.Name, "duplicate command name %q", s.Name)
		}
		r.byName[s.Name] = s
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

// Get looks a command up by tool name.
func (r *Registry) Get(name string) (*CommandSpec, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.byName[name]
	return s, ok
}

// All returns the commands in declaration order. The slice is a copy; the
// specs themselves must not be modified.
func (r *Registry) All() []*CommandSpec {
	if r == nil {
		return nil
	}
	out := make([]*CommandSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the tool names in declaration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Config is the loaded configuration. It is never mutated after Load.
type Config struct {
	Path     string
	Serial   Settings
	Commands *Registry
}

// WithPort returns a copy of c whose serial port is overridden.
func (c *Config) WithPort(port string) *Config {
	cp := *c
	cp.Serial.Port = port
	return &cp
}
