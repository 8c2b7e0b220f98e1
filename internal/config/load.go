package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allbin/mcp2serial"
	"github.com/allbin/mcp2serial/internal/command"
)

type rawFile struct {
	Serial   *rawSerial `yaml:"serial"`
	Commands yaml.Node  `yaml:"commands"`
}

type rawSerial struct {
	Port                *string  `yaml:"port"`
	BaudRate            *int     `yaml:"baud_rate"`
	DataBits            *int     `yaml:"data_bits"`
	StopBits            *int     `yaml:"stop_bits"`
	Parity              *string  `yaml:"parity"`
	Timeout             *seconds `yaml:"timeout"`
	ReadTimeout         *seconds `yaml:"read_timeout"`
	ResponseStartString *string  `yaml:"response_start_string"`
	LineEnding          *string  `yaml:"line_ending"`
	Handshake           *string  `yaml:"handshake"`
	HandshakeResponse   *string  `yaml:"handshake_response"`
	ParseSeparator      *string  `yaml:"parse_separator"`
	FlowControl         *string  `yaml:"flow_control"`
	CommandInterval     *seconds `yaml:"command_interval"`
}

type rawCommand struct {
	Command     *string              `yaml:"command"`
	NeedParse   bool                 `yaml:"need_parse"`
	Description string               `yaml:"description"`
	Parameters  map[string]Parameter `yaml:"parameters"`
	Prompts     []string             `yaml:"prompts"`
}

// seconds accepts a plain number of seconds (1, 0.5) or a Go duration
// string ("500ms").
type seconds time.Duration

func (s *seconds) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected seconds, got %s", n.Line, nodeKind(n))
	}
	if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
		*s = seconds(time.Duration(f * float64(time.Second)))
		return nil
	}
	d, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", n.Line, n.Value)
	}
	*s = seconds(d)
	return nil
}

// UnmarshalYAML accepts either `name: number` or a mapping with type and
// description.
func (p *Parameter) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Type = n.Value
		return nil
	}
	type plain Parameter
	return n.Decode((*plain)(p))
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: KindFileNotFound, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindParse, Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates configuration data.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Kind: KindParse, Err: err}
	}

	var raw rawFile
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		switch {
		case root.Kind == yaml.MappingNode:
			if err := root.Decode(&raw); err != nil {
				return nil, &Error{Kind: KindSchema, Field: fieldAtLine(root, "", errorLine(err)), Err: err}
			}
		case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		default:
			return nil, schemaError("", "expected a mapping at the top level, got %s", nodeKind(root))
		}
	}

	settings, err := buildSettings(raw.Serial)
	if err != nil {
		return nil, err
	}

	registry, err := buildRegistry(&raw.Commands)
	if err != nil {
		return nil, err
	}

	return &Config{Serial: settings, Commands: registry}, nil
}

var errorLinePattern = regexp.MustCompile(`line (\d+):`)

// errorLine returns the source line yaml reported for a decode error, or 0.
func errorLine(err error) int {
	msg := err.Error()
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	m := errorLinePattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	line, _ := strconv.Atoi(m[1])
	return line
}

// fieldAtLine returns the dotted path of the deepest key in n declared on
// line, or "" when none is.
func fieldAtLine(n *yaml.Node, prefix string, line int) string {
	if line == 0 || n.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}
		if f := fieldAtLine(val, path, line); f != "" {
			return f
		}
		if key.Line == line || val.Line == line {
			return path
		}
	}
	return ""
}

func buildSettings(raw *rawSerial) (Settings, error) {
	s := DefaultSettings()
	if raw == nil {
		return s, nil
	}

	if raw.Port != nil {
		s.Port = strings.TrimSpace(*raw.Port)
	}
	if raw.BaudRate != nil {
		if !serial.IsSupportedBaudRate(*raw.BaudRate) {
			return s, schemaError("serial.baud_rate", "unsupported baud rate %d", *raw.BaudRate)
		}
		s.BaudRate = *raw.BaudRate
	}
	if raw.DataBits != nil {
		if *raw.DataBits < 5 || *raw.DataBits > 8 {
			return s, schemaError("serial.data_bits", "must be between 5 and 8, got %d", *raw.DataBits)
		}
		s.DataBits = *raw.DataBits
	}
	if raw.StopBits != nil {
		if *raw.StopBits != 1 && *raw.StopBits != 2 {
			return s, schemaError("serial.stop_bits", "must be 1 or 2, got %d", *raw.StopBits)
		}
		s.StopBits = *raw.StopBits
	}
	if raw.Parity != nil {
		switch p := strings.ToLower(*raw.Parity); p {
		case "none", "odd", "even":
			s.Parity = p
		default:
			return s, schemaError("serial.parity", "must be none, odd or even, got %q", *raw.Parity)
		}
	}
	if raw.Timeout != nil {
		if *raw.Timeout <= 0 {
			return s, schemaError("serial.timeout", "must be positive")
		}
		s.Timeout = time.Duration(*raw.Timeout)
	}
	if raw.ReadTimeout != nil {
		if *raw.ReadTimeout <= 0 {
			return s, schemaError("serial.read_timeout", "must be positive")
		}
		s.ReadTimeout = time.Duration(*raw.ReadTimeout)
	}
	if raw.ResponseStartString != nil {
		if *raw.ResponseStartString == "" {
			return s, schemaError("serial.response_start_string", "must not be empty")
		}
		s.ResponseStartString = *raw.ResponseStartString
	}
	if raw.LineEnding != nil {
		switch *raw.LineEnding {
		case "\n", "\r", "\r\n":
			s.LineEnding = *raw.LineEnding
		default:
			return s, schemaError("serial.line_ending", "must be \\n, \\r or \\r\\n, got %q", *raw.LineEnding)
		}
	}
	if raw.ParseSeparator != nil {
		if *raw.ParseSeparator == "" {
			return s, schemaError("serial.parse_separator", "must not be empty")
		}
		s.ParseSeparator = *raw.ParseSeparator
	}
	if raw.FlowControl != nil {
		switch fc := strings.ToLower(*raw.FlowControl); fc {
		case "none", "rtscts":
			s.FlowControl = fc
		default:
			return s, schemaError("serial.flow_control", "must be none or rtscts, got %q", *raw.FlowControl)
		}
	}
	if raw.CommandInterval != nil {
		if *raw.CommandInterval < 0 {
			return s, schemaError("serial.command_interval", "must not be negative")
		}
		s.CommandInterval = time.Duration(*raw.CommandInterval)
	}
	if raw.Handshake != nil {
		s.Handshake = *raw.Handshake
	}
	if raw.HandshakeResponse != nil {
		s.HandshakeResponse = *raw.HandshakeResponse
	}
	if s.Handshake != "" && s.HandshakeResponse == "" {
		s.HandshakeResponse = s.ResponseStartString
	}
	return s, nil
}

func buildRegistry(node *yaml.Node) (*Registry, error) {
	// Absent (zero node) and explicit null both mean no commands.
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null") {
		return NewRegistry()
	}
	if node.Kind != yaml.MappingNode {
		return nil, schemaError("commands", "expected a mapping, got %s", nodeKind(node))
	}

	specs := make([]*CommandSpec, 0, len(node.Content)/2)
	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		field := "commands." + name

		if line, dup := seen[name]; dup {
			return nil, schemaError(field, "duplicate command name (first declared on line %d)", line)
		}
		seen[name] = keyNode.Line

		if !toolNamePattern.MatchString(name) {
			return nil, schemaError(field, "name must match %s", toolNamePattern)
		}

		spec, err := buildCommand(name, valNode)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return NewRegistry(specs...)
}

func buildCommand(name string, node *yaml.Node) (*CommandSpec, error) {
	field := "commands." + name

	var raw rawCommand
	if node.Kind != yaml.MappingNode {
		return nil, schemaError(field, "expected a mapping, got %s", nodeKind(node))
	}
	if err := node.Decode(&raw); err != nil {
		return nil, schemaError(field, "%v", err)
	}

	if raw.Command == nil || strings.TrimSpace(*raw.Command) == "" {
		return nil, schemaError(field+".command", "must not be empty")
	}
	tpl, err := command.Parse(*raw.Command)
	if err != nil {
		return nil, schemaError(field+".command", "%v", err)
	}

	for param, p := range raw.Parameters {
		if !tpl.Has(param) {
			return nil, schemaError(field+".parameters."+param, "not a placeholder of %q", *raw.Command)
		}
		switch p.Type {
		case "", TypeString, TypeNumber, TypeInteger, TypeBoolean:
		default:
			return nil, schemaError(field+".parameters."+param+".type", "unknown type %q", p.Type)
		}
	}

	return &CommandSpec{
		Name:        name,
		Command:     *raw.Command,
		Template:    tpl,
		NeedParse:   raw.NeedParse,
		Description: strings.TrimSpace(raw.Description),
		Parameters:  raw.Parameters,
		Prompts:     raw.Prompts,
	}, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar " + n.ShortTag()
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
