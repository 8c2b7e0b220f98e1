package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/config"
)

// ParseAssignments converts key=value words, as typed on the command line
// or in the console, into tool arguments. Values are coerced to the
// parameter's schema type so they pass validation; values that do not
// parse are kept as strings and left for validation to reject. Numbers
// become float64, as they do when decoded from an MCP request, so both
// paths write the same text to the device.
func ParseAssignments(tool catalog.ToolDescriptor, words []string) (map[string]any, error) {
	types := make(map[string]string, len(tool.Parameters))
	for _, p := range tool.Parameters {
		types[p.Name] = p.Type
	}

	args := make(map[string]any, len(words))
	for _, w := range words {
		key, value, ok := strings.Cut(w, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q: expected key=value", w)
		}
		if _, dup := args[key]; dup {
			return nil, fmt.Errorf("argument %q given twice", key)
		}
		args[key] = coerce(types[key], value)
	}
	return args, nil
}

// ParseCall splits a console line such as "set_pwm frequency=50" into the
// tool name and its arguments. Values cannot contain whitespace.
func ParseCall(cat *catalog.Catalog, line string) (string, map[string]any, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", nil, errors.New("empty call")
	}
	tool, ok := cat.Lookup(words[0])
	if !ok {
		return words[0], nil, fmt.Errorf("%w: %q", ErrUnknownCommand, words[0])
	}
	args, err := ParseAssignments(tool, words[1:])
	if err != nil {
		return tool.Name, nil, err
	}
	return tool.Name, args, nil
}

func coerce(typ, value string) any {
	switch typ {
	case config.TypeNumber, config.TypeInteger:
		if !json.Valid([]byte(value)) {
			break
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case config.TypeBoolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}
