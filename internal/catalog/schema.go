package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/allbin/mcp2serial/internal/config"
)

// ErrInvalidArguments indicates tool arguments failed schema validation.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// ErrUnknownTool indicates a lookup for a name that is not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// SchemaJSON renders the descriptor's input schema.
func (d ToolDescriptor) SchemaJSON() ([]byte, error) {
	return json.Marshal(d.InputSchema)
}

// Compile compiles the descriptor's input schema.
func Compile(d ToolDescriptor) (*jsonschema.Schema, error) {
	raw, err := d.SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := d.Name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", d.Name, err)
	}
	return schema, nil
}

// Catalog holds the descriptors of a registry together with their compiled
// schemas. It is immutable after New.
type Catalog struct {
	tools   []ToolDescriptor
	byName  map[string]int
	schemas map[string]*jsonschema.Schema

	encodeOnce sync.Once
	encoded    []byte
	encodeErr  error
}

// New builds and compiles the catalog for reg.
func New(reg *config.Registry) (*Catalog, error) {
	tools := Build(reg)
	c := &Catalog{
		tools:   tools,
		byName:  make(map[string]int, len(tools)),
		schemas: make(map[string]*jsonschema.Schema, len(tools)),
	}
	for i, d := range tools {
		schema, err := Compile(d)
		if err != nil {
			return nil, err
		}
		c.byName[d.Name] = i
		c.schemas[d.Name] = schema
	}
	return c, nil
}

// Tools returns the descriptors in declaration order.
func (c *Catalog) Tools() []ToolDescriptor {
	out := make([]ToolDescriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (ToolDescriptor, bool) {
	i, ok := c.byName[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return c.tools[i], true
}

// Validate checks args against the input schema of the named tool.
func (c *Catalog) Validate(name string, args map[string]any) error {
	schema, ok := c.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

// MarshalJSON renders the tool list. The encoding is computed once.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	c.encodeOnce.Do(func() {
		c.encoded, c.encodeErr = json.Marshal(c.tools)
	})
	return c.encoded, c.encodeErr
}
