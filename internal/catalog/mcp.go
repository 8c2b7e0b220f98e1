package catalog

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxExamples bounds how many prompts are folded into a tool description.
const maxExamples = 3

// MCPTool converts a descriptor to the mcp-go tool definition. Prompts have
// no slot in the protocol, so the first few are appended to the description
// as usage examples.
func MCPTool(d ToolDescriptor) mcp.Tool {
	props := make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}

	required := make([]string, len(d.InputSchema.Required))
	copy(required, d.InputSchema.Required)

	return mcp.Tool{
		Name:        d.Name,
		Description: describeWithExamples(d),
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func describeWithExamples(d ToolDescriptor) string {
	if len(d.Prompts) == 0 {
		return d.Description
	}
	var b strings.Builder
	b.WriteString(d.Description)
	b.WriteString("\n\nExamples:")
	for i, p := range d.Prompts {
		if i == maxExamples {
			break
		}
		fmt.Fprintf(&b, "\n- %s", p)
	}
	return b.String()
}
