package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/troupe/internal/tools"
)

// maxToolOutput bounds a single tool result sent back to the model.
const maxToolOutput = 32 * 1024

// ToolDefinitions converts an agent's tools into API tool schemas.
func ToolDefinitions(bound []tools.Tool) []anthropic.ToolUnionParam {
	defs := make([]anthropic.ToolUnionParam, 0, len(bound))
	for _, t := range bound {
		props, required := t.Schema()
		defs = append(defs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   required,
				},
			},
		})
	}
	return defs
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Content string
	IsError bool
}

// invokeTool runs the named tool from the agent's tool set. Failures become
// error results for the model rather than Go errors.
func invokeTool(ctx context.Context, lookup func(string) (tools.Tool, bool), name string, input json.RawMessage) ToolResult {
	tool, ok := lookup(name)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}

	out, err := tool.Invoke(ctx, input)
	if err != nil {
		content := err.Error()
		if out != "" {
			content = out + "\n" + content
		}
		return ToolResult{Content: truncate(content, maxToolOutput), IsError: true}
	}
	return ToolResult{Content: truncate(out, maxToolOutput)}
}
