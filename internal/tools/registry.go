// Package tools provides the closed set of tool types agents can be given and
// the registry that maps a tool-type identifier to a constructed instance.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ShayCichocki/troupe/internal/exec"
	"github.com/ShayCichocki/troupe/internal/tracing"
)

// Tool is an invocable capability bound to an agent.
// Implementations hold no per-call mutable state and are safe for concurrent use.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string
	// Description tells the model what the tool does.
	Description() string
	// Schema returns the JSON schema properties and required keys of the input.
	Schema() (properties map[string]any, required []string)
	// Invoke runs the tool with JSON-encoded arguments.
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

const (
	// TypeSearch is a web search tool backed by the Serper API.
	TypeSearch = "search"
	// TypeCode runs a shell snippet in the work directory.
	TypeCode = "code"
	// TypeReadFile reads a file under the work directory.
	TypeReadFile = "read_file"
)

// Config carries the startup settings tool constructors need.
type Config struct {
	WorkDir string
	// Protected lists extra globs the read_file tool refuses to open.
	Protected []string
	Search    SearchConfig
	Code      CodeConfig
}

// SearchConfig configures the search tool.
type SearchConfig struct {
	APIKey   string
	Endpoint string
	Results  int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// CodeConfig configures the code tool.
type CodeConfig struct {
	Shell   string
	Timeout time.Duration
	// Runner overrides command execution (tests).
	Runner exec.CommandRunner
}

type factory func(cfg Config) (Tool, error)

// factories is the closed mapping of tool types. New types are added here.
var factories = map[string]factory{
	TypeSearch:   newSearchTool,
	TypeCode:     newCodeTool,
	TypeReadFile: newReadFileTool,
}

// Types returns the recognised tool-type identifiers in sorted order.
func Types() []string {
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Known reports whether toolType is part of the closed mapping.
func Known(toolType string) bool {
	_, ok := factories[toolType]
	return ok
}

// Registry maps tool-type identifiers to long-lived tool instances.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry constructs one instance for every recognised type in wanted.
// Unrecognised types are skipped; callers report them. A construction
// failure (e.g. missing credentials) is returned as an error.
func NewRegistry(cfg Config, wanted []string) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, toolType := range wanted {
		if _, done := r.tools[toolType]; done {
			continue
		}
		build, ok := factories[toolType]
		if !ok {
			continue
		}
		tool, err := build(cfg)
		if err != nil {
			return nil, fmt.Errorf("construct %s tool: %w", toolType, err)
		}
		r.tools[toolType] = traced{Tool: tool}
	}
	return r, nil
}

// NewRegistryWith builds a registry from ready-made instances keyed by type.
func NewRegistryWith(tools map[string]Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for toolType, tool := range tools {
		r.tools[toolType] = tool
	}
	return r
}

// Resolve returns the tool registered for toolType.
func (r *Registry) Resolve(toolType string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	tool, ok := r.tools[toolType]
	return tool, ok
}

// Len returns the number of constructed tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// traced records a span around every invocation.
type traced struct {
	Tool
}

func (t traced) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "tool.invoke", map[string]string{"tool.name": t.Name()})
	out, err := t.Tool.Invoke(ctx, args)
	span.End(err)
	return out, err
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
