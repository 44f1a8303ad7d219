package catalog

import (
	"github.com/ShayCichocki/troupe/internal/tools"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// ToolResolver maps a tool-type identifier to a tool instance.
type ToolResolver interface {
	Resolve(toolType string) (tools.Tool, bool)
}

// ResolvedAgent is an agent definition with its tool bindings resolved.
// It is immutable once built.
type ResolvedAgent struct {
	spec  models.AgentSpec
	model string
	tools []tools.Tool
}

// NewResolvedAgent builds a resolved agent directly (tests and embedding callers).
func NewResolvedAgent(spec models.AgentSpec, model string, bound ...tools.Tool) *ResolvedAgent {
	return &ResolvedAgent{spec: spec, model: spec.ModelOr(model), tools: append([]tools.Tool(nil), bound...)}
}

// ID returns the agent identifier.
func (a *ResolvedAgent) ID() string { return a.spec.ID }

// Spec returns a copy of the declarative definition.
func (a *ResolvedAgent) Spec() models.AgentSpec {
	spec := a.spec
	spec.Tools = append([]string(nil), a.spec.Tools...)
	return spec
}

// Role returns the agent's role.
func (a *ResolvedAgent) Role() string { return a.spec.Role }

// Goal returns the agent's goal.
func (a *ResolvedAgent) Goal() string { return a.spec.Goal }

// Backstory returns the agent's backstory.
func (a *ResolvedAgent) Backstory() string { return a.spec.Backstory }

// Model returns the effective model binding.
func (a *ResolvedAgent) Model() string { return a.model }

// Tools returns the resolved tool handles in declaration order.
func (a *ResolvedAgent) Tools() []tools.Tool {
	return append([]tools.Tool(nil), a.tools...)
}

// Tool returns the bound tool with the given name.
func (a *ResolvedAgent) Tool(name string) (tools.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// AgentCatalog holds the resolved agents keyed by identifier.
type AgentCatalog struct {
	byID  map[string]*ResolvedAgent
	order []*ResolvedAgent
}

// BuildAgents resolves every agent definition. Unknown tool types are dropped
// with a warning; the build itself never fails. Agents without a model get
// defaultModel.
func BuildAgents(specs []models.AgentSpec, registry ToolResolver, defaultModel string) (*AgentCatalog, []Warning) {
	c := &AgentCatalog{byID: make(map[string]*ResolvedAgent, len(specs))}
	var warnings []Warning

	for _, spec := range specs {
		if _, dup := c.byID[spec.ID]; dup {
			warnings = warn(warnings, Warning{Kind: WarnDuplicate, Subject: spec.ID})
			continue
		}

		agent := &ResolvedAgent{
			spec:  spec,
			model: spec.ModelOr(defaultModel),
		}
		agent.spec.Tools = append([]string(nil), spec.Tools...)

		for _, toolType := range spec.Tools {
			var tool tools.Tool
			var ok bool
			if registry != nil {
				tool, ok = registry.Resolve(toolType)
			}
			if !ok {
				warnings = warn(warnings, Warning{Kind: WarnUnknownTool, Subject: spec.ID, Ref: toolType})
				continue
			}
			agent.tools = append(agent.tools, tool)
		}

		c.byID[spec.ID] = agent
		c.order = append(c.order, agent)
	}

	return c, warnings
}

// Get returns the agent with the given identifier.
func (c *AgentCatalog) Get(id string) (*ResolvedAgent, bool) {
	if c == nil {
		return nil, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// All returns the agents in declaration order.
func (c *AgentCatalog) All() []*ResolvedAgent {
	if c == nil {
		return nil
	}
	return append([]*ResolvedAgent(nil), c.order...)
}

// First returns the first declared agent, or nil for an empty catalog.
func (c *AgentCatalog) First() *ResolvedAgent {
	if c == nil || len(c.order) == 0 {
		return nil
	}
	return c.order[0]
}

// Len returns the number of agents.
func (c *AgentCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
