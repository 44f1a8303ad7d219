package models

// DefaultModel is the model binding used when an agent definition omits one.
const DefaultModel = "claude-sonnet-4-20250514"

// AgentSpec is a declarative agent definition loaded from configuration.
type AgentSpec struct {
	// ID is the unique key of the agent in the agent collection.
	ID string `json:"id" yaml:"-" toml:"id"`
	// Role is the agent's job title (e.g., "Senior Researcher").
	Role string `json:"role" yaml:"role" toml:"role"`
	// Goal is what the agent is trying to achieve.
	Goal string `json:"goal" yaml:"goal" toml:"goal"`
	// Backstory is the persona description given to the model.
	Backstory string `json:"backstory" yaml:"backstory" toml:"backstory"`
	// Model identifies the backing LLM. Empty means the configured default.
	Model string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	// Tools lists tool-type identifiers in declaration order.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty" toml:"tools,omitempty"`
}

// ModelOr returns the agent's model binding, or fallback when none is set.
func (a AgentSpec) ModelOr(fallback string) string {
	if a.Model != "" {
		return a.Model
	}
	if fallback != "" {
		return fallback
	}
	return DefaultModel
}
