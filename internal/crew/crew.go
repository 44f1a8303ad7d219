// Package crew loads declarative agent and task definitions.
//
// Two document shapes are accepted. YAML documents are collections keyed by
// identifier, where key order is the declaration order:
//
//	researcher:
//	  role: Senior Researcher
//	  goal: Find facts
//	  backstory: ...
//	  tools: [search]
//
// TOML documents use arrays of tables with an explicit id:
//
//	[[agent]]
//	id = "researcher"
//	role = "Senior Researcher"
//
// Missing required fields are configuration errors and abort loading.
package crew

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// ErrInvalidDefinition indicates a malformed agent or task definition.
var ErrInvalidDefinition = errors.New("invalid crew definition")

// ErrUnsupportedFormat indicates a definition file with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// Definition is the full declarative input of a crew.
type Definition struct {
	Agents []models.AgentSpec
	Tasks  []models.TaskSpec
}

// Load reads the agent and task documents at the given paths.
func Load(agentsPath, tasksPath string) (*Definition, error) {
	agents, err := LoadAgents(agentsPath)
	if err != nil {
		return nil, err
	}
	tasks, err := LoadTasks(tasksPath)
	if err != nil {
		return nil, err
	}
	return &Definition{Agents: agents, Tasks: tasks}, nil
}

// LoadAgents reads an agent collection, choosing the parser by extension.
func LoadAgents(path string) ([]models.AgentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	var agents []models.AgentSpec
	switch format(path) {
	case "yaml":
		agents, err = ParseAgentsYAML(data)
	case "toml":
		agents, err = ParseAgentsTOML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load agents from %s: %w", path, err)
	}
	return agents, nil
}

// LoadTasks reads a task collection, choosing the parser by extension.
func LoadTasks(path string) ([]models.TaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}

	var tasks []models.TaskSpec
	switch format(path) {
	case "yaml":
		tasks, err = ParseTasksYAML(data)
	case "toml":
		tasks, err = ParseTasksTOML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load tasks from %s: %w", path, err)
	}
	return tasks, nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}

// validateAgent reports every missing required field of an agent.
func validateAgent(a models.AgentSpec) error {
	var errs []error
	if strings.TrimSpace(a.ID) == "" {
		errs = append(errs, fmt.Errorf("%w: agent with empty id", ErrInvalidDefinition))
	}
	for _, f := range []struct{ name, value string }{
		{"role", a.Role},
		{"goal", a.Goal},
		{"backstory", a.Backstory},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%w: agent %q: missing required field %q", ErrInvalidDefinition, a.ID, f.name))
		}
	}
	for i, tool := range a.Tools {
		if strings.TrimSpace(tool) == "" {
			errs = append(errs, fmt.Errorf("%w: agent %q: tool #%d has no type", ErrInvalidDefinition, a.ID, i+1))
		}
	}
	return errors.Join(errs...)
}

// validateTask reports every missing or malformed field of a task.
func validateTask(t models.TaskSpec) error {
	var errs []error
	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, fmt.Errorf("%w: task with empty id", ErrInvalidDefinition))
	}
	if strings.TrimSpace(t.Description) == "" {
		errs = append(errs, fmt.Errorf("%w: task %q: missing required field %q", ErrInvalidDefinition, t.ID, "description"))
	}
	if t.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("%w: task %q: max_iterations must be at least 1, got %d", ErrInvalidDefinition, t.ID, t.MaxIterations))
	}
	for _, dep := range t.Context {
		if dep == t.ID {
			errs = append(errs, fmt.Errorf("%w: task %q lists itself as context", ErrInvalidDefinition, t.ID))
		}
	}
	return errors.Join(errs...)
}

// maxIterationsOr applies the default retry budget to an omitted value.
func maxIterationsOr(v *int) int {
	if v == nil {
		return models.DefaultMaxIterations
	}
	return *v
}

type duplicateChecker map[string]bool

func (d duplicateChecker) check(kind, id string) error {
	if d[id] {
		return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDefinition, kind, id)
	}
	d[id] = true
	return nil
}
