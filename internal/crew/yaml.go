package crew

import (
	"errors"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/troupe/pkg/models"
)

type yamlAgent struct {
	Role      string    `yaml:"role"`
	Goal      string    `yaml:"goal"`
	Backstory string    `yaml:"backstory"`
	Model     string    `yaml:"model"`
	LLM       string    `yaml:"llm"`
	Tools     []toolRef `yaml:"tools"`
}

type yamlTask struct {
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	HumanInput     bool     `yaml:"human_input"`
	MaxIterations  *int     `yaml:"max_iterations"`
	AssignedAgent  string   `yaml:"assigned_agent"`
	Context        []string `yaml:"context"`
}

// toolRef accepts either a bare tool type ("search") or a mapping
// with a type key ({type: search}).
type toolRef struct {
	Type string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *toolRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		t.Type = value.Value
		return nil
	case yaml.MappingNode:
		var obj struct {
			Type string `yaml:"type"`
		}
		if err := value.Decode(&obj); err != nil {
			return err
		}
		t.Type = obj.Type
		return nil
	default:
		return fmt.Errorf("line %d: tool must be a string or a mapping with a type key", value.Line)
	}
}

// ParseAgentsYAML decodes a keyed agent collection preserving key order.
func ParseAgentsYAML(data []byte) ([]models.AgentSpec, error) {
	var agents []models.AgentSpec
	seen := duplicateChecker{}
	var errs []error

	err := eachEntry(data, func(id string, node *yaml.Node) error {
		if err := seen.check("agent", id); err != nil {
			return err
		}
		var raw yamlAgent
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w: agent %q: %v", ErrInvalidDefinition, id, err)
		}
		spec := models.AgentSpec{
			ID:        id,
			Role:      raw.Role,
			Goal:      raw.Goal,
			Backstory: raw.Backstory,
			Model:     raw.Model,
		}
		if spec.Model == "" {
			spec.Model = raw.LLM
		}
		for _, ref := range raw.Tools {
			spec.Tools = append(spec.Tools, ref.Type)
		}
		if err := validateAgent(spec); err != nil {
			errs = append(errs, err)
			return nil
		}
		agents = append(agents, spec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return agents, nil
}

// ParseTasksYAML decodes a keyed task collection preserving key order.
func ParseTasksYAML(data []byte) ([]models.TaskSpec, error) {
	var tasks []models.TaskSpec
	seen := duplicateChecker{}
	var errs []error

	err := eachEntry(data, func(id string, node *yaml.Node) error {
		if err := seen.check("task", id); err != nil {
			return err
		}
		var raw yamlTask
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w: task %q: %v", ErrInvalidDefinition, id, err)
		}
		spec := models.TaskSpec{
			ID:             id,
			Description:    raw.Description,
			ExpectedOutput: raw.ExpectedOutput,
			HumanInput:     raw.HumanInput,
			MaxIterations:  maxIterationsOr(raw.MaxIterations),
			AssignedAgent:  raw.AssignedAgent,
			Context:        raw.Context,
		}
		if err := validateTask(spec); err != nil {
			errs = append(errs, err)
			return nil
		}
		tasks = append(tasks, spec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tasks, nil
}

// eachEntry walks the top-level mapping of a YAML document in order.
// An empty or null document has no entries.
func eachEntry(data []byte, fn func(id string, node *yaml.Node) error) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil
	}

	doc := root.Content[0]
	if doc.Kind == yaml.ScalarNode && doc.Tag == "!!null" {
		return nil
	}
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: top level must be a mapping keyed by id", ErrInvalidDefinition, doc.Line)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: line %d: entry %q must be a mapping", ErrInvalidDefinition, value.Line, key.Value)
		}
		if err := fn(key.Value, value); err != nil {
			return err
		}
	}
	return nil
}
