package crew

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/ShayCichocki/troupe/pkg/models"
)

type tomlAgentsDoc struct {
	Agent []tomlAgent `toml:"agent"`
}

type tomlAgent struct {
	ID        string   `toml:"id"`
	Role      string   `toml:"role"`
	Goal      string   `toml:"goal"`
	Backstory string   `toml:"backstory"`
	Model     string   `toml:"model"`
	LLM       string   `toml:"llm"`
	Tools     []string `toml:"tools"`
}

type tomlTasksDoc struct {
	Task []tomlTask `toml:"task"`
}

type tomlTask struct {
	ID             string   `toml:"id"`
	Description    string   `toml:"description"`
	ExpectedOutput string   `toml:"expected_output"`
	HumanInput     bool     `toml:"human_input"`
	MaxIterations  *int     `toml:"max_iterations"`
	AssignedAgent  string   `toml:"assigned_agent"`
	Context        []string `toml:"context"`
}

// ParseAgentsTOML decodes a list-form agent collection ([[agent]] tables).
func ParseAgentsTOML(data []byte) ([]models.AgentSpec, error) {
	var doc tomlAgentsDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	seen := duplicateChecker{}
	agents := make([]models.AgentSpec, 0, len(doc.Agent))
	var errs []error
	for _, raw := range doc.Agent {
		if err := seen.check("agent", raw.ID); err != nil {
			return nil, err
		}
		spec := models.AgentSpec{
			ID:        raw.ID,
			Role:      raw.Role,
			Goal:      raw.Goal,
			Backstory: raw.Backstory,
			Model:     raw.Model,
			Tools:     raw.Tools,
		}
		if spec.Model == "" {
			spec.Model = raw.LLM
		}
		if err := validateAgent(spec); err != nil {
			errs = append(errs, err)
			continue
		}
		agents = append(agents, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return agents, nil
}

// ParseTasksTOML decodes a list-form task collection ([[task]] tables).
func ParseTasksTOML(data []byte) ([]models.TaskSpec, error) {
	var doc tomlTasksDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	seen := duplicateChecker{}
	tasks := make([]models.TaskSpec, 0, len(doc.Task))
	var errs []error
	for _, raw := range doc.Task {
		if err := seen.check("task", raw.ID); err != nil {
			return nil, err
		}
		spec := models.TaskSpec{
			ID:             raw.ID,
			Description:    raw.Description,
			ExpectedOutput: raw.ExpectedOutput,
			HumanInput:     raw.HumanInput,
			MaxIterations:  maxIterationsOr(raw.MaxIterations),
			AssignedAgent:  raw.AssignedAgent,
			Context:        raw.Context,
		}
		if err := validateTask(spec); err != nil {
			errs = append(errs, err)
			continue
		}
		tasks = append(tasks, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tasks, nil
}
