package catalog

import (
	"github.com/ShayCichocki/troupe/pkg/models"
)

// ExecutableTask is a task definition, optionally pre-bound to an agent.
type ExecutableTask struct {
	Spec models.TaskSpec
	// Agent is nil when the task is left for the planner to assign.
	Agent *ResolvedAgent
}

// ID returns the task identifier.
func (t *ExecutableTask) ID() string { return t.Spec.ID }

// Bound reports whether the task has an agent from configuration.
func (t *ExecutableTask) Bound() bool { return t.Agent != nil }

// TaskCatalog is the ordered set of runnable tasks.
type TaskCatalog struct {
	tasks []*ExecutableTask
	byID  map[string]*ExecutableTask
}

// BuildTasks builds executable tasks in declaration order. A task whose
// assigned agent does not resolve is dropped with a warning. Tasks with no
// assignment are kept unbound. Context references to unknown, dropped or
// later-declared tasks are removed with a warning so dependencies always
// point backwards in declaration order.
func BuildTasks(specs []models.TaskSpec, agents *AgentCatalog) (*TaskCatalog, []Warning) {
	c := &TaskCatalog{byID: make(map[string]*ExecutableTask, len(specs))}
	var warnings []Warning

	declared := make(map[string]bool, len(specs))
	for _, spec := range specs {
		declared[spec.ID] = true
	}

	for _, spec := range specs {
		if _, dup := c.byID[spec.ID]; dup {
			warnings = warn(warnings, Warning{Kind: WarnDuplicate, Subject: spec.ID})
			continue
		}

		task := &ExecutableTask{Spec: spec}
		task.Spec.Context = nil

		if spec.AssignedAgent != "" {
			agent, ok := agents.Get(spec.AssignedAgent)
			if !ok {
				warnings = warn(warnings, Warning{Kind: WarnMissingAgent, Subject: spec.ID, Ref: spec.AssignedAgent})
				continue
			}
			task.Agent = agent
		}

		for _, dep := range spec.Context {
			switch {
			case c.byID[dep] != nil:
				task.Spec.Context = append(task.Spec.Context, dep)
			case declared[dep] && !dropped(dep, specs, c, spec.ID):
				warnings = warn(warnings, Warning{Kind: WarnForwardContext, Subject: spec.ID, Ref: dep})
			default:
				warnings = warn(warnings, Warning{Kind: WarnUnknownContext, Subject: spec.ID, Ref: dep})
			}
		}

		c.byID[spec.ID] = task
		c.tasks = append(c.tasks, task)
	}

	return c, warnings
}

// dropped reports whether dep was declared before current but did not make it
// into the catalog.
func dropped(dep string, specs []models.TaskSpec, c *TaskCatalog, current string) bool {
	for _, s := range specs {
		if s.ID == current {
			return false
		}
		if s.ID == dep {
			return c.byID[dep] == nil
		}
	}
	return false
}

// Tasks returns the executable tasks in declaration order.
func (c *TaskCatalog) Tasks() []*ExecutableTask {
	if c == nil {
		return nil
	}
	return append([]*ExecutableTask(nil), c.tasks...)
}

// Get returns the task with the given identifier.
func (c *TaskCatalog) Get(id string) (*ExecutableTask, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.byID[id]
	return t, ok
}

// IDs returns the task identifiers in declaration order.
func (c *TaskCatalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.tasks))
	for i, t := range c.tasks {
		ids[i] = t.ID()
	}
	return ids
}

// Len returns the number of tasks.
func (c *TaskCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tasks)
}
