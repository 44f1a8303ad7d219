package orchestrator

import (
	"context"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// Assignment is one unit of work handed to an Executor.
type Assignment struct {
	CycleID string
	Request string
	// Task has {request} already substituted.
	Task  models.TaskSpec
	Agent *catalog.ResolvedAgent
	// Context holds the completed outputs this task depends on, in plan order.
	Context []models.TaskOutput
	// Attempt is 1-based.
	Attempt int
	// Feedback and PreviousOutput are set only on the revision call that
	// follows human input.
	Feedback       string
	PreviousOutput string
}

// Revision reports whether the assignment asks to revise a previous answer.
func (a Assignment) Revision() bool {
	return a.Feedback != ""
}

// Executor runs one task attempt with the given agent and returns its answer.
type Executor interface {
	Execute(ctx context.Context, a Assignment) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, a Assignment) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, a Assignment) (string, error) {
	return f(ctx, a)
}

// PlanRequest is the input of a planning call.
type PlanRequest struct {
	Request string
	Agents  []*catalog.ResolvedAgent
	Tasks   []*catalog.ExecutableTask
	// AssignAll asks the planner to choose an agent for every task, including
	// pre-bound ones.
	AssignAll bool
}

// Planner orders tasks and assigns agents for a request.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) ([]models.PlanStep, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, req PlanRequest) ([]models.PlanStep, error)

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, req PlanRequest) ([]models.PlanStep, error) {
	return f(ctx, req)
}

// HumanInput solicits feedback on a task's answer. An empty reply accepts
// the answer as is.
type HumanInput interface {
	Feedback(ctx context.Context, task models.TaskSpec, output string) (string, error)
}

// HumanInputFunc adapts a function to the HumanInput interface.
type HumanInputFunc func(ctx context.Context, task models.TaskSpec, output string) (string, error)

// Feedback calls f.
func (f HumanInputFunc) Feedback(ctx context.Context, task models.TaskSpec, output string) (string, error) {
	return f(ctx, task, output)
}

// Recorder stores the outcome of finished cycles.
type Recorder interface {
	RecordCycle(ctx context.Context, out *models.CrewOutput) error
}
