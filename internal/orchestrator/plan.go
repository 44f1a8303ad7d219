package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/internal/graph"
	"github.com/ShayCichocki/troupe/internal/tracing"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// ErrPlanInvalid indicates a planner result that cannot be executed.
var ErrPlanInvalid = errors.New("invalid plan")

// ExecutionPlan is the ordered task-to-agent assignment for one cycle.
type ExecutionPlan struct {
	Steps  []models.PlanStep
	Source models.PlanSource
	// Warnings describe why the planner result was not used, if it wasn't.
	Warnings []string
}

// TaskIDs returns the task IDs in plan order.
func (p *ExecutionPlan) TaskIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.TaskID
	}
	return ids
}

// IdentityPlan executes tasks in catalog order. Pre-bound tasks keep their
// agent; unbound tasks take the first declared agent. With no agents at all
// an unbound step has an empty agent and fails at execution time.
func IdentityPlan(tasks *catalog.TaskCatalog, agents *catalog.AgentCatalog) *ExecutionPlan {
	plan := &ExecutionPlan{Source: models.PlanSourceIdentity}
	for _, t := range tasks.Tasks() {
		plan.Steps = append(plan.Steps, models.PlanStep{TaskID: t.ID(), AgentID: defaultAgentFor(t, agents)})
	}
	return plan
}

func defaultAgentFor(t *catalog.ExecutableTask, agents *catalog.AgentCatalog) string {
	if t.Bound() {
		return t.Agent.ID()
	}
	if first := agents.First(); first != nil {
		return first.ID()
	}
	return ""
}

// ValidatePlan checks planner steps against the catalogs and the context
// dependency graph. Unknown or duplicated IDs and orders that run a task
// before its context are rejected. Tasks the planner left out are appended
// in catalog order with their identity assignment. When assignAll is false,
// pre-bound tasks keep their configured agent whatever the planner says.
func ValidatePlan(steps []models.PlanStep, tasks *catalog.TaskCatalog, agents *catalog.AgentCatalog, deps *graph.DependencyGraph, assignAll bool) (*ExecutionPlan, error) {
	plan := &ExecutionPlan{Source: models.PlanSourcePlanner}
	seen := make(map[string]bool, len(steps))

	for _, step := range steps {
		task, ok := tasks.Get(step.TaskID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown task %q", ErrPlanInvalid, step.TaskID)
		}
		if seen[step.TaskID] {
			return nil, fmt.Errorf("%w: task %q planned twice", ErrPlanInvalid, step.TaskID)
		}
		seen[step.TaskID] = true

		switch {
		case !assignAll && task.Bound():
			step.AgentID = task.Agent.ID()
		case step.AgentID == "" && assignAll:
			return nil, fmt.Errorf("%w: no agent assigned to task %q", ErrPlanInvalid, step.TaskID)
		case step.AgentID == "":
			step.AgentID = defaultAgentFor(task, agents)
		default:
			if _, ok := agents.Get(step.AgentID); !ok {
				return nil, fmt.Errorf("%w: unknown agent %q for task %q", ErrPlanInvalid, step.AgentID, step.TaskID)
			}
		}

		plan.Steps = append(plan.Steps, step)
	}

	for _, t := range tasks.Tasks() {
		if !seen[t.ID()] {
			plan.Steps = append(plan.Steps, models.PlanStep{TaskID: t.ID(), AgentID: defaultAgentFor(t, agents)})
		}
	}

	if deps != nil {
		if err := deps.CheckOrder(plan.TaskIDs()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPlanInvalid, err)
		}
	}

	return plan, nil
}

// buildPlan derives the plan for one cycle. Planner failures of any kind
// degrade to the identity plan and emit EventPlanFallback.
func (e *Engine) buildPlan(ctx context.Context, cycleID, request string) *ExecutionPlan {
	identity := IdentityPlan(e.tasks, e.agents)
	if e.opts.planner == nil || e.tasks.Len() == 0 {
		return identity
	}

	ctx, span := tracing.StartSpan(ctx, "crew.plan", map[string]string{"cycle_id": cycleID})
	plan, err := e.planWithPlanner(ctx, request)
	span.End(err)

	if err != nil {
		log.Printf("[orchestrator] WARNING: planning failed, using catalog order: %v", err)
		e.logger.Log("[plan] fallback to identity plan: %v", err)
		identity.Warnings = append(identity.Warnings, err.Error())
		e.emitter.Emit(Event{
			Type:    EventPlanFallback,
			CycleID: cycleID,
			Message: "planner failed, executing tasks in catalog order",
			Error:   err,
		})
		return identity
	}
	return plan
}

func (e *Engine) planWithPlanner(ctx context.Context, request string) (plan *ExecutionPlan, err error) {
	if e.opts.planningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.planningTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			plan, err = nil, fmt.Errorf("planner panic: %v", r)
		}
	}()

	assignAll := e.opts.binding == models.BindingPlanner
	steps, err := e.opts.planner.Plan(ctx, PlanRequest{
		Request:   request,
		Agents:    e.agents.All(),
		Tasks:     e.tasks.Tasks(),
		AssignAll: assignAll,
	})
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("planner: %w", ctx.Err())
	}

	e.logger.Log("[plan] planner returned %d steps: %v", len(steps), steps)
	return ValidatePlan(steps, e.tasks, e.agents, e.deps, assignAll)
}
