package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/troupe/internal/graph"
	"github.com/ShayCichocki/troupe/internal/tracing"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// requestPlaceholder is substituted with the user's request in task text.
const requestPlaceholder = "{request}"

// cycle holds the per-request execution state.
type cycle struct {
	engine  *Engine
	id      string
	request string
	plan    *ExecutionPlan
	out     *models.CrewOutput
}

// position maps task IDs to their index in the plan.
func (c *cycle) position() map[string]int {
	pos := make(map[string]int, len(c.plan.Steps))
	for i, s := range c.plan.Steps {
		pos[s.TaskID] = i
		c.out.Tasks[i] = models.TaskOutput{TaskID: s.TaskID, AgentID: s.AgentID, Status: models.TaskStatusPending}
	}
	return pos
}

// sequential runs one task at a time in plan order. A task depends on its
// declared context, or on the step right before it when it declares none.
func (c *cycle) sequential(ctx context.Context) {
	pos := c.position()
	defer c.settle("cycle ended before the task ran")

	for i, step := range c.plan.Steps {
		task, _ := c.engine.tasks.Get(step.TaskID)

		depIDs := task.Spec.Context
		if len(depIDs) == 0 && i > 0 {
			depIDs = []string{c.plan.Steps[i-1].TaskID}
		}

		inputs, blockedBy := c.inputs(depIDs, pos)
		switch {
		case blockedBy != "":
			c.block(i, blockedBy)
		case ctx.Err() != nil:
			c.out.Tasks[i].Status = models.TaskStatusFailed
			c.out.Tasks[i].Error = ctx.Err().Error()
		default:
			c.out.Tasks[i].Status = models.TaskStatusInProgress
			c.out.Tasks[i] = c.engine.runTask(ctx, c, step, inputs)
		}
	}
}

// parallel starts every task as soon as its declared context is done.
// Results are stored by plan position so the output order never depends on
// scheduling.
func (c *cycle) parallel(ctx context.Context) error {
	pos := c.position()
	defer c.settle("cycle ended before the task ran")

	nodes := make([]graph.Node, len(c.plan.Steps))
	for i, step := range c.plan.Steps {
		task, _ := c.engine.tasks.Get(step.TaskID)
		nodes[i] = graph.Node{ID: step.TaskID, DependsOn: task.Spec.Context}
	}
	deps := graph.New()
	deps.SetDebugLog(c.engine.logger.Log)
	if err := deps.Build(nodes); err != nil {
		return fmt.Errorf("build plan graph: %w", err)
	}

	type finished struct {
		id string
		ok bool
	}
	done := make(chan finished, len(nodes))
	eg, gctx := errgroup.WithContext(ctx)
	running := 0

	for {
		if gctx.Err() == nil {
			for _, id := range deps.GetReady() {
				i := pos[id]
				step := c.plan.Steps[i]
				inputs, _ := c.inputs(deps.GetDependencies(id), pos)
				deps.MarkRunning(id)
				c.out.Tasks[i].Status = models.TaskStatusInProgress
				running++

				eg.Go(func() (err error) {
					ok := false
					defer func() {
						if r := recover(); r != nil {
							err = fmt.Errorf("%w: task %s: %v", ErrCyclePanic, id, r)
							c.out.Tasks[i].Status = models.TaskStatusFailed
							c.out.Tasks[i].Error = err.Error()
						}
						done <- finished{id: id, ok: ok}
					}()
					result := c.engine.runTask(gctx, c, step, inputs)
					c.out.Tasks[i] = result
					ok = result.Status == models.TaskStatusDone
					return nil
				})
			}
		}

		if running == 0 {
			break
		}

		f := <-done
		running--
		if f.ok {
			deps.MarkComplete(f.id)
			continue
		}
		for _, blocked := range deps.MarkFailed(f.id) {
			c.block(pos[blocked], f.id)
		}
	}

	return eg.Wait()
}

// inputs collects the outputs of depIDs. blockedBy names the first
// dependency that did not finish successfully.
func (c *cycle) inputs(depIDs []string, pos map[string]int) (outputs []models.TaskOutput, blockedBy string) {
	for _, id := range depIDs {
		i, ok := pos[id]
		if !ok {
			continue
		}
		dep := c.out.Tasks[i]
		if dep.Status != models.TaskStatusDone {
			return nil, id
		}
		outputs = append(outputs, dep)
	}
	return outputs, ""
}

func (c *cycle) block(i int, dependency string) {
	t := &c.out.Tasks[i]
	t.Status = models.TaskStatusBlocked
	t.Error = fmt.Sprintf("dependency %s did not complete", dependency)
	c.engine.logger.Log("[engine] task %s blocked by %s", t.TaskID, dependency)
	c.engine.emitter.Emit(Event{
		Type:    EventTaskBlocked,
		CycleID: c.id,
		TaskID:  t.TaskID,
		AgentID: t.AgentID,
		Status:  t.Status,
		Message: t.Error,
	})
}

// settle marks every task that never reached a terminal status as failed.
func (c *cycle) settle(reason string) {
	for i := range c.out.Tasks {
		if !c.out.Tasks[i].Status.Terminal() {
			c.out.Tasks[i].Status = models.TaskStatusFailed
			if c.out.Tasks[i].Error == "" {
				c.out.Tasks[i].Error = reason
			}
		}
	}
}

// runTask executes one plan step: up to MaxIterations attempts, then the
// human-input step when the task requires it.
func (e *Engine) runTask(ctx context.Context, c *cycle, step models.PlanStep, inputs []models.TaskOutput) models.TaskOutput {
	task, _ := e.tasks.Get(step.TaskID)
	spec := interpolate(task.Spec, c.request)
	result := models.TaskOutput{TaskID: step.TaskID, AgentID: step.AgentID}
	started := time.Now()

	ctx, span := tracing.StartSpan(ctx, "crew.task", map[string]string{
		"cycle_id": c.id,
		"task_id":  step.TaskID,
		"agent_id": step.AgentID,
	})

	agent, ok := e.agents.Get(step.AgentID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoAgent, step.TaskID)
		result.Status = models.TaskStatusFailed
		result.Error = err.Error()
		span.End(err)
		e.emitter.Emit(Event{Type: EventTaskFailed, CycleID: c.id, TaskID: step.TaskID, Status: result.Status, Error: err})
		return result
	}

	result.Status = models.TaskStatusInProgress
	e.emitter.Emit(Event{
		Type:    EventTaskStarted,
		CycleID: c.id,
		TaskID:  step.TaskID,
		AgentID: agent.ID(),
		Status:  result.Status,
		Message: spec.Description,
	})

	assignment := Assignment{
		CycleID: c.id,
		Request: c.request,
		Task:    spec,
		Agent:   agent,
		Context: inputs,
	}

	output, attempts, err := e.attempt(ctx, assignment)
	result.Attempts = attempts
	if err != nil {
		result.Status = models.TaskStatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(started)
		span.End(err)
		e.logger.Log("[engine] task %s failed after %d attempts: %v", step.TaskID, attempts, err)
		e.emitter.Emit(Event{
			Type:     EventTaskFailed,
			CycleID:  c.id,
			TaskID:   step.TaskID,
			AgentID:  agent.ID(),
			Status:   result.Status,
			Attempt:  attempts,
			Error:    err,
			Duration: result.Duration,
		})
		return result
	}

	if spec.HumanInput {
		result.Status = models.TaskStatusAwaitingInput
		output, result.HumanFeedback, err = e.review(ctx, c.id, assignment, output)
		if err != nil {
			result.Status = models.TaskStatusFailed
			result.Error = err.Error()
			result.Duration = time.Since(started)
			span.End(err)
			e.logger.Log("[engine] task %s failed at human input: %v", step.TaskID, err)
			e.emitter.Emit(Event{
				Type:     EventTaskFailed,
				CycleID:  c.id,
				TaskID:   step.TaskID,
				AgentID:  agent.ID(),
				Status:   result.Status,
				Attempt:  attempts,
				Error:    err,
				Duration: result.Duration,
			})
			return result
		}
	}

	result.Status = models.TaskStatusDone
	result.Output = output
	result.Duration = time.Since(started)
	span.End(nil)
	e.emitter.Emit(Event{
		Type:     EventTaskCompleted,
		CycleID:  c.id,
		TaskID:   step.TaskID,
		AgentID:  agent.ID(),
		Status:   result.Status,
		Attempt:  attempts,
		Duration: result.Duration,
	})
	return result
}

// attempt calls the executor until it succeeds or the task's budget is
// spent. It returns the answer, the number of attempts made and the last
// error. Cancellation stops further attempts.
func (e *Engine) attempt(ctx context.Context, a Assignment) (string, int, error) {
	budget := a.Task.Attempts()
	var lastErr error

	for n := 1; n <= budget; n++ {
		a.Attempt = n
		output, err := e.execute(ctx, a)
		if err == nil {
			return output, n, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", n, fmt.Errorf("attempt %d: %w", n, err)
		}
		if n == budget {
			break
		}

		e.logger.Log("[engine] task %s attempt %d/%d failed: %v", a.Task.ID, n, budget, err)
		e.emitter.Emit(Event{
			Type:    EventTaskRetry,
			CycleID: a.CycleID,
			TaskID:  a.Task.ID,
			AgentID: a.Agent.ID(),
			Attempt: n,
			Error:   err,
		})

		if e.opts.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", n, fmt.Errorf("attempt %d: %w", n, err)
			case <-time.After(e.opts.retryDelay):
			}
		}
	}

	return "", budget, fmt.Errorf("failed after %d attempts: %w", budget, lastErr)
}

func (e *Engine) execute(ctx context.Context, a Assignment) (string, error) {
	if e.opts.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.taskTimeout)
		defer cancel()
	}
	return e.executor.Execute(ctx, a)
}

// review solicits human feedback once. Non-empty feedback triggers a single
// revision call whose answer replaces the original; if that call fails the
// original answer stands. io.EOF from the prompt accepts the answer; any
// other prompt error fails the task.
func (e *Engine) review(ctx context.Context, cycleID string, a Assignment, output string) (string, string, error) {
	if e.opts.human == nil {
		return "", "", ErrHumanInputRequired
	}

	e.emitter.Emit(Event{
		Type:    EventTaskAwaitingInput,
		CycleID: cycleID,
		TaskID:  a.Task.ID,
		AgentID: a.Agent.ID(),
		Status:  models.TaskStatusAwaitingInput,
	})

	e.humanMu.Lock()
	feedback, err := e.opts.human.Feedback(ctx, a.Task, output)
	e.humanMu.Unlock()

	switch {
	case errors.Is(err, io.EOF):
		return output, "", nil
	case err != nil:
		return "", "", fmt.Errorf("human input: %w", err)
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return output, "", nil
	}

	a.Feedback = feedback
	a.PreviousOutput = output
	revised, err := e.execute(ctx, a)
	if err != nil {
		e.logger.Log("[engine] task %s revision failed, keeping original answer: %v", a.Task.ID, err)
		return output, feedback, nil
	}
	return revised, feedback, nil
}

func interpolate(spec models.TaskSpec, request string) models.TaskSpec {
	spec.Description = strings.ReplaceAll(spec.Description, requestPlaceholder, request)
	spec.ExpectedOutput = strings.ReplaceAll(spec.ExpectedOutput, requestPlaceholder, request)
	spec.Context = append([]string(nil), spec.Context...)
	return spec
}
