package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/internal/graph"
	"github.com/ShayCichocki/troupe/internal/tracing"
	"github.com/ShayCichocki/troupe/pkg/models"
)

var (
	// ErrCyclePanic is returned by Kickoff when a cycle panicked.
	ErrCyclePanic = errors.New("execution cycle panicked")
	// ErrCycleCancelled is returned by Kickoff when the cycle context ended early.
	ErrCycleCancelled = errors.New("execution cycle cancelled")
	// ErrCycleInProgress is returned when Kickoff is called while a cycle runs.
	ErrCycleInProgress = errors.New("execution cycle already in progress")
	// ErrNoAgent marks a task that has no agent to run it.
	ErrNoAgent = errors.New("no agent available for task")
	// ErrPlannerRequired is returned by New for planner binding without a planner.
	ErrPlannerRequired = errors.New("planner binding requires a planner")
	// ErrHumanInputRequired is returned by New when a task needs human input
	// and no HumanInput collaborator is configured.
	ErrHumanInputRequired = errors.New("task requires human input but none is configured")
)

// State is the lifecycle state of the engine's current or last cycle.
type State string

const (
	StateAssembled State = "assembled"
	StatePlanned   State = "planned"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Engine executes requests against a fixed crew. Catalogs are read-only for
// the engine's lifetime; cycles run one at a time.
type Engine struct {
	agents   *catalog.AgentCatalog
	tasks    *catalog.TaskCatalog
	executor Executor
	opts     engineOptions
	deps     *graph.DependencyGraph
	emitter  *EventEmitter
	logger   *DebugLogger

	cycleMu sync.Mutex
	humanMu sync.Mutex

	stateMu sync.RWMutex
	state   State
}

// New assembles an engine from the catalogs and an executor.
func New(req RequiredConfig, opts ...Option) (*Engine, error) {
	if req.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if req.Agents == nil || req.Tasks == nil {
		return nil, errors.New("agent and task catalogs are required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.process.Valid() {
		return nil, fmt.Errorf("unknown process %q", o.process)
	}
	if !o.binding.Valid() {
		return nil, fmt.Errorf("unknown binding mode %q", o.binding)
	}
	if o.binding == models.BindingPlanner && o.planner == nil {
		return nil, ErrPlannerRequired
	}
	if o.human == nil {
		for _, t := range req.Tasks.Tasks() {
			if t.Spec.HumanInput {
				return nil, fmt.Errorf("%w: %s", ErrHumanInputRequired, t.ID())
			}
		}
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}

	deps := graph.New()
	deps.SetDebugLog(o.logger.Log)
	if err := deps.Build(contextNodes(req.Tasks)); err != nil {
		return nil, fmt.Errorf("build task graph: %w", err)
	}

	return &Engine{
		agents:   req.Agents,
		tasks:    req.Tasks,
		executor: req.Executor,
		opts:     o,
		deps:     deps,
		emitter:  NewEventEmitter(o.eventBuffer),
		logger:   o.logger,
		state:    StateAssembled,
	}, nil
}

func contextNodes(tasks *catalog.TaskCatalog) []graph.Node {
	all := tasks.Tasks()
	nodes := make([]graph.Node, len(all))
	for i, t := range all {
		nodes[i] = graph.Node{ID: t.ID(), DependsOn: t.Spec.Context}
	}
	return nodes
}

// Events returns the engine's event stream. It is closed by Close.
func (e *Engine) Events() <-chan Event {
	return e.emitter.Events()
}

// State returns the state of the current or last cycle.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
	e.logger.Log("[engine] state -> %s", s)
}

// Process returns the configured execution strategy.
func (e *Engine) Process() models.Process { return e.opts.process }

// Plan derives the plan Kickoff would use for request without running it.
func (e *Engine) Plan(ctx context.Context, request string) *ExecutionPlan {
	return e.buildPlan(ctx, "preview", request)
}

// Close releases the event stream. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.emitter.Close()
}

// Kickoff runs one full execution cycle for request. Task failures are
// reported in the returned output; the error is non-nil only for
// cycle-level failures (cancellation, panics, concurrent use). Kickoff never
// panics.
func (e *Engine) Kickoff(ctx context.Context, request string) (out *models.CrewOutput, err error) {
	if !e.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer e.cycleMu.Unlock()

	cycleID := uuid.New().String()
	out = &models.CrewOutput{
		CycleID:   cycleID,
		Request:   request,
		Process:   e.opts.process,
		StartedAt: time.Now(),
	}

	ctx, span := tracing.StartSpan(ctx, "crew.cycle", map[string]string{
		"cycle_id": cycleID,
		"process":  string(e.opts.process),
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, r)
			log.Printf("[orchestrator] ERROR: cycle %s panicked: %v", cycleID, r)
		}
		out.FinishedAt = time.Now()

		if err != nil || !out.Succeeded() {
			e.setState(StateFailed)
		} else {
			e.setState(StateCompleted)
		}
		span.End(err)
		e.record(ctx, out)

		done, failed, blocked := out.Counts()
		e.emitter.Emit(Event{
			Type:     EventCycleDone,
			CycleID:  cycleID,
			Message:  fmt.Sprintf("%d done, %d failed, %d blocked", done, failed, blocked),
			Error:    err,
			Duration: out.FinishedAt.Sub(out.StartedAt),
		})
	}()

	e.setState(StateAssembled)
	e.logger.Log("[engine] cycle %s started: %q", cycleID, request)
	e.emitter.Emit(Event{Type: EventCycleStarted, CycleID: cycleID, Message: request})

	plan := e.buildPlan(ctx, cycleID, request)
	out.PlanSource = plan.Source
	out.Plan = plan.Steps
	e.setState(StatePlanned)
	e.emitter.Emit(Event{
		Type:    EventPlanReady,
		CycleID: cycleID,
		Message: fmt.Sprintf("%d tasks (%s)", len(plan.Steps), plan.Source),
	})

	e.setState(StateExecuting)
	run := &cycle{engine: e, id: cycleID, request: request, plan: plan, out: out}
	out.Tasks = make([]models.TaskOutput, len(plan.Steps))

	switch e.opts.process {
	case models.ProcessParallel:
		err = run.parallel(ctx)
	default:
		run.sequential(ctx)
	}

	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ErrCycleCancelled, ctx.Err())
	}
	return out, err
}

func (e *Engine) record(ctx context.Context, out *models.CrewOutput) {
	if e.opts.recorder == nil {
		return
	}
	if err := e.opts.recorder.RecordCycle(context.WithoutCancel(ctx), out); err != nil {
		log.Printf("[orchestrator] WARNING: failed to record cycle %s: %v", out.CycleID, err)
	}
}
