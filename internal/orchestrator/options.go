package orchestrator

import (
	"time"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// RequiredConfig contains the minimal required configuration for an Engine.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Agents is the resolved agent catalog.
	Agents *catalog.AgentCatalog
	// Tasks is the executable task catalog.
	Tasks *catalog.TaskCatalog
	// Executor runs task attempts against a model.
	Executor Executor
}

// Option configures an Engine. Use With* functions to create Options.
type Option func(*engineOptions)

type engineOptions struct {
	process         models.Process
	binding         models.BindingMode
	planner         Planner
	human           HumanInput
	planningTimeout time.Duration
	taskTimeout     time.Duration
	retryDelay      time.Duration
	recorder        Recorder
	logger          *DebugLogger
	eventBuffer     int
}

func defaultOptions() engineOptions {
	return engineOptions{
		process:         models.ProcessSequential,
		binding:         models.BindingExplicit,
		planningTimeout: 2 * time.Minute,
		taskTimeout:     10 * time.Minute,
		eventBuffer:     100,
	}
}

// WithProcess sets the execution strategy.
func WithProcess(p models.Process) Option {
	return func(o *engineOptions) { o.process = p }
}

// WithBinding sets how tasks are bound to agents.
func WithBinding(b models.BindingMode) Option {
	return func(o *engineOptions) { o.binding = b }
}

// WithPlanner enables LLM planning. A nil planner means identity plans only.
func WithPlanner(p Planner) Option {
	return func(o *engineOptions) { o.planner = p }
}

// WithHumanInput sets the source of human feedback for tasks that require it.
func WithHumanInput(h HumanInput) Option {
	return func(o *engineOptions) { o.human = h }
}

// WithPlanningTimeout bounds each planning call. Zero disables the bound.
func WithPlanningTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.planningTimeout = d }
}

// WithTaskTimeout bounds each task attempt. Zero disables the bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.taskTimeout = d }
}

// WithRetryDelay sets the pause between failed attempts of a task.
func WithRetryDelay(d time.Duration) Option {
	return func(o *engineOptions) { o.retryDelay = d }
}

// WithRecorder sets the cycle journal.
func WithRecorder(r Recorder) Option {
	return func(o *engineOptions) { o.recorder = r }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(o *engineOptions) { o.eventBuffer = n }
}
