package models

// DefaultMaxIterations is the retry budget of a task that does not declare one.
const DefaultMaxIterations = 3

// TaskStatus represents the outcome state of a task within one execution cycle.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusAwaitingInput indicates the task is waiting for human feedback.
	TaskStatusAwaitingInput TaskStatus = "awaiting_input"
	// TaskStatusBlocked indicates a dependency failed so the task never ran.
	TaskStatusBlocked TaskStatus = "blocked"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task exhausted its retry budget.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusAwaitingInput,
		TaskStatusBlocked, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are possible in this cycle.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed || s == TaskStatusBlocked
}

// TaskSpec is a declarative task definition loaded from configuration.
type TaskSpec struct {
	// ID is the unique key of the task in the task collection.
	ID string `json:"id" yaml:"-" toml:"id"`
	// Description is the work to be done. May contain a {request} placeholder.
	Description string `json:"description" yaml:"description" toml:"description"`
	// ExpectedOutput describes what a finished answer looks like. May be empty.
	ExpectedOutput string `json:"expected_output,omitempty" yaml:"expected_output,omitempty" toml:"expected_output,omitempty"`
	// HumanInput requires interactive feedback before the task is marked done.
	HumanInput bool `json:"human_input,omitempty" yaml:"human_input,omitempty" toml:"human_input,omitempty"`
	// MaxIterations is the number of attempts allowed before the task fails.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" toml:"max_iterations,omitempty"`
	// AssignedAgent optionally pre-binds the task to an agent ID.
	AssignedAgent string `json:"assigned_agent,omitempty" yaml:"assigned_agent,omitempty" toml:"assigned_agent,omitempty"`
	// Context lists task IDs whose outputs feed this task.
	Context []string `json:"context,omitempty" yaml:"context,omitempty" toml:"context,omitempty"`
}

// Attempts returns the effective retry budget (at least one attempt).
func (t TaskSpec) Attempts() int {
	if t.MaxIterations < 1 {
		return DefaultMaxIterations
	}
	return t.MaxIterations
}
