package orchestrator

import (
	"time"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventCycleStarted indicates a request was accepted and a cycle began.
	EventCycleStarted EventType = "cycle_started"
	// EventPlanReady indicates the execution plan is fixed for this cycle.
	EventPlanReady EventType = "plan_ready"
	// EventPlanFallback indicates the planner failed and the identity plan is used.
	EventPlanFallback EventType = "plan_fallback"
	// EventTaskStarted indicates a task has started execution.
	EventTaskStarted EventType = "task_started"
	// EventTaskRetry indicates a task attempt failed and another will follow.
	EventTaskRetry EventType = "task_retry"
	// EventTaskAwaitingInput indicates a task is waiting for human feedback.
	EventTaskAwaitingInput EventType = "task_awaiting_input"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task exhausted its attempts.
	EventTaskFailed EventType = "task_failed"
	// EventTaskBlocked indicates a task will not run because a dependency did not finish.
	EventTaskBlocked EventType = "task_blocked"
	// EventCycleDone indicates the cycle finished, successfully or not.
	EventCycleDone EventType = "cycle_done"
)

// Event is emitted by the engine while a cycle runs. Subscribers (the
// console renderer, tests) read them from Engine.Events.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// CycleID identifies the cycle the event belongs to.
	CycleID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// AgentID is the ID of the related agent, if applicable.
	AgentID string
	// Status is the task status the event moves the task to.
	Status models.TaskStatus
	// Attempt is the 1-based attempt number for task events.
	Attempt int
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time for completion events.
	Duration time.Duration
}
