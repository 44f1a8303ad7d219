package models

// Process is the execution strategy of a crew.
type Process string

const (
	// ProcessSequential runs one task at a time in plan order.
	ProcessSequential Process = "sequential"
	// ProcessParallel runs tasks without unmet dependencies concurrently.
	ProcessParallel Process = "parallel"
)

// Valid returns true if the process is a known value.
func (p Process) Valid() bool {
	switch p {
	case ProcessSequential, ProcessParallel:
		return true
	default:
		return false
	}
}

// BindingMode decides who assigns agents to tasks.
type BindingMode string

const (
	// BindingExplicit keeps per-task agent assignments from configuration.
	// The planner, when enabled, only orders tasks and fills unbound ones.
	BindingExplicit BindingMode = "explicit"
	// BindingPlanner treats tasks as an open pool and lets the planner
	// assign every task. Configured assignments are only a fallback.
	BindingPlanner BindingMode = "planner"
)

// Valid returns true if the binding mode is a known value.
func (b BindingMode) Valid() bool {
	switch b {
	case BindingExplicit, BindingPlanner:
		return true
	default:
		return false
	}
}
