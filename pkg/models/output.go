package models

import "time"

// PlanSource records how an execution plan was derived.
type PlanSource string

const (
	// PlanSourceIdentity is catalog order with pre-bound agents.
	PlanSourceIdentity PlanSource = "identity"
	// PlanSourcePlanner is an ordering/assignment returned by the planner.
	PlanSourcePlanner PlanSource = "planner"
)

// PlanStep assigns one task to one agent at a position in the plan.
type PlanStep struct {
	TaskID  string `json:"task"`
	AgentID string `json:"agent,omitempty"`
}

// TaskOutput is the result of one task within an execution cycle.
type TaskOutput struct {
	TaskID  string     `json:"task_id"`
	AgentID string     `json:"agent_id,omitempty"`
	Status  TaskStatus `json:"status"`
	// Output is the final answer produced by the agent.
	Output string `json:"output,omitempty"`
	// Attempts is the number of attempts made, including the successful one.
	Attempts int `json:"attempts"`
	// HumanFeedback is the text entered during the human-input step.
	HumanFeedback string `json:"human_feedback,omitempty"`
	// Error is the last error message for failed or blocked tasks.
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CrewOutput is the aggregate result of one execution cycle.
type CrewOutput struct {
	CycleID    string       `json:"cycle_id"`
	Request    string       `json:"request"`
	Process    Process      `json:"process"`
	PlanSource PlanSource   `json:"plan_source"`
	Plan       []PlanStep   `json:"plan"`
	Tasks      []TaskOutput `json:"tasks"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Final returns the output of the last completed task in plan order.
func (c *CrewOutput) Final() string {
	if c == nil {
		return ""
	}
	for i := len(c.Tasks) - 1; i >= 0; i-- {
		if c.Tasks[i].Status == TaskStatusDone {
			return c.Tasks[i].Output
		}
	}
	return ""
}

// Counts returns the number of done, failed and blocked tasks.
func (c *CrewOutput) Counts() (done, failed, blocked int) {
	if c == nil {
		return 0, 0, 0
	}
	for _, t := range c.Tasks {
		switch t.Status {
		case TaskStatusDone:
			done++
		case TaskStatusFailed:
			failed++
		case TaskStatusBlocked:
			blocked++
		}
	}
	return done, failed, blocked
}

// Succeeded returns true if every task in the cycle completed.
func (c *CrewOutput) Succeeded() bool {
	_, failed, blocked := c.Counts()
	return failed == 0 && blocked == 0
}
