package api

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/internal/orchestrator"
)

// agentSystemPrompt frames the model as the agent.
func agentSystemPrompt(agent *catalog.ResolvedAgent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n", agent.Role())
	if agent.Backstory() != "" {
		fmt.Fprintf(&b, "%s\n", agent.Backstory())
	}
	fmt.Fprintf(&b, "\nYour personal goal is: %s\n", agent.Goal())

	bound := agent.Tools()
	if len(bound) > 0 {
		b.WriteString("\nYou can use these tools when they help:\n")
		for _, t := range bound {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		}
	}
	b.WriteString("\nWhen you are done, reply with your complete final answer and nothing else.")
	return b.String()
}

// taskPrompt renders the user turn for an assignment.
func taskPrompt(a orchestrator.Assignment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Task\n%s\n", a.Task.Description)
	if a.Task.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\n## Expected output\n%s\n", a.Task.ExpectedOutput)
	}
	if a.Request != "" {
		fmt.Fprintf(&b, "\n## User request\n%s\n", a.Request)
	}

	if len(a.Context) > 0 {
		b.WriteString("\n## Context from previous tasks\n")
		for _, c := range a.Context {
			fmt.Fprintf(&b, "\n### %s\n%s\n", c.TaskID, c.Output)
		}
	}

	if a.Revision() {
		fmt.Fprintf(&b, "\n## Your previous answer\n%s\n", a.PreviousOutput)
		fmt.Fprintf(&b, "\n## Human feedback\n%s\n\nRevise your answer to address the feedback.\n", a.Feedback)
	} else if a.Attempt > 1 {
		fmt.Fprintf(&b, "\nThis is attempt %d; the previous attempt did not produce an answer.\n", a.Attempt)
	}

	return b.String()
}

// planningSystemPrompt is the system prompt for the planner.
const planningSystemPrompt = `You are the planning lead of a crew of AI agents. You decide the order in which tasks run and which agent runs each task. You only use the task and agent IDs you are given.`

// planningPrompt renders the planning request.
func planningPrompt(req orchestrator.PlanRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User request:\n%s\n\nAgents:\n", req.Request)
	for _, a := range req.Agents {
		fmt.Fprintf(&b, "- id: %s\n  role: %s\n  goal: %s\n", a.ID(), a.Role(), a.Goal())
		if bound := a.Tools(); len(bound) > 0 {
			names := make([]string, len(bound))
			for i, t := range bound {
				names[i] = t.Name()
			}
			fmt.Fprintf(&b, "  tools: %s\n", strings.Join(names, ", "))
		}
	}

	b.WriteString("\nTasks (in declared order):\n")
	for _, t := range req.Tasks {
		fmt.Fprintf(&b, "- id: %s\n  description: %s\n", t.ID(), t.Spec.Description)
		if t.Spec.ExpectedOutput != "" {
			fmt.Fprintf(&b, "  expected_output: %s\n", t.Spec.ExpectedOutput)
		}
		if len(t.Spec.Context) > 0 {
			fmt.Fprintf(&b, "  depends_on: %s\n", strings.Join(t.Spec.Context, ", "))
		}
		if t.Bound() && !req.AssignAll {
			fmt.Fprintf(&b, "  agent: %s (fixed)\n", t.Agent.ID())
		}
	}

	b.WriteString(`
Return ONLY a JSON array with one entry per task, in execution order (no other text):
[
  {"task": "task id", "agent": "agent id"}
]

Rules:
- Every task must run after the tasks it depends_on
- Keep fixed agents as given
`)
	if req.AssignAll {
		b.WriteString("- Assign an agent to every task, choosing the best role for the work\n")
	} else {
		b.WriteString("- Assign an agent to every task without a fixed agent\n")
	}
	return b.String()
}
