package api

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/troupe/internal/orchestrator"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// Planner asks a model to order tasks and assign agents. Its result is
// validated by the orchestrator; any failure there falls back to the
// identity plan.
type Planner struct {
	runner *Runner
}

// NewPlanner creates a planner using model (empty = client default).
func NewPlanner(client *Client, model string) *Planner {
	return &Planner{runner: NewRunner(client).WithModel(model)}
}

var _ orchestrator.Planner = (*Planner)(nil)

// Plan returns the planned steps for req.
func (p *Planner) Plan(ctx context.Context, req orchestrator.PlanRequest) ([]models.PlanStep, error) {
	var steps []models.PlanStep
	if err := p.runner.RunJSON(ctx, planningSystemPrompt, planningPrompt(req), &steps); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("plan: empty step list returned")
	}
	return steps, nil
}
