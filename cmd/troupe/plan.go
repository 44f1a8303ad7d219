package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/troupe/internal/api"
	"github.com/ShayCichocki/troupe/internal/orchestrator"
	"github.com/ShayCichocki/troupe/internal/tui"
	"github.com/ShayCichocki/troupe/pkg/models"
)

var errPreviewOnly = errors.New("plan preview does not execute tasks")

var planCmd = &cobra.Command{
	Use:   "plan <request>",
	Short: "Preview the execution plan for a request",
	Long: `Show which agent would run each task, and in what order, for a request.

With planning enabled the LLM planner is consulted exactly as in a session,
including the fallback to declared order when its answer is unusable. With
--no-planning the declared order is shown without calling any model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		restore := quietLogs()
		defer restore()

		c, err := loadCrew(cfg)
		if err != nil {
			return err
		}

		var planner orchestrator.Planner
		if plannerEnabled(cfg) {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			planner = api.NewPlanner(client, cfg.Defaults.PlanningModel)
		}

		noop := orchestrator.ExecutorFunc(func(context.Context, orchestrator.Assignment) (string, error) {
			return "", errPreviewOnly
		})
		noReview := orchestrator.HumanInputFunc(func(context.Context, models.TaskSpec, string) (string, error) {
			return "", errPreviewOnly
		})
		opts := append(engineOptions(cfg, planner), orchestrator.WithHumanInput(noReview))
		engine, err := orchestrator.New(orchestrator.RequiredConfig{
			Agents:   c.agents,
			Tasks:    c.tasks,
			Executor: noop,
		}, opts...)
		if err != nil {
			return fmt.Errorf("assemble crew: %w", err)
		}
		defer engine.Close()

		plan := engine.Plan(cmd.Context(), strings.Join(args, " "))
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlan(plan.Steps, plan.Source, plan.Warnings))
		return nil
	},
}
