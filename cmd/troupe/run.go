package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/troupe/internal/api"
	"github.com/ShayCichocki/troupe/internal/orchestrator"
	"github.com/ShayCichocki/troupe/internal/session"
	"github.com/ShayCichocki/troupe/internal/signals"
	"github.com/ShayCichocki/troupe/internal/state"
	"github.com/ShayCichocki/troupe/internal/tracing"
	"github.com/ShayCichocki/troupe/internal/tui"
	"github.com/ShayCichocki/troupe/internal/version"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// resultWidth is the width of the rendered final answer box.
const resultWidth = 100

func runSession(cmd *cobra.Command, args []string) error {
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
	printWarnings(os.Stderr, c.warnings)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if cfg.Tracing.Enabled {
		if err := tracing.Init("troupe", version.Get(), cfg.Tracing.Output); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer tracing.Shutdown(context.Background())
	}

	logger := orchestrator.NewDebugLoggerForStateDir(cfg.StateDir)
	defer logger.Close()

	journal, err := state.OpenJournal(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	prompter := tui.NewPrompter(os.Stdin, os.Stdout)

	executor := api.NewAgentExecutor(api.ExecutorConfig{
		Client: client,
		OnStream: func(ev api.StreamEvent) {
			if ev.Type == "tool_use" {
				logger.Log("[executor] %s/%s calls %s", ev.TaskID, ev.AgentID, ev.Tool)
			}
		},
	})

	var planner orchestrator.Planner
	if plannerEnabled(cfg) {
		planner = api.NewPlanner(client, cfg.Defaults.PlanningModel)
	}

	opts := append(engineOptions(cfg, planner),
		orchestrator.WithHumanInput(tui.NewHumanInput(prompter, os.Stdout)),
		orchestrator.WithRecorder(journal),
		orchestrator.WithLogger(logger),
	)
	engine, err := orchestrator.New(orchestrator.RequiredConfig{
		Agents:   c.agents,
		Tasks:    c.tasks,
		Executor: executor,
	}, opts...)
	if err != nil {
		return fmt.Errorf("assemble crew: %w", err)
	}
	defer engine.Close()

	printer := tui.NewEventPrinter(os.Stderr)
	go printer.Run(engine.Events())

	cfgSession := session.Config{
		Crew:     engine,
		Prompter: prompter,
		Reporter: session.ReporterFunc(func(out *models.CrewOutput, err error) {
			fmt.Print(tui.RenderResult(out, err, resultWidth))
		}),
	}
	if watcher, err := signals.NewWatcher(cfg.StateDir); err != nil {
		log.Printf("[troupe] WARNING: stop signals unavailable: %v", err)
	} else {
		defer watcher.Close()
		cfgSession.Tracker = watcher
	}

	sess, err := session.New(cfgSession)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("%s %d agents, %d tasks, %s process\n",
		color.CyanString("troupe"), c.agents.Len(), c.tasks.Len(), engine.Process())

	runErr := sess.Run(ctx)

	if calls := client.Tracker().Calls(); calls > 0 {
		fmt.Println(color.HiBlackString(client.Tracker().Summary()))
	}
	fmt.Println("Goodbye!")
	return runErr
}
