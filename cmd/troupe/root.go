package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	agentsFlag  string
	tasksFlag   string
	processFlag string
	bindingFlag string
	noPlanning  bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Declarative multi-agent crews on Claude",
	Long: `troupe compiles a static description of agents and tasks into a
running crew and drives it from an interactive prompt.

Agents (role, goal, backstory, tools, model) are read from config/agents.yaml
and tasks (description, expected output, human input, retry budget) from
config/tasks.yaml. Each request you type runs one cycle: the crew plans who
does what, executes the tasks with retries, asks for your feedback where a
task requires it, and prints the result.

Type "exit" or "quit" to leave. Create a stop file with "troupe stop" to
cancel a running cycle without ending the session.`,
	SilenceUsage: true,
	RunE:         runSession,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: ~/.config/troupe/config.yaml merged with .troupe.yaml)")
	pf.StringVar(&agentsFlag, "agents", "", "Agent definitions file (overrides crew.agents)")
	pf.StringVar(&tasksFlag, "tasks", "", "Task definitions file (overrides crew.tasks)")
	pf.StringVar(&processFlag, "process", "", "Execution strategy: sequential or parallel")
	pf.StringVar(&bindingFlag, "binding", "", "Agent binding mode: explicit or planner")
	pf.BoolVar(&noPlanning, "no-planning", false, "Skip the LLM planner and run tasks in declared order")
	pf.BoolVar(&verboseFlag, "verbose", false, "Show internal log output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
