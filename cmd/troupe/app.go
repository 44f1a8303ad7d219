package main

import (
	"fmt"
	"io"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/ShayCichocki/troupe/internal/api"
	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/internal/config"
	"github.com/ShayCichocki/troupe/internal/crew"
	"github.com/ShayCichocki/troupe/internal/orchestrator"
	"github.com/ShayCichocki/troupe/internal/tools"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// loadConfig loads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if agentsFlag != "" {
		cfg.Crew.Agents = agentsFlag
	}
	if tasksFlag != "" {
		cfg.Crew.Tasks = tasksFlag
	}
	if processFlag != "" {
		cfg.Defaults.Process = processFlag
	}
	if bindingFlag != "" {
		cfg.Defaults.Binding = bindingFlag
	}
	if noPlanning {
		cfg.Defaults.Planning = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// quietLogs sends the standard logger to the void unless --verbose is set.
// It returns a function restoring the previous output.
func quietLogs() func() {
	if verboseFlag {
		return func() {}
	}
	original := log.Writer()
	log.SetOutput(io.Discard)
	return func() { log.SetOutput(original) }
}

// crewCatalogs is a loaded, resolved crew.
type crewCatalogs struct {
	def      *crew.Definition
	agents   *catalog.AgentCatalog
	tasks    *catalog.TaskCatalog
	warnings []catalog.Warning
}

// wantedTools lists the tool types referenced by any agent, in first-use order.
func wantedTools(agents []models.AgentSpec) []string {
	seen := make(map[string]bool)
	var wanted []string
	for _, a := range agents {
		for _, t := range a.Tools {
			if !seen[t] {
				seen[t] = true
				wanted = append(wanted, t)
			}
		}
	}
	return wanted
}

func toolConfig(cfg *config.Config) tools.Config {
	searchKey, _ := config.GetSearchAPIKey(cfg)
	return tools.Config{
		WorkDir:   cfg.Tools.WorkDir,
		Protected: cfg.Tools.Protected,
		Search: tools.SearchConfig{
			APIKey:   searchKey,
			Endpoint: cfg.Tools.Search.Endpoint,
			Results:  cfg.Tools.Search.Results,
		},
		Code: tools.CodeConfig{
			Shell:   cfg.Tools.Code.Shell,
			Timeout: cfg.Tools.Code.Timeout,
		},
	}
}

// loadCrew reads the definition documents and builds both catalogs. Only the
// tool types some agent asks for are constructed.
func loadCrew(cfg *config.Config) (*crewCatalogs, error) {
	def, err := crew.Load(cfg.Crew.Agents, cfg.Crew.Tasks)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewRegistry(toolConfig(cfg), wantedTools(def.Agents))
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	agents, agentWarnings := catalog.BuildAgents(def.Agents, registry, cfg.Defaults.Model)
	tasks, taskWarnings := catalog.BuildTasks(def.Tasks, agents)

	return &crewCatalogs{
		def:      def,
		agents:   agents,
		tasks:    tasks,
		warnings: append(agentWarnings, taskWarnings...),
	}, nil
}

// printWarnings writes resolution warnings in yellow.
func printWarnings(w io.Writer, warnings []catalog.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("⚠"), warn.String())
	}
}

// newClient creates the model client from configuration.
func newClient(cfg *config.Config) (*api.Client, error) {
	clientCfg := api.ClientConfig{
		Model:         anthropic.Model(cfg.Defaults.Model),
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	}
	if !cfg.Bedrock.Enabled {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w (set ANTHROPIC_API_KEY or anthropic.api_key)", err)
		}
		clientCfg.APIKey = key
	}

	client, err := api.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// plannerEnabled reports whether cycles consult the LLM planner.
func plannerEnabled(cfg *config.Config) bool {
	return cfg.Defaults.Planning || cfg.BindingMode() == models.BindingPlanner
}

// engineOptions translates configuration into engine options.
func engineOptions(cfg *config.Config, planner orchestrator.Planner) []orchestrator.Option {
	opts := []orchestrator.Option{
		orchestrator.WithProcess(cfg.ProcessStrategy()),
		orchestrator.WithBinding(cfg.BindingMode()),
		orchestrator.WithPlanningTimeout(cfg.Timeouts.Planning),
		orchestrator.WithTaskTimeout(cfg.Timeouts.Task),
		orchestrator.WithRetryDelay(cfg.Retry.Delay),
	}
	if planner != nil {
		opts = append(opts, orchestrator.WithPlanner(planner))
	}
	return opts
}
