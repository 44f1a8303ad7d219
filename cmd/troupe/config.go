package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/troupe/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify troupe configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/troupe/config.yaml
Project-specific overrides can be placed in .troupe.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			displayAllConfig(out, cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// configKeys lists the keys shown by `troupe config`, in display order.
var configKeys = []string{
	"anthropic.api_key",
	"bedrock.enabled",
	"bedrock.region",
	"defaults.model",
	"defaults.planning_model",
	"defaults.process",
	"defaults.binding",
	"defaults.planning",
	"crew.agents",
	"crew.tasks",
	"timeouts.planning",
	"timeouts.task",
	"retry.delay",
	"tools.search.api_key",
	"tools.code.timeout",
	"journal.path",
	"tracing.enabled",
	"state_dir",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		k, _ := config.GetAPIKey(cfg)
		return config.MaskAPIKey(k), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "defaults.model":
		return cfg.Defaults.Model, nil
	case "defaults.planning_model":
		return cfg.Defaults.PlanningModel, nil
	case "defaults.process":
		return cfg.Defaults.Process, nil
	case "defaults.binding":
		return cfg.Defaults.Binding, nil
	case "defaults.planning":
		return strconv.FormatBool(cfg.Defaults.Planning), nil
	case "crew.agents":
		return cfg.Crew.Agents, nil
	case "crew.tasks":
		return cfg.Crew.Tasks, nil
	case "timeouts.planning":
		return cfg.Timeouts.Planning.String(), nil
	case "timeouts.task":
		return cfg.Timeouts.Task.String(), nil
	case "retry.delay":
		return cfg.Retry.Delay.String(), nil
	case "tools.search.api_key":
		k, _ := config.GetSearchAPIKey(cfg)
		return config.MaskAPIKey(k), nil
	case "tools.code.timeout":
		return cfg.Tools.Code.Timeout.String(), nil
	case "journal.path":
		if cfg.Journal.Path == "" {
			return "(in memory)", nil
		}
		return cfg.Journal.Path, nil
	case "tracing.enabled":
		return strconv.FormatBool(cfg.Tracing.Enabled), nil
	case "state_dir":
		return cfg.StateDir, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	parseDuration := func(name string) (time.Duration, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", name, err)
		}
		return d, nil
	}
	parseBool := func(name string) (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", name, err)
		}
		return b, nil
	}

	var err error
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "bedrock.enabled":
		cfg.Bedrock.Enabled, err = parseBool(key)
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "defaults.model":
		cfg.Defaults.Model = value
	case "defaults.planning_model":
		cfg.Defaults.PlanningModel = value
	case "defaults.process":
		cfg.Defaults.Process = value
	case "defaults.binding":
		cfg.Defaults.Binding = value
	case "defaults.planning":
		cfg.Defaults.Planning, err = parseBool(key)
	case "crew.agents":
		cfg.Crew.Agents = value
	case "crew.tasks":
		cfg.Crew.Tasks = value
	case "timeouts.planning":
		cfg.Timeouts.Planning, err = parseDuration(key)
	case "timeouts.task":
		cfg.Timeouts.Task, err = parseDuration(key)
	case "retry.delay":
		cfg.Retry.Delay, err = parseDuration(key)
	case "tools.code.timeout":
		cfg.Tools.Code.Timeout, err = parseDuration(key)
	case "journal.path":
		cfg.Journal.Path = value
	case "tracing.enabled":
		cfg.Tracing.Enabled, err = parseBool(key)
	case "state_dir":
		cfg.StateDir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}
