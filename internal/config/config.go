// Package config handles configuration loading and management for troupe.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// Config holds all configuration for troupe.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Crew      CrewConfig      `mapstructure:"crew"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	// StateDir holds logs and the signals directory.
	StateDir string `mapstructure:"state_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BedrockConfig routes model calls through AWS Bedrock instead of the direct API.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// DefaultsConfig holds default values for execution cycles.
type DefaultsConfig struct {
	// Model is the binding applied to agents that omit one.
	Model string `mapstructure:"model"`
	// PlanningModel is the model used by the planner.
	PlanningModel string `mapstructure:"planning_model"`
	// Process is "sequential" or "parallel".
	Process string `mapstructure:"process"`
	// Binding is "explicit" or "planner".
	Binding string `mapstructure:"binding"`
	// Planning enables the LLM planner in explicit binding mode.
	Planning bool `mapstructure:"planning"`
}

// CrewConfig points at the agent and task definition documents.
type CrewConfig struct {
	Agents string `mapstructure:"agents"`
	Tasks  string `mapstructure:"tasks"`
}

// TimeoutsConfig holds timeouts for external collaborators.
type TimeoutsConfig struct {
	Planning time.Duration `mapstructure:"planning"`
	Task     time.Duration `mapstructure:"task"`
}

// RetryConfig holds per-task retry settings.
type RetryConfig struct {
	// Delay is the pause between failed attempts of the same task.
	Delay time.Duration `mapstructure:"delay"`
}

// ToolsConfig holds settings for the built-in tool types.
type ToolsConfig struct {
	Search SearchToolConfig `mapstructure:"search"`
	Code   CodeToolConfig   `mapstructure:"code"`
	// WorkDir is the directory file and code tools operate in.
	WorkDir string `mapstructure:"work_dir"`
	// Protected adds globs for files read_file must never open, on top of
	// the built-in secret patterns.
	Protected []string `mapstructure:"protected"`
}

// SearchToolConfig configures the web search tool.
type SearchToolConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Results  int    `mapstructure:"results"`
}

// CodeToolConfig configures the code execution tool.
type CodeToolConfig struct {
	Shell   string        `mapstructure:"shell"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// JournalConfig configures the cycle journal.
type JournalConfig struct {
	// Path is the SQLite file. Empty keeps the journal in memory for the session.
	Path string `mapstructure:"path"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"`
}

// ProcessStrategy returns the configured process as a typed value.
func (c *Config) ProcessStrategy() models.Process {
	return models.Process(c.Defaults.Process)
}

// BindingMode returns the configured binding mode as a typed value.
func (c *Config) BindingMode() models.BindingMode {
	return models.BindingMode(c.Defaults.Binding)
}

// Validate checks enumerated values that viper cannot type-check.
func (c *Config) Validate() error {
	if !c.ProcessStrategy().Valid() {
		return fmt.Errorf("invalid defaults.process %q (want sequential or parallel)", c.Defaults.Process)
	}
	if !c.BindingMode().Valid() {
		return fmt.Errorf("invalid defaults.binding %q (want explicit or planner)", c.Defaults.Binding)
	}
	if c.Timeouts.Planning < 0 || c.Timeouts.Task < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SERPER_API_KEY)
// 2. Project config (.troupe.yaml in current directory or parent)
// 3. User config (~/.config/troupe/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing and --config).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("tools.search.api_key", "SERPER_API_KEY")
	_ = v.BindEnv("bedrock.region", "AWS_REGION")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Tools.Search.APIKey = expandEnv(cfg.Tools.Search.APIKey)
	cfg.Crew.Agents = expandEnv(cfg.Crew.Agents)
	cfg.Crew.Tasks = expandEnv(cfg.Crew.Tasks)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the user-editable settings to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the user-editable settings to path. Credentials are only
// written when set, and ${VAR} references are not preserved.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	if cfg.Anthropic.APIKey != "" {
		v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	}
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("bedrock.profile", cfg.Bedrock.Profile)
	v.Set("defaults.model", cfg.Defaults.Model)
	v.Set("defaults.planning_model", cfg.Defaults.PlanningModel)
	v.Set("defaults.process", cfg.Defaults.Process)
	v.Set("defaults.binding", cfg.Defaults.Binding)
	v.Set("defaults.planning", cfg.Defaults.Planning)
	v.Set("crew.agents", cfg.Crew.Agents)
	v.Set("crew.tasks", cfg.Crew.Tasks)
	v.Set("timeouts.planning", cfg.Timeouts.Planning.String())
	v.Set("timeouts.task", cfg.Timeouts.Task.String())
	v.Set("retry.delay", cfg.Retry.Delay.String())
	v.Set("tools.work_dir", cfg.Tools.WorkDir)
	v.Set("tools.code.shell", cfg.Tools.Code.Shell)
	v.Set("tools.code.timeout", cfg.Tools.Code.Timeout.String())
	v.Set("tools.search.results", cfg.Tools.Search.Results)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("tracing.enabled", cfg.Tracing.Enabled)
	v.Set("tracing.output", cfg.Tracing.Output)
	v.Set("state_dir", cfg.StateDir)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("defaults.model", models.DefaultModel)
	v.SetDefault("defaults.planning_model", models.DefaultModel)
	v.SetDefault("defaults.process", string(models.ProcessSequential))
	v.SetDefault("defaults.binding", string(models.BindingExplicit))
	v.SetDefault("defaults.planning", true)

	v.SetDefault("crew.agents", filepath.Join("config", "agents.yaml"))
	v.SetDefault("crew.tasks", filepath.Join("config", "tasks.yaml"))

	v.SetDefault("timeouts.planning", "2m")
	v.SetDefault("timeouts.task", "10m")

	v.SetDefault("retry.delay", "0s")

	v.SetDefault("tools.work_dir", ".")
	v.SetDefault("tools.protected", []string{})
	v.SetDefault("tools.search.api_key", "")
	v.SetDefault("tools.search.endpoint", "https://google.serper.dev/search")
	v.SetDefault("tools.search.results", 5)
	v.SetDefault("tools.code.shell", "bash")
	v.SetDefault("tools.code.timeout", "2m")

	v.SetDefault("journal.path", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.output", "")

	v.SetDefault("state_dir", ".troupe")
}

// getUserConfigDir returns the XDG config directory for troupe.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "troupe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "troupe")
	}
	return filepath.Join(home, ".config", "troupe")
}

// findProjectConfig searches for .troupe.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".troupe.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Model:         models.DefaultModel,
			PlanningModel: models.DefaultModel,
			Process:       string(models.ProcessSequential),
			Binding:       string(models.BindingExplicit),
			Planning:      true,
		},
		Crew: CrewConfig{
			Agents: filepath.Join("config", "agents.yaml"),
			Tasks:  filepath.Join("config", "tasks.yaml"),
		},
		Timeouts: TimeoutsConfig{
			Planning: 2 * time.Minute,
			Task:     10 * time.Minute,
		},
		Tools: ToolsConfig{
			WorkDir: ".",
			Search: SearchToolConfig{
				Endpoint: "https://google.serper.dev/search",
				Results:  5,
			},
			Code: CodeToolConfig{
				Shell:   "bash",
				Timeout: 2 * time.Minute,
			},
		},
		StateDir: ".troupe",
	}
}
