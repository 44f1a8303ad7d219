package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/troupe/internal/config"
	"github.com/ShayCichocki/troupe/internal/tools"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// scaffoldDir writes the init files into a temp dir and returns a config
// pointing at them.
func scaffoldDir(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range scaffold(dir) {
		if _, err := writeScaffoldFile(f, false); err != nil {
			t.Fatalf("writeScaffoldFile(%s) failed: %v", f.path, err)
		}
	}

	cfg := config.Default()
	cfg.Crew.Agents = filepath.Join(dir, "config", "agents.yaml")
	cfg.Crew.Tasks = filepath.Join(dir, "config", "tasks.yaml")
	cfg.StateDir = filepath.Join(dir, ".troupe")
	return dir, cfg
}

func TestWantedTools(t *testing.T) {
	agents := []models.AgentSpec{
		{ID: "a", Tools: []string{"search", "code"}},
		{ID: "b", Tools: []string{"code", "telepathy"}},
		{ID: "c"},
	}
	got := wantedTools(agents)
	want := []string{"search", "code", "telepathy"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("wantedTools() = %v, want %v", got, want)
	}
}

func TestScaffold_LoadsCleanly(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-serper-key")
	_, cfg := scaffoldDir(t)

	c, err := loadCrew(cfg)
	if err != nil {
		t.Fatalf("loadCrew failed: %v", err)
	}
	if len(c.warnings) != 0 {
		t.Errorf("expected no warnings, got %v", c.warnings)
	}
	if c.agents.Len() != 2 || c.tasks.Len() != 2 {
		t.Fatalf("got %d agents and %d tasks, want 2 and 2", c.agents.Len(), c.tasks.Len())
	}

	write, ok := c.tasks.Get("write")
	if !ok {
		t.Fatal("write task missing")
	}
	if !write.Spec.HumanInput {
		t.Error("write task should require human input")
	}
	if len(write.Spec.Context) != 1 || write.Spec.Context[0] != "research" {
		t.Errorf("write context = %v, want [research]", write.Spec.Context)
	}
	if !strings.Contains(write.Spec.Description, "{request}") {
		t.Errorf("write description should reference the request: %q", write.Spec.Description)
	}

	researcher, ok := c.agents.Get("researcher")
	if !ok {
		t.Fatal("researcher missing")
	}
	if len(researcher.Tools()) != 1 || researcher.Tools()[0].Name() != tools.TypeSearch {
		t.Errorf("researcher tools = %v", researcher.Tools())
	}
}

func TestLoadCrew_MissingSearchKey(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "")
	_, cfg := scaffoldDir(t)

	_, err := loadCrew(cfg)
	if !errors.Is(err, tools.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestWriteScaffoldFile_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}

	written, err := writeScaffoldFile(scaffoldFile{path: path, content: "theirs"}, false)
	if err != nil || written {
		t.Fatalf("written=%v err=%v, want false and nil", written, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "mine" {
		t.Errorf("existing file overwritten: %q", data)
	}

	written, err = writeScaffoldFile(scaffoldFile{path: path, content: "theirs"}, true)
	if err != nil || !written {
		t.Fatalf("forced write: written=%v err=%v", written, err)
	}
}

func TestConfigValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"defaults.process", "parallel", "parallel"},
		{"defaults.planning", "false", "false"},
		{"timeouts.task", "90s", "1m30s"},
		{"retry.delay", "2s", "2s"},
		{"journal.path", "j.db", "j.db"},
		{"Tracing.Enabled", "true", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := config.Default()
			if err := setConfigValue(cfg, tt.key, tt.value); err != nil {
				t.Fatalf("setConfigValue failed: %v", err)
			}
			got, err := getConfigValue(cfg, tt.key)
			if err != nil {
				t.Fatalf("getConfigValue failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfigValues_Errors(t *testing.T) {
	cfg := config.Default()
	if err := setConfigValue(cfg, "timeouts.task", "soon"); err == nil {
		t.Error("expected invalid duration error")
	}
	if err := setConfigValue(cfg, "defaults.planning", "maybe"); err == nil {
		t.Error("expected invalid boolean error")
	}
	if _, err := getConfigValue(cfg, "no.such.key"); err == nil {
		t.Error("expected unknown key error")
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	if got, _ := getConfigValue(cfg, "anthropic.api_key"); got != "(not set)" {
		t.Errorf("unset api key displayed as %q", got)
	}
	if got, _ := getConfigValue(cfg, "journal.path"); got != "(in memory)" {
		t.Errorf("empty journal path displayed as %q", got)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := config.Default()
	if len(engineOptions(cfg, nil)) != 5 {
		t.Errorf("expected 5 options without planner")
	}

	cfg.Defaults.Planning = false
	if plannerEnabled(cfg) {
		t.Error("planning disabled in explicit mode should skip the planner")
	}
	cfg.Defaults.Binding = string(models.BindingPlanner)
	if !plannerEnabled(cfg) {
		t.Error("planner binding always needs the planner")
	}
}

// runCLI executes the root command with args and resets global flags after.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath, agentsFlag, tasksFlag, processFlag, bindingFlag = "", "", "", "", ""
		noPlanning, verboseFlag, validateStrict = false, false, false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-serper-key")
	_, cfg := scaffoldDir(t)

	out, err := runCLI(t, "validate", "--config", writeConfigFile(t, cfg))
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Agents (2)", "researcher", "Tasks (2)", "human input", "after research", "crew is valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand_StrictFailsOnWarnings(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-serper-key")
	dir, cfg := scaffoldDir(t)

	tasks := filepath.Join(dir, "config", "tasks.yaml")
	extra := "\nhaunt:\n  description: Boo\n  assigned_agent: ghost\n"
	f, err := os.OpenFile(tasks, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(extra)
	f.Close()

	out, err := runCLI(t, "validate", "--strict", "--config", writeConfigFile(t, cfg))
	if err == nil {
		t.Fatalf("expected strict validation to fail:\n%s", out)
	}
	if !strings.Contains(out, "ghost") {
		t.Errorf("warning about ghost agent missing:\n%s", out)
	}
}

func TestPlanCommand_DeclaredOrder(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-serper-key")
	_, cfg := scaffoldDir(t)

	out, err := runCLI(t, "plan", "--no-planning", "--config", writeConfigFile(t, cfg), "explain", "goroutines")
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	for _, want := range []string{"identity", "1. research", "researcher", "2. write", "writer"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	_, cfg := scaffoldDir(t)
	out, err := runCLI(t, "history", "--config", writeConfigFile(t, cfg))
	if err == nil {
		t.Fatalf("history without journal.path should fail:\n%s", out)
	}

	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	out, err = runCLI(t, "history", "--config", writeConfigFile(t, cfg))
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No cycles recorded.") {
		t.Errorf("unexpected history output:\n%s", out)
	}
}

func TestStopCommand(t *testing.T) {
	_, cfg := scaffoldDir(t)
	if _, err := runCLI(t, "stop", "--config", writeConfigFile(t, cfg)); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.StateDir, "signals", "stop")); err != nil {
		t.Errorf("stop file not written: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil || !strings.HasPrefix(out, "troupe version ") {
		t.Errorf("version output %q, err %v", out, err)
	}
}
