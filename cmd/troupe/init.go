package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create an example crew",
	Long: `Create example agent and task definitions and a project config.

Files created:
  config/agents.yaml   a researcher and a writer
  config/tasks.yaml    a research task feeding a reviewed writing task
  .troupe.yaml         project configuration template

Existing files are left alone unless --force is given.

Examples:
  troupe init              # Initialize current directory
  troupe init ./mycrew     # Initialize specific directory
  troupe init --force      # Overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

const exampleAgents = `# Agents keyed by ID. role, goal and backstory are required.
# tools may be plain type names or {type: name} objects.
researcher:
  role: Senior Researcher
  goal: Find accurate, current facts on any subject
  backstory: >
    You dig through sources quickly and never report a claim you could not
    trace back to something you read.
  tools:
    - type: search

writer:
  role: Technical Writer
  goal: Turn research into a clear, well structured answer
  backstory: >
    You write for busy engineers: short paragraphs, concrete examples and no
    filler.
  llm: claude-sonnet-4-20250514
  tools:
    - read_file
`

const exampleTasks = `# Tasks keyed by ID, run in declaration order. description is required.
research:
  description: >
    Research the following request and list the key facts with sources.
    Request: {request}
  expected_output: A bullet list of facts, each with a source link.
  assigned_agent: researcher
  max_iterations: 2

write:
  description: 'Write a concise answer to "{request}" using the research.'
  expected_output: Three to five short paragraphs in markdown.
  assigned_agent: writer
  context: [research]
  human_input: true
`

const projectConfigTemplate = `# troupe project configuration
# This file overrides defaults from ~/.config/troupe/config.yaml

crew:
  agents: config/agents.yaml
  tasks: config/tasks.yaml

# defaults:
#   model: claude-sonnet-4-20250514
#   process: sequential      # or parallel
#   binding: explicit        # or planner
#   planning: true

# timeouts:
#   planning: 2m
#   task: 10m

# retry:
#   delay: 2s

# journal:
#   path: .troupe/journal.db

# tracing:
#   enabled: false
#   output: .troupe/traces.json
`

// scaffoldFile is a file written by init.
type scaffoldFile struct {
	path    string
	content string
}

func scaffold(dir string) []scaffoldFile {
	return []scaffoldFile{
		{filepath.Join(dir, "config", "agents.yaml"), exampleAgents},
		{filepath.Join(dir, "config", "tasks.yaml"), exampleTasks},
		{filepath.Join(dir, ".troupe.yaml"), projectConfigTemplate},
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initializing troupe in %s...\n\n", absPath)

	for _, f := range scaffold(absPath) {
		rel, _ := filepath.Rel(absPath, f.path)
		written, err := writeScaffoldFile(f, initForce)
		if err != nil {
			return err
		}
		if written {
			printStatus(out, "✓", "Created "+rel, color.FgGreen)
		} else {
			printStatus(out, "•", rel+" exists, skipped", color.FgYellow)
		}
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus(out, "⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	}
	if os.Getenv("SERPER_API_KEY") == "" {
		printStatus(out, "⚠", "SERPER_API_KEY not set (needed by the search tool)", color.FgYellow)
	}

	fmt.Fprintf(out, "\n%s Run %s to check the crew, then %s to start.\n",
		color.GreenString("✓"), color.CyanString("troupe validate"), color.CyanString("troupe"))
	return nil
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// writeScaffoldFile writes f unless it exists and force is false.
func writeScaffoldFile(f scaffoldFile, force bool) (bool, error) {
	if _, err := os.Stat(f.path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", f.path, err)
	}
	if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", f.path, err)
	}
	return true, nil
}
