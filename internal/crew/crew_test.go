package crew

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/troupe/pkg/models"
)

const agentsYAML = `
writer:
  role: Writer
  goal: Write clear prose
  backstory: A seasoned copywriter.
researcher:
  role: Senior Researcher
  goal: Find facts
  backstory: Loves primary sources.
  llm: claude-haiku-4-5-20251001
  tools:
    - type: search
    - code
    - type: teleport
`

const tasksYAML = `
research:
  description: Research {request}
  expected_output: A bullet list of facts
  assigned_agent: researcher
draft:
  description: Draft an answer
  human_input: true
  max_iterations: 5
  assigned_agent: writer
  context: [research]
polish:
  description: Polish the draft
`

func TestParseAgentsYAML_PreservesOrderAndToolForms(t *testing.T) {
	agents, err := ParseAgentsYAML([]byte(agentsYAML))
	require.NoError(t, err)
	require.Len(t, agents, 2)

	assert.Equal(t, "writer", agents[0].ID)
	assert.Equal(t, "researcher", agents[1].ID)
	assert.Empty(t, agents[0].Model)
	assert.Equal(t, "claude-haiku-4-5-20251001", agents[1].Model)
	assert.Equal(t, []string{"search", "code", "teleport"}, agents[1].Tools)
}

func TestParseTasksYAML_Defaults(t *testing.T) {
	tasks, err := ParseTasksYAML([]byte(tasksYAML))
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, []string{"research", "draft", "polish"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	assert.False(t, tasks[0].HumanInput)
	assert.Equal(t, models.DefaultMaxIterations, tasks[0].MaxIterations)
	assert.Equal(t, "researcher", tasks[0].AssignedAgent)

	assert.True(t, tasks[1].HumanInput)
	assert.Equal(t, 5, tasks[1].MaxIterations)
	assert.Equal(t, []string{"research"}, tasks[1].Context)

	assert.Empty(t, tasks[2].AssignedAgent)
	assert.Empty(t, tasks[2].ExpectedOutput)
}

func TestParseAgentsYAML_MissingRequiredFields(t *testing.T) {
	_, err := ParseAgentsYAML([]byte(`
writer:
  role: Writer
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.Contains(t, err.Error(), `"goal"`)
	assert.Contains(t, err.Error(), `"backstory"`)
}

func TestParseTasksYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing description", "t1:\n  expected_output: x\n"},
		{"zero iterations", "t1:\n  description: x\n  max_iterations: 0\n"},
		{"self context", "t1:\n  description: x\n  context: [t1]\n"},
		{"list instead of mapping", "- description: x\n"},
		{"scalar entry", "t1: just a string\n"},
		{"duplicate key", "t1:\n  description: a\nt1:\n  description: b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTasksYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestParseYAML_EmptyDocument(t *testing.T) {
	agents, err := ParseAgentsYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, agents)

	tasks, err := ParseTasksYAML([]byte("~\n"))
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestParseTOML_ListForm(t *testing.T) {
	agents, err := ParseAgentsTOML([]byte(`
[[agent]]
id = "planner"
role = "Planner"
goal = "Plan"
backstory = "Methodical."

[[agent]]
id = "coder"
role = "Coder"
goal = "Code"
backstory = "Pragmatic."
model = "claude-opus-4-1-20250805"
tools = ["code"]
`))
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "planner", agents[0].ID)
	assert.Equal(t, []string{"code"}, agents[1].Tools)

	tasks, err := ParseTasksTOML([]byte(`
[[task]]
id = "design"
description = "Design it"

[[task]]
id = "build"
description = "Build it"
max_iterations = 2
context = ["design"]
`))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.DefaultMaxIterations, tasks[0].MaxIterations)
	assert.Equal(t, 2, tasks[1].MaxIterations)
}

func TestParseTOML_DuplicateID(t *testing.T) {
	_, err := ParseTasksTOML([]byte(`
[[task]]
id = "a"
description = "x"

[[task]]
id = "a"
description = "y"
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()
	agentsPath := filepath.Join(dir, "agents.yml")
	tasksPath := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(agentsPath, []byte(agentsYAML), 0644))
	require.NoError(t, os.WriteFile(tasksPath, []byte(tasksYAML), 0644))

	def, err := Load(agentsPath, tasksPath)
	require.NoError(t, err)
	assert.Len(t, def.Agents, 2)
	assert.Len(t, def.Tasks, 3)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "agents.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0644))

	_, err := LoadAgents(jsonPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadTasks(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
