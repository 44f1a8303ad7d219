package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/troupe/internal/graph"
	"github.com/ShayCichocki/troupe/pkg/models"
)

func planFixture(t *testing.T) (RequiredConfig, *graph.DependencyGraph) {
	t.Helper()
	req := buildCrew(t, twoAgents, []models.TaskSpec{
		{ID: "research", Description: "a", AssignedAgent: "researcher"},
		{ID: "outline", Description: "b", Context: []string{"research"}},
		{ID: "draft", Description: "c", AssignedAgent: "writer", Context: []string{"outline"}},
	})
	g := graph.New()
	require.NoError(t, g.Build(contextNodes(req.Tasks)))
	return req, g
}

func TestIdentityPlan(t *testing.T) {
	req, _ := planFixture(t)

	plan := IdentityPlan(req.Tasks, req.Agents)

	assert.Equal(t, models.PlanSourceIdentity, plan.Source)
	assert.Equal(t, []models.PlanStep{
		{TaskID: "research", AgentID: "researcher"},
		{TaskID: "outline", AgentID: "researcher"},
		{TaskID: "draft", AgentID: "writer"},
	}, plan.Steps)
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name      string
		steps     []models.PlanStep
		assignAll bool
		wantErr   bool
		want      []models.PlanStep
	}{
		{
			name:  "omitted tasks appended",
			steps: []models.PlanStep{{TaskID: "research"}},
			want: []models.PlanStep{
				{TaskID: "research", AgentID: "researcher"},
				{TaskID: "outline", AgentID: "researcher"},
				{TaskID: "draft", AgentID: "writer"},
			},
		},
		{
			name: "unbound task filled by planner",
			steps: []models.PlanStep{
				{TaskID: "research", AgentID: "writer"},
				{TaskID: "outline", AgentID: "writer"},
			},
			want: []models.PlanStep{
				{TaskID: "research", AgentID: "researcher"},
				{TaskID: "outline", AgentID: "writer"},
				{TaskID: "draft", AgentID: "writer"},
			},
		},
		{
			name: "assign all overrides pre-binding",
			steps: []models.PlanStep{
				{TaskID: "research", AgentID: "writer"},
				{TaskID: "outline", AgentID: "writer"},
				{TaskID: "draft", AgentID: "researcher"},
			},
			assignAll: true,
			want: []models.PlanStep{
				{TaskID: "research", AgentID: "writer"},
				{TaskID: "outline", AgentID: "writer"},
				{TaskID: "draft", AgentID: "researcher"},
			},
		},
		{
			name:      "assign all requires an agent",
			steps:     []models.PlanStep{{TaskID: "research"}},
			assignAll: true,
			wantErr:   true,
		},
		{name: "unknown task", steps: []models.PlanStep{{TaskID: "deploy"}}, wantErr: true},
		{name: "unknown agent", steps: []models.PlanStep{{TaskID: "outline", AgentID: "editor"}}, wantErr: true},
		{
			name:  "unknown agent on pre-bound task ignored",
			steps: []models.PlanStep{{TaskID: "research", AgentID: "editor"}},
			want: []models.PlanStep{
				{TaskID: "research", AgentID: "researcher"},
				{TaskID: "outline", AgentID: "researcher"},
				{TaskID: "draft", AgentID: "writer"},
			},
		},
		{
			name:      "unknown agent with assign all",
			steps:     []models.PlanStep{{TaskID: "research", AgentID: "editor"}},
			assignAll: true,
			wantErr:   true,
		},
		{name: "duplicate", steps: []models.PlanStep{{TaskID: "research"}, {TaskID: "research"}}, wantErr: true},
		{
			name:    "dependency order",
			steps:   []models.PlanStep{{TaskID: "outline"}, {TaskID: "research"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, g := planFixture(t)

			plan, err := ValidatePlan(tt.steps, req.Tasks, req.Agents, g, tt.assignAll)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPlanInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.PlanSourcePlanner, plan.Source)
			assert.Equal(t, tt.want, plan.Steps)
		})
	}
}

func TestEventEmitter_CloseIsIdempotent(t *testing.T) {
	em := NewEventEmitter(1)
	em.Emit(Event{Type: EventCycleStarted})
	em.Close()
	em.Close()
	em.Emit(Event{Type: EventCycleDone})

	ev, ok := <-em.Events()
	require.True(t, ok)
	assert.Equal(t, EventCycleStarted, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())

	_, ok = <-em.Events()
	assert.False(t, ok)
}

func TestEventEmitter_DropsWhenFull(t *testing.T) {
	em := NewEventEmitter(1)
	em.Emit(Event{Type: EventTaskStarted})
	em.Emit(Event{Type: EventTaskCompleted})
	assert.Equal(t, uint64(1), em.DroppedCount())
}

func TestDebugLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewDebugLoggerForStateDir(dir)
	l.Log("hello %s", "world")
	require.NoError(t, l.Close())
	assert.FileExists(t, DebugLogPath(dir))

	var nilLogger *DebugLogger
	nilLogger.Log("ignored")
	assert.NoError(t, nilLogger.Close())
}
