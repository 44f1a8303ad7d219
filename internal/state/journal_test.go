package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/troupe/pkg/models"
)

func sampleCycle(id string, started time.Time, failed bool) *models.CrewOutput {
	status := models.TaskStatusDone
	if failed {
		status = models.TaskStatusFailed
	}
	return &models.CrewOutput{
		CycleID:    id,
		Request:    "write about " + id,
		Process:    models.ProcessSequential,
		PlanSource: models.PlanSourcePlanner,
		Plan: []models.PlanStep{
			{TaskID: "research", AgentID: "researcher"},
			{TaskID: "write", AgentID: "writer"},
		},
		Tasks: []models.TaskOutput{
			{TaskID: "research", AgentID: "researcher", Status: models.TaskStatusDone, Output: "facts", Attempts: 1, Duration: 1500 * time.Millisecond},
			{TaskID: "write", AgentID: "writer", Status: status, Output: "essay", Attempts: 3, HumanFeedback: "shorter", Error: "", Duration: time.Second},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func openJournal(t *testing.T, path string) *Journal {
	t.Helper()
	j, err := OpenJournal(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, "")
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordCycle(ctx, sampleCycle("c1", started, false)))

	got, err := j.GetCycle(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "write about c1", got.Request)
	assert.Equal(t, models.PlanSourcePlanner, got.PlanSource)
	assert.Equal(t, []models.PlanStep{{TaskID: "research", AgentID: "researcher"}, {TaskID: "write", AgentID: "writer"}}, got.Plan)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "research", got.Tasks[0].TaskID)
	assert.Equal(t, 1500*time.Millisecond, got.Tasks[0].Duration)
	assert.Equal(t, "shorter", got.Tasks[1].HumanFeedback)
	assert.Equal(t, 3, got.Tasks[1].Attempts)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.FinishedAt.Equal(started.Add(2*time.Second)))
}

func TestJournal_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, tempDBPath(t))
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordCycle(ctx, sampleCycle("old", base, false)))
	require.NoError(t, j.RecordCycle(ctx, sampleCycle("new", base.Add(time.Hour), true)))

	all, err := j.ListCycles(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, CycleFailed, all[0].Status)
	assert.Equal(t, CycleCompleted, all[1].Status)
	assert.Equal(t, 2, all[1].Tasks)

	limited, err := j.ListCycles(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournal_RecordTwiceReplaces(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, "")
	started := time.Now()

	out := sampleCycle("c1", started, true)
	require.NoError(t, j.RecordCycle(ctx, out))
	out.Tasks = out.Tasks[:1]
	require.NoError(t, j.RecordCycle(ctx, out))

	got, err := j.GetCycle(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 1)

	all, err := j.ListCycles(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJournal_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)

	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordCycle(ctx, sampleCycle("kept", time.Now(), false)))
	require.NoError(t, j.Close())

	reopened := openJournal(t, path)
	got, err := reopened.GetCycle(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.CycleID)
}

func TestJournal_GetMissing(t *testing.T) {
	j := openJournal(t, "")
	_, err := j.GetCycle(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, j.RecordCycle(context.Background(), nil))
}
