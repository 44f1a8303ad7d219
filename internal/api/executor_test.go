package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/troupe/internal/catalog"
	"github.com/ShayCichocki/troupe/internal/orchestrator"
	"github.com/ShayCichocki/troupe/internal/tools"
	"github.com/ShayCichocki/troupe/pkg/models"
)

// fakeMessages serves scripted Messages API responses and records requests.
type fakeMessages struct {
	mu        sync.Mutex
	responses []string
	requests  []map[string]any
}

func (f *fakeMessages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, body)
	idx := len(f.requests) - 1
	f.mu.Unlock()

	if idx >= len(f.responses) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"no scripted response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(f.responses[idx]))
}

func textResponse(text string) string {
	b, _ := json.Marshal(text)
	return `{"id":"msg_text","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",` +
		`"content":[{"type":"text","text":` + string(b) + `}],` +
		`"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`
}

func toolUseResponse(id, name, input string) string {
	return `{"id":"msg_tool","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",` +
		`"content":[{"type":"text","text":"Let me check."},{"type":"tool_use","id":"` + id + `","name":"` + name + `","input":` + input + `}],` +
		`"stop_reason":"tool_use","stop_sequence":null,"usage":{"input_tokens":20,"output_tokens":8}}`
}

func newFakeClient(t *testing.T, responses ...string) (*Client, *fakeMessages) {
	t.Helper()
	fake := &fakeMessages{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return client, fake
}

type echoTool struct {
	mu    sync.Mutex
	calls []string
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "Echo text back" }
func (e *echoTool) Schema() (map[string]any, []string) {
	return map[string]any{"text": map[string]any{"type": "string"}}, []string{"text"}
}
func (e *echoTool) Invoke(_ context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return "", err
	}
	e.mu.Lock()
	e.calls = append(e.calls, p.Text)
	e.mu.Unlock()
	if p.Text == "fail" {
		return "", errors.New("echo refused")
	}
	return "echo: " + p.Text, nil
}

var _ tools.Tool = (*echoTool)(nil)

func assignment(agent *catalog.ResolvedAgent) orchestrator.Assignment {
	return orchestrator.Assignment{
		CycleID: "c1",
		Request: "say hello",
		Task:    models.TaskSpec{ID: "greet", Description: "Greet the user", ExpectedOutput: "A greeting"},
		Agent:   agent,
		Attempt: 1,
	}
}

func TestAgentExecutor_PlainAnswer(t *testing.T) {
	client, fake := newFakeClient(t, textResponse("Hello there!"))
	agent := catalog.NewResolvedAgent(models.AgentSpec{ID: "writer", Role: "Writer", Goal: "Write", Backstory: "Wordsmith"}, "")

	exec := NewAgentExecutor(ExecutorConfig{Client: client})
	out, err := exec.Execute(context.Background(), assignment(agent))
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", out)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "claude-sonnet-4-20250514", req["model"])
	assert.NotContains(t, req, "tools", "agents without tools send no tool list")

	system, _ := json.Marshal(req["system"])
	assert.Contains(t, string(system), "You are Writer.")

	in, outTok := client.Tracker().Total()
	assert.Equal(t, int64(10), in)
	assert.Equal(t, int64(5), outTok)
}

func TestAgentExecutor_ToolLoop(t *testing.T) {
	client, fake := newFakeClient(t,
		toolUseResponse("tu_1", "echo", `{"text":"ping"}`),
		toolUseResponse("tu_2", "echo", `{"text":"fail"}`),
		toolUseResponse("tu_3", "teleport", `{}`),
		textResponse("Done: ping"),
	)
	tool := &echoTool{}
	agent := catalog.NewResolvedAgent(models.AgentSpec{ID: "researcher", Role: "Researcher", Model: "claude-haiku-4-5-20251001"}, "", tool)

	var mu sync.Mutex
	var events []StreamEvent
	exec := NewAgentExecutor(ExecutorConfig{Client: client, OnStream: func(ev StreamEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}})

	out, err := exec.Execute(context.Background(), assignment(agent))
	require.NoError(t, err)
	assert.Equal(t, "Done: ping", out)
	assert.Equal(t, []string{"ping", "fail"}, tool.calls)

	require.Len(t, fake.requests, 4)
	assert.Equal(t, "claude-haiku-4-5-20251001", fake.requests[0]["model"])
	assert.Contains(t, fake.requests[0], "tools")

	// Every follow-up carries the tool results of the previous turn.
	last, _ := json.Marshal(fake.requests[3]["messages"])
	assert.Contains(t, string(last), "echo: ping")
	assert.Contains(t, string(last), "echo refused")
	assert.Contains(t, string(last), "Unknown tool: teleport")

	var toolUses int
	for _, ev := range events {
		if ev.Type == "tool_use" {
			toolUses++
			assert.Equal(t, "greet", ev.TaskID)
		}
	}
	assert.Equal(t, 3, toolUses)
}

func TestAgentExecutor_Errors(t *testing.T) {
	agent := catalog.NewResolvedAgent(models.AgentSpec{ID: "a", Role: "A"}, "", &echoTool{})

	t.Run("empty answer", func(t *testing.T) {
		client, _ := newFakeClient(t, textResponse("   "))
		_, err := NewAgentExecutor(ExecutorConfig{Client: client}).Execute(context.Background(), assignment(agent))
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	})

	t.Run("max turns", func(t *testing.T) {
		client, _ := newFakeClient(t,
			toolUseResponse("tu_1", "echo", `{"text":"a"}`),
			toolUseResponse("tu_2", "echo", `{"text":"b"}`),
		)
		_, err := NewAgentExecutor(ExecutorConfig{Client: client, MaxTurns: 2}).Execute(context.Background(), assignment(agent))
		assert.ErrorIs(t, err, ErrMaxTurns)
	})

	t.Run("api error", func(t *testing.T) {
		client, _ := newFakeClient(t)
		_, err := NewAgentExecutor(ExecutorConfig{Client: client}).Execute(context.Background(), assignment(agent))
		assert.Error(t, err)
	})

	t.Run("no agent", func(t *testing.T) {
		client, _ := newFakeClient(t)
		_, err := NewAgentExecutor(ExecutorConfig{Client: client}).Execute(context.Background(), orchestrator.Assignment{})
		assert.ErrorIs(t, err, orchestrator.ErrNoAgent)
	})
}

func TestTaskPrompt(t *testing.T) {
	agent := catalog.NewResolvedAgent(models.AgentSpec{ID: "w"}, "")
	a := assignment(agent)
	a.Context = []models.TaskOutput{{TaskID: "research", Output: "facts"}}

	p := taskPrompt(a)
	assert.Contains(t, p, "Greet the user")
	assert.Contains(t, p, "A greeting")
	assert.Contains(t, p, "### research\nfacts")
	assert.NotContains(t, p, "Human feedback")

	a.Feedback = "be brief"
	a.PreviousOutput = "Hello, dear user, how are you"
	p = taskPrompt(a)
	assert.Contains(t, p, "be brief")
	assert.Contains(t, p, "Hello, dear user")
}

func TestPlanner_Plan(t *testing.T) {
	client, fake := newFakeClient(t, textResponse("Here is the plan:\n```json\n[{\"task\":\"t2\",\"agent\":\"writer\"},{\"task\":\"t1\",\"agent\":\"researcher\"}]\n```"))

	agents, _ := catalog.BuildAgents([]models.AgentSpec{{ID: "researcher", Role: "R"}, {ID: "writer", Role: "W"}}, nil, "")
	tasks, _ := catalog.BuildTasks([]models.TaskSpec{
		{ID: "t1", Description: "research", AssignedAgent: "researcher"},
		{ID: "t2", Description: "write"},
	}, agents)

	planner := NewPlanner(client, "claude-opus-4-1-20250805")
	steps, err := planner.Plan(context.Background(), orchestrator.PlanRequest{
		Request: "octopus facts",
		Agents:  agents.All(),
		Tasks:   tasks.Tasks(),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PlanStep{
		{TaskID: "t2", AgentID: "writer"},
		{TaskID: "t1", AgentID: "researcher"},
	}, steps)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "claude-opus-4-1-20250805", fake.requests[0]["model"])
	msgs, _ := json.Marshal(fake.requests[0]["messages"])
	assert.Contains(t, string(msgs), "octopus facts")
	assert.Contains(t, string(msgs), "agent: researcher (fixed)")
}

func TestPlanner_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", textResponse("I cannot plan this.")},
		{"empty list", textResponse("[]")},
		{"malformed", textResponse(`[{"task": "t1",]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFakeClient(t, tt.response)
			_, err := NewPlanner(client, "").Plan(context.Background(), orchestrator.PlanRequest{Request: "x"})
			assert.Error(t, err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	var obj map[string]int
	require.NoError(t, extractJSON(`prefix {"a": 1} suffix`, &obj))
	assert.Equal(t, 1, obj["a"])

	var arr []map[string]string
	require.NoError(t, extractJSON(`[{"task":"x"}]`, &arr))
	assert.Equal(t, "x", arr[0]["task"])

	assert.Error(t, extractJSON("nothing here", &obj))
}
