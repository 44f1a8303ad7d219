package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/troupe/internal/orchestrator"
)

// ErrEmptyAnswer is returned when the model ends its turn without text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// ErrMaxTurns is returned when the tool-use loop does not finish in time.
var ErrMaxTurns = errors.New("max turns reached")

// StreamEvent reports progress inside one task attempt.
type StreamEvent struct {
	// Type is "text", "tool_use" or "tool_result".
	Type    string
	TaskID  string
	AgentID string
	Tool    string
	Content string
}

// AgentExecutor runs task attempts as an Anthropic Messages tool-use loop
// with the agent's persona and tools.
type AgentExecutor struct {
	client    *Client
	maxTurns  int
	maxTokens int64
	onStream  func(StreamEvent)
}

// ExecutorConfig contains configuration for the AgentExecutor.
type ExecutorConfig struct {
	Client *Client
	// MaxTurns bounds model calls per attempt (0 = 20).
	MaxTurns int
	// MaxTokens bounds each response (0 = 8192).
	MaxTokens int64
	// OnStream receives progress events. Optional; must be concurrency-safe.
	OnStream func(StreamEvent)
}

// NewAgentExecutor creates an executor backed by client.
func NewAgentExecutor(cfg ExecutorConfig) *AgentExecutor {
	e := &AgentExecutor{
		client:    cfg.Client,
		maxTurns:  cfg.MaxTurns,
		maxTokens: cfg.MaxTokens,
		onStream:  cfg.OnStream,
	}
	if e.maxTurns <= 0 {
		e.maxTurns = 20
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 8192
	}
	return e
}

var _ orchestrator.Executor = (*AgentExecutor)(nil)

func (e *AgentExecutor) emit(ev StreamEvent) {
	if e.onStream != nil {
		e.onStream(ev)
	}
}

// Execute runs one attempt of the assignment and returns the final answer.
func (e *AgentExecutor) Execute(ctx context.Context, a orchestrator.Assignment) (string, error) {
	agent := a.Agent
	if agent == nil {
		return "", orchestrator.ErrNoAgent
	}

	toolDefs := ToolDefinitions(agent.Tools())
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(taskPrompt(a))),
	}
	model := e.client.ModelFor(agent.Model())

	for turn := 1; turn <= e.maxTurns; turn++ {
		params := anthropic.MessageNewParams{
			Model:     model,
			MaxTokens: e.maxTokens,
			System:    []anthropic.TextBlockParam{{Text: agentSystemPrompt(agent)}},
			Messages:  messages,
		}
		if len(toolDefs) > 0 {
			params.Tools = toolDefs
		}

		resp, err := e.client.sdk().Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("API call failed: %w", err)
		}
		e.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var text strings.Builder

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(variant.Text)
				e.emit(StreamEvent{Type: "text", TaskID: a.Task.ID, AgentID: agent.ID(), Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				e.emit(StreamEvent{Type: "tool_use", TaskID: a.Task.ID, AgentID: agent.ID(), Tool: variant.Name, Content: string(variant.Input)})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				result := invokeTool(ctx, agent.Tool, variant.Name, variant.Input)
				if result.IsError {
					log.Printf("[api] tool %s failed for %s: %s", variant.Name, agent.ID(), truncate(result.Content, 200))
				}
				e.emit(StreamEvent{Type: "tool_result", TaskID: a.Task.ID, AgentID: agent.ID(), Tool: variant.Name, Content: truncate(result.Content, 500)})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, result.Content, result.IsError))
			}
		}

		if len(toolResultBlocks) == 0 || resp.StopReason == anthropic.StopReasonEndTurn {
			answer := strings.TrimSpace(text.String())
			if answer == "" {
				return "", ErrEmptyAnswer
			}
			return answer, nil
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(toolResultBlocks...),
		)
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxTurns, e.maxTurns)
}
