package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Runner provides simple text-in/text-out model calls without tools.
type Runner struct {
	client    *Client
	model     anthropic.Model
	maxTokens int64
}

// NewRunner creates a runner using the client's default model.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client, model: client.Model(), maxTokens: 4096}
}

// WithModel returns a copy of the runner bound to another model.
func (r *Runner) WithModel(name string) *Runner {
	cp := *r
	cp.model = r.client.ModelFor(name)
	return &cp
}

// Run executes a prompt and returns the text response.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	return r.RunWithSystem(ctx, "", prompt)
}

// RunWithSystem executes a prompt with an optional system message.
func (r *Runner) RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := r.client.sdk().Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	r.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return textOf(resp), nil
}

// RunJSON executes a prompt and parses the first JSON value in the response
// into target.
func (r *Runner) RunJSON(ctx context.Context, systemPrompt, prompt string, target interface{}) error {
	response, err := r.RunWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	return extractJSON(response, target)
}

// extractJSON finds the outermost JSON object or array in text, tolerating
// prose or code fences around it.
func extractJSON(text string, target interface{}) error {
	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return fmt.Errorf("no valid JSON found in response: %s", truncate(text, 200))
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return fmt.Errorf("no valid JSON found in response: %s", truncate(text, 200))
	}

	raw := text[start : end+1]
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("parse JSON: %w (response: %s)", err, truncate(raw, 200))
	}
	return nil
}

func textOf(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(variant.Text)
		}
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
