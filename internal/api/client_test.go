package api

import (
	"errors"
	"math"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_APIKeySources(t *testing.T) {
	tests := []struct {
		name    string
		cfgKey  string
		envKey  string
		wantErr error
	}{
		{"config key", "test-key-123", "", nil},
		{"env key", "", "env-test-key", nil},
		{"no key", "", "", ErrNoAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", tt.envKey)

			client, err := NewClient(ClientConfig{APIKey: tt.cfgKey})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewClient() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
				t.Errorf("default model = %q", client.Model())
			}
			if client.Tracker() == nil {
				t.Error("Tracker should not be nil")
			}
			if client.Bedrock() {
				t.Error("direct client reports Bedrock")
			}
		})
	}
}

func TestClient_ModelFor(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "k", Model: anthropic.ModelClaudeHaiku4_5_20251001})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if got := client.ModelFor(""); got != anthropic.ModelClaudeHaiku4_5_20251001 {
		t.Errorf("ModelFor(\"\") = %q, want client default", got)
	}
	if got := client.ModelFor("claude-opus-4-1-20250805"); got != "claude-opus-4-1-20250805" {
		t.Errorf("ModelFor() = %q, want untranslated name", got)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	tests := []struct {
		in   anthropic.Model
		want anthropic.Model
	}{
		{anthropic.ModelClaudeSonnet4_20250514, "us.anthropic.claude-sonnet-4-20250514-v1:0"},
		{anthropic.ModelClaude3_5Haiku20241022, "us.anthropic.claude-3-5-haiku-20241022-v1:0"},
		{"us.anthropic.custom-v1:0", "us.anthropic.custom-v1:0"},
	}

	for _, tt := range tests {
		if got := translateModelForBedrock(tt.in); got != tt.want {
			t.Errorf("translateModelForBedrock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	c := &Client{bedrock: true}
	if got := c.TranslateModel(anthropic.ModelClaudeSonnet4_20250514); got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("TranslateModel() on Bedrock client = %q", got)
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 100)
	tracker.Add(50, 25)

	input, output := tracker.Total()
	if input != 350 || output != 175 {
		t.Errorf("Total() = %d, %d; want 350, 175", input, output)
	}
	if tracker.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", tracker.Calls())
	}

	tracker.Reset()
	input, output = tracker.Total()
	if input != 0 || output != 0 || tracker.Calls() != 0 {
		t.Errorf("after reset: %d, %d, %d calls", input, output, tracker.Calls())
	}
}

func TestTokenTracker_Cost(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(1000, 1000)

	// $3/1M input + $15/1M output
	if cost := tracker.Cost(); math.Abs(cost-0.018) > 1e-9 {
		t.Errorf("Cost = %f, want 0.018", cost)
	}
	if tracker.Summary() == "" {
		t.Error("Summary should not be empty")
	}
}
