package models

import "testing"

func TestAgentSpec_ModelOr(t *testing.T) {
	tests := []struct {
		name     string
		spec     AgentSpec
		fallback string
		want     string
	}{
		{"explicit model wins", AgentSpec{Model: "claude-haiku-4-5-20251001"}, "other", "claude-haiku-4-5-20251001"},
		{"fallback when empty", AgentSpec{}, "configured-default", "configured-default"},
		{"package default when both empty", AgentSpec{}, "", DefaultModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.ModelOr(tt.fallback); got != tt.want {
				t.Errorf("ModelOr(%q) = %q, want %q", tt.fallback, got, tt.want)
			}
		})
	}
}

func TestProcess_Valid(t *testing.T) {
	tests := []struct {
		process Process
		want    bool
	}{
		{ProcessSequential, true},
		{ProcessParallel, true},
		{Process(""), false},
		{Process("hierarchical"), false},
	}

	for _, tt := range tests {
		if got := tt.process.Valid(); got != tt.want {
			t.Errorf("Process(%q).Valid() = %v, want %v", tt.process, got, tt.want)
		}
	}
}

func TestBindingMode_Valid(t *testing.T) {
	if !BindingExplicit.Valid() || !BindingPlanner.Valid() {
		t.Error("expected known binding modes to be valid")
	}
	if BindingMode("keyed").Valid() {
		t.Error("expected unknown binding mode to be invalid")
	}
}
