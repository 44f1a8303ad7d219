package models

import "testing"

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is valid", TaskStatusPending, true},
		{"in_progress is valid", TaskStatusInProgress, true},
		{"awaiting_input is valid", TaskStatusAwaitingInput, true},
		{"blocked is valid", TaskStatusBlocked, true},
		{"done is valid", TaskStatusDone, true},
		{"failed is valid", TaskStatusFailed, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"typo status is invalid", TaskStatus("pendingg"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusDone, TaskStatusFailed, TaskStatusBlocked}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("TaskStatus(%q).Terminal() = false, want true", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusAwaitingInput} {
		if s.Terminal() {
			t.Errorf("TaskStatus(%q).Terminal() = true, want false", s)
		}
	}
}

func TestTaskSpec_Attempts(t *testing.T) {
	tests := []struct {
		max  int
		want int
	}{
		{0, DefaultMaxIterations},
		{-2, DefaultMaxIterations},
		{1, 1},
		{5, 5},
	}
	for _, tt := range tests {
		spec := TaskSpec{MaxIterations: tt.max}
		if got := spec.Attempts(); got != tt.want {
			t.Errorf("TaskSpec{MaxIterations: %d}.Attempts() = %d, want %d", tt.max, got, tt.want)
		}
	}
}

func TestCrewOutput_FinalAndCounts(t *testing.T) {
	out := &CrewOutput{
		Tasks: []TaskOutput{
			{TaskID: "research", Status: TaskStatusDone, Output: "notes"},
			{TaskID: "write", Status: TaskStatusDone, Output: "article"},
			{TaskID: "review", Status: TaskStatusFailed},
			{TaskID: "publish", Status: TaskStatusBlocked},
		},
	}

	if got := out.Final(); got != "article" {
		t.Errorf("Final() = %q, want %q", got, "article")
	}

	done, failed, blocked := out.Counts()
	if done != 2 || failed != 1 || blocked != 1 {
		t.Errorf("Counts() = (%d, %d, %d), want (2, 1, 1)", done, failed, blocked)
	}
	if out.Succeeded() {
		t.Error("Succeeded() = true, want false")
	}

	var empty *CrewOutput
	if empty.Final() != "" {
		t.Error("nil CrewOutput should have empty Final()")
	}
	if !(&CrewOutput{}).Succeeded() {
		t.Error("empty cycle should count as succeeded")
	}
}
