package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	out, err := NewRunner().Run(context.Background(), dir, "sh", "-c", "pwd; echo oops >&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(string(out), "oops") {
		t.Errorf("stderr not captured: %q", out)
	}
}

func TestRunner_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewRunner().Run(ctx, "", "sh", "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected error from killed command")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("command was not stopped promptly: %v", time.Since(start))
	}
}

func TestAvailable(t *testing.T) {
	if !Available("sh") {
		t.Error("sh should be available")
	}
	if Available("definitely-not-a-real-binary-xyz") {
		t.Error("unexpected binary found")
	}
}
