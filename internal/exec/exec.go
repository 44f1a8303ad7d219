// Package exec runs external commands on behalf of tools.
package exec

import (
	"context"
	osexec "os/exec"
	"time"
)

// CommandRunner runs an external command and returns its combined
// stdout and stderr.
type CommandRunner interface {
	Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to CommandRunner.
type RunnerFunc func(ctx context.Context, workDir string, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	return f(ctx, workDir, name, args...)
}

// Runner implements CommandRunner using os/exec.
type Runner struct {
	// WaitDelay bounds how long output pipes are drained after the context
	// kills the process, so orphaned grandchildren cannot hang a call.
	WaitDelay time.Duration
}

// NewRunner creates a Runner with a one second wait delay.
func NewRunner() *Runner {
	return &Runner{WaitDelay: time.Second}
}

// Run executes name with args in workDir (the current directory if empty).
func (r *Runner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	cmd.WaitDelay = r.WaitDelay
	return cmd.CombinedOutput()
}

// Available reports whether name resolves to an executable on PATH.
func Available(name string) bool {
	_, err := osexec.LookPath(name)
	return err == nil
}

var _ CommandRunner = (*Runner)(nil)
