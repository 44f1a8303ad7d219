package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/troupe/internal/exec"
)

const defaultCodeTimeout = 2 * time.Minute

type codeTool struct {
	shell   string
	workDir string
	timeout time.Duration
	runner  exec.CommandRunner
}

func newCodeTool(cfg Config) (Tool, error) {
	shell := cfg.Code.Shell
	if shell == "" {
		shell = "bash"
	}
	runner := cfg.Code.Runner
	if runner == nil {
		if !exec.Available(shell) {
			return nil, fmt.Errorf("code tool shell %q not found in PATH", shell)
		}
		runner = exec.NewRunner()
	}
	timeout := cfg.Code.Timeout
	if timeout <= 0 {
		timeout = defaultCodeTimeout
	}
	return &codeTool{shell: shell, workDir: cfg.WorkDir, timeout: timeout, runner: runner}, nil
}

func (c *codeTool) Name() string { return TypeCode }

func (c *codeTool) Description() string {
	return "Execute a shell snippet in the working directory and return its combined output."
}

func (c *codeTool) Schema() (map[string]any, []string) {
	return map[string]any{
		"code": map[string]any{
			"type":        "string",
			"description": "The shell code to execute",
		},
		"timeout": map[string]any{
			"type":        "integer",
			"description": "Timeout in milliseconds (optional)",
		},
	}, []string{"code"}
}

func (c *codeTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Code    string `json:"code"`
		Timeout int    `json:"timeout"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if params.Code == "" {
		return "", errors.New("code is required")
	}

	timeout := c.timeout
	if params.Timeout > 0 {
		timeout = min(time.Duration(params.Timeout)*time.Millisecond, c.timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := c.runner.Run(ctx, c.workDir, c.shell, "-c", params.Code)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return string(output), fmt.Errorf("command timed out after %v", timeout)
		}
		return string(output), fmt.Errorf("command failed: %w", err)
	}
	if len(output) == 0 {
		return "(no output)", nil
	}
	return string(output), nil
}
