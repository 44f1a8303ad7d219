package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/troupe/internal/protect"
)

const maxReadBytes = 256 * 1024

type readFileTool struct {
	root  string
	guard *protect.Detector
}

func newReadFileTool(cfg Config) (Tool, error) {
	root := cfg.WorkDir
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	return &readFileTool{root: abs, guard: protect.New(cfg.Protected...)}, nil
}

func (r *readFileTool) Name() string { return TypeReadFile }

func (r *readFileTool) Description() string {
	return "Read a text file under the working directory. Returns contents with line numbers."
}

func (r *readFileTool) Schema() (map[string]any, []string) {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Path relative to the working directory",
		},
	}, []string{"path"}
}

func (r *readFileTool) Invoke(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Path string `json:"path"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", err
	}
	if params.Path == "" {
		return "", errors.New("path is required")
	}

	path := params.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the working directory", params.Path)
	}
	if protected, reason := r.guard.Check(rel); protected {
		return "", fmt.Errorf("refusing to read %q: %s", params.Path, reason)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) > maxReadBytes {
		content = content[:maxReadBytes]
	}

	// Format with line numbers (cat -n style)
	var out strings.Builder
	for i, line := range strings.Split(string(content), "\n") {
		fmt.Fprintf(&out, "%6d\t%s\n", i+1, line)
	}
	return out.String(), nil
}
