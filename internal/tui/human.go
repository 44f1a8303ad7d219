package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// previewLimit bounds how much of a task answer is shown before asking for
// feedback.
const previewLimit = 2000

// HumanInput asks the user to review a task answer. It implements
// orchestrator.HumanInput.
type HumanInput struct {
	prompter Prompter
	out      io.Writer
}

// NewHumanInput creates a HumanInput that shows answers on out and reads
// feedback with prompter.
func NewHumanInput(prompter Prompter, out io.Writer) *HumanInput {
	return &HumanInput{prompter: prompter, out: out}
}

// Feedback shows output and returns the user's feedback. An empty line
// accepts the answer. End of input also counts as acceptance.
func (h *HumanInput) Feedback(ctx context.Context, task models.TaskSpec, output string) (string, error) {
	preview := output
	if len(preview) > previewLimit {
		preview = cutBytes(preview, previewLimit) + "\n..."
	}

	fmt.Fprintf(h.out, "\n%s\n", color.MagentaString("Review of task %q", task.ID))
	fmt.Fprintln(h.out, boxStyle.Render(preview))

	line, err := h.prompter.Prompt(ctx, "Feedback (press Enter to accept):")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
