package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/troupe/pkg/models"
)

// statusIcon returns the glyph and style for a task status.
func statusIcon(status models.TaskStatus) (string, lipgloss.Style) {
	switch status {
	case models.TaskStatusDone:
		return "✓", statusDone
	case models.TaskStatusFailed:
		return "✗", statusFailed
	case models.TaskStatusBlocked:
		return "⊘", statusBlocked
	default:
		return "○", statusPending
	}
}

// RenderResult renders a finished cycle: a per-task summary followed by the
// final answer. err is the cycle-level error returned by Kickoff, if any.
func RenderResult(out *models.CrewOutput, err error, width int) string {
	if width < 20 {
		width = 80
	}

	var b strings.Builder
	if out == nil {
		b.WriteString(statusFailed.Render(fmt.Sprintf("✗ cycle failed: %v", err)))
		b.WriteString("\n")
		return b.String()
	}

	done, failed, blocked := out.Counts()
	b.WriteString(headerStyle.Render(fmt.Sprintf("Cycle %s", shortID(out.CycleID))))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %s plan, %s, %s",
		out.PlanSource, out.Process, out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond))))
	b.WriteString("\n")

	if len(out.Tasks) == 0 {
		b.WriteString(labelStyle.Render("  no tasks to run"))
		b.WriteString("\n")
	}
	for _, t := range out.Tasks {
		icon, style := statusIcon(t.Status)
		line := fmt.Sprintf("  %s %s", icon, t.TaskID)
		if t.AgentID != "" {
			line += labelStyle.Render(" by " + t.AgentID)
		}
		if t.Attempts > 1 {
			line += labelStyle.Render(fmt.Sprintf(" (%d attempts)", t.Attempts))
		}
		b.WriteString(style.Render(line))
		if t.Error != "" {
			b.WriteString(statusFailed.Render(": " + truncate(t.Error, width-len(line)-4)))
		}
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render(fmt.Sprintf("  %d done, %d failed, %d blocked", done, failed, blocked)))
	b.WriteString("\n")

	if err != nil {
		b.WriteString(statusFailed.Render(fmt.Sprintf("✗ %v", err)))
		b.WriteString("\n")
	}

	if final := out.Final(); final != "" {
		b.WriteString(boxStyle.Width(width - 2).Render(final))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPlan renders an execution plan as a numbered list.
func RenderPlan(steps []models.PlanStep, source models.PlanSource, warnings []string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Execution plan (%s)", source)))
	b.WriteString("\n")
	if len(steps) == 0 {
		b.WriteString(labelStyle.Render("  no tasks"))
		b.WriteString("\n")
	}
	for i, s := range steps {
		agent := s.AgentID
		if agent == "" {
			agent = "(no agent)"
		}
		b.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, s.TaskID, labelStyle.Render("→ "+agent)))
	}
	for _, w := range warnings {
		b.WriteString(statusBlocked.Render("  ⚠ " + w))
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max < 10 {
		max = 10
	}
	if len(s) <= max {
		return s
	}
	return cutBytes(s, max-3) + "..."
}

// cutBytes returns the longest prefix of s that is at most n bytes and does
// not split a UTF-8 sequence.
func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
