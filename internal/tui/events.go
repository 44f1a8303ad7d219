package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/troupe/internal/orchestrator"
)

// EventPrinter writes engine events as one coloured line each.
type EventPrinter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewEventPrinter creates an EventPrinter writing to out.
func NewEventPrinter(out io.Writer) *EventPrinter {
	return &EventPrinter{out: out}
}

// Run prints events until the channel is closed.
func (p *EventPrinter) Run(events <-chan orchestrator.Event) {
	for ev := range events {
		p.Print(ev)
	}
}

// Print writes a single event. Events with no console form are skipped.
func (p *EventPrinter) Print(ev orchestrator.Event) {
	line := FormatEvent(ev)
	if line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// FormatEvent renders an event as a console line, or "" to skip it.
func FormatEvent(ev orchestrator.Event) string {
	switch ev.Type {
	case orchestrator.EventPlanReady:
		return color.CyanString("▸ plan: %s", ev.Message)
	case orchestrator.EventPlanFallback:
		return color.YellowString("⚠ planner unavailable, using declared order: %s", ev.Message)
	case orchestrator.EventTaskStarted:
		return fmt.Sprintf("%s %s %s", color.BlueString("▸"), ev.TaskID, color.HiBlackString("(%s)", ev.AgentID))
	case orchestrator.EventTaskRetry:
		return color.YellowString("↻ %s attempt %d failed: %v", ev.TaskID, ev.Attempt, ev.Error)
	case orchestrator.EventTaskAwaitingInput:
		return color.MagentaString("? %s is waiting for your feedback", ev.TaskID)
	case orchestrator.EventTaskCompleted:
		return fmt.Sprintf("%s %s %s", color.GreenString("✓"), ev.TaskID, color.HiBlackString("%s", ev.Duration.Round(time.Millisecond)))
	case orchestrator.EventTaskFailed:
		return color.RedString("✗ %s failed: %v", ev.TaskID, ev.Error)
	case orchestrator.EventTaskBlocked:
		return color.YellowString("⊘ %s blocked: %s", ev.TaskID, ev.Message)
	default:
		return ""
	}
}
