// Package catalog builds the agent and task catalogs of a crew from
// declarative definitions. Resolution problems never fail a build: the
// offending entry (or reference) is dropped and a Warning is returned.
package catalog

import (
	"fmt"
	"log"
)

// WarningKind classifies a non-fatal resolution problem.
type WarningKind string

const (
	// WarnUnknownTool means an agent requested a tool type the registry does not know.
	WarnUnknownTool WarningKind = "unknown_tool"
	// WarnMissingAgent means a task's assigned agent does not exist; the task was dropped.
	WarnMissingAgent WarningKind = "missing_agent"
	// WarnUnknownContext means a task's context names a task that is not in the catalog.
	WarnUnknownContext WarningKind = "unknown_context"
	// WarnForwardContext means a task's context names a task declared after it.
	WarnForwardContext WarningKind = "forward_context"
	// WarnDuplicate means an identifier appeared twice; the later entry was dropped.
	WarnDuplicate WarningKind = "duplicate"
)

// Warning describes an entry or reference dropped during a catalog build.
type Warning struct {
	Kind WarningKind
	// Subject is the agent or task the warning is about.
	Subject string
	// Ref is the unresolved identifier (tool type, agent or task id).
	Ref string
}

// String renders the warning for console output.
func (w Warning) String() string {
	switch w.Kind {
	case WarnUnknownTool:
		return fmt.Sprintf("tool %q on agent %q is not recognized and will be ignored", w.Ref, w.Subject)
	case WarnMissingAgent:
		return fmt.Sprintf("task %q is assigned to unknown agent %q, skipping", w.Subject, w.Ref)
	case WarnUnknownContext:
		return fmt.Sprintf("task %q lists unknown task %q as context, ignoring reference", w.Subject, w.Ref)
	case WarnForwardContext:
		return fmt.Sprintf("task %q lists later task %q as context, ignoring reference", w.Subject, w.Ref)
	case WarnDuplicate:
		return fmt.Sprintf("duplicate id %q, keeping the first definition", w.Subject)
	default:
		return fmt.Sprintf("%s: %s %s", w.Kind, w.Subject, w.Ref)
	}
}

func warn(warnings []Warning, w Warning) []Warning {
	log.Printf("[catalog] WARNING: %s", w)
	return append(warnings, w)
}
