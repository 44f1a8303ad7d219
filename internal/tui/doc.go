// Package tui is the interactive surface of troupe.
//
// It provides two session.Prompter implementations: LinePrompter, a plain
// buffered line reader for pipes and dumb terminals, and InputPrompter, a
// bubbletea text input used when stdin is a terminal. Cycle results are
// rendered with lipgloss and engine events are printed as coloured log lines.
//
// Usage:
//
//	prompter := tui.NewPrompter(os.Stdin, os.Stdout)
//	feedback := tui.NewHumanInput(prompter, os.Stdout)
//	printer := tui.NewEventPrinter(os.Stderr)
//	go printer.Run(engine.Events())
package tui
