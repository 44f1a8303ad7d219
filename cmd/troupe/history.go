package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/troupe/internal/state"
	"github.com/ShayCichocki/troupe/internal/tui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [cycle-id]",
	Short: "Show past cycles from the journal",
	Long: `List cycles recorded in the journal, newest first, or show one cycle
in full.

The journal is kept in memory unless journal.path is set, so history is only
available for sessions that ran with a journal file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Journal.Path == "" {
			return errors.New("journal.path is not set; sessions keep their journal in memory")
		}

		journal, err := state.OpenJournal(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			cycle, err := journal.GetCycle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Request: %s\n", cycle.Request)
			fmt.Fprint(out, tui.RenderResult(cycle, nil, resultWidth))
			return nil
		}

		cycles, err := journal.ListCycles(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printCycles(out, cycles)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of cycles to list (0 = all)")
}

func printCycles(w io.Writer, cycles []state.CycleSummary) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No cycles recorded.")
		return
	}
	for _, c := range cycles {
		status := color.GreenString(c.Status)
		if c.Status != state.CycleCompleted {
			status = color.RedString(c.Status)
		}
		fmt.Fprintf(w, "%s  %s  %-9s %d tasks  %s  %q\n",
			color.CyanString(c.ID),
			c.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			c.Tasks,
			c.FinishedAt.Sub(c.StartedAt).Round(time.Millisecond),
			c.Request,
		)
	}
}
