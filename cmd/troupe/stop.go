package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/troupe/internal/signals"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Cancel the cycle running in another terminal",
	Long: `Write a stop signal into the state directory. A running session
cancels its current cycle and returns to the prompt; the session itself
keeps running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := signals.SendStop(cfg.StateDir); err != nil {
			return fmt.Errorf("send stop signal: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s stop signal sent to %s\n", color.GreenString("✓"), signals.Dir(cfg.StateDir))
		return nil
	},
}
