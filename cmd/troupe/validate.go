package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check agent and task definitions",
	Long: `Load the agent and task documents, construct the tools they reference
and resolve both catalogs without calling any model.

Malformed definitions and missing tool credentials are errors. Unknown tool
types, tasks assigned to undeclared agents and dangling context references
are reported as warnings; --strict turns them into a failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		restore := quietLogs()
		defer restore()

		c, err := loadCrew(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		describeCrew(out, c)
		printWarnings(out, c.warnings)

		if validateStrict && len(c.warnings) > 0 {
			return fmt.Errorf("%d warnings", len(c.warnings))
		}
		fmt.Fprintf(out, "%s crew is valid\n", color.GreenString("✓"))
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Fail when any warning is reported")
}

// describeCrew prints the resolved agents and tasks.
func describeCrew(w io.Writer, c *crewCatalogs) {
	fmt.Fprintf(w, "Agents (%d):\n", c.agents.Len())
	for _, a := range c.agents.All() {
		names := make([]string, 0, len(a.Tools()))
		for _, t := range a.Tools() {
			names = append(names, t.Name())
		}
		toolList := "no tools"
		if len(names) > 0 {
			toolList = strings.Join(names, ", ")
		}
		fmt.Fprintf(w, "  %s %s %s\n", color.CyanString(a.ID()), a.Role(), color.HiBlackString("[%s; %s]", a.Model(), toolList))
	}

	fmt.Fprintf(w, "Tasks (%d):\n", c.tasks.Len())
	for _, t := range c.tasks.Tasks() {
		agent := "unbound"
		if t.Bound() {
			agent = t.Agent.ID()
		}
		extra := []string{agent, fmt.Sprintf("%d attempts", t.Spec.Attempts())}
		if t.Spec.HumanInput {
			extra = append(extra, "human input")
		}
		if len(t.Spec.Context) > 0 {
			extra = append(extra, "after "+strings.Join(t.Spec.Context, ", "))
		}
		fmt.Fprintf(w, "  %s %s\n", color.CyanString(t.ID()), color.HiBlackString("[%s]", strings.Join(extra, "; ")))
	}
}
