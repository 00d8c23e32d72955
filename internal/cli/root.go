// Package cli provides the command-line interface for reportsum.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reportsum",
		Short: "Summarize network simulation reports into charts and a PDF",
		Long: `reportsum turns the plain-text reports of a network simulation run into
charts and a single summary document.

For each report it:
  - Runs the condensing tools for the raw delay and message reports
  - Parses every line against the report's schema, rejecting bad lines
  - Derives the series to plot (time series, delay distributions, bands)
  - Draws one PNG chart per report
  - Places every chart, in file name order, into one PDF

Exit codes:
  0  every chart and the document were written
  1  some charts or the document failed
  2  configuration or runtime error`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewSummarizeCommand())
	rootCmd.AddCommand(commands.NewChartCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
