package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a reportsum configuration file without drawing anything.

Checks:
  - YAML syntax
  - Required fields
  - Known schemas and chart modes
  - Delay selectors (message_type, priority)
  - Duplicate chart names and image files
  - Report file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	printValidConfig(w, cfg)
	return nil
}

func printValidConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Report directory: %s\n", cfg.ReportDirectory)
	fmt.Fprintf(w, "  Granularity:      %ds\n", cfg.GranularitySeconds)
	fmt.Fprintf(w, "  Images:           %s\n", cfg.ImageDir())
	fmt.Fprintf(w, "  Document:         %s\n", cfg.Document())

	if len(cfg.Preprocess) > 0 {
		fmt.Fprintf(w, "\nPreprocessing (%s):\n", cfg.Tools.Interpreter)
		for i, p := range cfg.Preprocess {
			fmt.Fprintf(w, "  %d. %s: %s -> %s\n", i+1, p.Script, p.Input, p.Output)
		}
	}

	fmt.Fprintf(w, "\nCharts:\n")
	for i, ch := range cfg.Charts {
		fmt.Fprintf(w, "  %d. [%s] %s -> %s\n", i+1, ch.Schema, ch.Name, ch.Image)
		if ch.IsDelay() {
			fmt.Fprintf(w, "     %s priority %d, %s\n", ch.MessageType, *ch.Priority, ch.Mode)
		}
	}

	if _, err := os.Stat(cfg.ReportDirectory); err != nil {
		fmt.Fprintf(w, "\nWarning: report directory not found: %s\n", cfg.ReportDirectory)
		return
	}

	reports, err := parser.ExpandReports([]string{filepath.Join(cfg.ReportDirectory, "*.txt")})
	if err != nil {
		fmt.Fprintf(w, "\nWarning: cannot list reports: %v\n", err)
		return
	}
	present := make(map[string]bool, len(reports))
	for _, r := range reports {
		present[filepath.Base(r)] = true
	}
	produced := make(map[string]bool, len(cfg.Preprocess))
	for _, p := range cfg.Preprocess {
		produced[p.Output] = true
	}

	missing := 0
	for _, ch := range cfg.Charts {
		if _, err := os.Stat(cfg.ReportPath(ch.Report)); err == nil || produced[ch.Report] {
			continue
		}
		if missing == 0 {
			fmt.Fprintf(w, "\nWarning: missing reports (these charts will fail):\n")
		}
		missing++
		fmt.Fprintf(w, "  - %s (%s)\n", ch.Report, ch.Name)
	}

	fmt.Fprintf(w, "\nReport files found: %d\n", len(present))
}
