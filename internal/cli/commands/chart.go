package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/chart"
	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/extract"
	"github.com/ccollicutt/reportsum/pkg/parser"
)

// ChartOptions holds command-line options for the chart command.
type ChartOptions struct {
	MessageType string
	Priority    int
	Binned      bool
	BinWidth    float64
	Band        bool
	Verbose     bool
}

// NewChartCommand creates the chart command.
func NewChartCommand() *cobra.Command {
	opts := &ChartOptions{}

	cmd := &cobra.Command{
		Use:   "chart <schema> <report-file> <image-file>",
		Short: "Draw one report as a PNG chart",
		Long: `Parse a single report with the given schema and write its chart.

Schemas: ` + strings.Join(parser.SchemaNames(), ", ") + `

Delay reports need --type and --priority to select the messages to plot.

Example:
  reportsum chart energy realisticScenario_EnergyLevelReport.txt energy.png
  reportsum chart delay messageDelayAnalysis.txt prio5.png --type BROADCAST --priority 5
  reportsum chart delay messageDelayAnalysis.txt hist.png --type MULTICAST --priority 1 --binned`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.MessageType, "type", "", "Message type to plot (delay reports)")
	cmd.Flags().IntVar(&opts.Priority, "priority", 0, "Message priority to plot (delay reports)")
	cmd.Flags().BoolVar(&opts.Binned, "binned", false, "Plot a delay histogram instead of the cumulative distribution")
	cmd.Flags().Float64Var(&opts.BinWidth, "bin-width", float64(config.DefaultGranularitySeconds), "Histogram bin width in seconds")
	cmd.Flags().BoolVar(&opts.Band, "band", false, "Add min/max series (occupancy, energy)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug logs")

	return cmd
}

func runChart(cmd *cobra.Command, args []string, opts *ChartOptions) error {
	schemaName, reportFile, imageFile := args[0], args[1], args[2]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	schema, err := lookupSchema(schemaName)
	if err != nil {
		return err
	}

	exOpts, err := chartExtractOptions(schema, opts, cmd.Flags().Changed("priority"))
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, false)

	set, err := parser.NewReader(schema, parser.WithLogger(logger)).Read(ctx, reportFile)
	if err != nil {
		return err
	}

	ex, err := extract.ForSchema(schema.Name, exOpts)
	if err != nil {
		return err
	}
	derived, err := ex.Extract(set)
	if err != nil {
		return err
	}

	if err := chart.NewPNGRenderer(chart.WithLogger(logger)).Render(ctx, derived, imageFile); err != nil {
		return err
	}

	printChartResult(cmd.OutOrStdout(), imageFile, set, derived)
	return nil
}

// chartExtractOptions validates the delay selector flags.
func chartExtractOptions(schema *parser.Schema, opts *ChartOptions, prioritySet bool) (extract.Options, error) {
	exOpts := extract.Options{Band: opts.Band}

	if opts.Band && !extract.HasBand(schema.Name) {
		return exOpts, fmt.Errorf("--band applies to occupancy and energy reports only")
	}

	if schema.Name != parser.Delay.Name {
		if opts.MessageType != "" || prioritySet || opts.Binned {
			return exOpts, fmt.Errorf("--type, --priority and --binned apply to delay reports only")
		}
		return exOpts, nil
	}

	if opts.MessageType == "" || !prioritySet {
		return exOpts, fmt.Errorf("delay reports need --type and --priority")
	}
	exOpts.Select = &extract.Selector{MessageType: opts.MessageType, Priority: opts.Priority}
	exOpts.Mode = extract.Cumulative

	if opts.Binned {
		if opts.BinWidth <= 0 {
			return exOpts, fmt.Errorf("--bin-width must be positive, got %g", opts.BinWidth)
		}
		exOpts.Mode = extract.Binned
		exOpts.BinWidth = opts.BinWidth
	}

	return exOpts, nil
}

// lookupSchema resolves a schema name with a suggestion on typos.
func lookupSchema(name string) (*parser.Schema, error) {
	schema, ok := parser.LookupSchema(name)
	if ok {
		return schema, nil
	}
	msg := fmt.Sprintf("unknown schema %q", name)
	if s := config.Suggest(name, parser.SchemaNames()); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return nil, fmt.Errorf("%s; known schemas: %s", msg, strings.Join(parser.SchemaNames(), ", "))
}

func printChartResult(w io.Writer, imageFile string, set *parser.SeriesSet, d *extract.Derived) {
	fmt.Fprintf(w, "Wrote %s\n", imageFile)
	fmt.Fprintf(w, "  %d records, %d points", set.Len(), d.Points())
	if set.Failures() > 0 {
		fmt.Fprintf(w, ", %d line(s) rejected", set.Failures())
	}
	fmt.Fprintln(w)
	if d.IsEmpty() {
		fmt.Fprintln(w, "  No data to plot")
	}
}
