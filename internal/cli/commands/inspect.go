package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output  string
	Samples int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <schema> <report-file>",
		Short: "Parse a report and show what was accepted",
		Long: `Parse a report with the given schema without drawing anything.

Shows the number of lines read, records accepted and lines rejected, the
range of every numeric field, and the first rejected lines with the reason.

Example:
  reportsum inspect occupancy realisticScenario_BufferOccupancyReport.txt
  reportsum inspect delay messageDelayAnalysis.txt -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.Samples, "samples", "n", parser.DefaultSampleLimit, "Number of rejected lines to show")

	return cmd
}

// FieldStats summarizes one numeric field.
type FieldStats struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// RejectedLine is one rejected line in inspect output.
type RejectedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Field  string `json:"field,omitempty"`
	Raw    string `json:"raw"`
}

// InspectOutput is the result of inspecting one report.
type InspectOutput struct {
	File     string         `json:"file"`
	Schema   string         `json:"schema"`
	Lines    int            `json:"lines"`
	Records  int            `json:"records"`
	Rejected int            `json:"rejected"`
	Fields   []FieldStats   `json:"fields"`
	Samples  []RejectedLine `json:"samples,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	schema, err := lookupSchema(args[0])
	if err != nil {
		return err
	}

	reader := parser.NewReader(schema, parser.WithSampleLimit(opts.Samples))
	set, err := reader.Read(ctx, args[1])
	if err != nil {
		return err
	}

	out := newInspectOutput(args[1], set)

	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	case "text":
		outputInspectText(cmd.OutOrStdout(), out)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func newInspectOutput(file string, set *parser.SeriesSet) *InspectOutput {
	out := &InspectOutput{
		File:     file,
		Schema:   set.Schema().Name,
		Lines:    set.TotalLines(),
		Records:  set.Len(),
		Rejected: set.Failures(),
		Fields:   make([]FieldStats, 0, len(set.Schema().Fields)),
	}

	for _, f := range set.Schema().Fields {
		if f.Kind != parser.KindNumber {
			continue
		}
		values, _ := set.Numbers(f.Name)
		out.Fields = append(out.Fields, fieldStats(f.Name, values))
	}

	for _, perr := range set.FailureSamples() {
		out.Samples = append(out.Samples, RejectedLine{
			Line:   perr.LineNum,
			Reason: string(perr.Reason),
			Field:  perr.Field,
			Raw:    perr.Raw,
		})
	}

	return out
}

func fieldStats(name string, values []float64) FieldStats {
	fs := FieldStats{Name: name}
	if len(values) == 0 {
		return fs
	}
	fs.Min, fs.Max = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range values {
		fs.Min = math.Min(fs.Min, v)
		fs.Max = math.Max(fs.Max, v)
		sum += v
	}
	fs.Mean = sum / float64(len(values))
	return fs
}

func outputInspectText(w io.Writer, out *InspectOutput) {
	fmt.Fprintln(w, "=== Report Inspection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", out.File)
	fmt.Fprintf(w, "Schema: %s\n", out.Schema)
	fmt.Fprintf(w, "Lines: %s (%s records, %s rejected)\n",
		humanize.Comma(int64(out.Lines)),
		humanize.Comma(int64(out.Records)),
		humanize.Comma(int64(out.Rejected)))
	fmt.Fprintln(w)

	if out.Records > 0 {
		fmt.Fprintln(w, "Fields:")
		for _, f := range out.Fields {
			fmt.Fprintf(w, "  %-20s min %-12g max %-12g mean %g\n", f.Name, f.Min, f.Max, f.Mean)
		}
		fmt.Fprintln(w)
	}

	if len(out.Samples) > 0 {
		fmt.Fprintln(w, "Rejected lines:")
		for _, s := range out.Samples {
			if s.Field != "" {
				fmt.Fprintf(w, "  line %d: %s (%s): %q\n", s.Line, s.Reason, s.Field, s.Raw)
			} else {
				fmt.Fprintf(w, "  line %d: %s: %q\n", s.Line, s.Reason, s.Raw)
			}
		}
	}
}
