package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <report-file>",
		Short: "Detect which schema a report follows",
		Long: `Analyze a report to find the schema that parses it.

Samples lines from the head of the file and parses them with every known
schema. Reports the best match with its confidence and a ready-to-use chart
table entry.

Reports with the same number of numeric columns cannot be told apart by
shape alone; such ties are flagged.

Optionally generates a starter config file with --write-config.

Example:
  reportsum detect realisticScenario_EnergyLevelReport.txt
  reportsum detect --all messageDelayAnalysis.txt
  reportsum detect -w reportsum.yaml realisticScenario_TrafficReport.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching schemas, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	reportFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(reportFile); os.IsNotExist(err) {
		return fmt.Errorf("report file not found: %s", reportFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, reportFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, reportFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, reportFile, opts)
	default:
		return outputDetectText(w, result, reportFile, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, reportFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Report Schema Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", reportFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines parsed: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No schema detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: The file may need preprocessing first.")
		fmt.Fprintln(w, "Check the first few lines manually and compare with 'reportsum chart --help'.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Schema: %s\n", best.Schema.Name)
	fmt.Fprintf(w, "Fields: %s\n", strings.Join(best.Schema.FieldNames(), " "))
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines parsed)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintln(w)

	if result.Ambiguous() {
		fmt.Fprintf(w, "WARNING: %s parses this file equally well.\n", result.Matches[1].Schema.Name)
		fmt.Fprintln(w, "Please verify the schema from the report file name.")
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Chart table entry (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprint(w, chartSnippet(reportFile, best.Schema.Name))
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative schemas ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Schema.Name, m.Confidence*100)
			fmt.Fprintf(w, "   fields: %s\n", strings.Join(m.Schema.FieldNames(), " "))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a schema match in JSON output.
type JSONMatch struct {
	Schema     string   `json:"schema"`
	Fields     []string `json:"fields"`
	Confidence float64  `json:"confidence"`
	MatchCount int      `json:"match_count"`
	SampleLine string   `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	ParsedLines  int         `json:"parsed_lines"`
	Ambiguous    bool        `json:"ambiguous,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, reportFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         reportFile,
		SampledLines: result.SampledLines,
		ParsedLines:  result.ParsedLines,
		Ambiguous:    result.Ambiguous(),
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Schema:     m.Schema.Name,
			Fields:     m.Schema.FieldNames(),
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// chartSnippet renders a chart table entry for a detected report.
func chartSnippet(reportFile, schema string) string {
	name := chartNameFor(reportFile)
	var b strings.Builder
	fmt.Fprintf(&b, "  - name: %s\n", name)
	fmt.Fprintf(&b, "    schema: %s\n", schema)
	fmt.Fprintf(&b, "    report: %s\n", filepath.Base(reportFile))
	fmt.Fprintf(&b, "    image: 01_%s.png\n", name)
	if schema == "delay" {
		b.WriteString("    message_type: BROADCAST\n")
		b.WriteString("    priority: 0\n")
	}
	return b.String()
}

// chartNameFor derives a chart name from a report file name.
func chartNameFor(reportFile string) string {
	base := strings.TrimSuffix(filepath.Base(reportFile), filepath.Ext(reportFile))
	base = strings.TrimPrefix(base, "realisticScenario_")
	base = strings.TrimSuffix(base, "Report")
	if base == "" {
		return "report"
	}
	return base
}

// writeStarterConfig generates a starter config file for the detected schema.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, reportFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no schema detected")
	}

	content := generateStarterConfig(reportFile, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(reportFile string, match *detector.SchemaMatch) string {
	reportDir := filepath.Dir(reportFile)
	if abs, err := filepath.Abs(reportDir); err == nil {
		reportDir = abs
	}

	return fmt.Sprintf(`# reportsum configuration
# Generated by: reportsum detect
# Detected schema: %s (%.0f%% confidence)

report_directory: %s
granularity_seconds: 300

# Condensing tools run before charting. Remove if the reports are
# already condensed.
preprocess: []

charts:
%s
  # Add more charts here. Images are placed in the document in file name
  # order, so keep the numeric prefixes unique.
  # - name: energy
  #   schema: energy
  #   report: realisticScenario_EnergyLevelReport.txt
  #   image: 02_energy.png
  #   band: true
`, match.Schema.Name, match.Confidence*100,
		reportDir,
		chartSnippet(reportFile, match.Schema.Name))
}
