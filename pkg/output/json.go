package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter writes the run report as indented JSON for scripting.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport is the compact document emitted with --quiet: the run's
// counters, its id and the names of the charts that need attention.
type quietReport struct {
	RunID string
	Summary
	FailedCharts []string `json:",omitempty"`
}

func newQuietReport(report *Report) quietReport {
	q := quietReport{RunID: report.Metadata.RunID, Summary: report.Summary}
	for _, c := range report.Charts {
		if c.Status == StatusFailed {
			q.FailedCharts = append(q.FailedCharts, c.Name)
		}
	}
	return q
}

// Format renders the report. Quiet mode drops per-chart detail.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(newQuietReport(report))
	}
	return encoder.Encode(report)
}
