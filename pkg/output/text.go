package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "reportsum: %d charts, %d ok, %d failed, %s lines rejected\n",
		report.Summary.ChartsRun,
		report.Summary.ChartsSucceeded,
		report.Summary.ChartsFailed,
		humanize.Comma(int64(report.Summary.LinesRejected)))
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== Report Summary ===")
	fmt.Fprintln(w)

	if len(report.Preprocess) > 0 {
		for _, p := range report.Preprocess {
			if p.Status == StatusOK {
				fmt.Fprintf(w, "[PREPROCESS] %s -> %s\n", p.Script, p.Output)
			} else {
				fmt.Fprintf(w, "[PREPROCESS] %s FAILED: %s\n", p.Script, p.Error)
			}
		}
		fmt.Fprintln(w)
	}

	for i := range report.Charts {
		f.formatChart(&report.Charts[i], w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d charts, %d ok, %d failed\n",
		report.Summary.ChartsRun,
		report.Summary.ChartsSucceeded,
		report.Summary.ChartsFailed)
	fmt.Fprintf(w, "Records: %s parsed, %s rejected\n",
		humanize.Comma(int64(report.Summary.RecordsParsed)),
		humanize.Comma(int64(report.Summary.LinesRejected)))

	switch {
	case report.Summary.Document != "":
		fmt.Fprintf(w, "Document: %s (%s)\n",
			report.Summary.Document,
			humanize.Bytes(uint64(report.Summary.DocumentBytes)))
	case report.Summary.DocumentError != "":
		fmt.Fprintf(w, "Document: not written (%s)\n", report.Summary.DocumentError)
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Run: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func (f *TextFormatter) formatChart(c *ChartReport, w io.Writer) {
	if c.Status != StatusOK {
		fmt.Fprintf(w, "[FAILED] %s (%s)\n", c.Name, c.Schema)
		fmt.Fprintf(w, "  %s\n", c.Error)
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "[OK] %s (%s)\n", c.Name, c.Schema)
	fmt.Fprintf(w, "  %s records, %s points -> %s\n",
		humanize.Comma(int64(c.Records)),
		humanize.Comma(int64(c.Points)),
		c.Image)

	if c.Points == 0 {
		fmt.Fprintln(w, "  No data to plot")
	}

	if c.Failures > 0 {
		fmt.Fprintf(w, "  Rejected: %s line(s)\n", humanize.Comma(int64(c.Failures)))
		if f.opts.Verbose {
			for _, s := range c.Samples {
				fmt.Fprintf(w, "  - line %d: %s %q\n", s.Line, s.Reason, s.Raw)
			}
		}
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "  Source: %s\n", c.Report)
	}

	fmt.Fprintln(w)
}
