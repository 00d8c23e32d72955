// Package output provides formatting and output generation for run results.
package output

import (
	"os"
	"time"

	"github.com/ccollicutt/reportsum/pkg/summary"
)

// Chart statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Report is the complete run output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Charts contains one entry per chart job, in document order.
	Charts []ChartReport

	// Preprocess lists the external tool runs.
	Preprocess []PreprocessReport `json:",omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// ChartsRun is the number of chart jobs executed.
	ChartsRun int

	// ChartsSucceeded is the number of images written.
	ChartsSucceeded int

	// ChartsFailed is the number of charts that could not be produced.
	ChartsFailed int

	// RecordsParsed is the number of report lines turned into records.
	RecordsParsed int

	// LinesRejected is the number of report lines that failed to parse.
	LinesRejected int

	// Document is the assembled summary path, empty when assembly failed.
	Document string `json:",omitempty"`

	// DocumentBytes is the size of the assembled summary.
	DocumentBytes int64 `json:",omitempty"`

	// DocumentError explains why no document was written.
	DocumentError string `json:",omitempty"`
}

// ChartReport describes one chart job.
type ChartReport struct {
	Name     string
	Schema   string
	Report   string
	Image    string
	Status   string
	Records  int
	Failures int
	Points   int
	Error    string          `json:",omitempty"`
	Samples  []FailureSample `json:",omitempty"`
}

// FailureSample is one rejected report line.
type FailureSample struct {
	Line   int
	Reason string
	Field  string `json:",omitempty"`
	Raw    string
}

// PreprocessReport describes one external tool run.
type PreprocessReport struct {
	Script string
	Output string
	Status string
	Error  string `json:",omitempty"`
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID identifies the run.
	RunID string

	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:",omitempty"`

	// ReportDirectory is where the reports were read from.
	ReportDirectory string

	// ImageDirectory is where the charts were written.
	ImageDirectory string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// NewReport creates a Report from run results.
func NewReport(result *summary.Result, configFile string) *Report {
	report := &Report{
		Charts: make([]ChartReport, 0, len(result.Charts)),
		Metadata: Metadata{
			RunID:           result.RunID,
			ConfigFile:      configFile,
			ReportDirectory: result.ReportDirectory,
			ImageDirectory:  result.ImageDirectory,
			StartedAt:       result.StartTime,
			Duration:        result.Duration(),
		},
		Summary: Summary{
			ChartsRun:       len(result.Charts),
			ChartsSucceeded: result.Succeeded(),
			ChartsFailed:    result.Failed(),
			LinesRejected:   result.TotalFailures(),
			Document:        result.Document,
		},
	}

	for _, c := range result.Charts {
		report.Summary.RecordsParsed += c.Records
		report.Charts = append(report.Charts, newChartReport(c))
	}

	for _, p := range result.Preprocess {
		pr := PreprocessReport{Script: p.Script, Output: p.Output, Status: StatusOK}
		if p.Err != nil {
			pr.Status = StatusFailed
			pr.Error = p.Err.Error()
		}
		report.Preprocess = append(report.Preprocess, pr)
	}

	if result.DocumentErr != nil {
		report.Summary.DocumentError = result.DocumentErr.Error()
	}
	if result.Document != "" {
		if info, err := os.Stat(result.Document); err == nil {
			report.Summary.DocumentBytes = info.Size()
		}
	}

	return report
}

func newChartReport(c *summary.ChartResult) ChartReport {
	cr := ChartReport{
		Name:     c.Name,
		Schema:   c.Schema,
		Report:   c.Report,
		Image:    c.Image,
		Status:   StatusOK,
		Records:  c.Records,
		Failures: c.Failures,
		Points:   c.Points,
	}
	if c.Err != nil {
		cr.Status = StatusFailed
		cr.Error = c.Err.Error()
	}
	for _, s := range c.Samples {
		cr.Samples = append(cr.Samples, FailureSample{
			Line:   s.LineNum,
			Reason: string(s.Reason),
			Field:  s.Field,
			Raw:    s.Raw,
		})
	}
	return cr
}

// HasFailures returns true if any chart or the document failed.
func (r *Report) HasFailures() bool {
	return r.Summary.ChartsFailed > 0 || r.Summary.DocumentError != ""
}
