// Package summary runs a full report summarization pass: preprocessing,
// one chart per configured entry, and the final document.
package summary

import (
	"time"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// ChartResult records the outcome of one chart job.
type ChartResult struct {
	Name   string
	Schema string
	Report string
	Image  string

	// Records and Failures are the parsed and rejected line counts.
	Records  int
	Failures int

	// Samples holds the first rejected lines.
	Samples []*parser.ParseError

	// Points is the number of plotted points across all series.
	Points int

	// Err is set when the chart could not be produced.
	Err error
}

// OK returns true if the chart image was written.
func (c *ChartResult) OK() bool {
	return c.Err == nil
}

// PreprocessResult records the outcome of one preprocessing step.
type PreprocessResult struct {
	Script string
	Output string
	Err    error
}

// Result contains the complete run output.
type Result struct {
	// RunID identifies this run in logs and webhook payloads.
	RunID string

	ReportDirectory string
	ImageDirectory  string

	// Document is the assembled summary path; empty if assembly failed.
	Document    string
	DocumentErr error

	Preprocess []*PreprocessResult
	Charts     []*ChartResult

	StartTime time.Time
	EndTime   time.Time
}

// Succeeded returns the number of charts that were written.
func (r *Result) Succeeded() int {
	n := 0
	for _, c := range r.Charts {
		if c.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of charts that could not be produced.
func (r *Result) Failed() int {
	return len(r.Charts) - r.Succeeded()
}

// TotalFailures returns the number of rejected report lines across charts.
func (r *Result) TotalFailures() int {
	n := 0
	for _, c := range r.Charts {
		n += c.Failures
	}
	return n
}

// HasFailures returns true if any chart or the document failed.
func (r *Result) HasFailures() bool {
	return r.Failed() > 0 || r.DocumentErr != nil
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
