package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/ccollicutt/reportsum/pkg/summary"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.ChartsRun != 2 {
		t.Errorf("ChartsRun = %d, want 2", parsed.Summary.ChartsRun)
	}
	if len(parsed.Charts) != 2 {
		t.Fatalf("Charts = %d, want 2", len(parsed.Charts))
	}
	if parsed.Charts[1].Status != StatusFailed {
		t.Errorf("Charts[1].Status = %q, want failed", parsed.Charts[1].Status)
	}
	if parsed.Metadata.RunID != report.Metadata.RunID {
		t.Errorf("RunID = %q, want %q", parsed.Metadata.RunID, report.Metadata.RunID)
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if _, ok := parsed["Charts"]; ok {
		t.Error("Quiet mode should not include charts")
	}
	if parsed["ChartsFailed"] != float64(1) {
		t.Errorf("ChartsFailed = %v, want 1", parsed["ChartsFailed"])
	}
}

func TestJSONFormatter_Format_QuietRunAndFailures(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed struct {
		RunID         string
		ChartsRun     int
		LinesRejected int
		FailedCharts  []string
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.RunID != report.Metadata.RunID {
		t.Errorf("RunID = %q, want %q", parsed.RunID, report.Metadata.RunID)
	}
	if parsed.ChartsRun != 2 || parsed.LinesRejected != 2 {
		t.Errorf("summary = %+v, want 2 charts and 2 rejected lines", parsed)
	}
	if len(parsed.FailedCharts) != 1 || parsed.FailedCharts[0] != "broadcast" {
		t.Errorf("FailedCharts = %v, want [broadcast]", parsed.FailedCharts)
	}
}

func TestJSONFormatter_Format_QuietAllOK(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := NewReport(&summary.Result{
		RunID:  "run-1",
		Charts: []*summary.ChartResult{{Name: "energy", Schema: "energy"}},
	}, "")

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("FailedCharts")) {
		t.Errorf("FailedCharts should be omitted when nothing failed:\n%s", buf.String())
	}
}
