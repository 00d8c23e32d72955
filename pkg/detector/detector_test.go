package detector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

func TestDetector_DetectFromLines_Delay(t *testing.T) {
	lines := []string{
		"BROADCAST 5 120.0",
		"ONE_TO_ONE 0 42.5",
		"MULTICAST 1 300.0",
	}

	d := New()
	result := d.DetectFromLines(lines)

	if !result.HasMatch() {
		t.Fatal("Expected to detect a schema")
	}

	best := result.BestMatch()
	if best.Schema.Name != "delay" {
		t.Errorf("Expected delay, got %s", best.Schema.Name)
	}
	if best.Confidence != 1.0 {
		t.Errorf("Expected 100%% confidence, got %.1f%%", best.Confidence*100)
	}
	if best.SampleLine != "BROADCAST 5 120.0" {
		t.Errorf("SampleLine = %q", best.SampleLine)
	}
	if result.Ambiguous() {
		t.Error("label lines should not be ambiguous")
	}
}

func TestDetector_DetectFromLines_NumericPrefersUnlabelled(t *testing.T) {
	lines := []string{
		"600 50.0 75.0",
		"1200 80.0 90.0",
	}

	result := New().DetectFromLines(lines)

	best := result.BestMatch()
	if best == nil {
		t.Fatal("Expected to detect a schema")
	}
	if best.Schema.Name != "multicast" {
		t.Errorf("Expected multicast before delay, got %s", best.Schema.Name)
	}
}

func TestDetector_DetectFromLines_FiveFieldsAmbiguous(t *testing.T) {
	lines := []string{
		"120.0 45.5 2.3 10.0 80.0",
		"240.0 46.0 2.1 11.0 81.0",
	}

	result := New().DetectFromLines(lines)

	if len(result.Matches) != 2 {
		t.Fatalf("Matches = %d, want 2 (occupancy, traffic)", len(result.Matches))
	}
	if result.Matches[0].Schema.Name != "occupancy" || result.Matches[1].Schema.Name != "traffic" {
		t.Errorf("order = %s, %s", result.Matches[0].Schema.Name, result.Matches[1].Schema.Name)
	}
	if !result.Ambiguous() {
		t.Error("Expected ambiguity between equally shaped schemas")
	}
}

func TestDetector_DetectFromLines_MixedLines(t *testing.T) {
	lines := []string{
		"300 0.9 0.1 1.0",
		"600 0.8 0.1 1.0",
		"900 0.7 0.1 1.0",
		"1200 0.5",
	}

	result := New().DetectFromLines(lines)

	best := result.BestMatch()
	if best == nil {
		t.Fatal("Expected to detect a schema")
	}
	if len(best.Schema.Fields) != 4 {
		t.Errorf("Expected a four field schema, got %s", best.Schema.Name)
	}
	if best.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", best.Confidence)
	}
	if result.ParsedLines != 3 {
		t.Errorf("ParsedLines = %d, want 3", result.ParsedLines)
	}
}

func TestDetector_DetectFromLines_NoMatch(t *testing.T) {
	lines := []string{
		"This is a plain line without numbers",
		"Another line",
	}

	result := New().DetectFromLines(lines)

	if result.HasMatch() {
		t.Errorf("Expected no match, got %s", result.BestMatch().Schema.Name)
	}
	if result.BestMatch() != nil {
		t.Error("BestMatch() should be nil")
	}
}

func TestDetector_DetectFromLines_EmptyInput(t *testing.T) {
	result := New().DetectFromLines([]string{"", "   "})

	if result.HasMatch() {
		t.Error("Expected no match for empty input")
	}
	if result.SampledLines != 0 {
		t.Errorf("SampledLines = %d, want 0", result.SampledLines)
	}
}

func TestDetector_WithSchemas(t *testing.T) {
	d := New(WithSchemas(parser.Energy))
	result := d.DetectFromLines([]string{"300 0.9 0.1 1.0"})

	if len(result.Matches) != 1 || result.Matches[0].Schema.Name != "energy" {
		t.Errorf("Matches = %+v, want energy only", result.Matches)
	}
}

func TestDetector_WithSampleSize(t *testing.T) {
	d := New(WithSampleSize(50))
	if d.sampleSize != 50 {
		t.Errorf("Expected sample size 50, got %d", d.sampleSize)
	}
}

func TestDetector_WithSampleSize_Invalid(t *testing.T) {
	d := New(WithSampleSize(-1))
	if d.sampleSize != DefaultSampleSize {
		t.Errorf("Expected default sample size %d, got %d", DefaultSampleSize, d.sampleSize)
	}
}

func TestDetector_DetectFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "messageDelayAnalysis.txt")

	content := "BROADCAST 2 60.0\n\nBROADCAST 5 120.0\nONE_TO_ONE 0 30.0\nMULTICAST 1 90.0\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	result, err := New(WithSampleSize(3)).DetectFromFile(context.Background(), tmpFile)
	if err != nil {
		t.Fatalf("DetectFromFile failed: %v", err)
	}

	if result.SampledLines != 3 {
		t.Errorf("SampledLines = %d, want 3", result.SampledLines)
	}
	if best := result.BestMatch(); best == nil || best.Schema.Name != "delay" {
		t.Errorf("Expected delay, got %+v", best)
	}
}

func TestDetector_DetectFromFile_NotFound(t *testing.T) {
	_, err := New().DetectFromFile(context.Background(), "/nonexistent/report.txt")
	if !errors.Is(err, parser.ErrReportIO) {
		t.Errorf("Expected ErrReportIO, got %v", err)
	}
}

func TestDetector_DetectFromFile_Canceled(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "r.txt")
	if err := os.WriteFile(tmpFile, []byte("300 0.5\n"), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().DetectFromFile(ctx, tmpFile); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
