// Package detector identifies which report schema a file follows.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// DefaultSampleSize is the number of lines read from the head of a file.
const DefaultSampleSize = 100

// DetectionResult holds the result of analyzing a report file.
type DetectionResult struct {
	Matches      []SchemaMatch // Schemas that parsed at least one line, best first
	SampledLines int           // Number of non-blank lines sampled
	ParsedLines  int           // Lines parsed by the best match
}

// SchemaMatch represents a schema that matched with its confidence score.
type SchemaMatch struct {
	Schema     *parser.Schema
	Confidence float64 // 0.0 to 1.0 (share of sampled lines parsed)
	MatchCount int     // Number of lines that parsed
	SampleLine string  // First line that parsed
}

// Detector tries each known schema against sampled report lines.
type Detector struct {
	schemas    []*parser.Schema
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithSchemas replaces the candidate schemas.
func WithSchemas(schemas ...*parser.Schema) Option {
	return func(d *Detector) {
		if len(schemas) > 0 {
			d.schemas = schemas
		}
	}
}

// New creates a new Detector over all known schemas.
func New(opts ...Option) *Detector {
	d := &Detector{
		schemas:    parser.Schemas(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a report file and returns matching schemas.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of report lines. Blank lines are ignored.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	var sampled []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			sampled = append(sampled, line)
		}
	}

	result := &DetectionResult{SampledLines: len(sampled)}
	if len(sampled) == 0 {
		return result
	}

	for _, schema := range d.schemas {
		m := SchemaMatch{Schema: schema}
		for _, line := range sampled {
			if _, err := parser.ParseLine(line, schema); err != nil {
				continue
			}
			if m.MatchCount == 0 {
				m.SampleLine = strings.TrimSpace(line)
			}
			m.MatchCount++
		}
		if m.MatchCount == 0 {
			continue
		}
		m.Confidence = float64(m.MatchCount) / float64(len(sampled))
		result.Matches = append(result.Matches, m)
	}

	// Sort by confidence descending, then by field count and label count
	// (more specific first), then by name for a stable order.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.Schema.Fields) != len(b.Schema.Fields) {
			return len(a.Schema.Fields) > len(b.Schema.Fields)
		}
		if la, lb := labelCount(a.Schema), labelCount(b.Schema); la != lb {
			return la < lb
		}
		return a.Schema.Name < b.Schema.Name
	})

	if len(result.Matches) > 0 {
		result.ParsedLines = result.Matches[0].MatchCount
	}

	return result
}

// labelCount counts free-text fields, which accept any token.
func labelCount(s *parser.Schema) int {
	n := 0
	for _, f := range s.Fields {
		if f.Kind == parser.KindLabel {
			n++
		}
	}
	return n
}

// sampleFile reads up to sampleSize non-blank lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", parser.ErrReportIO, path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() && len(lines) < d.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", parser.ErrReportIO, path, err)
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *SchemaMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one schema matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Ambiguous reports whether the runner-up parsed as many lines with the
// same number of fields, so the files cannot be told apart by shape.
func (r *DetectionResult) Ambiguous() bool {
	if len(r.Matches) < 2 {
		return false
	}
	a, b := r.Matches[0], r.Matches[1]
	return a.Confidence == b.Confidence && len(a.Schema.Fields) == len(b.Schema.Fields)
}
