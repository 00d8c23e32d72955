package summary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/reportsum/pkg/chart"
	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/document"
	"github.com/ccollicutt/reportsum/pkg/extract"
	"github.com/ccollicutt/reportsum/pkg/parser"
	"github.com/ccollicutt/reportsum/pkg/preprocess"
)

// Preprocessor runs one external condensing step.
type Preprocessor interface {
	Run(ctx context.Context, job preprocess.Job) error
}

// Summarizer orchestrates a run across the configured chart table.
type Summarizer struct {
	cfg    *config.Config
	charts []config.ChartConfig

	logger       *slog.Logger
	renderer     chart.Renderer
	assembler    document.Assembler
	preprocessor Preprocessor

	chartFilter    []string
	skipPreprocess bool
}

// Option configures summarizer behavior.
type Option func(*Summarizer)

// WithLogger sets the logger passed down to each stage.
func WithLogger(l *slog.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderer replaces the PNG chart renderer.
func WithRenderer(r chart.Renderer) Option {
	return func(s *Summarizer) {
		s.renderer = r
	}
}

// WithAssembler replaces the PDF assembler.
func WithAssembler(a document.Assembler) Option {
	return func(s *Summarizer) {
		s.assembler = a
	}
}

// WithPreprocessor replaces the external tool runner.
func WithPreprocessor(p Preprocessor) Option {
	return func(s *Summarizer) {
		s.preprocessor = p
	}
}

// WithChartFilter limits the run to the named charts.
func WithChartFilter(names []string) Option {
	return func(s *Summarizer) {
		s.chartFilter = names
	}
}

// WithSkipPreprocess disables the preprocessing step.
func WithSkipPreprocess(skip bool) Option {
	return func(s *Summarizer) {
		s.skipPreprocess = skip
	}
}

// New creates a summarizer from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Summarizer, error) {
	s := &Summarizer{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.renderer == nil {
		s.renderer = chart.NewPNGRenderer(chart.WithLogger(s.logger))
	}
	if s.assembler == nil {
		s.assembler = document.NewPDFAssembler()
	}
	if s.preprocessor == nil {
		s.preprocessor = preprocess.NewRunner(cfg.Tools.Interpreter,
			preprocess.WithSearchDirs(cfg.ToolDir(), cfg.ReportDirectory),
			preprocess.WithLogger(s.logger))
	}

	charts, err := selectCharts(cfg.Charts, s.chartFilter)
	if err != nil {
		return nil, err
	}
	s.charts = charts

	return s, nil
}

// selectCharts keeps the named charts in table order. Unknown names are an
// error so a typo does not silently produce an empty run.
func selectCharts(all []config.ChartConfig, names []string) ([]config.ChartConfig, error) {
	if len(names) == 0 {
		return all, nil
	}

	known := make([]string, len(all))
	for i, ch := range all {
		known[i] = ch.Name
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		found := false
		for _, k := range known {
			if k == n {
				found = true
				break
			}
		}
		if !found {
			msg := fmt.Sprintf("unknown chart %q", n)
			if s := config.Suggest(n, known); s != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", s)
			}
			return nil, errors.New(msg)
		}
		want[n] = true
	}

	var out []config.ChartConfig
	for _, ch := range all {
		if want[ch.Name] {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Charts returns the chart jobs this summarizer will run.
func (s *Summarizer) Charts() []config.ChartConfig {
	return s.charts
}

// Run executes preprocessing, every chart job and document assembly.
// Per-chart failures are recorded in the result and do not stop the run;
// an error is returned only for cancellation or when the image directory
// cannot be created.
func (s *Summarizer) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:           uuid.NewString(),
		ReportDirectory: s.cfg.ReportDirectory,
		ImageDirectory:  s.cfg.ImageDir(),
		StartTime:       time.Now(),
	}
	logger := s.logger.With("run_id", result.RunID)

	logger.Info("starting summary",
		"report_directory", result.ReportDirectory,
		"charts", len(s.charts))

	if !s.skipPreprocess {
		for _, p := range s.cfg.Preprocess {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result.Preprocess = append(result.Preprocess, s.preprocessOne(ctx, logger, p))
		}
	}

	if err := os.MkdirAll(result.ImageDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	for i := range s.charts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Charts = append(result.Charts, s.runChart(ctx, logger, &s.charts[i], result.ImageDirectory))
	}

	doc, err := s.assemble(ctx, result)
	if err != nil {
		result.DocumentErr = err
		logger.Error("document assembly failed", "error", err)
	} else {
		result.Document = doc
		logger.Info("document written", "path", doc)
	}

	result.EndTime = time.Now()
	logger.Info("summary complete",
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
		"duration", result.Duration())

	return result, nil
}

// assemble builds the document. A full run takes every PNG in the image
// directory; a filtered run takes only the images it produced, so pages
// left by charts outside the filter are not mixed in.
func (s *Summarizer) assemble(ctx context.Context, result *Result) (string, error) {
	var images []string
	if len(s.chartFilter) == 0 {
		var err error
		if images, err = document.ListImages(result.ImageDirectory); err != nil {
			return "", err
		}
	} else {
		for _, c := range result.Charts {
			if c.Err == nil {
				images = append(images, c.Image)
			}
		}
		sort.Strings(images)
	}
	if len(images) == 0 {
		return "", fmt.Errorf("%w in %s", document.ErrNoImages, result.ImageDirectory)
	}
	return s.assembler.Assemble(ctx, images, s.cfg.Document())
}

func (s *Summarizer) preprocessOne(ctx context.Context, logger *slog.Logger, p config.PreprocessConfig) *PreprocessResult {
	res := &PreprocessResult{
		Script: p.Script,
		Output: s.cfg.ReportPath(p.Output),
	}
	res.Err = s.preprocessor.Run(ctx, preprocess.Job{
		Script:             p.Script,
		Input:              s.cfg.ReportPath(p.Input),
		Output:             res.Output,
		GranularitySeconds: s.cfg.GranularitySeconds,
	})
	if res.Err != nil {
		logger.Warn("preprocessing failed", "script", p.Script, "error", res.Err)
	}
	return res
}

func (s *Summarizer) runChart(ctx context.Context, logger *slog.Logger, ch *config.ChartConfig, imageDir string) *ChartResult {
	res := &ChartResult{
		Name:   ch.Name,
		Schema: ch.Schema,
		Report: s.cfg.ReportPath(ch.Report),
		Image:  filepath.Join(imageDir, ch.Image),
	}
	logger = logger.With("chart", ch.Name)

	// A stale image from an earlier run must not end up in the document.
	if err := os.Remove(res.Image); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("removing stale image", "path", res.Image, "error", err)
	}

	res.Err = s.produceChart(ctx, logger, ch, res)
	if res.Err != nil {
		if errors.Is(res.Err, extract.ErrSchemaMismatch) {
			logger.Error("schema mismatch", "schema", ch.Schema, "error", res.Err)
		} else {
			logger.Warn("chart failed", "error", res.Err)
		}
	}
	return res
}

func (s *Summarizer) produceChart(ctx context.Context, logger *slog.Logger, ch *config.ChartConfig, res *ChartResult) error {
	schema, ok := parser.LookupSchema(ch.Schema)
	if !ok {
		return fmt.Errorf("%w: unknown schema %q", extract.ErrSchemaMismatch, ch.Schema)
	}

	reader := parser.NewReader(schema, parser.WithLogger(logger))
	set, err := reader.Read(ctx, res.Report)
	if err != nil {
		return err
	}
	res.Records = set.Len()
	res.Failures = set.Failures()
	res.Samples = set.FailureSamples()

	ex, err := extract.ForSchema(ch.Schema, ExtractOptions(ch))
	if err != nil {
		return err
	}
	derived, err := ex.Extract(set)
	if err != nil {
		return err
	}
	res.Points = derived.Points()
	if derived.IsEmpty() {
		logger.Warn("chart has no data", "report", res.Report)
	}

	if err := s.renderer.Render(ctx, derived, res.Image); err != nil {
		return err
	}

	logger.Debug("chart written",
		"image", res.Image,
		"records", res.Records,
		"failures", res.Failures,
		"points", res.Points)
	return nil
}

// ExtractOptions maps a chart table entry to extractor options.
func ExtractOptions(ch *config.ChartConfig) extract.Options {
	opts := extract.Options{Band: ch.Band}
	if ch.MessageType != "" && ch.Priority != nil {
		opts.Select = &extract.Selector{
			MessageType: strings.TrimSpace(ch.MessageType),
			Priority:    *ch.Priority,
		}
	}
	if ch.Mode == config.ModeBinned {
		opts.Mode = extract.Binned
		opts.BinWidth = ch.BinWidth
	}
	return opts
}
