// Package chart renders extracted report series to PNG images.
package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ccollicutt/reportsum/pkg/extract"
)

// ErrRender marks a chart that could not be drawn or written.
var ErrRender = errors.New("render failed")

// Default image size in pixels.
const (
	DefaultWidth  = 1200
	DefaultHeight = 700
)

// Renderer draws a Derived to an image file.
type Renderer interface {
	Render(ctx context.Context, d *extract.Derived, path string) error
}

// PNGRenderer renders charts with go-chart.
type PNGRenderer struct {
	width  int
	height int
	logger *slog.Logger
}

// Option configures a PNGRenderer.
type Option func(*PNGRenderer)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *PNGRenderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithLogger sets the renderer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *PNGRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewPNGRenderer creates a renderer with default size.
func NewPNGRenderer(opts ...Option) *PNGRenderer {
	r := &PNGRenderer{
		width:  DefaultWidth,
		height: DefaultHeight,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws d and writes it to path. Charts without points are drawn as
// an empty, flat chart. The file is only written when drawing succeeds.
func (r *PNGRenderer) Render(ctx context.Context, d *extract.Derived, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("%w: %s: nothing to render", ErrRender, path)
	}

	var buf bytes.Buffer
	var err error
	if d.Kind == extract.ChartBar && !d.IsEmpty() {
		err = r.drawBars(d, &buf)
	} else {
		err = r.drawLines(d, &buf)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	r.logger.Debug("chart written", "path", path, "points", d.Points(), "bytes", buf.Len())
	return nil
}

func (r *PNGRenderer) drawLines(d *extract.Derived, w io.Writer) error {
	var series []gochart.Series
	var xs, ys []float64
	for _, s := range d.Series {
		if s.Len() == 0 {
			continue
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    s.Label,
			XValues: s.X,
			YValues: s.Y,
		})
		xs = append(xs, s.X...)
		ys = append(ys, s.Y...)
	}

	graph := gochart.Chart{
		Title:  d.Title,
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{Name: d.XLabel, Range: padRange(xs)},
		YAxis: gochart.YAxis{Name: d.YLabel, Range: padRange(ys)},
	}

	if len(series) == 0 {
		// flat placeholder so empty reports still produce an image
		graph.XAxis.Range = &gochart.ContinuousRange{Min: 0, Max: 1}
		graph.YAxis.Range = &gochart.ContinuousRange{Min: 0, Max: 1}
		series = append(series, gochart.ContinuousSeries{
			Name:    "no data",
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
			Style: gochart.Style{
				StrokeColor: drawing.ColorFromHex("aaaaaa"),
				StrokeWidth: 1,
			},
		})
	}

	graph.Series = series
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return graph.Render(gochart.PNG, w)
}

func (r *PNGRenderer) drawBars(d *extract.Derived, w io.Writer) error {
	s := d.Series[0]
	bars := make([]gochart.Value, 0, s.Len())
	maxY := 0.0
	for i := range s.X {
		bars = append(bars, gochart.Value{
			Label: fmt.Sprintf("%.4g", s.X[i]),
			Value: s.Y[i],
		})
		maxY = math.Max(maxY, s.Y[i])
	}
	if maxY == 0 {
		maxY = 1
	}

	barWidth := (r.width - 150) / (2 * len(bars))
	if barWidth < 2 {
		barWidth = 2
	}

	bc := gochart.BarChart{
		Title:      d.Title,
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: gochart.YAxis{
			Name:  d.YLabel,
			Range: &gochart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Bars: bars,
	}

	return bc.Render(gochart.PNG, w)
}

// padRange returns nil when values span a usable range and a padded range
// around a constant value otherwise.
func padRange(values []float64) gochart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi > lo {
		return nil
	}
	pad := math.Abs(lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
