package extract

import (
	"fmt"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// YField selects one y sequence of a SeriesExtractor.
type YField struct {
	Field string
	Label string
}

// SeriesExtractor maps an x field to one or more y fields, row by row.
// Every per-schema time series chart is an instance of it.
type SeriesExtractor struct {
	Title   string
	XField  string
	XLabel  string
	XUnit   float64 // x values are divided by XUnit; 0 means 1
	YFields []YField
	YLabel  string
	Filter  Predicate
}

// Extract implements Extractor.
func (e *SeriesExtractor) Extract(set *parser.SeriesSet) (*Derived, error) {
	xs, err := numbers(set, e.XField)
	if err != nil {
		return nil, err
	}

	ys := make([][]float64, len(e.YFields))
	for i, yf := range e.YFields {
		if ys[i], err = numbers(set, yf.Field); err != nil {
			return nil, err
		}
	}

	out := &Derived{
		Title:  e.Title,
		XLabel: e.XLabel,
		YLabel: e.YLabel,
		Kind:   ChartLine,
		Series: make([]Series, len(e.YFields)),
	}
	for i, yf := range e.YFields {
		label := yf.Label
		if label == "" {
			label = yf.Field
		}
		out.Series[i] = Series{Label: label, X: []float64{}, Y: []float64{}}
	}

	xUnit := unit(e.XUnit)
	for row := 0; row < set.Len(); row++ {
		if e.Filter != nil && !e.Filter(set.Row(row)) {
			continue
		}
		x := xs[row] / xUnit
		for i := range e.YFields {
			out.Series[i].X = append(out.Series[i].X, x)
			out.Series[i].Y = append(out.Series[i].Y, ys[i][row])
		}
	}

	return out, nil
}

func numbers(set *parser.SeriesSet, field string) ([]float64, error) {
	seq, ok := set.Numbers(field)
	if !ok {
		return nil, fmt.Errorf("%w: schema %s has no number field %q",
			ErrSchemaMismatch, set.Schema().Name, field)
	}
	return seq, nil
}

func labels(set *parser.SeriesSet, field string) ([]string, error) {
	seq, ok := set.Labels(field)
	if !ok {
		return nil, fmt.Errorf("%w: schema %s has no label field %q",
			ErrSchemaMismatch, set.Schema().Name, field)
	}
	return seq, nil
}

func unit(u float64) float64 {
	if u == 0 {
		return 1
	}
	return u
}
