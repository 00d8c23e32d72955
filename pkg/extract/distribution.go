package extract

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// MaxBins bounds the number of bins of a binned distribution.
const MaxBins = 10000

// ErrTooManyBins is returned when the value range needs more than MaxBins
// bins of the configured width.
var ErrTooManyBins = errors.New("too many bins")

// DistributionMode selects the shape of a delay distribution.
type DistributionMode string

const (
	// Cumulative yields sorted values vs. cumulative percentage.
	Cumulative DistributionMode = "cumulative"

	// Binned yields value counts per fixed-width bin.
	Binned DistributionMode = "binned"
)

// DistributionExtractor derives the distribution of one value field over the
// rows matching Select. No matching rows is not an error: the result then
// holds a single series without points.
type DistributionExtractor struct {
	Title      string
	ValueField string
	Unit       float64 // values are divided by Unit for the x axis; 0 means 1
	XLabel     string
	Select     *Selector
	Mode       DistributionMode
	BinWidth   float64 // in raw value units, binned mode only
}

// Extract implements Extractor.
func (e *DistributionExtractor) Extract(set *parser.SeriesSet) (*Derived, error) {
	values, err := numbers(set, e.ValueField)
	if err != nil {
		return nil, err
	}

	var match Predicate
	if e.Select != nil {
		if _, err := labels(set, FieldMessageType); err != nil {
			return nil, err
		}
		if _, err := numbers(set, FieldPriority); err != nil {
			return nil, err
		}
		match = e.Select.Predicate()
	}

	selected := make([]float64, 0, len(values))
	for i, v := range values {
		if match != nil && !match(set.Row(i)) {
			continue
		}
		selected = append(selected, v)
	}

	label := e.ValueField
	if e.Select != nil {
		label = fmt.Sprintf("%s prio %d", e.Select.MessageType, e.Select.Priority)
	}

	switch e.Mode {
	case Binned:
		return e.binned(selected, label)
	case Cumulative, "":
		return e.cumulative(selected, label), nil
	default:
		return nil, fmt.Errorf("unknown distribution mode %q", e.Mode)
	}
}

func (e *DistributionExtractor) cumulative(values []float64, label string) *Derived {
	sort.Float64s(values)

	s := Series{
		Label: label,
		X:     make([]float64, len(values)),
		Y:     make([]float64, len(values)),
	}
	n := float64(len(values))
	for i, v := range values {
		s.X[i] = v / unit(e.Unit)
		s.Y[i] = float64(i+1) / n * 100
	}

	return &Derived{
		Title:  e.Title,
		XLabel: e.XLabel,
		YLabel: "Cumulative percentage",
		Kind:   ChartLine,
		Series: []Series{s},
	}
}

func (e *DistributionExtractor) binned(values []float64, label string) (*Derived, error) {
	if e.BinWidth <= 0 {
		return nil, errors.New("binned distribution requires a positive bin width")
	}

	s := Series{Label: label, X: []float64{}, Y: []float64{}}
	if len(values) > 0 {
		maxV := values[0]
		for _, v := range values {
			maxV = math.Max(maxV, v)
		}
		nb := math.Floor(maxV/e.BinWidth) + 1
		if math.IsNaN(nb) || nb > MaxBins {
			return nil, fmt.Errorf("%w: largest value %g needs more than %d bins of width %g",
				ErrTooManyBins, maxV, MaxBins, e.BinWidth)
		}
		bins := max(int(nb), 1)
		counts := make([]float64, bins)
		for _, v := range values {
			idx := int(math.Floor(v / e.BinWidth))
			if idx < 0 {
				idx = 0
			}
			counts[idx]++
		}
		s.X = make([]float64, bins)
		for i := range counts {
			s.X[i] = float64(i+1) * e.BinWidth / unit(e.Unit)
		}
		s.Y = counts
	}

	return &Derived{
		Title:  e.Title,
		XLabel: e.XLabel,
		YLabel: "Messages",
		Kind:   ChartBar,
		Series: []Series{s},
	}, nil
}
