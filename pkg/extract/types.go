// Package extract turns parsed report series into chart-ready data.
package extract

import (
	"errors"

	"github.com/ccollicutt/reportsum/pkg/parser"
)

// ErrSchemaMismatch is returned when an extractor names a field the parsed
// report does not have. It indicates a configuration bug, not bad data.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SecondsPerMinute converts simulator seconds to chart minutes.
const SecondsPerMinute = 60.0

// ChartKind selects how a Derived is drawn.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
)

// Extractor derives chart series from a parsed report.
type Extractor interface {
	Extract(set *parser.SeriesSet) (*Derived, error)
}

// Series is one labeled (x, y) sequence.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.X)
}

// Derived is the output of an extractor, ready for rendering.
type Derived struct {
	Title  string
	XLabel string
	YLabel string
	Kind   ChartKind
	Series []Series
}

// Points returns the total number of points over all series.
func (d *Derived) Points() int {
	n := 0
	for _, s := range d.Series {
		n += s.Len()
	}
	return n
}

// IsEmpty reports whether there is nothing to plot.
func (d *Derived) IsEmpty() bool {
	return d.Points() == 0
}

// Predicate selects rows of a SeriesSet.
type Predicate func(row parser.Record) bool

// Selector picks delay rows by message type and priority.
type Selector struct {
	MessageType string
	Priority    int
}

// Predicate returns a row filter matching the selector.
func (s Selector) Predicate() Predicate {
	return func(row parser.Record) bool {
		return row.Labels[FieldMessageType] == s.MessageType &&
			row.Numbers[FieldPriority] == float64(s.Priority)
	}
}

// Delay schema field names.
const (
	FieldMessageType = "messageType"
	FieldPriority    = "priority"
	FieldDelay       = "delay"
)
