package parser

import "fmt"

// SeriesSet holds one ordered sequence per schema field, built by appending
// parsed records in file order. All sequences always have the same length.
type SeriesSet struct {
	schema  *Schema
	numbers map[string][]float64
	labels  map[string][]string
	length  int

	totalLines int
	failures   int
	samples    []*ParseError
}

// NewSeriesSet creates an empty SeriesSet for schema.
func NewSeriesSet(schema *Schema) *SeriesSet {
	s := &SeriesSet{
		schema:  schema,
		numbers: make(map[string][]float64),
		labels:  make(map[string][]string),
	}
	for _, f := range schema.Fields {
		switch f.Kind {
		case KindLabel:
			s.labels[f.Name] = []string{}
		default:
			s.numbers[f.Name] = []float64{}
		}
	}
	return s
}

// Schema returns the schema the set was built for.
func (s *SeriesSet) Schema() *Schema {
	return s.schema
}

// Len returns the number of records in the set.
func (s *SeriesSet) Len() int {
	return s.length
}

// Failures returns the number of lines that did not match the schema.
func (s *SeriesSet) Failures() int {
	return s.failures
}

// TotalLines returns the number of lines read, parsed or not.
func (s *SeriesSet) TotalLines() int {
	return s.totalLines
}

// FailureSamples returns the first recorded parse failures.
func (s *SeriesSet) FailureSamples() []*ParseError {
	return s.samples
}

// Append adds one record. The record must carry every schema field.
func (s *SeriesSet) Append(rec Record) error {
	for _, f := range s.schema.Fields {
		switch f.Kind {
		case KindLabel:
			if _, ok := rec.Labels[f.Name]; !ok {
				return fmt.Errorf("record missing label field %q", f.Name)
			}
		default:
			if _, ok := rec.Numbers[f.Name]; !ok {
				return fmt.Errorf("record missing number field %q", f.Name)
			}
		}
	}

	for _, f := range s.schema.Fields {
		switch f.Kind {
		case KindLabel:
			s.labels[f.Name] = append(s.labels[f.Name], rec.Labels[f.Name])
		default:
			s.numbers[f.Name] = append(s.numbers[f.Name], rec.Numbers[f.Name])
		}
	}
	s.length++
	s.totalLines++
	return nil
}

// recordFailure counts a failed line and keeps it as a sample while fewer
// than limit samples are held.
func (s *SeriesSet) recordFailure(perr *ParseError, limit int) {
	s.failures++
	s.totalLines++
	if len(s.samples) < limit {
		s.samples = append(s.samples, perr)
	}
}

// Numbers returns the sequence of a number field.
// The returned slice must not be modified.
func (s *SeriesSet) Numbers(name string) ([]float64, bool) {
	v, ok := s.numbers[name]
	return v, ok
}

// Labels returns the sequence of a label field.
// The returned slice must not be modified.
func (s *SeriesSet) Labels(name string) ([]string, bool) {
	v, ok := s.labels[name]
	return v, ok
}

// Row rebuilds the record at index i.
func (s *SeriesSet) Row(i int) Record {
	rec := Record{Numbers: make(map[string]float64, len(s.numbers))}
	for name, seq := range s.numbers {
		rec.Numbers[name] = seq[i]
	}
	if len(s.labels) > 0 {
		rec.Labels = make(map[string]string, len(s.labels))
		for name, seq := range s.labels {
			rec.Labels[name] = seq[i]
		}
	}
	return rec
}
