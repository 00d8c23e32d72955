// Package parser provides report file reading and line parsing functionality.
package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for report parsing.
var (
	// ErrParse marks a line that does not match its schema.
	ErrParse = errors.New("line does not match schema")

	// ErrReportIO marks a report file that is missing or unreadable.
	ErrReportIO = errors.New("report file unreadable")
)

// FieldKind determines how a field token is interpreted.
type FieldKind int

const (
	// KindNumber fields are parsed as float64 decimals.
	KindNumber FieldKind = iota

	// KindLabel fields keep the raw token, e.g. a message type.
	KindLabel
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a single named column of a report line.
type Field struct {
	Name string
	Kind FieldKind
}

// Num declares a numeric field.
func Num(name string) Field {
	return Field{Name: name, Kind: KindNumber}
}

// Label declares a text field.
func Label(name string) Field {
	return Field{Name: name, Kind: KindLabel}
}

// Schema is the fixed, ordered field layout of one report type.
type Schema struct {
	// Name identifies the schema (occupancy, delay, ...).
	Name string

	// Description is a short human-readable summary.
	Description string

	// Fields are the whitespace separated columns, in order.
	Fields []Field
}

// Field returns the named field and whether it exists.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in column order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is one successfully parsed report line.
// Every schema field is present; there are no partial records.
type Record struct {
	// Numbers holds the values of number fields.
	Numbers map[string]float64

	// Labels holds the values of label fields.
	Labels map[string]string
}

// FailureReason classifies why a line did not parse.
type FailureReason string

const (
	// ReasonFieldCount means the line has fewer or more tokens than fields.
	ReasonFieldCount FailureReason = "field_count"

	// ReasonNotNumeric means a number field holds a malformed decimal.
	ReasonNotNumeric FailureReason = "not_numeric"

	// ReasonLineTooLong means the line exceeds MaxLineLength.
	ReasonLineTooLong FailureReason = "line_too_long"
)

// ParseError describes a line that did not match its schema.
type ParseError struct {
	// LineNum is the 1-based line number, zero when parsed standalone.
	LineNum int

	// Raw is the original line content.
	Raw string

	// Reason classifies the failure.
	Reason FailureReason

	// Field is the offending field name for not_numeric failures.
	Field string

	// Detail carries counts or the offending token.
	Detail string
}

// Error implements error.
func (e *ParseError) Error() string {
	prefix := ""
	if e.LineNum > 0 {
		prefix = fmt.Sprintf("line %d: ", e.LineNum)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: field %s: %s", prefix, e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Reason, e.Detail)
}

// Is makes errors.Is(err, ErrParse) true for every ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
