package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLine parses one raw report line against schema.
// The line is split on whitespace and must hold exactly one token per field.
// On failure the returned error is a *ParseError and the Record is empty.
func ParseLine(line string, schema *Schema) (Record, error) {
	tokens := strings.Fields(line)
	if len(tokens) != len(schema.Fields) {
		return Record{}, &ParseError{
			Raw:    line,
			Reason: ReasonFieldCount,
			Detail: fmt.Sprintf("got %d fields, want %d", len(tokens), len(schema.Fields)),
		}
	}

	rec := Record{
		Numbers: make(map[string]float64, len(tokens)),
	}

	for i, field := range schema.Fields {
		tok := tokens[i]

		if field.Kind == KindLabel {
			if rec.Labels == nil {
				rec.Labels = make(map[string]string, 1)
			}
			rec.Labels[field.Name] = tok
			continue
		}

		v, ok := parseDecimal(tok)
		if !ok {
			return Record{}, &ParseError{
				Raw:    line,
				Reason: ReasonNotNumeric,
				Field:  field.Name,
				Detail: strconv.Quote(tok),
			}
		}
		rec.Numbers[field.Name] = v
	}

	return rec, nil
}

// parseDecimal accepts plain decimals only: optional sign, digits and an
// optional fraction. Exponents, NaN, Inf and hex floats are rejected even
// though strconv would take them.
func parseDecimal(tok string) (float64, bool) {
	if !isDecimal(tok) {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDecimal(tok string) bool {
	i := 0
	if i < len(tok) && (tok[i] == '+' || tok[i] == '-') {
		i++
	}

	intDigits := 0
	for i < len(tok) && isDigit(tok[i]) {
		i++
		intDigits++
	}

	fracDigits := 0
	if i < len(tok) && tok[i] == '.' {
		i++
		for i < len(tok) && isDigit(tok[i]) {
			i++
			fracDigits++
		}
	}

	return i == len(tok) && intDigits+fracDigits > 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
