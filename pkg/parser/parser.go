package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	// DefaultSampleLimit is how many parse failures a SeriesSet keeps verbatim.
	DefaultSampleLimit = 5

	// MaxLineLength is the longest report line that is parsed.
	MaxLineLength = 1024 * 1024

	// rawPrefixLength bounds the text kept for an overlong line.
	rawPrefixLength = 64
)

// Reader reads whole report files of one schema into a SeriesSet.
// Unparseable lines are counted and skipped; they never abort a read.
type Reader struct {
	schema      *Schema
	logger      *slog.Logger
	sampleLimit int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for skipped-line diagnostics.
func WithLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSampleLimit sets how many failed lines are kept as samples.
func WithSampleLimit(n int) ReaderOption {
	return func(r *Reader) {
		if n >= 0 {
			r.sampleLimit = n
		}
	}
}

// NewReader creates a Reader for the given schema.
func NewReader(schema *Schema, opts ...ReaderOption) *Reader {
	r := &Reader{
		schema:      schema,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		sampleLimit: DefaultSampleLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schema returns the reader's schema.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// Read parses the report at path.
// A missing or unreadable file yields an error wrapping ErrReportIO.
func (r *Reader) Read(ctx context.Context, path string) (*SeriesSet, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrReportIO, path, err)
	}
	defer f.Close()

	set, err := r.ReadFrom(ctx, f, path)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("report read",
		"path", path,
		"schema", r.schema.Name,
		"records", set.Len(),
		"skipped", set.Failures())
	if set.Failures() > 0 {
		r.logger.Info("skipped lines not matching schema",
			"path", path,
			"schema", r.schema.Name,
			"skipped", set.Failures(),
			"total", set.TotalLines())
	}

	return set, nil
}

// ReadFrom parses report lines from src. name identifies the source in
// errors and logs. Lines longer than MaxLineLength are counted as failures
// and skipped.
func (r *Reader) ReadFrom(ctx context.Context, src io.Reader, name string) (*SeriesSet, error) {
	set := NewSeriesSet(r.schema)
	br := bufio.NewReaderSize(src, 64*1024)

	lineNum := 0
	for {
		line, tooLong, n, readErr := readLine(br, MaxLineLength)
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrReportIO, name, readErr)
		}
		if n == 0 && readErr == io.EOF {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lineNum++
		if tooLong {
			perr := &ParseError{
				LineNum: lineNum,
				Raw:     line,
				Reason:  ReasonLineTooLong,
				Detail:  fmt.Sprintf("%d bytes, limit %d", n, MaxLineLength),
			}
			set.recordFailure(perr, r.sampleLimit)
			r.logger.Debug("skipping line", "source", name, "line", lineNum, "reason", perr.Reason)
		} else if err := r.parseInto(set, line, lineNum, name); err != nil {
			return nil, err
		}

		if readErr == io.EOF {
			break
		}
	}

	return set, nil
}

func (r *Reader) parseInto(set *SeriesSet, line string, lineNum int, name string) error {
	rec, err := ParseLine(line, r.schema)
	if err != nil {
		var perr *ParseError
		if !errors.As(err, &perr) {
			return fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
		perr.LineNum = lineNum
		set.recordFailure(perr, r.sampleLimit)
		r.logger.Debug("skipping line", "source", name, "line", lineNum, "reason", perr.Reason)
		return nil
	}

	if err := set.Append(rec); err != nil {
		return fmt.Errorf("%s:%d: %w", name, lineNum, err)
	}
	return nil
}

// readLine returns the next line without its line ending and the number of
// bytes consumed. A line longer than limit is drained and returned as a short
// prefix with tooLong set.
func readLine(br *bufio.Reader, limit int) (line string, tooLong bool, n int, err error) {
	var buf []byte
	for {
		chunk, rerr := br.ReadSlice('\n')
		n += len(chunk)
		if !tooLong {
			if len(buf)+len(chunk) > limit+2 {
				tooLong = true
				buf = append(buf, chunk...)
				buf = buf[:min(len(buf), rawPrefixLength)]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}

		if !tooLong {
			buf = bytes.TrimSuffix(buf, []byte("\n"))
			buf = bytes.TrimSuffix(buf, []byte("\r"))
			if len(buf) > limit {
				tooLong = true
				buf = buf[:rawPrefixLength]
			}
		}
		return string(buf), tooLong, n, rerr
	}
}
