// Package preprocess runs the external report condensing tools.
//
// Each tool is a script invoked as
//
//	<interpreter> <script> <input-report> <granularity-seconds>
//
// that writes the condensed report to stdout. The runner always redirects
// stdout into the job's output file, on every platform.
package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultInterpreter runs the bundled analysis scripts.
const DefaultInterpreter = "perl"

// ErrToolNotFound is returned when no script file can be located.
var ErrToolNotFound = errors.New("preprocessing tool not found")

// Job is one preprocessing invocation.
type Job struct {
	Script             string
	Input              string
	Output             string
	GranularitySeconds int
}

// Runner locates and executes preprocessing scripts.
type Runner struct {
	interpreter string
	searchDirs  []string
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSearchDirs adds directories searched for scripts, in order.
func WithSearchDirs(dirs ...string) Option {
	return func(r *Runner) {
		for _, d := range dirs {
			if d != "" {
				r.searchDirs = append(r.searchDirs, d)
			}
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner. An empty interpreter executes scripts directly.
func NewRunner(interpreter string, opts ...Option) *Runner {
	r := &Runner{
		interpreter: interpreter,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindScript resolves a script name. It searches in the following
// locations in order:
//  1. The name itself, if it is a path to an existing file
//  2. Each configured search directory
//  3. Same directory as the running binary
//  4. Anywhere in PATH
func (r *Runner) FindScript(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) && r.usable(name) {
		return name, nil
	}

	for _, dir := range r.searchDirs {
		candidate := filepath.Join(dir, name)
		if r.usable(candidate) {
			return candidate, nil
		}
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), name)
		if r.usable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// Run executes job and writes the tool's stdout to job.Output.
// A failed run removes the partial output file.
func (r *Runner) Run(ctx context.Context, job Job) error {
	script, err := r.FindScript(job.Script)
	if err != nil {
		return err
	}

	args := []string{job.Input, strconv.Itoa(job.GranularitySeconds)}
	name := script
	if r.interpreter != "" {
		name = r.interpreter
		args = append([]string{script}, args...)
	}

	out, err := os.Create(job.Output) // #nosec G304 -- output path comes from config
	if err != nil {
		return fmt.Errorf("creating %s: %w", job.Output, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- configured tool
	cmd.Stdout = out
	cmd.Stderr = &limitedBuffer{buf: &stderr, max: 4096}

	runErr := cmd.Run()
	closeErr := out.Close()

	if runErr != nil {
		_ = os.Remove(job.Output)
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("running %s: %w: %s", filepath.Base(script), runErr, msg)
		}
		return fmt.Errorf("running %s: %w", filepath.Base(script), runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing %s: %w", job.Output, closeErr)
	}

	r.logger.Info("preprocessed report",
		"script", filepath.Base(script),
		"input", job.Input,
		"output", job.Output,
		"granularity", job.GranularitySeconds)
	return nil
}

// usable reports whether path is a regular file the runner can start.
// Without an interpreter the file must also be executable.
func (r *Runner) usable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if r.interpreter == "" {
		return info.Mode()&0111 != 0
	}
	return true
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	buf *bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}
