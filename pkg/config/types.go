// Package config provides configuration loading and validation for reportsum.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// ReportDirectory holds the simulator reports.
	ReportDirectory string `yaml:"report_directory"`

	// GranularitySeconds is passed to the preprocessing tools.
	GranularitySeconds int `yaml:"granularity_seconds"`

	// ImageOutputDirectory receives the chart images.
	// Defaults to <report_directory>/images.
	ImageOutputDirectory string `yaml:"image_output_directory,omitempty"`

	// DocumentPath is the assembled summary.
	// Defaults to <report_directory>/reportSummary.pdf.
	DocumentPath string `yaml:"document_path,omitempty"`

	Tools      ToolsConfig        `yaml:"tools"`
	Preprocess []PreprocessConfig `yaml:"preprocess"`
	Charts     []ChartConfig      `yaml:"charts"`
	Webhooks   []WebhookConfig    `yaml:"webhooks,omitempty"`
}

// ToolsConfig locates the preprocessing scripts.
type ToolsConfig struct {
	// Interpreter runs each script; empty executes scripts directly.
	Interpreter string `yaml:"interpreter"`

	// Directory is searched for scripts first. Relative paths are resolved
	// against the report directory.
	Directory string `yaml:"directory,omitempty"`
}

// PreprocessConfig is one external condensing step.
type PreprocessConfig struct {
	Script string `yaml:"script"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// ChartConfig is one entry of the chart table.
type ChartConfig struct {
	Name   string `yaml:"name"`
	Schema string `yaml:"schema"`

	// Report is the report file, relative to the report directory.
	Report string `yaml:"report"`

	// Image is the PNG file name, relative to the image directory.
	// Names sort in document order.
	Image string `yaml:"image"`

	// Delay chart selectors.
	MessageType string `yaml:"message_type,omitempty"`
	Priority    *int   `yaml:"priority,omitempty"`

	// Mode is cumulative (default) or binned, delay charts only.
	Mode string `yaml:"mode,omitempty"`

	// BinWidth in seconds for binned mode; defaults to the granularity.
	BinWidth float64 `yaml:"bin_width,omitempty"`

	// Band adds min/max series where the schema has them.
	Band bool `yaml:"band,omitempty"`
}

// Delay chart modes.
const (
	ModeCumulative = "cumulative"
	ModeBinned     = "binned"
)

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailure fires only when some chart failed (default).
	WebhookTriggerOnFailure WebhookTrigger = "on_failure"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending run reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failure" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ImageDir returns the directory charts are written to.
func (c *Config) ImageDir() string {
	if c.ImageOutputDirectory != "" {
		return c.ImageOutputDirectory
	}
	return filepath.Join(c.ReportDirectory, DefaultImageSubdir)
}

// Document returns the summary document path.
func (c *Config) Document() string {
	if c.DocumentPath != "" {
		return c.DocumentPath
	}
	return filepath.Join(c.ReportDirectory, DefaultDocumentName)
}

// ReportPath resolves a report file name against the report directory.
func (c *Config) ReportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ReportDirectory, name)
}

// ToolDir resolves the tool directory against the report directory.
func (c *Config) ToolDir() string {
	if c.Tools.Directory == "" || filepath.IsAbs(c.Tools.Directory) {
		return c.Tools.Directory
	}
	return filepath.Join(c.ReportDirectory, c.Tools.Directory)
}

// IsDelay reports whether the chart is a delay distribution.
func (ch *ChartConfig) IsDelay() bool {
	return ch.Schema == "delay"
}
