package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/reportsum/pkg/extract"
	"github.com/ccollicutt/reportsum/pkg/parser"
)

// Override mutates a loaded configuration before validation.
// Command-line flags are applied this way.
type Override func(*Config)

// maxSuggestDistance bounds how far a misspelled name may be from a
// known one and still be suggested.
const maxSuggestDistance = 3

// Load reads and validates a configuration file. An empty path starts from
// DefaultConfig alone. Environment overrides are applied after the file,
// then each override in order.
func Load(_ context.Context, path string, overrides ...Override) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()
	for _, o := range overrides {
		o(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills per-entry defaults.
func Validate(cfg *Config) error {
	if cfg.ReportDirectory == "" {
		return errors.New("report_directory: a report directory is required")
	}

	if cfg.GranularitySeconds <= 0 {
		return fmt.Errorf("granularity_seconds: must be positive, got %d", cfg.GranularitySeconds)
	}

	for i := range cfg.Preprocess {
		if err := validatePreprocess(&cfg.Preprocess[i]); err != nil {
			return fmt.Errorf("preprocess[%d] (%s): %w", i, cfg.Preprocess[i].Script, err)
		}
	}

	if len(cfg.Charts) == 0 {
		return errors.New("charts: at least one chart is required")
	}

	names := make(map[string]bool, len(cfg.Charts))
	images := make(map[string]bool, len(cfg.Charts))
	for i := range cfg.Charts {
		ch := &cfg.Charts[i]
		if err := validateChart(ch, cfg.GranularitySeconds); err != nil {
			return fmt.Errorf("charts[%d] (%s): %w", i, ch.Name, err)
		}
		if names[ch.Name] {
			return fmt.Errorf("charts[%d]: duplicate name %q", i, ch.Name)
		}
		names[ch.Name] = true
		if images[ch.Image] {
			return fmt.Errorf("charts[%d] (%s): image %q is already used", i, ch.Name, ch.Image)
		}
		images[ch.Image] = true
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validatePreprocess(p *PreprocessConfig) error {
	if p.Script == "" {
		return errors.New("script is required")
	}
	if p.Input == "" {
		return errors.New("input is required")
	}
	if p.Output == "" {
		return errors.New("output is required")
	}
	return nil
}

func validateChart(ch *ChartConfig, granularity int) error {
	if ch.Name == "" {
		return errors.New("name is required")
	}

	if _, ok := parser.LookupSchema(ch.Schema); !ok {
		msg := fmt.Sprintf("unknown schema %q", ch.Schema)
		if s := Suggest(ch.Schema, parser.SchemaNames()); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return errors.New(msg)
	}

	if ch.Report == "" {
		return errors.New("report is required")
	}

	if ch.Image == "" {
		return errors.New("image is required")
	}
	if !strings.EqualFold(filepath.Ext(ch.Image), ".png") {
		return fmt.Errorf("image %q must be a .png file", ch.Image)
	}

	if ch.Band && !extract.HasBand(ch.Schema) {
		return fmt.Errorf("band applies to occupancy and energy charts only, not %s", ch.Schema)
	}

	if !ch.IsDelay() {
		if ch.MessageType != "" || ch.Priority != nil || ch.Mode != "" || ch.BinWidth != 0 {
			return errors.New("message_type, priority, mode and bin_width apply to delay charts only")
		}
		return nil
	}

	if ch.MessageType == "" {
		return errors.New("message_type is required for delay charts")
	}
	if ch.Priority == nil {
		return errors.New("priority is required for delay charts")
	}

	switch ch.Mode {
	case "", ModeCumulative:
		if ch.BinWidth != 0 {
			return errors.New("bin_width applies to binned mode only")
		}
		ch.Mode = ModeCumulative
	case ModeBinned:
		if ch.BinWidth < 0 {
			return fmt.Errorf("bin_width must be positive, got %g", ch.BinWidth)
		}
		if ch.BinWidth == 0 {
			ch.BinWidth = float64(granularity)
		}
	default:
		msg := fmt.Sprintf("invalid mode %q (must be cumulative or binned)", ch.Mode)
		if s := Suggest(ch.Mode, []string{ModeCumulative, ModeBinned}); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return errors.New(msg)
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnFailure, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_failure, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnFailure
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// Suggest returns the candidate closest to name by edit distance, or ""
// when nothing is close enough.
func Suggest(name string, candidates []string) string {
	if name == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
