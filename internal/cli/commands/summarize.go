package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/output"
	"github.com/ccollicutt/reportsum/pkg/summary"
	"github.com/ccollicutt/reportsum/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// SummarizeOptions holds command-line options for the summarize command.
type SummarizeOptions struct {
	ConfigFile     string
	Granularity    int
	ImageDir       string
	Document       string
	SkipPreprocess bool
	Charts         []string
	Output         string
	Verbose        bool
	Quiet          bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand() *cobra.Command {
	opts := &SummarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize [report-directory]",
		Short: "Chart every report of a simulation run",
		Long: `Run the preprocessing tools, draw one chart per configured report and
assemble all charts into a single PDF summary.

Without --config the built-in chart table of a disaster scenario run is
used. The report directory may be given as an argument, in the config file
or through REPORTSUM_REPORT_DIRECTORY.

A chart that cannot be produced is reported and the run continues.

Exit codes:
  0 - All charts written
  1 - Some chart or the document failed
  2 - Configuration or runtime error

Example:
  reportsum summarize ./reports
  reportsum summarize --granularity 600 --skip-preprocess ./reports
  reportsum summarize --config run.yaml --chart energy --chart traffic`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (defaults to the built-in chart table)")
	cmd.Flags().IntVarP(&opts.Granularity, "granularity", "g", config.DefaultGranularitySeconds, "Granularity in seconds passed to the preprocessing tools")
	cmd.Flags().StringVar(&opts.ImageDir, "images", "", "Image output directory (default <report-directory>/images)")
	cmd.Flags().StringVar(&opts.Document, "document", "", "Summary document path (default <report-directory>/reportSummary.pdf)")
	cmd.Flags().BoolVar(&opts.SkipPreprocess, "skip-preprocess", false, "Use existing condensed reports instead of running the tools")
	cmd.Flags().StringSliceVar(&opts.Charts, "chart", nil, "Run specific chart(s) only (can be repeated)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show rejected lines and debug logs")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailure), "When to fire webhook (on_failure|always|never)")

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string, opts *SummarizeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, opts.ConfigFile, summarizeOverrides(cmd, args, opts)...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, opts.Quiet)

	s, err := summary.New(cfg,
		summary.WithLogger(logger),
		summary.WithChartFilter(opts.Charts),
		summary.WithSkipPreprocess(opts.SkipPreprocess))
	if err != nil {
		return fmt.Errorf("creating summarizer: %w", err)
	}

	result, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	report := output.NewReport(result, opts.ConfigFile)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook errors are logged but don't fail the run
	webhook.NewClient(webhook.WithLogger(logger)).Notify(ctx, cfg.Webhooks, report)

	if report.HasFailures() {
		ExitCode = 1
	}

	return nil
}

// summarizeOverrides maps explicit flags and the positional argument onto
// the loaded configuration. Flags left at their default do not override
// the config file.
func summarizeOverrides(cmd *cobra.Command, args []string, opts *SummarizeOptions) []config.Override {
	var overrides []config.Override

	if len(args) == 1 {
		dir := args[0]
		overrides = append(overrides, func(c *config.Config) { c.ReportDirectory = dir })
	}
	if cmd.Flags().Changed("granularity") {
		g := opts.Granularity
		overrides = append(overrides, func(c *config.Config) { c.GranularitySeconds = g })
	}
	if opts.ImageDir != "" {
		dir := opts.ImageDir
		overrides = append(overrides, func(c *config.Config) { c.ImageOutputDirectory = dir })
	}
	if opts.Document != "" {
		doc := opts.Document
		overrides = append(overrides, func(c *config.Config) { c.DocumentPath = doc })
	}
	if opts.WebhookURL != "" {
		wh := cliWebhook(opts)
		overrides = append(overrides, func(c *config.Config) { c.Webhooks = append(c.Webhooks, wh) })
	}

	return overrides
}

// cliWebhook builds the webhook given on the command line. It is validated
// together with the config file webhooks.
func cliWebhook(opts *SummarizeOptions) config.WebhookConfig {
	trigger := config.WebhookTrigger(opts.WebhookTrigger)
	if trigger == "" {
		trigger = config.WebhookTriggerOnFailure
	}

	return config.WebhookConfig{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: trigger,
		Timeout: config.DefaultWebhookTimeout,
	}
}

func createFormatter(opts *SummarizeOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}
