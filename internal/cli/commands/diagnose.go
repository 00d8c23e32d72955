package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/reportsum/pkg/config"
	"github.com/ccollicutt/reportsum/pkg/detector"
	"github.com/ccollicutt/reportsum/pkg/parser"
	"github.com/ccollicutt/reportsum/pkg/preprocess"
)

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// diagnoseSampleSize is the number of report lines checked per chart.
const diagnoseSampleSize = 20

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [report-directory]",
		Short: "Check a report directory before summarizing",
		Long: `Check a report directory for common problems before a run.

This command checks:
- Config file syntax and structure
- Report directory existence
- Preprocessing tool and input availability
- Each chart's report file, parsed against its schema
- Webhook configuration

Example:
  reportsum diagnose ./reports
  reportsum diagnose --config run.yaml -v   # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (defaults to the built-in chart table)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, reportDir string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	if opts.ConfigFile != "" {
		result := checkConfigExists(opts.ConfigFile)
		results = append(results, result)
		if result.Status == statusError {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, opts.ConfigFile, reportDir)
	results = append(results, result)
	if result.Status == statusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check report directory
	result = checkReportDirectory(cfg)
	results = append(results, result)
	if result.Status == statusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkImageDirectory(cfg))

	// 4. Check preprocessing tools
	results = append(results, checkPreprocess(cfg)...)

	// 5. Check chart reports against their schemas
	results = append(results, checkChartReports(ctx, cfg, opts)...)

	// 6. Check webhooks configuration
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'reportsum detect <report-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = statusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'reportsum detect <report-file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path, reportDir string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	var overrides []config.Override
	if reportDir != "" {
		overrides = append(overrides, func(c *config.Config) { c.ReportDirectory = reportDir })
	}

	cfg, err := config.Load(ctx, path, overrides...)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Invalid configuration: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "report_directory"):
			result.Suggests = []string{
				"Pass the report directory as an argument or set " + config.EnvReportDirectory,
			}
		}
		return nil, result
	}

	result.Status = statusOK
	if path == "" {
		result.Message = "Using built-in chart table"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Granularity: %ds", cfg.GranularitySeconds),
		fmt.Sprintf("Preprocessing steps: %d", len(cfg.Preprocess)),
		fmt.Sprintf("Charts: %d", len(cfg.Charts)),
	}
	return cfg, result
}

func checkReportDirectory(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Report Directory: %s", cfg.ReportDirectory),
	}

	info, err := os.Stat(cfg.ReportDirectory)
	switch {
	case os.IsNotExist(err):
		result.Status = statusError
		result.Message = "Directory does not exist"
		result.Suggests = []string{"Check the path to the simulator output"}
	case err != nil:
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access directory: %v", err)
	case !info.IsDir():
		result.Status = statusError
		result.Message = "Path is a file, not a directory"
	default:
		result.Status = statusOK
		result.Message = "Directory exists"
	}
	return result
}

func checkImageDirectory(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Image Directory: %s", cfg.ImageDir()),
	}
	if !imageDirWritable(cfg.ImageDir()) {
		result.Status = statusError
		result.Message = "Directory cannot be created"
		result.Suggests = []string{"Choose another location with --images"}
		return result
	}
	result.Status = statusOK
	if _, err := os.Stat(cfg.ImageDir()); err != nil {
		result.Message = "Will be created"
	} else {
		result.Message = "Directory exists, stale images are replaced per chart"
	}
	result.Details = []string{fmt.Sprintf("Document: %s", cfg.Document())}
	return result
}

func checkPreprocess(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}
	if len(cfg.Preprocess) == 0 {
		return results
	}

	if cfg.Tools.Interpreter != "" {
		result := DiagnosticResult{Check: fmt.Sprintf("Interpreter: %s", cfg.Tools.Interpreter)}
		if path, err := exec.LookPath(cfg.Tools.Interpreter); err != nil {
			result.Status = statusWarning
			result.Message = "Interpreter not found in PATH"
			result.Suggests = []string{
				"Install " + cfg.Tools.Interpreter + " or run with --skip-preprocess",
			}
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Found: %s", path)
		}
		results = append(results, result)
	}

	runner := preprocess.NewRunner(cfg.Tools.Interpreter,
		preprocess.WithSearchDirs(cfg.ToolDir(), cfg.ReportDirectory))

	for _, p := range cfg.Preprocess {
		result := DiagnosticResult{Check: fmt.Sprintf("Preprocess: %s", p.Script)}

		issues := []string{}
		script, err := runner.FindScript(p.Script)
		if err != nil {
			issues = append(issues, "Script not found")
			result.Suggests = append(result.Suggests,
				fmt.Sprintf("Place %s in %s or next to the reportsum binary", p.Script, cfg.ToolDir()))
		}
		if _, err := os.Stat(cfg.ReportPath(p.Input)); err != nil {
			issues = append(issues, fmt.Sprintf("Input report missing: %s", p.Input))
		}

		if len(issues) > 0 {
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%d issue(s)", len(issues))
			result.Details = issues
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("%s -> %s", p.Input, p.Output)
			result.Details = []string{fmt.Sprintf("Script: %s", script)}
		}
		results = append(results, result)
	}

	return results
}

func checkChartReports(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	produced := make(map[string]bool, len(cfg.Preprocess))
	for _, p := range cfg.Preprocess {
		produced[p.Output] = true
	}

	for _, ch := range cfg.Charts {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Chart: %s", ch.Name),
		}
		path := cfg.ReportPath(ch.Report)

		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err) && produced[ch.Report]:
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%s not found, will be produced by preprocessing", ch.Report)
		case os.IsNotExist(err):
			result.Status = statusError
			result.Message = fmt.Sprintf("Report does not exist: %s", ch.Report)
			result.Suggests = []string{"The chart will be skipped; remove it or fix the report name"}
		case err != nil:
			result.Status = statusError
			result.Message = fmt.Sprintf("Cannot access report: %v", err)
		case info.Size() == 0:
			result.Status = statusWarning
			result.Message = "Report is empty (0 bytes), chart will have no data"
		default:
			result = checkReportSchema(ctx, result, path, ch, opts)
		}

		results = append(results, result)
	}

	return results
}

// checkReportSchema parses the head of a report with the chart's schema and
// suggests a better schema when few lines parse.
func checkReportSchema(ctx context.Context, result DiagnosticResult, path string, ch config.ChartConfig, opts *DiagnoseOptions) DiagnosticResult {
	schema, _ := parser.LookupSchema(ch.Schema)

	d := detector.New(detector.WithSampleSize(diagnoseSampleSize), detector.WithSchemas(schema))
	detResult, err := d.DetectFromFile(ctx, path)
	if err != nil {
		result.Status = statusWarning
		result.Message = truncate(fmt.Sprintf("Cannot read report: %v", err), 100)
		return result
	}

	confidence := 0.0
	if best := detResult.BestMatch(); best != nil {
		confidence = best.Confidence
	}

	switch {
	case confidence == 0:
		result.Status = statusError
		result.Message = fmt.Sprintf("Schema %s parses no sample lines", ch.Schema)
	case confidence < 0.5:
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Schema %s parses only %.0f%% of sample lines", ch.Schema, confidence*100)
	default:
		result.Status = statusOK
		result.Message = fmt.Sprintf("Schema %s parses %.0f%% of sample lines", ch.Schema, confidence*100)
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("Report: %s", path),
				fmt.Sprintf("Image: %s", ch.Image),
			}
		}
		return result
	}

	// Auto-detect and suggest
	all, _ := detector.New(detector.WithSampleSize(diagnoseSampleSize)).DetectFromFile(ctx, path)
	if all != nil && all.HasMatch() {
		best := all.BestMatch()
		result.Suggests = append(result.Suggests,
			fmt.Sprintf("Detected schema: %s (%.0f%% of sample lines)", best.Schema.Name, best.Confidence*100))
	} else {
		result.Suggests = append(result.Suggests,
			"Use 'reportsum inspect "+ch.Schema+" "+path+"' to see the rejected lines")
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== reportsum Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarning:
			icon = "WARN"
			warnCount++
		case statusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before summarizing.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nReports are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nReports look good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		// Load already rejected malformed URLs and triggers; an empty
		// token here means the referenced env var is unset.
		if wh.Token == "" {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s (no token)", wh.Trigger)
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", truncate(wh.URL, 60)),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	if _, err := url.Parse(wh.URL); err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Invalid URL: %v", err)
		return result
	}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// imageDirWritable reports whether the image directory exists or can be
// created under an existing parent.
func imageDirWritable(dir string) bool {
	for d := dir; ; d = filepath.Dir(d) {
		info, err := os.Stat(d)
		if err == nil {
			return info.IsDir()
		}
		if parent := filepath.Dir(d); parent == d {
			return false
		}
	}
}
