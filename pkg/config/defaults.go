package config

import (
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultGranularitySeconds = 300
	DefaultInterpreter        = "perl"
	DefaultToolDirectory      = ".."
	DefaultImageSubdir        = "images"
	DefaultDocumentName       = "reportSummary.pdf"
	DefaultWebhookTimeout     = 10 * time.Second

	scenarioPrefix = "realisticScenario_"
)

// Environment variable names.
const (
	EnvReportDirectory    = "REPORTSUM_REPORT_DIRECTORY"
	EnvGranularitySeconds = "REPORTSUM_GRANULARITY_SECONDS"
	EnvImageDirectory     = "REPORTSUM_IMAGE_DIRECTORY"
)

// Outputs of the default preprocessing steps.
const (
	messageDelayAnalysis     = "messageDelayAnalysis.txt"
	broadcastMessageAnalysis = "broadcastMessageAnalysis.txt"
	multicastMessageAnalysis = "multicastMessageAnalysis.txt"
)

// DefaultConfig returns a configuration with the standard chart table of a
// disaster scenario run. Only the report directory is left to the user.
func DefaultConfig() *Config {
	return &Config{
		GranularitySeconds: DefaultGranularitySeconds,
		Tools: ToolsConfig{
			Interpreter: DefaultInterpreter,
			Directory:   DefaultToolDirectory,
		},
		Preprocess: []PreprocessConfig{
			{Script: "messageDelayAnalyzer.pl", Input: scenarioPrefix + "ImmediateMessageDelayReport.txt", Output: messageDelayAnalysis},
			{Script: "broadcastMessageAnalyzer.pl", Input: scenarioPrefix + "BroadcastDeliveryReport.txt", Output: broadcastMessageAnalysis},
			{Script: "multicastMessageAnalyzer.pl", Input: scenarioPrefix + "MulticastMessageDeliveryReport.txt", Output: multicastMessageAnalysis},
		},
		Charts: DefaultCharts(),
	}
}

// DefaultCharts returns the standard chart table in document order.
func DefaultCharts() []ChartConfig {
	prio := func(p int) *int { return &p }

	return []ChartConfig{
		{Name: "traffic", Schema: "traffic", Report: scenarioPrefix + "TrafficReport.txt", Image: "01_trafficAnalysis.png"},
		{Name: "buffer-occupancy", Schema: "occupancy", Report: scenarioPrefix + "BufferOccupancyReport.txt", Image: "02_bufferOccupancy.png"},
		{Name: "delivery-rate", Schema: "delivery", Report: scenarioPrefix + "DeliveryProbabilityReport.txt", Image: "03_deliveryRate.png"},
		{Name: "one-to-one-delay", Schema: "delay", Report: messageDelayAnalysis, Image: "04_oneToOneMessageDelay.png", MessageType: "ONE_TO_ONE", Priority: prio(0)},
		{Name: "broadcast", Schema: "broadcast", Report: broadcastMessageAnalysis, Image: "05_broadcastAnalysis.png"},
		{Name: "broadcast-delay-prio-2", Schema: "delay", Report: messageDelayAnalysis, Image: "06_broadcastDelayPrio2.png", MessageType: "BROADCAST", Priority: prio(2)},
		{Name: "broadcast-delay-prio-5", Schema: "delay", Report: messageDelayAnalysis, Image: "07_broadcastDelayPrio5.png", MessageType: "BROADCAST", Priority: prio(5)},
		{Name: "broadcast-delay-prio-9", Schema: "delay", Report: messageDelayAnalysis, Image: "08_broadcastDelayPrio9.png", MessageType: "BROADCAST", Priority: prio(9)},
		{Name: "multicast", Schema: "multicast", Report: multicastMessageAnalysis, Image: "09_multicastAnalysis.png"},
		{Name: "multicast-delay", Schema: "delay", Report: messageDelayAnalysis, Image: "10_multicastDelay.png", MessageType: "MULTICAST", Priority: prio(1)},
		{Name: "data-sync", Schema: "datasync", Report: scenarioPrefix + "DataSyncReport.txt", Image: "11_dataSyncAnalysis.png"},
		{Name: "energy", Schema: "energy", Report: scenarioPrefix + "EnergyLevelReport.txt", Image: "12_energyAnalysis.png"},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if dir := os.Getenv(EnvReportDirectory); dir != "" {
		c.ReportDirectory = dir
	}
	if g := os.Getenv(EnvGranularitySeconds); g != "" {
		if v, err := strconv.Atoi(g); err == nil {
			c.GranularitySeconds = v
		}
	}
	if dir := os.Getenv(EnvImageDirectory); dir != "" {
		c.ImageOutputDirectory = dir
	}
}
