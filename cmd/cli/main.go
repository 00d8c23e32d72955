// reportsum - Simulation Report Summarizer
//
// reportsum parses the text reports of a network simulation run, draws one
// chart per report and assembles the charts into a single PDF.
package main

import (
	"os"

	"github.com/ccollicutt/reportsum/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
