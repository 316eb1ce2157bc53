// Package probe checks the leaderboard and series endpoints of a running
// podium server.
package probe

import (
	"fmt"
	"os"

	"github.com/okian/podium/pkg/logger"
)

// SetupLogging configures logging to the console and, when logFile is set,
// to a rotated file.
func SetupLogging(logFile string, verbose bool) error {
	if err := logger.InitFile(logFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe.
func ShowHelp() {
	os.Stdout.WriteString(`Podium Probe
============

Queries a running podium server and verifies its responses:
leaderboards are bounded and ordered, the mixed board equals the merge of
the per-sex boards, and series hold no empty category nor a year outside
the requested window.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -limit int
        Leaderboard size to request (default 10)
  -window int
        Series window in years (default 10)
  -group string
        Category group for series: Subjunior, Junior or Open (default "Open")
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file (default: console only)
  -verbose
        Enable debug logging
  -help
        Show this help message

The exit status is non-zero when the service is unreachable or any check fails.
`)
}
