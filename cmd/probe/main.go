package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/podium/internal/probe"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultLimit        = 10
	defaultWindow       = 10
	defaultTimeout      = 10 * time.Second
	defaultProbeTimeout = 2 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		limit   = flag.Int("limit", defaultLimit, "Leaderboard size to request")
		window  = flag.Int("window", defaultWindow, "Series window in years")
		group   = flag.String("group", "Open", "Category group for series")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file (default: console only)")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return 0
	}

	if err := probe.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL: *baseURL,
		Limit:   *limit,
		Window:  *window,
		Group:   *group,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
