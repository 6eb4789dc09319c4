package signalgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/signalhouse/pqascore/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "signalgen_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the signal generator tool.
func ShowHelp() {
	os.Stdout.WriteString(`PQA Signal Generator
====================

A concurrent load-test tool for the account scoring service. It generates
skewed product-signal traffic, submits it over HTTP, then cross-checks
per-account scores against the ranked top-accounts view.

Usage:
  go run cmd/signalgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -signals int
        Number of signals to generate and submit (default 10000)
  -accounts int
        Number of distinct accounts to spread signals across (default 200)
  -top int
        Number of top accounts to fetch (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated signals (default: generated_signals_TIMESTAMP.json)
  -log string
        Log file for test output (default: signalgen_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/signalgen/main.go

  # Heavier run against a different port
  go run cmd/signalgen/main.go -signals 50000 -accounts 500 -workers 16 -url http://localhost:8080

  # Verbose output with a named log file
  go run cmd/signalgen/main.go -verbose -signals 10000 -log my_test.log
`)
}
