package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/signalhouse/pqascore/internal/signalgen"
)

// Default configuration constants.
const (
	defaultNumSignals  = 10000
	defaultNumAccounts = 200
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numSignals  = flag.Int("signals", defaultNumSignals, "Number of signals to generate and submit")
		numAccounts = flag.Int("accounts", defaultNumAccounts, "Number of distinct accounts to spread signals across")
		topN        = flag.Int("top", defaultTopN, "Number of top accounts to fetch")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated signals (default: generated_signals_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: signalgen_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		signalgen.ShowHelp()
		return
	}

	if err := signalgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &signalgen.Config{
		BaseURL:     *baseURL,
		NumSignals:  *numSignals,
		NumAccounts: *numAccounts,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := signalgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
