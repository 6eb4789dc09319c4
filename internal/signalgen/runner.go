package signalgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalhouse/pqascore/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete signal load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting signal load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("signals", config.NumSignals),
		logger.Int("accounts", config.NumAccounts),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("topN", config.TopN),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate signals
	signals, err := generateSignals(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("signal generation failed: %w", err)
	}

	// Step 3: Submit signals concurrently
	if err := submitSignals(ctx, config, signals, stats); err != nil {
		return fmt.Errorf("signal submission failed: %w", err)
	}

	// Step 4: Wait for recompute passes to drain
	logger.Get().Info(ctx, "waiting for recompute passes to drain")
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while draining: %w", ctx.Err())
	case <-time.After(ProcessingDrainDelay):
	}

	// Step 5: Retrieve per-account scores concurrently
	scores, err := retrieveScores(ctx, config, signals, stats)
	if err != nil {
		return fmt.Errorf("score retrieval failed: %w", err)
	}

	// Step 6: Get the ranked top accounts
	top, err := getTopAccounts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("top-accounts retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, scores, top); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save signals to file
	if err := saveSignalsToFile(ctx, config, signals); err != nil {
		logger.Get().Warn(ctx, "failed to save signals to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the endpoint serves Prometheus metrics).
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSignalsToFile saves the generated signals to a JSON file.
func saveSignalsToFile(ctx context.Context, config *Config, signals []Signal) error {
	if len(signals) == 0 {
		return fmt.Errorf("no signals to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_signals_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(signals); err != nil {
		return fmt.Errorf("failed to write signals: %w", err)
	}

	logger.Get().Info(ctx, "signals saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, signalsPerSecond float64

	if stats.SignalsSubmitted > 0 {
		successRate = float64(stats.SignalsSuccessful) / float64(stats.SignalsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		signalsPerSecond = float64(stats.SignalsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("signalsGenerated", stats.SignalsGenerated),
		logger.Int("signalsSubmitted", stats.SignalsSubmitted),
		logger.Int("signalsSuccessful", stats.SignalsSuccessful),
		logger.Int("signalsDuplicate", stats.SignalsDuplicate),
		logger.Int("signalsFailed", stats.SignalsFailed),
		logger.Int("scoresRetrieved", stats.ScoresRetrieved),
		logger.Int("topEntries", stats.TopEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("signalsPerSecond", signalsPerSecond))
}
