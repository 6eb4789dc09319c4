package signalgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/signalhouse/pqascore/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	actorsPerAccount   = 8
	lookbackDays       = 30
	hoursPerDay        = 24
)

// signalTypes is the weighted catalog of product signals the generator
// emits. Routine activity dominates; expansion signals are rare, which
// mirrors the shape of real product telemetry.
var signalTypes = []struct {
	name   string
	weight int
}{
	{"login", 30},
	{"feature_used", 30},
	{"api_call", 15},
	{"dashboard_viewed", 10},
	{"report_exported", 6},
	{"invite_sent", 4},
	{"integration_connected", 3},
	{"seat_added", 2},
}

// getRandomInt returns a uniform random integer in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateSignals creates the configured number of signals spread across a
// fixed pool of accounts. Account traffic is skewed so a handful of accounts
// accumulate enough activity to land in the hot tier.
func generateSignals(ctx context.Context, config *Config, stats *Stats) ([]Signal, error) {
	logger.Get().Info(ctx, "generating signals",
		logger.Int("numSignals", config.NumSignals),
		logger.Int("numAccounts", config.NumAccounts))

	// Pre-allocate account and actor pools.
	accountIDs := make([]string, config.NumAccounts)
	actorPools := make([][]string, config.NumAccounts)
	for i := 0; i < config.NumAccounts; i++ {
		accountIDs[i] = "acct_" + uuid.New().String()
		actors := make([]string, actorsPerAccount)
		for j := range actors {
			actors[j] = "user_" + uuid.New().String()
		}
		actorPools[i] = actors
	}

	signals := make([]Signal, config.NumSignals)

	type signalResult struct {
		index  int
		signal Signal
		err    error
	}
	resultChan := make(chan signalResult, config.NumSignals)

	workerCount := minInt(config.Workers, config.NumSignals)
	signalsPerWorker := config.NumSignals / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * signalsPerWorker
		end := start + signalsPerWorker
		if worker == workerCount-1 {
			end = config.NumSignals
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- signalResult{index: i, err: ctx.Err()}
					return
				default:
					accountIdx := pickAccountIndex(config.NumAccounts)
					resultChan <- signalResult{
						index:  i,
						signal: generateSingleSignal(i, accountIDs[accountIdx], actorPools[accountIdx]),
					}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumSignals; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during signal generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate signal %d: %w", result.index, result.err)
			}
			signals[result.index] = result.signal
		}
	}

	stats.SignalsGenerated = len(signals)
	logger.Get().Info(ctx, "generated signals successfully", logger.Int("count", len(signals)))

	return signals, nil
}

// pickAccountIndex skews traffic toward the low account indices: roughly
// half of all signals land on the first tenth of the pool.
func pickAccountIndex(numAccounts int) int {
	hotPool := numAccounts / 10
	if hotPool < 1 {
		hotPool = 1
	}
	if getRandomInt(2) == 0 {
		return getRandomInt(hotPool)
	}
	return getRandomInt(numAccounts)
}

// generateSingleSignal creates a single signal for the given account.
func generateSingleSignal(index int, accountID string, actors []string) Signal {
	// Spread timestamps across the lookback window so velocity and
	// engagement factors see realistic recency decay.
	ageHours := getRandomInt(lookbackDays * hoursPerDay)
	ts := time.Now().UTC().Add(-time.Duration(ageHours) * time.Hour)

	signalID := "sig_" + strconv.FormatInt(int64(index), 10) + "_" + uuid.New().String()

	return Signal{
		SignalID:  signalID,
		AccountID: accountID,
		Type:      pickSignalType(),
		ActorID:   actors[getRandomInt(len(actors))],
		TS:        ts.Format(time.RFC3339),
	}
}

// pickSignalType draws a signal type from the weighted catalog.
func pickSignalType() string {
	total := 0
	for _, st := range signalTypes {
		total += st.weight
	}
	roll := getRandomInt(total)
	for _, st := range signalTypes {
		roll -= st.weight
		if roll < 0 {
			return st.name
		}
	}
	return signalTypes[0].name
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
