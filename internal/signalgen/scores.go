package signalgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveScores retrieves the current score for every account concurrently.
func retrieveScores(ctx context.Context, config *Config, signals []Signal, stats *Stats) ([]AccountScore, error) {
	// Collect the distinct accounts that received traffic.
	seen := make(map[string]struct{})
	accountIDs := make([]string, 0, config.NumAccounts)
	for _, sig := range signals {
		if _, ok := seen[sig.AccountID]; ok {
			continue
		}
		seen[sig.AccountID] = struct{}{}
		accountIDs = append(accountIDs, sig.AccountID)
	}

	log.Printf("retrieving scores for %d accounts with %d workers...", len(accountIDs), config.Workers)

	client := newHTTPClient(config.Timeout)

	scores := make([]AccountScore, len(accountIDs))
	var (
		retrieved int64
		failed    int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					accountID := accountIDs[index]
					score, err := retrieveSingleScore(ctx, client, config.BaseURL, accountID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get score for %s: %v", accountID, err)
						}
					} else {
						scores[index] = score
						atomic.AddInt64(&retrieved, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						log.Printf("score progress: %d/%d retrieved (success: %d, failed: %d)",
							total, len(accountIDs), atomic.LoadInt64(&retrieved), atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range accountIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validScores := make([]AccountScore, 0, len(scores))
	for _, score := range scores {
		if score.AccountID != "" {
			validScores = append(validScores, score)
		}
	}

	stats.ScoresRetrieved = len(validScores)

	log.Printf("score retrieval completed: retrieved=%d failed=%d",
		len(validScores), int(atomic.LoadInt64(&failed)))

	return validScores, nil
}

// retrieveSingleScore retrieves the current score for one account.
func retrieveSingleScore(ctx context.Context, client *HTTPClient, baseURL, accountID string) (AccountScore, error) {
	url := fmt.Sprintf("%s/accounts/%s/score", baseURL, accountID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return AccountScore{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return AccountScore{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return AccountScore{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var score AccountScore
	if err := json.Unmarshal(body, &score); err != nil {
		return AccountScore{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return score, nil
}

// getTopAccounts retrieves the top N ranked accounts.
func getTopAccounts(ctx context.Context, config *Config, stats *Stats) ([]AccountScore, error) {
	log.Printf("getting top %d accounts...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/accounts/top?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var top []AccountScore
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.TopEntries = len(top)
	log.Printf("retrieved %d top accounts", len(top))

	return top, nil
}
