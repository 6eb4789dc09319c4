package signalgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSignals submits signals concurrently using worker pools
func submitSignals(ctx context.Context, config *Config, signals []Signal, stats *Stats) error {
	log.Printf("submitting %d signals with %d workers...", len(signals), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/signals"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	signalChan := make(chan Signal, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sig := range signalChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleSignal(ctx, client, url, sig)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)
						log.Printf("progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
							total, len(signals), succ, dup, fail)
					}
				}
			}
		}()
	}

	go func() {
		defer close(signalChan)
		for _, sig := range signals {
			select {
			case <-ctx.Done():
				return
			case signalChan <- sig:
			}
		}
	}()

	wg.Wait()

	stats.SignalsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SignalsSuccessful = int(atomic.LoadInt64(&successful))
	stats.SignalsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SignalsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("signal submission completed: successful=%d duplicate=%d failed=%d",
		stats.SignalsSuccessful, stats.SignalsDuplicate, stats.SignalsFailed)

	return nil
}

// submitSingleSignal submits a single signal and returns the result. A 429
// gets one immediate retry after a short pause; sustained backpressure counts
// as failure.
func submitSingleSignal(ctx context.Context, client *HTTPClient, url string, sig Signal) string {
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := client.Post(ctx, url, sig)
		if err != nil {
			return "failed"
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return "failed"
		}

		switch resp.StatusCode {
		case StatusAccepted:
			return "success"
		case StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
				return "duplicate"
			}
			return "duplicate"
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return "failed"
			case <-time.After(100 * time.Millisecond):
			}
			continue
		default:
			return "failed"
		}
	}
	return "failed"
}
