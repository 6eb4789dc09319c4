package signalgen

import "time"

// Config holds configuration for the signal load test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumSignals  int           // Number of signals to generate
	NumAccounts int           // Number of distinct accounts to spread signals across
	TopN        int           // Number of top accounts to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for signals
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Signal represents a signal to be submitted
type Signal struct {
	SignalID  string `json:"signal_id"`
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	ActorID   string `json:"actor_id"`
	TS        string `json:"ts"`
}

// AccountScore represents a scored account as returned by the API
type AccountScore struct {
	AccountID string `json:"account_id"`
	Score     int    `json:"score"`
	Tier      string `json:"tier"`
	Trend     string `json:"trend"`
}

// AckResponse represents the response from signal submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	SignalsGenerated  int
	SignalsSubmitted  int
	SignalsSuccessful int
	SignalsDuplicate  int
	SignalsFailed     int
	ScoresRetrieved   int
	TopEntries        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
