// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
	"github.com/signalhouse/pqascore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// IngestSignal records a signal and queues a recompute trigger. The bool
	// reports whether the signal id was already seen.
	IngestSignal(ctx context.Context, sig model.Signal) (bool, error)

	// ComputeNow runs a synchronous scoring pass for the account.
	ComputeNow(ctx context.Context, accountID string) (AccountScore, error)

	// Read operations expose score data.
	CurrentScore(ctx context.Context, accountID string) (AccountScore, error)
	History(ctx context.Context, accountID string, days int) ([]SnapshotEntry, error)
	TopAccounts(ctx context.Context, limit int, tierFilter string) ([]AccountScore, error)
}

// AccountScore mirrors the read shape returned by score queries.
type AccountScore = types.AccountScore

// SnapshotEntry mirrors one history record.
type SnapshotEntry = types.SnapshotEntry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	signalsHandler  *SignalsHandler
	accountsHandler *AccountsHandler
	topHandler      *TopHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		signalsHandler:  NewSignalsHandler(deps),
		accountsHandler: NewAccountsHandler(deps),
		topHandler:      NewTopHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/signals", MetricsMiddleware(s.signalsHandler.HandlePostSignal, "signals"))
	mux.HandleFunc("/accounts/top", MetricsMiddleware(s.topHandler.HandleGetTop, "accounts_top"))
	mux.HandleFunc("/accounts/", MetricsMiddleware(s.accountsHandler.HandleAccount, "accounts"))
}

// signalRequest mirrors the wire schema for POST /signals.
type signalRequest struct {
	SignalID    string            `json:"signal_id"`
	AccountID   string            `json:"account_id"`
	Type        string            `json:"type"`
	ActorID     string            `json:"actor_id"`
	AnonymousID string            `json:"anonymous_id"`
	TS          string            `json:"ts"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (s signalRequest) validate() error {
	switch {
	case strings.TrimSpace(s.SignalID) == "":
		return errors.New("missing signal_id")
	case strings.TrimSpace(s.AccountID) == "":
		return errors.New("missing account_id")
	case strings.TrimSpace(s.Type) == "":
		return errors.New("missing type")
	case strings.TrimSpace(s.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, s.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

func (s signalRequest) toSignal() model.Signal {
	ts, _ := time.Parse(time.RFC3339, s.TS)
	return model.Signal{
		SignalID:    s.SignalID,
		AccountID:   s.AccountID,
		Type:        s.Type,
		ActorID:     s.ActorID,
		AnonymousID: s.AnonymousID,
		TS:          ts,
		Metadata:    s.Metadata,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
