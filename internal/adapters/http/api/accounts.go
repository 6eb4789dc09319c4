// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/signalhouse/pqascore/internal/adapters/repository"
)

// defaultHistoryDays bounds GET history when ?days is absent.
const defaultHistoryDays = 30

// AccountsHandler handles per-account score requests.
type AccountsHandler struct {
	deps Dependencies
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(deps Dependencies) *AccountsHandler {
	return &AccountsHandler{deps: deps}
}

// HandleAccount dispatches /accounts/{id}/score, /accounts/{id}/history and
// /accounts/{id}/compute.
func (h *AccountsHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	const op = "api.account"

	path := strings.TrimPrefix(r.URL.Path, "/accounts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	accountID, action := parts[0], parts[1]

	switch {
	case action == "score" && r.Method == http.MethodGet:
		h.handleScore(w, r, accountID)
	case action == "history" && r.Method == http.MethodGet:
		h.handleHistory(w, r, accountID)
	case action == "compute" && r.Method == http.MethodPost:
		h.handleCompute(w, r, accountID)
	default:
		http.NotFound(w, r)
	}
}

// handleScore handles GET /accounts/{id}/score requests.
func (h *AccountsHandler) handleScore(w http.ResponseWriter, r *http.Request, accountID string) {
	const op = "api.get_score"

	score, err := h.deps.CurrentScore(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// handleHistory handles GET /accounts/{id}/history?days=N requests.
func (h *AccountsHandler) handleHistory(w http.ResponseWriter, r *http.Request, accountID string) {
	const op = "api.get_history"

	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		days = parsed
	}

	entries, err := h.deps.History(r.Context(), accountID, days)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		case errors.Is(err, repository.ErrInvalidLimit):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCompute handles POST /accounts/{id}/compute requests.
func (h *AccountsHandler) handleCompute(w http.ResponseWriter, r *http.Request, accountID string) {
	const op = "api.compute"

	score, err := h.deps.ComputeNow(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusGatewayTimeout, "compute_timeout", WrapKind(op, ErrComputeTimeout, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "compute_failed", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, score)
}
