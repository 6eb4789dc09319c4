// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/signalhouse/pqascore/internal/adapters/repository"
	"github.com/signalhouse/pqascore/internal/domain/tier"
)

// defaultTopLimit bounds GET /accounts/top when ?limit is absent.
const defaultTopLimit = 10

// TopHandler handles ranked account listing requests.
type TopHandler struct {
	deps Dependencies
}

// NewTopHandler creates a new top-accounts handler.
func NewTopHandler(deps Dependencies) *TopHandler {
	return &TopHandler{deps: deps}
}

// HandleGetTop handles GET /accounts/top?limit=N&tier=hot requests.
func (h *TopHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = parsed
	}

	scores, err := h.deps.TopAccounts(r.Context(), limit, r.URL.Query().Get("tier"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidLimit):
			writeError(w, http.StatusBadRequest, "limit_exceeded", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, tier.ErrUnknownTier):
			writeError(w, http.StatusBadRequest, "unknown_tier", WrapKind(op, ErrBadRequest, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
