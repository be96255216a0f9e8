package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

// BacktestHandler serves stored backtest runs
type BacktestHandler struct {
	store  contracts.BacktestStore
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(store contracts.BacktestStore, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		store:  store,
		logger: log,
	}
}

// BacktestSummary is a run without its per-day and per-trade detail
type BacktestSummary struct {
	RunID       string            `json:"run_id"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	ConfigHash  string            `json:"config_hash"`
	Aborted     bool              `json:"aborted"`
	Metrics     contracts.Metrics `json:"metrics"`
	Rebalances  int               `json:"rebalances"`
	Diagnostics map[string]int    `json:"diagnostics"`
}

// GetRun returns a backtest run
// GET /api/backtests/{id}?detail=true
func (h *BacktestHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.BacktestByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, h.logger, err, "backtest run")
		return
	}

	if r.URL.Query().Get("detail") == "true" {
		respondJSON(w, http.StatusOK, result)
		return
	}

	respondJSON(w, http.StatusOK, BacktestSummary{
		RunID:       result.RunID,
		From:        result.From.Format(dateLayout),
		To:          result.To.Format(dateLayout),
		ConfigHash:  result.ConfigHash,
		Aborted:     result.Aborted,
		Metrics:     result.Metrics,
		Rebalances:  len(result.Rebalances),
		Diagnostics: countDiagnostics(result.Diagnostics),
	})
}

// GetTrades returns the closed trades of a run
// GET /api/backtests/{id}/trades?reason=STOP_LOSS
func (h *BacktestHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	var reason contracts.ExitReason
	if raw := r.URL.Query().Get("reason"); raw != "" {
		reason = contracts.ExitReason(strings.ToUpper(raw))
		if !validReason(reason) {
			respondError(w, http.StatusBadRequest, "Unknown exit reason")
			return
		}
	}

	result, err := h.store.BacktestByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, h.logger, err, "backtest run")
		return
	}

	trades := make([]contracts.Trade, 0, len(result.Trades))
	for _, t := range result.Trades {
		if reason == "" || t.ExitReason == reason {
			trades = append(trades, t)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": result.RunID,
		"count":  len(trades),
		"trades": trades,
	})
}

func validReason(reason contracts.ExitReason) bool {
	for _, r := range contracts.AllExitReasons() {
		if r == reason {
			return true
		}
	}
	return false
}
