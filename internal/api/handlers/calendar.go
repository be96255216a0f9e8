package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/qmomentum/internal/backtest"
	"github.com/wonny/qmomentum/internal/strategyconfig"
)

// CalendarHandler answers rebalance schedule questions
type CalendarHandler struct {
	rebalance strategyconfig.Rebalance
	now       func() time.Time
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(rebalance strategyconfig.Rebalance) *CalendarHandler {
	return &CalendarHandler{rebalance: rebalance, now: time.Now}
}

// GetRebalance returns the next nominal rebalance date and the year's schedule
// GET /api/calendar/rebalance?from=YYYY-MM-DD
func (h *CalendarHandler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	from := h.now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
		from = d
	}

	dates := backtest.RebalanceDates(from.Year(), h.rebalance)
	schedule := make([]string, 0, len(dates))
	for _, d := range dates {
		schedule = append(schedule, d.Format(dateLayout))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"from":     from.Format(dateLayout),
		"next":     backtest.NextRebalanceDate(from, h.rebalance).Format(dateLayout),
		"months":   h.rebalance.Months,
		"year":     from.Year(),
		"schedule": schedule,
	})
}
