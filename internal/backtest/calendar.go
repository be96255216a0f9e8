package backtest

import (
	"time"

	"github.com/wonny/qmomentum/internal/strategyconfig"
)

// =============================================================================
// Rebalance calendar
// ⭐ SSOT: 리밸런싱 날짜 판정은 여기서만
// =============================================================================

// MonthEnd returns the last calendar day of the month
func MonthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// LastWeekday returns the last Monday-Friday date of the month
func LastWeekday(year int, month time.Month) time.Time {
	d := MonthEnd(year, month)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// RebalanceDates lists the nominal month-end dates of the configured months
// (Feb 28/29, May 31, Aug 31, Nov 30 with the default schedule)
func RebalanceDates(year int, cfg strategyconfig.Rebalance) []time.Time {
	dates := make([]time.Time, 0, len(cfg.Months))
	for m := time.January; m <= time.December; m++ {
		if cfg.IsRebalanceMonth(m) {
			dates = append(dates, MonthEnd(year, m))
		}
	}
	return dates
}

// IsNominalRebalanceDate reports whether date is the calendar month-end of a rebalance month
func IsNominalRebalanceDate(date time.Time, cfg strategyconfig.Rebalance) bool {
	if !cfg.IsRebalanceMonth(date.Month()) {
		return false
	}
	end := MonthEnd(date.Year(), date.Month())
	return date.Year() == end.Year() && date.YearDay() == end.YearDay()
}

// RebalanceDays marks the calendar indexes that are rebalance days:
// the last trading day of a rebalance month within calendar.
// The final date only counts when it is the month's last weekday, since
// later trading days of that month are outside the data.
func RebalanceDays(calendar []time.Time, cfg strategyconfig.Rebalance) map[int]bool {
	out := make(map[int]bool)
	for i, d := range calendar {
		if !cfg.IsRebalanceMonth(d.Month()) {
			continue
		}
		if i+1 < len(calendar) {
			next := calendar[i+1]
			if next.Month() != d.Month() || next.Year() != d.Year() {
				out[i] = true
			}
			continue
		}
		last := LastWeekday(d.Year(), d.Month())
		if !d.Before(last) {
			out[i] = true
		}
	}
	return out
}

// NextRebalanceDate returns the first nominal rebalance date on or after date
func NextRebalanceDate(date time.Time, cfg strategyconfig.Rebalance) time.Time {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	for y := date.Year(); y <= date.Year()+1; y++ {
		for _, d := range RebalanceDates(y, cfg) {
			if !d.Before(date) {
				return d
			}
		}
	}
	return time.Time{}
}
