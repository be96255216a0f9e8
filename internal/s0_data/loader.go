package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

// LookbackStart returns a calendar date far enough back to hold bars trading days before asOf
// Weekends plus a holiday allowance.
func LookbackStart(asOf time.Time, bars int) time.Time {
	days := bars*7/5 + 45
	return NormalizeDate(asOf).AddDate(0, 0, -days)
}

// LoadSeries loads bars from src and validates them into series
// ⭐ SSOT: PriceSource → PriceSeries 변환은 여기서만
func LoadSeries(ctx context.Context, src contracts.PriceSource, symbols []string, from, to time.Time, log *logger.Logger) (map[string]*PriceSeries, contracts.Diagnostics, error) {
	raw, err := src.LoadBars(ctx, symbols, NormalizeDate(from), NormalizeDate(to))
	if err != nil {
		return nil, nil, fmt.Errorf("load bars: %w", err)
	}

	series, diags := BuildSeries(raw)
	if len(series) == 0 {
		return nil, diags, fmt.Errorf("%d symbols loaded, none valid: %w", len(raw), contracts.ErrNoValidSymbols)
	}

	log.WithFields(map[string]interface{}{
		"loaded":   len(raw),
		"valid":    len(series),
		"rejected": len(diags),
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
	}).Info("Price series loaded")

	return series, diags, nil
}

// LastTradingDate returns the latest bar date across series; zero when empty
func LastTradingDate(series map[string]*PriceSeries) time.Time {
	var last time.Time
	for _, s := range series {
		if d := s.LastDate(); d.After(last) {
			last = d
		}
	}
	return last
}
