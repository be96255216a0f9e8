package s2_signals

import (
	"fmt"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/strategyconfig"
)

// Engine computes 12-1 momentum and the Frog-in-the-Pan score
// ⭐ SSOT: 모멘텀/FIP 계산은 여기서만
//
// With i the last bar at or before as-of, L the lookback and S the skip window:
//
//	momentum = close[i-S] / close[i-L] - 1   (compounded returns, last S days excluded)
//	FIP      = sign(momentum) × (%negative - %positive) over the L returns ending at i
//
// A smooth advance (many small up days) gives a strongly negative FIP.
type Engine struct {
	lookback   int
	skip       int
	volumeDays int
}

// NewEngine creates a momentum engine from signal settings
func NewEngine(cfg strategyconfig.Signals) *Engine {
	return &Engine{
		lookback:   cfg.LookbackDays(),
		skip:       cfg.SkipDays,
		volumeDays: cfg.VolumeAvgDays,
	}
}

// MinHistory returns the bars required up to and including as-of
func (e *Engine) MinHistory() int {
	if e.skip < 1 {
		return e.lookback + 1
	}
	return e.lookback + e.skip
}

// Compute scores series as of asOf (resolved to the last bar at or before it)
// Returns ErrInsufficientHistory when fewer than lookback+skip bars exist.
func (e *Engine) Compute(series *s0_data.PriceSeries, asOf time.Time) (contracts.MomentumRecord, error) {
	i := series.IndexAtOrBefore(asOf)
	return e.ComputeAt(series, i)
}

// ComputeAt scores series at bar index i
func (e *Engine) ComputeAt(series *s0_data.PriceSeries, i int) (contracts.MomentumRecord, error) {
	if i < 0 || i+1 < e.MinHistory() {
		return contracts.MomentumRecord{}, fmt.Errorf("%s: %w: have %d bars, need %d",
			series.Symbol(), contracts.ErrInsufficientHistory, i+1, e.MinHistory())
	}

	bar := series.Bar(i)
	momentum := series.Close(i-e.skip)/series.Close(i-e.lookback) - 1

	return contracts.MomentumRecord{
		Symbol:      series.Symbol(),
		AsOf:        bar.Date,
		Momentum12M: momentum,
		FIPScore:    e.fip(series, i, momentum),
		Close:       bar.Close,
		Volume:      bar.Volume,
		AvgVolume30: series.AvgVolume(i, e.volumeDays),
	}, nil
}

// fip counts up and down days over the lookback window ending at i
func (e *Engine) fip(series *s0_data.PriceSeries, i int, momentum float64) float64 {
	pos, neg := series.ReturnCounts(i-e.lookback, i)

	// 모든 수익률이 0 이면 부호 0 → FIP 0
	if pos == 0 && neg == 0 {
		return 0
	}

	n := float64(e.lookback)
	pctPos := float64(pos) / n
	pctNeg := float64(neg) / n
	return sign(momentum) * (pctNeg - pctPos)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
