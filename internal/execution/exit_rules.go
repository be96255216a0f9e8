// Package execution evaluates the daily exit rules of open positions.
// 우선순위: STOP_LOSS > TARGET_PROFIT > HOLDING_PERIOD > MOMENTUM_DETERIORATION > FIP_DEGRADATION
package execution

import (
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
)

// =============================================================================
// Exit Rules
// ⭐ SSOT: 청산 판정은 여기서만
// =============================================================================

// Observation is what the evaluator knows about a held symbol on one day
type Observation struct {
	Date  time.Time
	Close float64 // 당일 종가 (stale 이면 직전 종가)
	Stale bool

	// nil when the symbol could not be scored that day
	MomentumPercentile *float64
	FIPScore           *float64
}

// Decision is the outcome of one evaluation
type Decision struct {
	Exit        bool
	Reason      contracts.ExitReason
	HoldingDays int
}

// ExitEvaluator applies the five daily triggers in priority order
type ExitEvaluator struct {
	exit strategyconfig.Exit
}

// NewExitEvaluator creates a new evaluator
func NewExitEvaluator(exit strategyconfig.Exit) *ExitEvaluator {
	return &ExitEvaluator{exit: exit}
}

// Evaluate returns the first trigger that fires for pos on obs
// A stale observation only checks the holding period: a carried-forward
// close is not a traded price and the symbol has no score that day.
func (e *ExitEvaluator) Evaluate(pos *contracts.Position, obs Observation) Decision {
	d := Decision{HoldingDays: contracts.HoldingDays(pos.EntryDate, obs.Date)}

	if !pos.IsOpen() {
		return d
	}

	if !obs.Stale {
		// 1. 손절
		if obs.Close <= pos.StopLossPrice {
			return e.fire(d, contracts.ExitStopLoss)
		}
		// 2. 목표가
		if obs.Close >= pos.TargetPrice {
			return e.fire(d, contracts.ExitTargetProfit)
		}
	}

	// 3. 보유기간 초과 (달력일)
	if d.HoldingDays > e.exit.MaxHoldingDays {
		return e.fire(d, contracts.ExitHoldingPeriod)
	}

	if obs.Stale {
		return d
	}

	// 4. 모멘텀 약화
	if obs.MomentumPercentile != nil && *obs.MomentumPercentile < e.exit.MomentumPercentileMin {
		return e.fire(d, contracts.ExitMomentumDeterioration)
	}

	// 5. FIP 악화
	if obs.FIPScore != nil && *obs.FIPScore > e.exit.FIPMax {
		return e.fire(d, contracts.ExitFIPDegradation)
	}

	return d
}

func (e *ExitEvaluator) fire(d Decision, reason contracts.ExitReason) Decision {
	d.Exit = true
	d.Reason = reason
	return d
}
