package contracts

import "time"

// PositionStatus of a slot
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position flags
const (
	// FlagPriceAboveSlot 진입가가 슬롯 금액보다 커서 0주
	FlagPriceAboveSlot = "PRICE_ABOVE_SLOT"
	// FlagStale 당일 봉 누락으로 직전 종가로 평가됨
	FlagStale = "STALE"
)

// ExitReason 청산 사유
// ⭐ SSOT: 청산 사유 문자열은 여기서만 정의
type ExitReason string

const (
	ExitStopLoss              ExitReason = "STOP_LOSS"
	ExitTargetProfit          ExitReason = "TARGET_PROFIT"
	ExitHoldingPeriod         ExitReason = "HOLDING_PERIOD"
	ExitMomentumDeterioration ExitReason = "MOMENTUM_DETERIORATION"
	ExitFIPDegradation        ExitReason = "FIP_DEGRADATION"
	ExitForcedRebalance       ExitReason = "FORCED_REBALANCE"
	ExitDelisted              ExitReason = "DELISTED"
	ExitEndOfBacktest         ExitReason = "END_OF_BACKTEST"
)

// Priority returns the evaluation order of daily triggers (1 = highest), 0 for others
func (r ExitReason) Priority() int {
	switch r {
	case ExitStopLoss:
		return 1
	case ExitTargetProfit:
		return 2
	case ExitHoldingPeriod:
		return 3
	case ExitMomentumDeterioration:
		return 4
	case ExitFIPDegradation:
		return 5
	default:
		return 0
	}
}

// AllExitReasons returns every reason in report order
func AllExitReasons() []ExitReason {
	return []ExitReason{
		ExitStopLoss,
		ExitTargetProfit,
		ExitHoldingPeriod,
		ExitMomentumDeterioration,
		ExitFIPDegradation,
		ExitForcedRebalance,
		ExitDelisted,
		ExitEndOfBacktest,
	}
}

// Position is one equal-weight slot
// ⭐ SSOT: S5 → S6 포지션 전달
type Position struct {
	Symbol        string    `json:"symbol"`
	Sector        string    `json:"sector,omitempty"`
	EntryDate     time.Time `json:"entry_date"`
	EntryPrice    float64   `json:"entry_price"`
	Shares        int64     `json:"shares"`
	PositionValue float64   `json:"position_value"` // 슬롯 금액
	StopLossPrice float64   `json:"stop_loss_price"`
	TargetPrice   float64   `json:"target_price"`

	EntryMomentum      float64 `json:"entry_momentum"`
	EntryFIP           float64 `json:"entry_fip"`
	EntryCombinedScore float64 `json:"entry_combined_score"`

	Status     PositionStatus `json:"status"`
	ExitDate   time.Time      `json:"exit_date,omitempty"`
	ExitPrice  float64        `json:"exit_price,omitempty"`
	ExitReason ExitReason     `json:"exit_reason,omitempty"`
	Flags      []string       `json:"flags,omitempty"`
}

// IsOpen reports whether the slot is still held
func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// HasFlag checks for a flag
func (p *Position) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Invested returns shares × entry price
func (p *Position) Invested() float64 {
	return float64(p.Shares) * p.EntryPrice
}

// Trade is an immutable ledger row written once a position closes
type Trade struct {
	Symbol      string     `json:"symbol"`
	Sector      string     `json:"sector,omitempty"`
	EntryDate   time.Time  `json:"entry_date"`
	ExitDate    time.Time  `json:"exit_date"`
	EntryPrice  float64    `json:"entry_price"`
	ExitPrice   float64    `json:"exit_price"`
	Shares      int64      `json:"shares"`
	HoldingDays int        `json:"holding_days"` // 달력일
	ReturnPct   float64    `json:"return_pct"`   // exit/entry - 1 (비용 제외)
	NetPnL      float64    `json:"net_pnl"`      // 비용 포함 손익
	ExitReason  ExitReason `json:"exit_reason"`
	Stale       bool       `json:"stale,omitempty"`
}

// IsWin reports a positive price return
func (t Trade) IsWin() bool {
	return t.ReturnPct > 0
}

// HoldingDays counts calendar days between two dates
func HoldingDays(entry, exit time.Time) int {
	e := time.Date(entry.Year(), entry.Month(), entry.Day(), 0, 0, 0, 0, time.UTC)
	x := time.Date(exit.Year(), exit.Month(), exit.Day(), 0, 0, 0, 0, time.UTC)
	return int(x.Sub(e).Hours() / 24)
}

// Turnover summarises one rebalance
type Turnover struct {
	Date       time.Time `json:"date"`
	Removed    []string  `json:"removed"`
	Added      []string  `json:"added"`
	Continuing []string  `json:"continuing"`
	Rate       float64   `json:"rate"` // removed / |prev|, 0-1
}
