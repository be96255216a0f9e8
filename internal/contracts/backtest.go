package contracts

import "time"

// EquityPoint is one mark-to-market observation
type EquityPoint struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	Cash          float64   `json:"cash"`
	OpenPositions int       `json:"open_positions"`
}

// Metrics 성과 지표
// ⭐ SSOT: S7 성과 지표 (정의되지 않는 비율은 nil)
type Metrics struct {
	InitialValue float64 `json:"initial_value"`
	FinalValue   float64 `json:"final_value"`
	TotalReturn  float64 `json:"total_return"`
	Days         int     `json:"days"` // 달력일

	CAGR        *float64 `json:"cagr"`
	Volatility  *float64 `json:"volatility"`
	Sharpe      *float64 `json:"sharpe"`
	Sortino     *float64 `json:"sortino"`
	MaxDrawdown float64  `json:"max_drawdown"` // 0-1
	DailyVaR95  *float64 `json:"daily_var_95"` // 손실 양수, 표본 부족 시 nil
	DailyCVaR95 *float64 `json:"daily_cvar_95"`

	TotalTrades       int              `json:"total_trades"`
	WinningTrades     int              `json:"winning_trades"`
	LosingTrades      int              `json:"losing_trades"`
	WinRate           *float64         `json:"win_rate"`
	AvgTradeReturn    *float64         `json:"avg_trade_return"`
	AvgHoldingDays    *float64         `json:"avg_holding_days"`
	ProfitFactor      *float64         `json:"profit_factor"`
	BestTrade         *float64         `json:"best_trade"`
	WorstTrade        *float64         `json:"worst_trade"`
	ExitAttribution   []AttributionRow `json:"exit_attribution"`
	SectorAttribution []AttributionRow `json:"sector_attribution"`
}

// AttributionRow groups trades by exit reason or sector
type AttributionRow struct {
	Key       string  `json:"key"`
	Trades    int     `json:"trades"`
	WinRate   float64 `json:"win_rate"`
	AvgReturn float64 `json:"avg_return"`
	TotalPnL  float64 `json:"total_pnl"`
}

// RebalanceEvent records a quarterly rotation
type RebalanceEvent struct {
	Date       time.Time `json:"date"`
	Closed     int       `json:"closed"`
	Opened     int       `json:"opened"`
	Candidates int       `json:"candidates"`
	Turnover   Turnover  `json:"turnover"`
	Value      float64   `json:"value"`
}

// BacktestResult is the complete output of a backtest run
type BacktestResult struct {
	RunID       string           `json:"run_id"`
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	ConfigHash  string           `json:"config_hash"`
	EquityCurve []EquityPoint    `json:"equity_curve"`
	Trades      []Trade          `json:"trades"`
	Rebalances  []RebalanceEvent `json:"rebalances"`
	Metrics     Metrics          `json:"metrics"`
	Diagnostics Diagnostics      `json:"diagnostics"`
	Aborted     bool             `json:"aborted"`
}

// ScreeningResult is the output of the live screening path
type ScreeningResult struct {
	RunID       string           `json:"run_id"`
	AsOf        time.Time        `json:"as_of"`
	Universe    string           `json:"universe"`
	ConfigHash  string           `json:"config_hash"`
	Scored      int              `json:"scored"`
	Ranked      []MomentumRecord `json:"ranked"`
	Positions   []Position       `json:"positions"`
	Turnover    *Turnover        `json:"turnover,omitempty"`
	Diagnostics Diagnostics      `json:"diagnostics"`
	Stages      []StageReport    `json:"stages"`
}

// Symbols returns the symbols of the constructed portfolio in order
func (r *ScreeningResult) Symbols() []string {
	out := make([]string, 0, len(r.Positions))
	for _, p := range r.Positions {
		out = append(out, p.Symbol)
	}
	return out
}
