package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Supported universe selectors
var validSelectors = map[string]bool{
	"nifty_50":  true,
	"nifty_500": true,
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if !validSelectors[cfg.Universe.Selector] {
		return ValidationError{"universe.selector", "must be nifty_50 or nifty_500"}
	}
	if cfg.Universe.MinPrice < 0 {
		return ValidationError{"universe.min_price", "must be >= 0"}
	}
	if cfg.Universe.MinMarketCap < 0 {
		return ValidationError{"universe.min_market_cap", "must be >= 0"}
	}

	// === Signals ===
	if cfg.Signals.LookbackMonths < 2 {
		return ValidationError{"signals.lookback_months", "must be >= 2"}
	}
	if cfg.Signals.SkipDays < 0 || cfg.Signals.SkipDays >= cfg.Signals.LookbackDays() {
		return ValidationError{"signals.skip_days", "must be in [0, lookback days)"}
	}
	if cfg.Signals.VolumeAvgDays < 1 {
		return ValidationError{"signals.volume_avg_days", "must be >= 1"}
	}
	if cfg.Signals.Workers < 1 {
		return ValidationError{"signals.workers", "must be >= 1"}
	}

	// === Ranking ===
	if err := validateWeightsSum([]float64{cfg.Ranking.MomentumWeight, cfg.Ranking.QualityWeight}, 1.0, 1e-6); err != nil {
		return ValidationError{"ranking", err.Error()}
	}
	if err := validatePctRange(cfg.Ranking.MomentumWeight, "ranking.momentum_weight"); err != nil {
		return err
	}
	if err := validatePctRange(cfg.Ranking.QualityWeight, "ranking.quality_weight"); err != nil {
		return err
	}

	// === Entry ===
	if cfg.Entry.MomentumPercentileMin < 0 || cfg.Entry.MomentumPercentileMin > 100 {
		return ValidationError{"entry.momentum_percentile_min", "must be in range [0, 100]"}
	}
	if err := validatePctRange(cfg.Entry.CombinedScoreMin, "entry.combined_score_min"); err != nil {
		return err
	}
	if cfg.Entry.FIPMax < -1 || cfg.Entry.FIPMax > 1 {
		return ValidationError{"entry.fip_max", "must be in range [-1, 1]"}
	}
	if cfg.Entry.VolumeRatioMin < 0 {
		return ValidationError{"entry.volume_ratio_min", "must be >= 0"}
	}

	// === Portfolio ===
	if cfg.Portfolio.Size < 1 {
		return ValidationError{"portfolio.size", "must be >= 1"}
	}
	if cfg.Portfolio.StopLossPct <= 0 || cfg.Portfolio.StopLossPct >= 1 {
		return ValidationError{"portfolio.stop_loss_pct", "must be in (0, 1)"}
	}
	if cfg.Portfolio.TargetProfitPct <= 0 {
		return ValidationError{"portfolio.target_profit_pct", "must be > 0"}
	}

	// === Exit ===
	if cfg.Exit.MaxHoldingDays < 1 {
		return ValidationError{"exit.max_holding_days", "must be >= 1"}
	}
	if cfg.Exit.MomentumPercentileMin < 0 || cfg.Exit.MomentumPercentileMin > 100 {
		return ValidationError{"exit.momentum_percentile_min", "must be in range [0, 100]"}
	}
	if cfg.Exit.MomentumPercentileMin >= cfg.Entry.MomentumPercentileMin {
		return ValidationError{"exit.momentum_percentile_min", "must be below entry.momentum_percentile_min"}
	}

	// === Rebalance ===
	if len(cfg.Rebalance.Months) == 0 {
		return ValidationError{"rebalance.months", "required"}
	}
	seen := make(map[int]bool)
	for i, m := range cfg.Rebalance.Months {
		if m < 1 || m > 12 {
			return ValidationError{fmt.Sprintf("rebalance.months[%d]", i), "must be in range [1, 12]"}
		}
		if seen[m] {
			return ValidationError{fmt.Sprintf("rebalance.months[%d]", i), "duplicate month"}
		}
		seen[m] = true
	}

	// === Backtest ===
	if cfg.Backtest.InitialCapital <= 0 {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if cfg.Backtest.TransactionCostPct < 0 || cfg.Backtest.TransactionCostPct >= 0.05 {
		return ValidationError{"backtest.transaction_cost_pct", "must be in [0, 0.05)"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Universe.Selector == "nifty_50" && cfg.Portfolio.Size > 10 {
		warnings = append(warnings, Warning{
			Code:    "THIN_UNIVERSE",
			Message: "nifty_50 에서 90 백분위 통과 종목은 5개 내외: 슬롯 대부분 현금",
		})
	}

	if cfg.Exit.MaxHoldingDays > 100 {
		warnings = append(warnings, Warning{
			Code:    "HOLDING_EXCEEDS_QUARTER",
			Message: "최대 보유기간 > 분기: 분기 리밸런싱이 먼저 청산함",
		})
	}

	if cfg.Backtest.TransactionCostPct == 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_COST",
			Message: "거래비용 0: 성과가 과대평가될 수 있음",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("weights must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
