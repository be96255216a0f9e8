package strategyconfig

import "time"

// TradingDaysPerMonth converts lookback_months into trading days
const TradingDaysPerMonth = 21

// Config는 모멘텀 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
	Entry     Entry     `yaml:"entry" json:"entry"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Exit      Exit      `yaml:"exit" json:"exit"`
	Rebalance Rebalance `yaml:"rebalance" json:"rebalance"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Universe S1: 투자 가능 풀
type Universe struct {
	Selector     string  `yaml:"selector" json:"selector"` // nifty_50 | nifty_500
	MinPrice     float64 `yaml:"min_price" json:"min_price"`
	MinMarketCap float64 `yaml:"min_market_cap" json:"min_market_cap"` // 0 = 미적용
}

// Signals S2: 모멘텀/FIP
type Signals struct {
	LookbackMonths int `yaml:"lookback_months" json:"lookback_months"`
	SkipDays       int `yaml:"skip_days" json:"skip_days"`
	VolumeAvgDays  int `yaml:"volume_avg_days" json:"volume_avg_days"`
	Workers        int `yaml:"workers" json:"workers"`
}

// LookbackDays returns lookback_months × 21
func (s Signals) LookbackDays() int {
	return s.LookbackMonths * TradingDaysPerMonth
}

// MinHistory returns the bars required before a symbol can be scored
func (s Signals) MinHistory() int {
	return s.LookbackDays() + s.SkipDays
}

// Ranking S4: 결합 점수 가중치
type Ranking struct {
	MomentumWeight float64 `yaml:"momentum_weight" json:"momentum_weight"`
	QualityWeight  float64 `yaml:"quality_weight" json:"quality_weight"`
}

// Entry S3: 진입 조건 (모두 충족)
type Entry struct {
	MomentumPercentileMin float64 `yaml:"momentum_percentile_min" json:"momentum_percentile_min"` // 0-100
	FIPMax                float64 `yaml:"fip_max" json:"fip_max"`                                 // FIP < fip_max
	CombinedScoreMin      float64 `yaml:"combined_score_min" json:"combined_score_min"`
	VolumeRatioMin        float64 `yaml:"volume_ratio_min" json:"volume_ratio_min"` // volume ≥ ratio × avg
}

// Portfolio S5: 포트폴리오 구성
type Portfolio struct {
	Size            int     `yaml:"size" json:"size"`
	StopLossPct     float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TargetProfitPct float64 `yaml:"target_profit_pct" json:"target_profit_pct"`
}

// Exit S6: 일별 청산 규칙
type Exit struct {
	MaxHoldingDays        int     `yaml:"max_holding_days" json:"max_holding_days"`
	MomentumPercentileMin float64 `yaml:"momentum_percentile_min" json:"momentum_percentile_min"` // 미만이면 청산
	FIPMax                float64 `yaml:"fip_max" json:"fip_max"`                                 // 초과하면 청산
}

// Rebalance 분기 리밸런싱
type Rebalance struct {
	Months []int `yaml:"months" json:"months"`
}

// IsRebalanceMonth reports whether m is configured
func (r Rebalance) IsRebalanceMonth(m time.Month) bool {
	for _, month := range r.Months {
		if time.Month(month) == m {
			return true
		}
	}
	return false
}

// Backtest 백테스트 비용
type Backtest struct {
	InitialCapital     float64 `yaml:"initial_capital" json:"initial_capital"`
	TransactionCostPct float64 `yaml:"transaction_cost_pct" json:"transaction_cost_pct"` // 편도
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Default returns the reference quant-momentum settings
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "quant_momentum",
			Version:    "1.0.0",
			Timezone:   "Asia/Kolkata",
		},
		Universe: Universe{
			Selector: "nifty_500",
			MinPrice: 1.0,
		},
		Signals: Signals{
			LookbackMonths: 12,
			SkipDays:       21,
			VolumeAvgDays:  30,
			Workers:        8,
		},
		Ranking: Ranking{
			MomentumWeight: 0.70,
			QualityWeight:  0.30,
		},
		Entry: Entry{
			MomentumPercentileMin: 90,
			FIPMax:                -0.10,
			CombinedScoreMin:      0.50,
			VolumeRatioMin:        1.0,
		},
		Portfolio: Portfolio{
			Size:            40,
			StopLossPct:     0.15,
			TargetProfitPct: 0.25,
		},
		Exit: Exit{
			MaxHoldingDays:        90,
			MomentumPercentileMin: 30,
			FIPMax:                0,
		},
		Rebalance: Rebalance{
			Months: []int{2, 5, 8, 11},
		},
		Backtest: Backtest{
			InitialCapital:     1_000_000,
			TransactionCostPct: 0.001,
		},
	}
}
