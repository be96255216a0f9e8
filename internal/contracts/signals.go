package contracts

import "time"

// MomentumRecord is the per-symbol score on a given as-of date
// ⭐ SSOT: S2 → S3/S4 모멘텀 결과 전달
//
// Percentile fields stay zero until the ranker annotates a copy.
type MomentumRecord struct {
	Symbol string    `json:"symbol"`
	AsOf   time.Time `json:"as_of"`

	Momentum12M float64 `json:"momentum_12m"` // 12-1 누적수익률
	FIPScore    float64 `json:"fip_score"`    // 음수일수록 매끄러운 추세

	MomentumPercentile float64 `json:"momentum_percentile"` // 0-100
	QualityPercentile  float64 `json:"quality_percentile"`  // 0-100, -FIP 기준
	PercentileRank     float64 `json:"percentile_rank"`     // 0-100 (= MomentumPercentile)
	CombinedScore      float64 `json:"combined_score"`      // 0-1

	// Inputs of the entry filter
	Close       float64  `json:"close"`
	Volume      int64    `json:"volume"`
	AvgVolume30 float64  `json:"avg_volume_30"`
	MarketCap   *float64 `json:"market_cap,omitempty"`
	Sector      string   `json:"sector,omitempty"`
}

// MomentumStrength labels for reports
const (
	StrengthVeryStrong = "Very Strong"
	StrengthStrong     = "Strong"
	StrengthModerate   = "Moderate"
)

// MomentumQuality labels for reports
const (
	QualityExcellent = "Excellent"
	QualityGood      = "Good"
	QualityFair      = "Fair"
)

// MomentumStrength buckets the 12-1 return: >100% Very Strong, >50% Strong
func (r MomentumRecord) MomentumStrength() string {
	switch {
	case r.Momentum12M > 1.0:
		return StrengthVeryStrong
	case r.Momentum12M > 0.5:
		return StrengthStrong
	default:
		return StrengthModerate
	}
}

// MomentumQuality buckets the FIP score: < -0.3 Excellent, < -0.1 Good
func (r MomentumRecord) MomentumQuality() string {
	switch {
	case r.FIPScore < -0.3:
		return QualityExcellent
	case r.FIPScore < -0.1:
		return QualityGood
	default:
		return QualityFair
	}
}

// VolumeRatio returns volume / 30-day average, 0 when the average is 0
func (r MomentumRecord) VolumeRatio() float64 {
	if r.AvgVolume30 <= 0 {
		return 0
	}
	return float64(r.Volume) / r.AvgVolume30
}
