package risk

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// DefaultConfidence is the level backtest tail metrics are reported at
const DefaultConfidence = 0.95

// MinSamples is the fewest daily returns a historical VaR is computed from
const MinSamples = 30

// VaRResult holds a historical VaR and its expected shortfall
// - VaR=0.02 → 95% 신뢰수준에서 하루 최대 2% 손실
// - CVaR=0.03 → 5% tail 평균 3% 손실
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
	Samples    int     `json:"samples"`
}
