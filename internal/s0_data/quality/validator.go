package quality

import (
	"sort"
	"time"

	"github.com/wonny/qmomentum/internal/s0_data"
)

// QualityGate measures price-data coverage of a universe on an as-of date
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinHistory       int     `yaml:"min_history"`        // 룩백+스킵 (273)
	MinPriceCoverage float64 `yaml:"min_price_coverage"` // 당일 봉 보유 비율
	MinScore         float64 `yaml:"min_score"`
}

// Snapshot is the coverage report for one date
// ⭐ SSOT: S0 → S1 품질 검증 결과
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalSymbols int                `json:"total_symbols"`
	ValidSymbols int                `json:"valid_symbols"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Insufficient []string           `json:"insufficient,omitempty"` // 히스토리 부족
	MissingBar   []string           `json:"missing_bar,omitempty"`  // 당일 봉 없음
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check computes coverage of series on date
func (g *QualityGate) Check(series map[string]*s0_data.PriceSeries, date time.Time) *Snapshot {
	snap := &Snapshot{
		Date:         s0_data.NormalizeDate(date),
		TotalSymbols: len(series),
		Coverage:     make(map[string]float64),
	}
	if len(series) == 0 {
		return snap
	}

	var withBar, withHistory, withVolume int
	for sym, s := range series {
		idx, ok := s.IndexOf(date)
		if ok {
			withBar++
			if s.Bar(idx).Volume > 0 {
				withVolume++
			}
		} else {
			snap.MissingBar = append(snap.MissingBar, sym)
		}

		if s.IndexAtOrBefore(date)+1 >= g.config.MinHistory {
			withHistory++
			if ok {
				snap.ValidSymbols++
			}
		} else {
			snap.Insufficient = append(snap.Insufficient, sym)
		}
	}
	sort.Strings(snap.MissingBar)
	sort.Strings(snap.Insufficient)

	n := float64(len(series))
	snap.Coverage["price"] = float64(withBar) / n
	snap.Coverage["history"] = float64(withHistory) / n
	snap.Coverage["volume"] = float64(withVolume) / n
	snap.QualityScore = g.calculateScore(snap.Coverage)

	return snap
}

// IsValid reports whether the snapshot passes the gate
func (g *QualityGate) IsValid(snap *Snapshot) bool {
	if snap.ValidSymbols == 0 {
		return false
	}
	return snap.Coverage["price"] >= g.config.MinPriceCoverage && snap.QualityScore >= g.config.MinScore
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"price":   0.40,
		"history": 0.40,
		"volume":  0.20,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}
