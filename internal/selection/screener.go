package selection

import (
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Filter names reported in FilterReport.Filtered
const (
	FilterMomentumPercentile = "momentum_percentile"
	FilterFIP                = "fip"
	FilterCombinedScore      = "combined_score"
	FilterVolume             = "volume"
	FilterPrice              = "price"
	FilterMarketCap          = "market_cap"
	FilterMarketCapUnknown   = "market_cap_unknown"
)

// Screener implements S3: the entry filter (all conditions must hold)
// ⭐ SSOT: S3 스크리닝 로직은 여기서만
type Screener struct {
	entry    strategyconfig.Entry
	universe strategyconfig.Universe
	logger   *logger.Logger
}

// FilterReport counts why records were dropped
type FilterReport struct {
	Input       int                   `json:"input"`
	Passed      int                   `json:"passed"`
	Filtered    map[string]int        `json:"filtered"`
	Diagnostics contracts.Diagnostics `json:"diagnostics,omitempty"`
}

// NewScreener creates a new screener
func NewScreener(entry strategyconfig.Entry, universe strategyconfig.Universe, log *logger.Logger) *Screener {
	return &Screener{
		entry:    entry,
		universe: universe,
		logger:   log.WithStage("s3_screener"),
	}
}

// Screen keeps annotated records that pass every entry condition
// Failing records are dropped, never zero-scored.
func (s *Screener) Screen(records []contracts.MomentumRecord) ([]contracts.MomentumRecord, FilterReport) {
	report := FilterReport{
		Input:    len(records),
		Filtered: make(map[string]int),
	}

	passed := make([]contracts.MomentumRecord, 0, len(records))
	for _, rec := range records {
		reason := s.checkConditions(rec)
		if reason == "" {
			passed = append(passed, rec)
			continue
		}
		report.Filtered[reason]++
		if reason == FilterMarketCapUnknown {
			report.Diagnostics.Add(contracts.DiagUnknownMarketCap, rec.Symbol, rec.AsOf,
				"market cap floor %.0f configured but market cap unknown", s.universe.MinMarketCap)
		}
	}
	report.Passed = len(passed)

	s.logger.WithFields(map[string]interface{}{
		"total_input":  report.Input,
		"passed":       report.Passed,
		"filtered_out": report.Input - report.Passed,
		"filters":      report.Filtered,
	}).Debug("Screening completed")

	return passed, report
}

// checkConditions checks if a record passes all conditions
// Returns empty string if passed, otherwise returns filter name
func (s *Screener) checkConditions(rec contracts.MomentumRecord) string {
	if rec.MomentumPercentile < s.entry.MomentumPercentileMin {
		return FilterMomentumPercentile
	}

	// FIP 는 엄격히 작아야 함 (smooth momentum)
	if !(rec.FIPScore < s.entry.FIPMax) {
		return FilterFIP
	}

	if rec.CombinedScore < s.entry.CombinedScoreMin {
		return FilterCombinedScore
	}

	if float64(rec.Volume) < s.entry.VolumeRatioMin*rec.AvgVolume30 {
		return FilterVolume
	}

	if rec.Close < s.universe.MinPrice {
		return FilterPrice
	}

	if s.universe.MinMarketCap > 0 {
		if rec.MarketCap == nil {
			return FilterMarketCapUnknown
		}
		if *rec.MarketCap < s.universe.MinMarketCap {
			return FilterMarketCap
		}
	}

	return ""
}
