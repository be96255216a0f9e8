package selection

import (
	"sort"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Ranker implements S4: cross-sectional percentiles, combined score, ordering
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	weights  strategyconfig.Ranking
	screener *Screener
	logger   *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(weights strategyconfig.Ranking, screener *Screener, log *logger.Logger) *Ranker {
	return &Ranker{
		weights:  weights,
		screener: screener,
		logger:   log.WithStage("s4_ranker"),
	}
}

// Result is the ranked, filtered candidate list plus the filter report
type Result struct {
	Ranked []contracts.MomentumRecord
	Report FilterReport
}

// Score annotates copies of records with percentiles and the combined score
// Percentiles are computed among all records passed in, before any filtering.
func (r *Ranker) Score(records []contracts.MomentumRecord) []contracts.MomentumRecord {
	n := len(records)
	if n == 0 {
		return nil
	}

	momentum := make([]float64, n)
	quality := make([]float64, n)
	for i, rec := range records {
		momentum[i] = rec.Momentum12M
		quality[i] = -rec.FIPScore // FIP 가 낮을수록 품질 높음
	}
	momRanks := averageRanks(momentum)
	qualRanks := averageRanks(quality)

	out := make([]contracts.MomentumRecord, n)
	for i, rec := range records {
		rec.MomentumPercentile = momRanks[i] * 100 / float64(n)
		rec.QualityPercentile = qualRanks[i] * 100 / float64(n)
		rec.PercentileRank = rec.MomentumPercentile
		rec.CombinedScore = r.weights.MomentumWeight*(momRanks[i]/float64(n)) +
			r.weights.QualityWeight*(qualRanks[i]/float64(n))
		out[i] = rec
	}
	return out
}

// Rank scores, applies the entry filter and orders the survivors
// Order: combined score desc, momentum desc, symbol asc.
func (r *Ranker) Rank(records []contracts.MomentumRecord) Result {
	scored := r.Score(records)
	passed, report := r.screener.Screen(scored)
	SortRanked(passed)

	fields := map[string]interface{}{
		"scored": len(scored),
		"passed": len(passed),
	}
	if len(passed) > 0 {
		fields["top_symbol"] = passed[0].Symbol
		fields["top_score"] = passed[0].CombinedScore
	}
	r.logger.WithFields(fields).Debug("Ranking completed")

	return Result{Ranked: passed, Report: report}
}

// SortRanked orders records in place by the deterministic ranking key
func SortRanked(records []contracts.MomentumRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.Momentum12M != b.Momentum12M {
			return a.Momentum12M > b.Momentum12M
		}
		return a.Symbol < b.Symbol
	})
}

// averageRanks returns 1-based ascending ranks; tied values share their mean rank
func averageRanks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && values[idx[end]] == values[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}
