package risk

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// HistoricalVaR computes VaR and CVaR by historical simulation
// returns: 일별 수익률 (양수=이익, 음수=손실)
// Fewer than MinSamples returns, or a confidence outside (0, 1), is an error.
func HistoricalVaR(returns []float64, confidence float64) (VaRResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return VaRResult{}, fmt.Errorf("confidence %.4f outside (0, 1)", confidence)
	}
	if len(returns) < MinSamples {
		return VaRResult{}, fmt.Errorf("%d returns, need at least %d", len(returns), MinSamples)
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := tailIndex(len(sorted), confidence)

	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(sorted[idx]),
		CVaR:       expectedShortfall(sorted, idx),
		Samples:    len(sorted),
	}, nil
}

// tailIndex returns the index of the (1-confidence) quantile in an ascending slice
func tailIndex(n int, confidence float64) int {
	idx := int(math.Floor((1 - confidence) * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// expectedShortfall averages sorted[0..varIdx] and reports it as a loss
func expectedShortfall(sorted []float64, varIdx int) float64 {
	var sum float64
	for i := 0; i <= varIdx; i++ {
		sum += sorted[i]
	}
	return lossOf(sum / float64(varIdx+1))
}

// lossOf flips a negative return into a positive loss; gains are zero loss
func lossOf(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
