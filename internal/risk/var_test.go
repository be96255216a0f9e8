package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestHistoricalVaR(t *testing.T) {
	// -0.05, -0.04, ... +0.94 (100 samples)
	returns := sequence(100, func(i int) float64 { return float64(i-5) / 100 })

	res, err := HistoricalVaR(returns, 0.95)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Samples)
	assert.InDelta(t, 0.00, res.VaR, 1e-12) // sorted[5] = 0
	// mean of -0.05..0.00
	assert.InDelta(t, 0.025, res.CVaR, 1e-12)
	assert.GreaterOrEqual(t, res.CVaR, res.VaR)
}

func TestHistoricalVaR_AllLosses(t *testing.T) {
	returns := sequence(40, func(i int) float64 { return -0.01 * float64(i+1) })

	res, err := HistoricalVaR(returns, 0.95)
	require.NoError(t, err)
	// idx = floor(0.05*40) = 2 → third worst = -0.38
	assert.InDelta(t, 0.38, res.VaR, 1e-12)
	assert.InDelta(t, 0.39, res.CVaR, 1e-12)
}

func TestHistoricalVaR_OnlyGains(t *testing.T) {
	res, err := HistoricalVaR(sequence(30, func(i int) float64 { return 0.01 }), 0.99)
	require.NoError(t, err)
	assert.Zero(t, res.VaR)
	assert.Zero(t, res.CVaR)
}

func TestHistoricalVaR_Errors(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
	}{
		{"too few samples", make([]float64, MinSamples-1), 0.95},
		{"confidence zero", make([]float64, MinSamples), 0},
		{"confidence one", make([]float64, MinSamples), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HistoricalVaR(tt.returns, tt.confidence)
			assert.Error(t, err)
		})
	}
}

func TestHistoricalVaR_DoesNotReorderInput(t *testing.T) {
	returns := sequence(30, func(i int) float64 { return float64(30-i) / 100 })
	first := returns[0]
	_, err := HistoricalVaR(returns, 0.95)
	require.NoError(t, err)
	assert.Equal(t, first, returns[0])
}
