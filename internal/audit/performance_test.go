package audit

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
)

func curveOf(start time.Time, stepDays int, values ...float64) []contracts.EquityPoint {
	out := make([]contracts.EquityPoint, len(values))
	for i, v := range values {
		out[i] = contracts.EquityPoint{Date: start.AddDate(0, 0, i*stepDays), Value: v, Cash: v}
	}
	return out
}

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSummarize_MaxDrawdown(t *testing.T) {
	m, _ := Summarize(curveOf(day0, 1, 100, 110, 90, 120), nil)

	assert.InDelta(t, 20.0/110.0, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 0.1818, m.MaxDrawdown, 1e-4)
	assert.Equal(t, 100.0, m.InitialValue)
	assert.Equal(t, 120.0, m.FinalValue)
	assert.InDelta(t, 0.2, m.TotalReturn, 1e-12)
	assert.Equal(t, 3, m.Days)
}

func TestSummarize_CAGR(t *testing.T) {
	m, _ := Summarize([]contracts.EquityPoint{
		{Date: day0, Value: 100},
		{Date: day0.AddDate(0, 0, 730), Value: 121},
	}, nil)

	require.NotNil(t, m.CAGR)
	assert.InDelta(t, 0.10, *m.CAGR, 1e-9)
}

func TestSummarize_SinglePointIsUndefined(t *testing.T) {
	m, diags := Summarize(curveOf(day0, 1, 100), nil)

	assert.Nil(t, m.CAGR)
	assert.Nil(t, m.Sharpe)
	assert.Nil(t, m.Sortino)
	assert.Nil(t, m.Volatility)
	assert.Nil(t, m.WinRate)
	assert.Zero(t, m.MaxDrawdown)
	assert.Equal(t, 4, diags.Count(contracts.DiagUndefinedRatio))
}

func TestSummarize_FlatCurveHasNoRatios(t *testing.T) {
	m, diags := Summarize(curveOf(day0, 1, 100, 100, 100, 100), nil)

	require.NotNil(t, m.CAGR)
	assert.Zero(t, *m.CAGR)
	require.NotNil(t, m.Volatility)
	assert.Zero(t, *m.Volatility)
	assert.Nil(t, m.Sharpe)
	assert.Nil(t, m.Sortino)
	assert.GreaterOrEqual(t, diags.Count(contracts.DiagUndefinedRatio), 2)
}

func TestSummarize_SharpeSortino(t *testing.T) {
	values := []float64{100, 101, 100, 102, 101, 103}
	m, _ := Summarize(curveOf(day0, 1, values...), nil)

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns = append(returns, values[i]/values[i-1]-1)
	}
	sd, ok := sampleStdev(returns)
	require.True(t, ok)

	require.NotNil(t, m.Sharpe)
	assert.InDelta(t, mean(returns)*252/(sd*math.Sqrt(252)), *m.Sharpe, 1e-9)

	// two down days → downside stdev defined
	require.NotNil(t, m.Sortino)
	assert.Greater(t, *m.Sortino, *m.Sharpe)
}

func TestSummarize_SortinoNeedsTwoDownDays(t *testing.T) {
	m, _ := Summarize(curveOf(day0, 1, 100, 101, 100, 102, 103), nil)

	assert.NotNil(t, m.Sharpe)
	assert.Nil(t, m.Sortino)
}

func TestSummarize_Trades(t *testing.T) {
	trades := []contracts.Trade{
		{Symbol: "A", Sector: "IT", ReturnPct: 0.10, NetPnL: 1000, HoldingDays: 30, ExitReason: contracts.ExitTargetProfit},
		{Symbol: "B", Sector: "IT", ReturnPct: -0.05, NetPnL: -500, HoldingDays: 10, ExitReason: contracts.ExitStopLoss},
		{Symbol: "C", Sector: "Banks", ReturnPct: 0.20, NetPnL: 2000, HoldingDays: 91, ExitReason: contracts.ExitHoldingPeriod},
		{Symbol: "D", ReturnPct: 0, NetPnL: -10, HoldingDays: 5, ExitReason: contracts.ExitStopLoss},
	}

	m, _ := Summarize(curveOf(day0, 1, 100, 101), trades)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	require.NotNil(t, m.WinRate)
	assert.InDelta(t, 0.5, *m.WinRate, 1e-12)
	require.NotNil(t, m.AvgTradeReturn)
	assert.InDelta(t, 0.0625, *m.AvgTradeReturn, 1e-12)
	require.NotNil(t, m.AvgHoldingDays)
	assert.InDelta(t, 34.0, *m.AvgHoldingDays, 1e-12)
	require.NotNil(t, m.ProfitFactor)
	assert.InDelta(t, 3000.0/510.0, *m.ProfitFactor, 1e-12)
	assert.Equal(t, 0.20, *m.BestTrade)
	assert.Equal(t, -0.05, *m.WorstTrade)

	require.Len(t, m.ExitAttribution, 3)
	assert.Equal(t, string(contracts.ExitStopLoss), m.ExitAttribution[0].Key)
	assert.Equal(t, 2, m.ExitAttribution[0].Trades)
	assert.Equal(t, string(contracts.ExitTargetProfit), m.ExitAttribution[1].Key)
	assert.Equal(t, string(contracts.ExitHoldingPeriod), m.ExitAttribution[2].Key)

	require.Len(t, m.SectorAttribution, 3)
	assert.Equal(t, "Banks", m.SectorAttribution[0].Key)
	assert.Equal(t, "IT", m.SectorAttribution[1].Key)
	assert.InDelta(t, 500.0, m.SectorAttribution[1].TotalPnL, 1e-12)
	assert.InDelta(t, 0.5, m.SectorAttribution[1].WinRate, 1e-12)
	assert.Equal(t, "Unknown", m.SectorAttribution[2].Key)
}

func TestSummarize_NoLossesLeavesProfitFactorNil(t *testing.T) {
	m, _ := Summarize(curveOf(day0, 1, 100, 101), []contracts.Trade{{ReturnPct: 0.1, NetPnL: 10}})

	assert.Nil(t, m.ProfitFactor)
	require.NotNil(t, m.WinRate)
	assert.Equal(t, 1.0, *m.WinRate)
}

func TestSummarize_TailRisk(t *testing.T) {
	// 40 days alternating +2% / -1%
	values := []float64{100}
	for i := 0; i < 40; i++ {
		step := 1.02
		if i%2 == 1 {
			step = 0.99
		}
		values = append(values, values[len(values)-1]*step)
	}

	m, _ := Summarize(curveOf(day0, 1, values...), nil)
	require.NotNil(t, m.DailyVaR95)
	require.NotNil(t, m.DailyCVaR95)
	assert.InDelta(t, 0.01, *m.DailyVaR95, 1e-9)
	assert.InDelta(t, 0.01, *m.DailyCVaR95, 1e-9)

	short, _ := Summarize(curveOf(day0, 1, 100, 99, 101), nil)
	assert.Nil(t, short.DailyVaR95)
	assert.Nil(t, short.DailyCVaR95)
}
