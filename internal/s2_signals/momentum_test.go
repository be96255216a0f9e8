package s2_signals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/internal/testutil"
	"github.com/wonny/qmomentum/pkg/logger"
)

func newEngine() *Engine {
	return NewEngine(strategyconfig.Default().Signals)
}

func TestEngine_MinHistory(t *testing.T) {
	assert.Equal(t, 273, newEngine().MinHistory())

	noSkip := NewEngine(strategyconfig.Signals{LookbackMonths: 12, SkipDays: 0, VolumeAvgDays: 30})
	assert.Equal(t, 253, noSkip.MinHistory())
}

func TestEngine_InsufficientHistory(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 272)
	s := testutil.Series("SHORT", days, testutil.Geometric(100, 0.001, 272), 1000)

	_, err := newEngine().Compute(s, days[len(days)-1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInsufficientHistory))

	// 273 bars is enough
	days = testutil.TradingDays(testutil.Date("2023-01-02"), 273)
	s = testutil.Series("OK", days, testutil.Geometric(100, 0.001, 273), 1000)
	_, err = newEngine().Compute(s, days[len(days)-1])
	assert.NoError(t, err)
}

func TestEngine_ConstantPrice(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	s := testutil.Series("FLAT", days, testutil.Flat(100, 300), 1000)

	rec, err := newEngine().Compute(s, days[299])
	require.NoError(t, err)
	assert.Zero(t, rec.Momentum12M)
	assert.Zero(t, rec.FIPScore)
}

func TestEngine_SmoothUptrend(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	s := testutil.Series("UP", days, testutil.Geometric(100, 0.005, 300), 1000)

	rec, err := newEngine().Compute(s, days[299])
	require.NoError(t, err)

	// 231 compounded daily returns of 0.5%
	want := 1.0
	for i := 0; i < 231; i++ {
		want *= 1.005
	}
	assert.InDelta(t, want-1, rec.Momentum12M, 1e-9)
	assert.InDelta(t, -1.0, rec.FIPScore, 1e-12)
	assert.Equal(t, days[299], rec.AsOf)
	assert.InDelta(t, 1000.0, rec.AvgVolume30, 1e-9)
	assert.Equal(t, int64(1000), rec.Volume)
}

func TestEngine_SmoothDowntrend(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	s := testutil.Series("DOWN", days, testutil.Geometric(100, -0.002, 300), 1000)

	rec, err := newEngine().Compute(s, days[299])
	require.NoError(t, err)
	assert.Less(t, rec.Momentum12M, 0.0)
	// sign(-) × (1 - 0) = -1
	assert.InDelta(t, -1.0, rec.FIPScore, 1e-12)
}

func TestEngine_JumpyUptrendScoresWorseThanSmooth(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)

	// alternating +3% / -2%: same sign of momentum, half the days negative
	closes := make([]float64, 300)
	p := 100.0
	for i := range closes {
		closes[i] = p
		if i%2 == 0 {
			p *= 1.03
		} else {
			p *= 0.98
		}
	}
	jumpy := testutil.Series("JUMP", days, closes, 1000)
	smooth := testutil.Series("SMOOTH", days, testutil.Geometric(100, 0.004, 300), 1000)

	e := newEngine()
	jr, err := e.Compute(jumpy, days[299])
	require.NoError(t, err)
	sr, err := e.Compute(smooth, days[299])
	require.NoError(t, err)

	assert.Greater(t, jr.Momentum12M, 0.0)
	assert.Greater(t, jr.FIPScore, sr.FIPScore)
	assert.InDelta(t, 0.0, jr.FIPScore, 0.01)
}

func TestEngine_AsOfResolvesToPriorBar(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	s := testutil.Series("UP", days, testutil.Geometric(100, 0.001, 300), 1000)

	// a Saturday after the last bar resolves to Friday's bar
	sat := days[299].AddDate(0, 0, 1)
	for sat.Weekday().String() != "Saturday" {
		sat = sat.AddDate(0, 0, 1)
	}
	rec, err := newEngine().Compute(s, sat)
	require.NoError(t, err)
	assert.Equal(t, days[299], rec.AsOf)
}

func TestBuilder_DeterministicAndDiagnostics(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	series := map[string]*s0_data.PriceSeries{}
	for i, sym := range []string{"E", "B", "D", "A", "C"} {
		series[sym] = testutil.Series(sym, days, testutil.Geometric(100, 0.001*float64(i+1), 300), 1000)
	}
	series["NEW"] = testutil.Series("NEW", days[250:], testutil.Flat(10, 50), 1000)

	universe := &contracts.Universe{Name: "nifty_50", Constituents: map[string]contracts.Constituent{}}
	for sym := range series {
		universe.Constituents[sym] = contracts.Constituent{Symbol: sym, Sector: "Sector-" + sym}
	}

	b := NewBuilder(newEngine(), 4, logger.NewNop())
	set, err := b.Build(context.Background(), series, universe, days[299])
	require.NoError(t, err)

	require.Len(t, set.Records, 5)
	got := []string{}
	for _, r := range set.Records {
		got = append(got, r.Symbol)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)
	assert.Equal(t, "Sector-A", set.Records[0].Sector)

	require.Len(t, set.Diagnostics, 1)
	assert.Equal(t, contracts.DiagInsufficientHistory, set.Diagnostics[0].Kind)
	assert.Equal(t, "NEW", set.Diagnostics[0].Symbol)

	// sequential path gives the same records
	seq := b.ScoreSequential(series, universe, days[299])
	assert.Equal(t, set.Records, seq.Records)
}

func TestBuilder_UniverseRestricts(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	series := map[string]*s0_data.PriceSeries{
		"IN":  testutil.Series("IN", days, testutil.Geometric(100, 0.001, 300), 1000),
		"OUT": testutil.Series("OUT", days, testutil.Geometric(100, 0.001, 300), 1000),
	}
	universe := &contracts.Universe{Constituents: map[string]contracts.Constituent{"IN": {Symbol: "IN"}}}

	set := NewBuilder(newEngine(), 1, logger.NewNop()).ScoreSequential(series, universe, days[299])
	require.Len(t, set.Records, 1)
	assert.Equal(t, "IN", set.Records[0].Symbol)
}

func TestBuilder_Cancelled(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	series := map[string]*s0_data.PriceSeries{
		"A": testutil.Series("A", days, testutil.Geometric(100, 0.001, 300), 1000),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(newEngine(), 2, logger.NewNop()).Build(ctx, series, nil, days[299])
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScoreSet_DropStale(t *testing.T) {
	days := testutil.TradingDays(testutil.Date("2023-01-02"), 300)
	series := map[string]*s0_data.PriceSeries{
		"LIVE":  testutil.Series("LIVE", days, testutil.Geometric(100, 0.002, 300), 1000),
		"ENDED": testutil.Series("ENDED", days[:280], testutil.Geometric(100, 0.002, 280), 1000),
	}

	set, err := NewBuilder(newEngine(), 2, logger.NewNop()).Build(context.Background(), series, nil, days[299])
	require.NoError(t, err)
	require.Len(t, set.Records, 2)

	dropped := set.DropStale()

	require.Len(t, set.Records, 1)
	assert.Equal(t, "LIVE", set.Records[0].Symbol)
	assert.Equal(t, days[299], set.Records[0].AsOf)

	require.Len(t, dropped, 1)
	assert.Equal(t, contracts.DiagStaleBar, dropped[0].Kind)
	assert.Equal(t, "ENDED", dropped[0].Symbol)
	assert.Equal(t, days[299], dropped[0].Date)
	assert.Contains(t, dropped[0].Message, days[279].Format("2006-01-02"))
}
