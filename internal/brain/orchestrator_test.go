package brain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/internal/testutil"
	"github.com/wonny/qmomentum/pkg/logger"
)

type memoryStore struct {
	saved []*contracts.ScreeningResult
}

func (m *memoryStore) SaveScreening(_ context.Context, r *contracts.ScreeningResult) error {
	m.saved = append(m.saved, r)
	return nil
}

func (m *memoryStore) LatestScreening(context.Context) (*contracts.ScreeningResult, error) {
	if len(m.saved) == 0 {
		return nil, contracts.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memoryStore) ScreeningByDate(context.Context, time.Time) (*contracts.ScreeningResult, error) {
	return nil, contracts.ErrNotFound
}

var days = testutil.TradingDays(testutil.Date("2023-01-02"), 300)

func flatAndRising() map[string]*s0_data.PriceSeries {
	return map[string]*s0_data.PriceSeries{
		"A": testutil.Series("A", days, testutil.Flat(100, 300), 1000),
		"B": testutil.Series("B", days, testutil.Geometric(100, 0.005, 300), 1000),
	}
}

func singleSlot() *strategyconfig.Config {
	cfg := strategyconfig.Default()
	cfg.Portfolio.Size = 1
	return cfg
}

func TestOrchestrator_Screen_SelectsSmoothRiser(t *testing.T) {
	o := NewOrchestrator(singleSlot(), nil, nil, logger.NewNop())

	res, err := o.Screen(context.Background(), ScreenRequest{
		AsOf:           days[299],
		Series:         flatAndRising(),
		PortfolioValue: 100_000,
		Previous:       []string{"A"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Scored)
	require.Len(t, res.Ranked, 1)
	assert.Equal(t, "B", res.Ranked[0].Symbol)
	assert.Less(t, res.Ranked[0].FIPScore, -0.10)

	require.Len(t, res.Positions, 1)
	pos := res.Positions[0]
	assert.Equal(t, "B", pos.Symbol)
	assert.InDelta(t, 0.85*pos.EntryPrice, pos.StopLossPrice, 1e-9)
	assert.InDelta(t, 1.25*pos.EntryPrice, pos.TargetPrice, 1e-9)
	assert.LessOrEqual(t, pos.Invested(), pos.PositionValue)

	require.NotNil(t, res.Turnover)
	assert.Equal(t, []string{"A"}, res.Turnover.Removed)
	assert.Equal(t, []string{"B"}, res.Turnover.Added)
	assert.Equal(t, 1.0, res.Turnover.Rate)

	assert.Equal(t, "nifty_500", res.Universe)
	assert.Equal(t, strategyconfig.MustHash(singleSlot()), res.ConfigHash)
	assert.NotEmpty(t, res.RunID)

	stages := make([]contracts.Stage, 0, len(res.Stages))
	for _, s := range res.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []contracts.Stage{
		contracts.StageDataQuality,
		contracts.StageUniverse,
		contracts.StageSignals,
		contracts.StageScreener,
		contracts.StageRanker,
		contracts.StagePortfolio,
	}, stages)
}

func TestOrchestrator_Screen_Saves(t *testing.T) {
	store := &memoryStore{}
	o := NewOrchestrator(singleSlot(), nil, store, logger.NewNop())

	res, err := o.Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: flatAndRising()})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Same(t, res, store.saved[0])
	assert.Nil(t, res.Turnover)
}

func TestOrchestrator_Screen_EmptyAfterFilter(t *testing.T) {
	series := map[string]*s0_data.PriceSeries{
		"A": testutil.Series("A", days, testutil.Flat(100, 300), 1000),
		"C": testutil.Series("C", days, testutil.Flat(50, 300), 1000),
	}

	res, err := NewOrchestrator(singleSlot(), nil, nil, logger.NewNop()).
		Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: series})

	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Scored)
	assert.Empty(t, res.Ranked)
}

func TestOrchestrator_Screen_InsufficientHistory(t *testing.T) {
	_, err := NewOrchestrator(singleSlot(), nil, nil, logger.NewNop()).
		Screen(context.Background(), ScreenRequest{AsOf: days[100], Series: flatAndRising()})

	assert.ErrorIs(t, err, contracts.ErrNoValidSymbols)
}

func TestOrchestrator_Screen_Deterministic(t *testing.T) {
	o := NewOrchestrator(strategyconfig.Default(), nil, nil, logger.NewNop())

	series := flatAndRising()
	for i, sym := range []string{"C", "D", "E", "F"} {
		series[sym] = testutil.Series(sym, days, testutil.Geometric(100, 0.001*float64(i+1), 300), 1000)
	}

	first, err := o.Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: series})
	require.NoError(t, err)
	second, err := o.Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: series})
	require.NoError(t, err)

	assert.Equal(t, first.Ranked, second.Ranked)
	assert.Equal(t, first.Positions, second.Positions)
}

func TestOrchestrator_Screen_DropsSymbolWithoutBarOnAsOf(t *testing.T) {
	series := map[string]*s0_data.PriceSeries{
		"A": testutil.Series("A", days, testutil.Geometric(100, 0.005, 300), 1000),
		// stopped trading 20 sessions before as-of
		"B": testutil.Series("B", days[:280], testutil.Geometric(100, 0.006, 280), 1000),
	}

	res, err := NewOrchestrator(strategyconfig.Default(), nil, nil, logger.NewNop()).
		Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: series, PortfolioValue: 100_000})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Scored)
	for _, rec := range res.Ranked {
		assert.NotEqual(t, "B", rec.Symbol)
		assert.Equal(t, days[299], rec.AsOf)
	}
	for _, pos := range res.Positions {
		assert.NotEqual(t, "B", pos.Symbol)
	}
	require.Len(t, res.Positions, 1)
	assert.Equal(t, series["A"].Close(299), res.Positions[0].EntryPrice)

	require.Equal(t, 1, res.Diagnostics.Count(contracts.DiagStaleBar))
	for _, d := range res.Diagnostics {
		if d.Kind == contracts.DiagStaleBar {
			assert.Equal(t, "B", d.Symbol)
			assert.Equal(t, days[299], d.Date)
		}
	}
}

func TestOrchestrator_Screen_AllStale(t *testing.T) {
	series := map[string]*s0_data.PriceSeries{
		"B": testutil.Series("B", days[:280], testutil.Geometric(100, 0.006, 280), 1000),
	}

	res, err := NewOrchestrator(singleSlot(), nil, nil, logger.NewNop()).
		Screen(context.Background(), ScreenRequest{AsOf: days[299], Series: series})

	assert.ErrorIs(t, err, contracts.ErrNoValidSymbols)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Diagnostics.Count(contracts.DiagStaleBar))
}
