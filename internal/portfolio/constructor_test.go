package portfolio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/internal/testutil"
	"github.com/wonny/qmomentum/pkg/logger"
)

func ranked(n int, price float64) []contracts.MomentumRecord {
	out := make([]contracts.MomentumRecord, n)
	for i := range out {
		out[i] = contracts.MomentumRecord{
			Symbol:        fmt.Sprintf("S%02d", i),
			Sector:        "IT",
			Close:         price,
			Momentum12M:   0.5,
			FIPScore:      -0.4,
			CombinedScore: 0.9,
		}
	}
	return out
}

func TestConstructor_EqualSlots(t *testing.T) {
	cfg := strategyconfig.Default().Portfolio // size 40
	c := NewConstructor(cfg, logger.NewNop())
	entry := testutil.Date("2024-02-29")

	positions, diags := c.Construct(ranked(50, 97), 1_000_000, entry)

	require.Len(t, positions, 40)
	assert.Empty(t, diags)
	for _, p := range positions {
		assert.Equal(t, 25_000.0, p.PositionValue)
		assert.Equal(t, int64(257), p.Shares) // floor(25000/97)
		assert.InDelta(t, 97*0.85, p.StopLossPrice, 1e-9)
		assert.InDelta(t, 97*1.25, p.TargetPrice, 1e-9)
		assert.Equal(t, contracts.PositionOpen, p.Status)
		assert.Equal(t, entry, p.EntryDate)
		assert.LessOrEqual(t, p.Invested(), p.PositionValue)
	}
}

func TestConstructor_NotPadded(t *testing.T) {
	c := NewConstructor(strategyconfig.Default().Portfolio, logger.NewNop())

	positions, _ := c.Construct(ranked(3, 100), 1_000_000, testutil.Date("2024-02-29"))

	// 3 candidates, 40 slots: slot value still portfolio/40
	require.Len(t, positions, 3)
	assert.Equal(t, 25_000.0, positions[0].PositionValue)
}

func TestConstructor_SingleSlotUsesWholeCapital(t *testing.T) {
	cfg := strategyconfig.Default().Portfolio
	cfg.Size = 1
	c := NewConstructor(cfg, logger.NewNop())

	positions, _ := c.Construct(ranked(5, 100), 10_000, testutil.Date("2024-02-29"))
	require.Len(t, positions, 1)
	assert.Equal(t, 10_000.0, positions[0].PositionValue)
	assert.Equal(t, int64(100), positions[0].Shares)
}

func TestConstructor_PriceAboveSlot(t *testing.T) {
	c := NewConstructor(strategyconfig.Default().Portfolio, logger.NewNop())

	positions, diags := c.Construct(ranked(1, 30_000), 1_000_000, testutil.Date("2024-02-29"))

	require.Len(t, positions, 1)
	assert.Zero(t, positions[0].Shares)
	assert.True(t, positions[0].HasFlag(contracts.FlagPriceAboveSlot))
	assert.Equal(t, 1, diags.Count(contracts.DiagPriceAboveSlot))
}

func TestTurnover(t *testing.T) {
	d := testutil.Date("2024-05-31")
	tr := Turnover(d, []string{"A", "B", "C", "D"}, []string{"C", "D", "E"})

	assert.Equal(t, []string{"A", "B"}, tr.Removed)
	assert.Equal(t, []string{"E"}, tr.Added)
	assert.Equal(t, []string{"C", "D"}, tr.Continuing)
	assert.InDelta(t, 0.5, tr.Rate, 1e-12)

	first := Turnover(d, nil, []string{"A"})
	assert.Zero(t, first.Rate)
	assert.Equal(t, []string{"A"}, first.Added)
}

func TestSectorBreakdown(t *testing.T) {
	positions := []contracts.Position{
		{Symbol: "INFY", Sector: "IT", Shares: 10, EntryPrice: 100},
		{Symbol: "TCS", Sector: "IT", Shares: 10, EntryPrice: 100},
		{Symbol: "HDFC", Sector: "Banks", Shares: 20, EntryPrice: 50},
		{Symbol: "NEW", Shares: 0, EntryPrice: 100},
	}

	rows := SectorBreakdown(positions)
	require.Len(t, rows, 3)
	assert.Equal(t, "IT", rows[0].Sector)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 2000.0/3000.0, rows[0].Weight, 1e-12)
	assert.Equal(t, "Banks", rows[1].Sector)
	assert.Equal(t, "Unknown", rows[2].Sector)
	assert.Zero(t, rows[2].Weight)
}
