package s1_universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/testutil"
	"github.com/wonny/qmomentum/pkg/logger"
)

type fakeSource struct {
	members []contracts.Constituent
	err     error
	asked   string
}

func (f *fakeSource) Constituents(_ context.Context, selector string) ([]contracts.Constituent, error) {
	f.asked = selector
	return f.members, f.err
}

func seriesFor(symbols ...string) map[string]*s0_data.PriceSeries {
	days := testutil.TradingDays(testutil.Date("2024-01-01"), 5)
	out := make(map[string]*s0_data.PriceSeries, len(symbols))
	for _, sym := range symbols {
		out[sym] = testutil.Series(sym, days, testutil.Flat(100, 5), 10)
	}
	return out
}

func TestBuilder_Build(t *testing.T) {
	mcap := 1e11
	src := &fakeSource{members: []contracts.Constituent{
		{Symbol: "RELIANCE.NS", Company: "Reliance Industries", Sector: "Energy", MarketCap: &mcap},
		{Symbol: "infy", Sector: "IT"},
		{Symbol: "YESBANK", Sector: "Banks"},
		{Symbol: "NODATA", Sector: "IT"},
		{Symbol: "ADANIENT", Sector: "Metals"},
	}}

	b := NewBuilder(src, Config{
		Selector:       SelectorNifty500,
		ExcludeSymbols: []string{"adanient.ns"},
		ExcludeSectors: []string{"banks"},
	}, logger.NewNop())

	u, err := b.Build(context.Background(), seriesFor("RELIANCE", "INFY", "YESBANK", "ADANIENT"), testutil.Date("2024-01-05"))
	require.NoError(t, err)

	assert.Equal(t, SelectorNifty500, src.asked)
	assert.Equal(t, SelectorNifty500, u.Name)
	assert.Equal(t, []string{"INFY", "RELIANCE"}, u.Symbols())
	assert.Equal(t, "Energy", u.Sector("RELIANCE"))
	require.NotNil(t, u.MarketCap("RELIANCE"))
	assert.Nil(t, u.MarketCap("INFY"))

	assert.Equal(t, map[string]string{
		"YESBANK":  "excluded sector (banks)",
		"NODATA":   "no price data",
		"ADANIENT": "excluded symbol",
	}, u.Excluded)
}

func TestBuilder_FallsBackToSeries(t *testing.T) {
	tests := []struct {
		name   string
		source ConstituentSource
	}{
		{"no source", nil},
		{"source error", &fakeSource{err: errors.New("blocked")}},
		{"empty index", &fakeSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.source, Config{Selector: SelectorNifty50}, logger.NewNop())
			u, err := b.Build(context.Background(), seriesFor("B", "A"), testutil.Date("2024-01-05"))
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B"}, u.Symbols())
			assert.Equal(t, "Unknown", u.Sector("A"))
		})
	}
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewBuilder(nil, Config{Selector: "sensex"}, logger.NewNop()).
		Build(context.Background(), seriesFor("A"), testutil.Date("2024-01-05"))
	assert.Error(t, err)

	_, err = NewBuilder(nil, Config{Selector: SelectorNifty50}, logger.NewNop()).
		Build(context.Background(), nil, testutil.Date("2024-01-05"))
	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct{ in, want string }{
		{"RELIANCE.NS", "RELIANCE"},
		{" tcs.bo ", "TCS"},
		{"M&M", "M&M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSymbol(tt.in))
	}
}

func TestIndexName(t *testing.T) {
	name, err := IndexName(SelectorNifty50)
	require.NoError(t, err)
	assert.Equal(t, "NIFTY 50", name)

	name, err = IndexName(SelectorNifty500)
	require.NoError(t, err)
	assert.Equal(t, "NIFTY 500", name)
}
