package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPriceBar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bar     PriceBar
		wantErr bool
	}{
		{"valid", PriceBar{Date: day("2024-01-02"), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}, false},
		{"zero volume allowed", PriceBar{Date: day("2024-01-02"), High: 11, Low: 9, Close: 10}, false},
		{"missing date", PriceBar{High: 11, Low: 9, Close: 10}, true},
		{"zero close", PriceBar{Date: day("2024-01-02"), High: 11, Low: 9, Close: 0}, true},
		{"high below low", PriceBar{Date: day("2024-01-02"), High: 8, Low: 9, Close: 8.5}, true},
		{"negative volume", PriceBar{Date: day("2024-01-02"), High: 11, Low: 9, Close: 10, Volume: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPriceBar))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMomentumRecord_Labels(t *testing.T) {
	tests := []struct {
		momentum, fip         float64
		wantStrength, wantQua string
	}{
		{1.2, -0.5, StrengthVeryStrong, QualityExcellent},
		{0.6, -0.2, StrengthStrong, QualityGood},
		{0.5, -0.1, StrengthModerate, QualityFair},
		{-0.1, 0.3, StrengthModerate, QualityFair},
	}

	for _, tt := range tests {
		r := MomentumRecord{Momentum12M: tt.momentum, FIPScore: tt.fip}
		assert.Equal(t, tt.wantStrength, r.MomentumStrength())
		assert.Equal(t, tt.wantQua, r.MomentumQuality())
	}
}

func TestExitReason_Priority(t *testing.T) {
	assert.Equal(t, 1, ExitStopLoss.Priority())
	assert.Equal(t, 2, ExitTargetProfit.Priority())
	assert.Equal(t, 3, ExitHoldingPeriod.Priority())
	assert.Equal(t, 4, ExitMomentumDeterioration.Priority())
	assert.Equal(t, 5, ExitFIPDegradation.Priority())
	assert.Equal(t, 0, ExitForcedRebalance.Priority())
	assert.Len(t, AllExitReasons(), 8)
}

func TestHoldingDays(t *testing.T) {
	assert.Equal(t, 0, HoldingDays(day("2024-02-29"), day("2024-02-29")))
	assert.Equal(t, 91, HoldingDays(day("2024-02-29"), day("2024-05-30")))
	assert.Equal(t, 366, HoldingDays(day("2024-01-01"), day("2025-01-01")))
}

func TestDiagnosticFromError(t *testing.T) {
	d := day("2024-03-01")
	tests := []struct {
		err  error
		want DiagnosticKind
	}{
		{fmt.Errorf("INFY: %w", ErrInsufficientHistory), DiagInsufficientHistory},
		{fmt.Errorf("TCS: %w", ErrStaleBar), DiagStaleBar},
		{ErrDelistedSymbol, DiagDelisted},
		{ErrUndefinedRatio, DiagUndefinedRatio},
		{fmt.Errorf("bad: %w", ErrInvalidPriceBar), DiagInvalidPriceBar},
	}

	for _, tt := range tests {
		diag := DiagnosticFromError("X", d, tt.err)
		assert.Equal(t, tt.want, diag.Kind)
		assert.Equal(t, "X", diag.Symbol)
	}
}

func TestDiagnostics_AddCount(t *testing.T) {
	var diags Diagnostics
	diags.Add(DiagStaleBar, "INFY", day("2024-03-01"), "missing bar, using %.2f", 100.0)
	diags.Add(DiagStaleBar, "TCS", day("2024-03-01"), "missing bar")
	diags.Add(DiagDelisted, "YESBANK", day("2024-03-04"), "series ended")

	assert.Equal(t, 2, diags.Count(DiagStaleBar))
	assert.Equal(t, 1, diags.Count(DiagDelisted))
	assert.Contains(t, diags[0].String(), "missing bar, using 100.00")
}

func TestUniverse(t *testing.T) {
	mcap := 1.5e12
	u := &Universe{
		Name: "nifty_50",
		Constituents: map[string]Constituent{
			"INFY": {Symbol: "INFY", Sector: "IT", MarketCap: &mcap},
			"TCS":  {Symbol: "TCS"},
		},
	}

	assert.True(t, u.Contains("INFY"))
	assert.False(t, u.Contains("WIPRO"))
	assert.Equal(t, "IT", u.Sector("INFY"))
	assert.Equal(t, "Unknown", u.Sector("TCS"))
	require.NotNil(t, u.MarketCap("INFY"))
	assert.Nil(t, u.MarketCap("TCS"))
	assert.Equal(t, 2, u.Count())

	var nilU *Universe
	assert.Equal(t, 0, nilU.Count())
}

func TestStage_ShortName(t *testing.T) {
	for i, s := range ScreeningStages {
		assert.Equal(t, fmt.Sprintf("S%d", i), s.ShortName())
	}
	assert.Equal(t, "UNKNOWN", Stage("S9_OTHER").ShortName())
}

func TestStageReport_DroppedBy(t *testing.T) {
	var diags Diagnostics
	diags.Add(DiagStaleBar, "INFY", day("2024-03-01"), "last bar 2024-02-23")
	diags.Add(DiagInsufficientHistory, "TCS", day("2024-03-01"), "have 100 bars")
	diags.Add(DiagStaleBar, "WIPRO", day("2024-03-01"), "last bar 2024-02-20")

	r := NewStageReport(StageSignals, 5, 2, 1500*time.Millisecond).DroppedBy(diags)

	assert.Equal(t, int64(1500), r.DurationMs)
	assert.Equal(t, map[string]int{"STALE_BAR": 2, "INSUFFICIENT_HISTORY": 1}, r.Dropped)
	assert.Nil(t, NewStageReport(StageSignals, 2, 2, 0).DroppedBy(nil).Dropped)
}
