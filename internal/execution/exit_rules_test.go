package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/internal/testutil"
)

func f(v float64) *float64 { return &v }

func openPosition(entry time.Time) *contracts.Position {
	return &contracts.Position{
		Symbol:        "INFY",
		EntryDate:     entry,
		EntryPrice:    100,
		Shares:        10,
		StopLossPrice: 85,
		TargetPrice:   125,
		Status:        contracts.PositionOpen,
	}
}

func TestExitEvaluator_Priority(t *testing.T) {
	entry := testutil.Date("2024-02-29")
	e := NewExitEvaluator(strategyconfig.Default().Exit)

	tests := []struct {
		name       string
		obs        Observation
		wantExit   bool
		wantReason contracts.ExitReason
	}{
		{
			name: "hold",
			obs:  Observation{Date: entry.AddDate(0, 0, 10), Close: 105, MomentumPercentile: f(80), FIPScore: f(-0.3)},
		},
		{
			name:       "stop loss beats fip degradation on the same day",
			obs:        Observation{Date: entry.AddDate(0, 0, 10), Close: 84, MomentumPercentile: f(10), FIPScore: f(0.5)},
			wantExit:   true,
			wantReason: contracts.ExitStopLoss,
		},
		{
			name:       "stop loss at exactly the stop price",
			obs:        Observation{Date: entry.AddDate(0, 0, 10), Close: 85},
			wantExit:   true,
			wantReason: contracts.ExitStopLoss,
		},
		{
			name:       "target profit beats holding period",
			obs:        Observation{Date: entry.AddDate(0, 0, 120), Close: 125},
			wantExit:   true,
			wantReason: contracts.ExitTargetProfit,
		},
		{
			name:     "holding day 90 is kept",
			obs:      Observation{Date: entry.AddDate(0, 0, 90), Close: 100},
			wantExit: false,
		},
		{
			name:       "holding day 91 exits",
			obs:        Observation{Date: entry.AddDate(0, 0, 91), Close: 100, MomentumPercentile: f(5)},
			wantExit:   true,
			wantReason: contracts.ExitHoldingPeriod,
		},
		{
			name:       "momentum deterioration beats fip",
			obs:        Observation{Date: entry.AddDate(0, 0, 30), Close: 100, MomentumPercentile: f(29.9), FIPScore: f(0.2)},
			wantExit:   true,
			wantReason: contracts.ExitMomentumDeterioration,
		},
		{
			name:     "momentum at 30 is kept",
			obs:      Observation{Date: entry.AddDate(0, 0, 30), Close: 100, MomentumPercentile: f(30), FIPScore: f(0)},
			wantExit: false,
		},
		{
			name:       "fip degradation",
			obs:        Observation{Date: entry.AddDate(0, 0, 30), Close: 100, MomentumPercentile: f(60), FIPScore: f(0.01)},
			wantExit:   true,
			wantReason: contracts.ExitFIPDegradation,
		},
		{
			name:     "unscored symbol only price and time rules",
			obs:      Observation{Date: entry.AddDate(0, 0, 30), Close: 100},
			wantExit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Evaluate(openPosition(entry), tt.obs)
			assert.Equal(t, tt.wantExit, d.Exit)
			if tt.wantExit {
				assert.Equal(t, tt.wantReason, d.Reason)
			}
		})
	}
}

func TestExitEvaluator_Stale(t *testing.T) {
	entry := testutil.Date("2024-02-29")
	e := NewExitEvaluator(strategyconfig.Default().Exit)

	// stale close below the stop does not trigger
	d := e.Evaluate(openPosition(entry), Observation{Date: entry.AddDate(0, 0, 5), Close: 50, Stale: true, FIPScore: f(1)})
	assert.False(t, d.Exit)

	// holding period still applies
	d = e.Evaluate(openPosition(entry), Observation{Date: entry.AddDate(0, 0, 95), Close: 100, Stale: true})
	assert.True(t, d.Exit)
	assert.Equal(t, contracts.ExitHoldingPeriod, d.Reason)
	assert.Equal(t, 95, d.HoldingDays)
}

func TestExitEvaluator_ClosedPosition(t *testing.T) {
	pos := openPosition(testutil.Date("2024-02-29"))
	pos.Status = contracts.PositionClosed

	d := NewExitEvaluator(strategyconfig.Default().Exit).Evaluate(pos, Observation{Date: testutil.Date("2024-03-05"), Close: 1})
	assert.False(t, d.Exit)
}
