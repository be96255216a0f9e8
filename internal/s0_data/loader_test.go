package s0_data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
)

type stubSource struct {
	bars map[string][]contracts.PriceBar
	err  error
}

func (s stubSource) LoadBars(context.Context, []string, time.Time, time.Time) (map[string][]contracts.PriceBar, error) {
	return s.bars, s.err
}

func TestLookbackStart(t *testing.T) {
	assert.Equal(t, d("2023-02-27"), LookbackStart(d("2024-03-28"), 250))
	assert.Equal(t, d("2024-02-12"), LookbackStart(d("2024-03-28").Add(15*time.Hour), 0))
}

func TestLoadSeries(t *testing.T) {
	src := stubSource{bars: map[string][]contracts.PriceBar{
		"GOOD": {bar("2024-01-01", 10, 100), bar("2024-01-03", 11, 100)},
		"DUP":  {bar("2024-01-01", 10, 100), bar("2024-01-01", 10, 100)},
		"NONE": {},
	}}

	series, diags, err := LoadSeries(context.Background(), src, nil, d("2024-01-01"), d("2024-01-31"), logger.NewNop())
	require.NoError(t, err)

	assert.Len(t, series, 1)
	assert.Contains(t, series, "GOOD")
	assert.Len(t, diags, 2)
	assert.Equal(t, d("2024-01-03"), LastTradingDate(series))
}

func TestLoadSeries_Errors(t *testing.T) {
	_, _, err := LoadSeries(context.Background(), stubSource{err: errors.New("disk")}, nil, d("2024-01-01"), d("2024-01-31"), logger.NewNop())
	assert.Error(t, err)

	_, _, err = LoadSeries(context.Background(), stubSource{bars: map[string][]contracts.PriceBar{}}, nil, d("2024-01-01"), d("2024-01-31"), logger.NewNop())
	assert.ErrorIs(t, err, contracts.ErrNoValidSymbols)
}

func TestLastTradingDate_Empty(t *testing.T) {
	assert.True(t, LastTradingDate(nil).IsZero())
}
