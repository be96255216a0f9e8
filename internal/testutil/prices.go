// Package testutil builds synthetic price data for package tests.
package testutil

import (
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
)

// Date parses YYYY-MM-DD and panics on error
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// TradingDays returns n consecutive weekdays starting at start (inclusive if a weekday)
func TradingDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := s0_data.NormalizeDate(start)
	for len(days) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// Geometric returns n closes compounding at dailyRet from start
func Geometric(start, dailyRet float64, n int) []float64 {
	closes := make([]float64, n)
	p := start
	for i := range closes {
		closes[i] = p
		p *= 1 + dailyRet
	}
	return closes
}

// Flat returns n identical closes
func Flat(price float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// Bars zips dates and closes into bars with constant volume
func Bars(dates []time.Time, closes []float64, volume int64) []contracts.PriceBar {
	n := len(dates)
	if len(closes) < n {
		n = len(closes)
	}
	bars := make([]contracts.PriceBar, n)
	for i := 0; i < n; i++ {
		c := closes[i]
		bars[i] = contracts.PriceBar{
			Date:   dates[i],
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

// Series builds a validated series and panics on invalid input
func Series(symbol string, dates []time.Time, closes []float64, volume int64) *s0_data.PriceSeries {
	s, err := s0_data.NewPriceSeries(symbol, Bars(dates, closes, volume))
	if err != nil {
		panic(err)
	}
	return s
}
