package s0_data

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
)

// PriceSeries is an immutable, validated, date-ordered bar sequence for one symbol
// ⭐ SSOT: S0 → S2 시계열은 이 타입으로만 전달
//
// Return i is close[i]/close[i-1]-1 for i ≥ 1. posPrefix[i] and negPrefix[i]
// count positive and negative returns among 1..i so any window count is O(1).
type PriceSeries struct {
	symbol    string
	bars      []contracts.PriceBar
	posPrefix []int
	negPrefix []int
}

// NormalizeDate truncates a timestamp to a UTC calendar date
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewPriceSeries validates bars and builds a series
// Bars must already be in strictly increasing date order.
func NewPriceSeries(symbol string, bars []contracts.PriceBar) (*PriceSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", contracts.ErrInvalidPriceBar)
	}

	owned := make([]contracts.PriceBar, len(bars))
	for i, b := range bars {
		b.Date = NormalizeDate(b.Date)
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%s bar %d: %w", symbol, i, err)
		}
		if i > 0 && !b.Date.After(owned[i-1].Date) {
			return nil, fmt.Errorf("%s: %w: dates not strictly increasing at %s",
				symbol, contracts.ErrInvalidPriceBar, b.Date.Format("2006-01-02"))
		}
		owned[i] = b
	}

	s := &PriceSeries{
		symbol:    symbol,
		bars:      owned,
		posPrefix: make([]int, len(owned)),
		negPrefix: make([]int, len(owned)),
	}
	for i := 1; i < len(owned); i++ {
		s.posPrefix[i] = s.posPrefix[i-1]
		s.negPrefix[i] = s.negPrefix[i-1]
		switch {
		case owned[i].Close > owned[i-1].Close:
			s.posPrefix[i]++
		case owned[i].Close < owned[i-1].Close:
			s.negPrefix[i]++
		}
	}
	return s, nil
}

// SortBars orders bars by date in place (loaders call this before NewPriceSeries)
func SortBars(bars []contracts.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}

// Symbol returns the ticker
func (s *PriceSeries) Symbol() string { return s.symbol }

// Len returns the number of bars
func (s *PriceSeries) Len() int { return len(s.bars) }

// Bar returns the i-th bar
func (s *PriceSeries) Bar(i int) contracts.PriceBar { return s.bars[i] }

// Close returns the i-th close
func (s *PriceSeries) Close(i int) float64 { return s.bars[i].Close }

// Date returns the i-th date
func (s *PriceSeries) Date(i int) time.Time { return s.bars[i].Date }

// FirstDate returns the first bar date (zero for an empty series)
func (s *PriceSeries) FirstDate() time.Time {
	if len(s.bars) == 0 {
		return time.Time{}
	}
	return s.bars[0].Date
}

// LastDate returns the last bar date (zero for an empty series)
func (s *PriceSeries) LastDate() time.Time {
	if len(s.bars) == 0 {
		return time.Time{}
	}
	return s.bars[len(s.bars)-1].Date
}

// IndexAtOrBefore returns the index of the last bar dated ≤ date, or -1
func (s *PriceSeries) IndexAtOrBefore(date time.Time) int {
	date = NormalizeDate(date)
	i := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(date)
	})
	return i - 1
}

// IndexOf returns the index of the bar dated exactly date
func (s *PriceSeries) IndexOf(date time.Time) (int, bool) {
	i := s.IndexAtOrBefore(date)
	if i < 0 || !s.bars[i].Date.Equal(NormalizeDate(date)) {
		return -1, false
	}
	return i, true
}

// HasBarOn reports whether a bar exists on date
func (s *PriceSeries) HasBarOn(date time.Time) bool {
	_, ok := s.IndexOf(date)
	return ok
}

// EndedBefore reports whether the series has no bar on or after date (delisted)
func (s *PriceSeries) EndedBefore(date time.Time) bool {
	return len(s.bars) == 0 || s.LastDate().Before(NormalizeDate(date))
}

// ReturnCounts counts positive and negative daily returns with index in (from, to]
func (s *PriceSeries) ReturnCounts(from, to int) (pos, neg int) {
	if from < 0 {
		from = 0
	}
	if to >= len(s.bars) {
		to = len(s.bars) - 1
	}
	if to <= from {
		return 0, 0
	}
	return s.posPrefix[to] - s.posPrefix[from], s.negPrefix[to] - s.negPrefix[from]
}

// AvgVolume returns the mean volume of the n bars before end (exclusive)
func (s *PriceSeries) AvgVolume(end, n int) float64 {
	start := end - n
	if start < 0 {
		start = 0
	}
	if end > len(s.bars) {
		end = len(s.bars)
	}
	if end <= start {
		return 0
	}
	var sum int64
	for i := start; i < end; i++ {
		sum += s.bars[i].Volume
	}
	return float64(sum) / float64(end-start)
}

// Window returns a copy of the n bars ending at end (inclusive)
func (s *PriceSeries) Window(end, n int) []contracts.PriceBar {
	if end >= len(s.bars) {
		end = len(s.bars) - 1
	}
	start := end - n + 1
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil
	}
	out := make([]contracts.PriceBar, end-start+1)
	copy(out, s.bars[start:end+1])
	return out
}

// BuildSeries validates raw bars per symbol; invalid symbols become diagnostics
func BuildSeries(raw map[string][]contracts.PriceBar) (map[string]*PriceSeries, contracts.Diagnostics) {
	out := make(map[string]*PriceSeries, len(raw))
	var diags contracts.Diagnostics

	symbols := make([]string, 0, len(raw))
	for sym := range raw {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		bars := raw[sym]
		if len(bars) == 0 {
			diags.Add(contracts.DiagInsufficientHistory, sym, time.Time{}, "no bars")
			continue
		}
		series, err := NewPriceSeries(sym, bars)
		if err != nil {
			diags = append(diags, contracts.DiagnosticFromError(sym, NormalizeDate(bars[0].Date), err))
			continue
		}
		out[sym] = series
	}
	return out, diags
}

// TradingCalendar returns the sorted union of bar dates within [from, to]
func TradingCalendar(series map[string]*PriceSeries, from, to time.Time) []time.Time {
	from, to = NormalizeDate(from), NormalizeDate(to)
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		lo := sort.Search(len(s.bars), func(i int) bool { return !s.bars[i].Date.Before(from) })
		for i := lo; i < len(s.bars) && !s.bars[i].Date.After(to); i++ {
			seen[s.bars[i].Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
