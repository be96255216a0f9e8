package portfolio

import (
	"sort"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
)

// Turnover compares the previous holdings with the new selection
// Rate = removed / |prev|, 0 when there were no previous holdings.
func Turnover(date time.Time, prev, next []string) contracts.Turnover {
	prevSet := toSet(prev)
	nextSet := toSet(next)

	t := contracts.Turnover{
		Date:       date,
		Removed:    []string{},
		Added:      []string{},
		Continuing: []string{},
	}
	for sym := range prevSet {
		if nextSet[sym] {
			t.Continuing = append(t.Continuing, sym)
		} else {
			t.Removed = append(t.Removed, sym)
		}
	}
	for sym := range nextSet {
		if !prevSet[sym] {
			t.Added = append(t.Added, sym)
		}
	}
	sort.Strings(t.Removed)
	sort.Strings(t.Added)
	sort.Strings(t.Continuing)

	if len(prevSet) > 0 {
		t.Rate = float64(len(t.Removed)) / float64(len(prevSet))
	}
	return t
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}

// SectorWeight is one row of the sector breakdown
type SectorWeight struct {
	Sector string  `json:"sector"`
	Count  int     `json:"count"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"` // 투자금 대비
}

// SectorBreakdown groups invested value by sector, largest first
func SectorBreakdown(positions []contracts.Position) []SectorWeight {
	bySector := make(map[string]*SectorWeight)
	total := 0.0
	for i := range positions {
		p := &positions[i]
		sector := p.Sector
		if sector == "" {
			sector = "Unknown"
		}
		row, ok := bySector[sector]
		if !ok {
			row = &SectorWeight{Sector: sector}
			bySector[sector] = row
		}
		row.Count++
		row.Value += p.Invested()
		total += p.Invested()
	}

	out := make([]SectorWeight, 0, len(bySector))
	for _, row := range bySector {
		if total > 0 {
			row.Weight = row.Value / total
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
