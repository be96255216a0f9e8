package audit

import (
	"sort"

	"github.com/wonny/qmomentum/internal/contracts"
)

// ByExitReason groups trades by exit reason in report order, skipping empty reasons
func ByExitReason(trades []contracts.Trade) []contracts.AttributionRow {
	groups := group(trades, func(t contracts.Trade) string { return string(t.ExitReason) })

	rows := make([]contracts.AttributionRow, 0, len(groups))
	for _, reason := range contracts.AllExitReasons() {
		if row, ok := groups[string(reason)]; ok {
			rows = append(rows, row.finish())
		}
	}
	return rows
}

// BySector groups trades by sector, largest total PnL first
func BySector(trades []contracts.Trade) []contracts.AttributionRow {
	groups := group(trades, func(t contracts.Trade) string {
		if t.Sector == "" {
			return "Unknown"
		}
		return t.Sector
	})

	rows := make([]contracts.AttributionRow, 0, len(groups))
	for _, acc := range groups {
		rows = append(rows, acc.finish())
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPnL != rows[j].TotalPnL {
			return rows[i].TotalPnL > rows[j].TotalPnL
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

type accumulator struct {
	key    string
	trades int
	wins   int
	sumRet float64
	pnl    float64
}

func (a *accumulator) finish() contracts.AttributionRow {
	row := contracts.AttributionRow{Key: a.key, Trades: a.trades, TotalPnL: a.pnl}
	if a.trades > 0 {
		row.WinRate = float64(a.wins) / float64(a.trades)
		row.AvgReturn = a.sumRet / float64(a.trades)
	}
	return row
}

func group(trades []contracts.Trade, key func(contracts.Trade) string) map[string]*accumulator {
	out := make(map[string]*accumulator)
	for _, t := range trades {
		k := key(t)
		acc, ok := out[k]
		if !ok {
			acc = &accumulator{key: k}
			out[k] = acc
		}
		acc.trades++
		if t.IsWin() {
			acc.wins++
		}
		acc.sumRet += t.ReturnPct
		acc.pnl += t.NetPnL
	}
	return out
}
