package audit

import (
	"math"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/risk"
)

// TradingDaysPerYear annualises daily statistics
const TradingDaysPerYear = 252

// Summarize implements S7: metrics over an equity curve and a trade ledger
// ⭐ SSOT: S7 성과 지표 계산은 여기서만
//
// Ratios whose denominator is zero or undefined are left nil and reported
// as UNDEFINED_RATIO diagnostics instead of being coerced to zero.
func Summarize(curve []contracts.EquityPoint, trades []contracts.Trade) (contracts.Metrics, contracts.Diagnostics) {
	var m contracts.Metrics
	var diags contracts.Diagnostics

	var asOf time.Time
	if len(curve) > 0 {
		first, last := curve[0], curve[len(curve)-1]
		asOf = last.Date

		m.InitialValue = first.Value
		m.FinalValue = last.Value
		m.Days = contracts.HoldingDays(first.Date, last.Date)
		if first.Value > 0 {
			m.TotalReturn = last.Value/first.Value - 1
		}

		m.CAGR = calculateCAGR(first.Value, last.Value, m.Days)
		if m.CAGR == nil {
			diags.Add(contracts.DiagUndefinedRatio, "", asOf, "cagr undefined over %d days", m.Days)
		}

		returns := dailyReturns(curve)
		if sd, ok := sampleStdev(returns); ok {
			vol := sd * math.Sqrt(TradingDaysPerYear)
			m.Volatility = &vol
		}

		m.Sharpe = calculateSharpe(returns)
		if m.Sharpe == nil {
			diags.Add(contracts.DiagUndefinedRatio, "", asOf, "sharpe undefined: no return variance")
		}

		m.Sortino = calculateSortino(returns)
		if m.Sortino == nil {
			diags.Add(contracts.DiagUndefinedRatio, "", asOf, "sortino undefined: not enough down days")
		}

		m.MaxDrawdown = calculateMaxDrawdown(curve)

		// 표본이 적으면 tail 지표 생략
		if tail, err := risk.HistoricalVaR(returns, risk.DefaultConfidence); err == nil {
			m.DailyVaR95 = &tail.VaR
			m.DailyCVaR95 = &tail.CVaR
		}
	}

	summarizeTrades(&m, trades)
	if m.WinRate == nil {
		diags.Add(contracts.DiagUndefinedRatio, "", asOf, "win rate undefined: no trades")
	}

	m.ExitAttribution = ByExitReason(trades)
	m.SectorAttribution = BySector(trades)

	return m, diags
}

// calculateCAGR returns (final/initial)^(365/days) - 1
func calculateCAGR(initial, final float64, days int) *float64 {
	if days <= 0 || initial <= 0 || final < 0 {
		return nil
	}
	v := math.Pow(final/initial, 365.0/float64(days)) - 1
	return finite(v)
}

// dailyReturns derives consecutive point-to-point returns
func dailyReturns(curve []contracts.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev <= 0 {
			continue
		}
		out = append(out, curve[i].Value/prev-1)
	}
	return out
}

// calculateSharpe returns mean×252 / (stdev×√252), risk-free rate 0
func calculateSharpe(returns []float64) *float64 {
	sd, ok := sampleStdev(returns)
	if !ok || sd == 0 {
		return nil
	}
	v := mean(returns) * TradingDaysPerYear / (sd * math.Sqrt(TradingDaysPerYear))
	return finite(v)
}

// calculateSortino uses the stdev of negative returns only
func calculateSortino(returns []float64) *float64 {
	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	sd, ok := sampleStdev(downside)
	if !ok || sd == 0 {
		return nil
	}
	v := mean(returns) * TradingDaysPerYear / (sd * math.Sqrt(TradingDaysPerYear))
	return finite(v)
}

// calculateMaxDrawdown returns max (peak - value) / peak as a positive fraction
func calculateMaxDrawdown(curve []contracts.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Value
	maxDD := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Value) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// summarizeTrades fills the ledger statistics
func summarizeTrades(m *contracts.Metrics, trades []contracts.Trade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var sumRet, sumDays, grossWin, grossLoss float64
	best, worst := trades[0].ReturnPct, trades[0].ReturnPct

	for _, t := range trades {
		switch {
		case t.ReturnPct > 0:
			m.WinningTrades++
		case t.ReturnPct < 0:
			m.LosingTrades++
		}

		if t.NetPnL > 0 {
			grossWin += t.NetPnL
		} else if t.NetPnL < 0 {
			grossLoss += math.Abs(t.NetPnL)
		}

		sumRet += t.ReturnPct
		sumDays += float64(t.HoldingDays)
		best = math.Max(best, t.ReturnPct)
		worst = math.Min(worst, t.ReturnPct)
	}

	n := float64(len(trades))
	winRate := float64(m.WinningTrades) / n
	avgRet := sumRet / n
	avgDays := sumDays / n

	m.WinRate = &winRate
	m.AvgTradeReturn = &avgRet
	m.AvgHoldingDays = &avgDays
	m.BestTrade = &best
	m.WorstTrade = &worst

	if grossLoss > 0 {
		pf := grossWin / grossLoss
		m.ProfitFactor = &pf
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdev returns the n-1 standard deviation; false when n < 2
func sampleStdev(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mu := mean(xs)
	var variance float64
	for _, x := range xs {
		diff := x - mu
		variance += diff * diff
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance), true
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
