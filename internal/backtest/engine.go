package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/qmomentum/internal/audit"
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/execution"
	"github.com/wonny/qmomentum/internal/portfolio"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/s2_signals"
	"github.com/wonny/qmomentum/internal/selection"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Engine runs the quarterly-rebalanced momentum simulation
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	config      *strategyconfig.Config
	builder     *s2_signals.Builder
	ranker      *selection.Ranker
	constructor *portfolio.Constructor
	exits       *execution.ExitEvaluator
	logger      *logger.Logger
}

// Request holds one backtest invocation
type Request struct {
	From           time.Time
	To             time.Time
	InitialCapital float64 // 0 이면 strategy config 값 사용
	Universe       *contracts.Universe
	Series         map[string]*s0_data.PriceSeries
}

// NewEngine wires the scoring, ranking, construction and exit components
func NewEngine(cfg *strategyconfig.Config, log *logger.Logger) *Engine {
	return &Engine{
		config:      cfg,
		builder:     s2_signals.NewBuilder(s2_signals.NewEngine(cfg.Signals), 1, log),
		ranker:      selection.NewRanker(cfg.Ranking, selection.NewScreener(cfg.Entry, cfg.Universe, log), log),
		constructor: portfolio.NewConstructor(cfg.Portfolio, log),
		exits:       execution.NewExitEvaluator(cfg.Exit),
		logger:      log.WithStage("backtest"),
	}
}

// Run simulates the strategy over every trading day in [From, To]
// On cancellation the partial result is returned together with an error
// wrapping ErrBacktestAborted and the context error.
func (e *Engine) Run(ctx context.Context, req Request) (*contracts.BacktestResult, error) {
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("invalid backtest range: %s after %s",
			req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))
	}

	series := restrict(req.Series, req.Universe)
	if len(series) == 0 {
		return nil, fmt.Errorf("backtest: %w", contracts.ErrNoValidSymbols)
	}

	calendar := s0_data.TradingCalendar(series, req.From, req.To)
	if len(calendar) == 0 {
		return nil, fmt.Errorf("backtest: no trading days in range: %w", contracts.ErrNoValidSymbols)
	}

	capital := req.InitialCapital
	if capital <= 0 {
		capital = e.config.Backtest.InitialCapital
	}

	rebalanceDays := RebalanceDays(calendar, e.config.Rebalance)

	e.logger.WithFields(map[string]interface{}{
		"from":            calendar[0].Format("2006-01-02"),
		"to":              calendar[len(calendar)-1].Format("2006-01-02"),
		"symbols":         len(series),
		"trading_days":    len(calendar),
		"rebalances":      len(rebalanceDays),
		"initial_capital": capital,
	}).Info("Starting backtest")

	startTime := time.Now()

	sim := NewSimulator(e.config.Backtest.TransactionCostPct, e.logger)
	sim.Initialize(capital)

	result := &contracts.BacktestResult{
		RunID:       uuid.New().String(),
		From:        calendar[0],
		To:          calendar[len(calendar)-1],
		ConfigHash:  strategyconfig.MustHash(e.config),
		EquityCurve: make([]contracts.EquityPoint, 0, len(calendar)),
	}

	last := len(calendar) - 1
	for i, date := range calendar {
		// 하루 1회 취소 확인
		if err := ctx.Err(); err != nil {
			result.Aborted = true
			e.finish(result, sim)
			e.logger.WithFields(map[string]interface{}{
				"date":      date.Format("2006-01-02"),
				"completed": i,
				"total":     len(calendar),
			}).Warn("Backtest aborted")
			return result, fmt.Errorf("%w after %d of %d days: %w", contracts.ErrBacktestAborted, i, len(calendar), err)
		}

		stale := e.refreshCloses(sim, series, date, result)

		switch {
		case rebalanceDays[i]:
			// 마지막 날은 청산만: 진입 즉시 종료 청산되는 슬레이트는 열지 않음
			e.rebalance(sim, series, req.Universe, date, stale, result, i < last)
		case sim.OpenCount() > 0:
			e.evaluateExits(sim, series, req.Universe, date, stale)
		}

		if i == last {
			for _, pos := range sim.Positions() {
				e.close(sim, pos.Symbol, date, contracts.ExitEndOfBacktest, stale[pos.Symbol])
			}
		}

		result.EquityCurve = append(result.EquityCurve, sim.Mark(date))
	}

	e.finish(result, sim)

	e.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"duration":     time.Since(startTime).Seconds(),
		"trades":       len(result.Trades),
		"rebalances":   len(result.Rebalances),
		"final_value":  roundCash(result.Metrics.FinalValue),
		"total_return": fmt.Sprintf("%.2f%%", result.Metrics.TotalReturn*100),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.Metrics.MaxDrawdown*100),
		"total_cost":   roundCash(sim.TotalCost()),
		"diagnostics":  len(result.Diagnostics),
	}).Info("Backtest completed")

	return result, nil
}

// refreshCloses updates today's close of every open position
// A series with no bar today but later bars is stale; one with no bar on or
// after today is delisted and closed at its last close.
func (e *Engine) refreshCloses(sim *Simulator, series map[string]*s0_data.PriceSeries, date time.Time, result *contracts.BacktestResult) map[string]bool {
	stale := make(map[string]bool)

	for _, pos := range sim.Positions() {
		s := series[pos.Symbol]
		if idx, ok := s.IndexOf(date); ok {
			sim.SetClose(pos.Symbol, s.Close(idx))
			continue
		}

		if s.EndedBefore(date) {
			price := s.Close(s.Len() - 1)
			result.Diagnostics.Add(contracts.DiagDelisted, pos.Symbol, date,
				"series ended %s, closed at last close %.2f", s.LastDate().Format("2006-01-02"), price)
			sim.SetClose(pos.Symbol, price)
			e.close(sim, pos.Symbol, date, contracts.ExitDelisted, false)
			continue
		}

		stale[pos.Symbol] = true
		result.Diagnostics.Add(contracts.DiagStaleBar, pos.Symbol, date,
			"no bar, using prior close %.2f", sim.LastClose(pos.Symbol))
	}

	return stale
}

// evaluateExits applies the daily triggers to every open position
func (e *Engine) evaluateExits(sim *Simulator, series map[string]*s0_data.PriceSeries, universe *contracts.Universe, date time.Time, stale map[string]bool) {
	records, _ := e.crossSection(series, universe, date)
	scored := make(map[string]contracts.MomentumRecord, len(records))
	for _, rec := range e.ranker.Score(records) {
		scored[rec.Symbol] = rec
	}

	for _, pos := range sim.Positions() {
		obs := execution.Observation{
			Date:  date,
			Close: sim.LastClose(pos.Symbol),
			Stale: stale[pos.Symbol],
		}
		if rec, ok := scored[pos.Symbol]; ok {
			pct, fip := rec.MomentumPercentile, rec.FIPScore
			obs.MomentumPercentile = &pct
			obs.FIPScore = &fip
		}

		decision := e.exits.Evaluate(pos, obs)
		if decision.Exit {
			e.close(sim, pos.Symbol, date, decision.Reason, obs.Stale)
		}
	}
}

// rebalance force-closes the book and, when openNew, opens the new slate at today's close
func (e *Engine) rebalance(sim *Simulator, series map[string]*s0_data.PriceSeries, universe *contracts.Universe, date time.Time, stale map[string]bool, result *contracts.BacktestResult, openNew bool) {
	prev := sim.Symbols()

	event := contracts.RebalanceEvent{Date: date}
	for _, pos := range sim.Positions() {
		e.close(sim, pos.Symbol, date, contracts.ExitForcedRebalance, stale[pos.Symbol])
		event.Closed++
	}

	if openNew {
		records, diags := e.crossSection(series, universe, date)
		result.Diagnostics = append(result.Diagnostics, diags...)

		ranked := e.ranker.Rank(records)
		result.Diagnostics = append(result.Diagnostics, ranked.Report.Diagnostics...)
		event.Candidates = len(ranked.Ranked)

		if len(ranked.Ranked) == 0 {
			result.Diagnostics.Add(contracts.DiagEmptyRebalance, "", date,
				"no candidate passed the entry filter out of %d scored, holding cash", len(records))
		}

		positions, pdiags := e.constructor.Construct(ranked.Ranked, sim.Value(), date)
		result.Diagnostics = append(result.Diagnostics, pdiags...)

		for _, pos := range positions {
			if pos.Shares == 0 {
				continue
			}
			if _, err := sim.Open(pos); err != nil {
				e.logger.WithError(err).WithField("symbol", pos.Symbol).Warn("Failed to open position")
				continue
			}
			event.Opened++
		}
	}

	event.Turnover = portfolio.Turnover(date, prev, sim.Symbols())
	event.Value = sim.Value()
	result.Rebalances = append(result.Rebalances, event)

	e.logger.WithFields(map[string]interface{}{
		"date":       date.Format("2006-01-02"),
		"closed":     event.Closed,
		"opened":     event.Opened,
		"candidates": event.Candidates,
		"turnover":   fmt.Sprintf("%.1f%%", event.Turnover.Rate*100),
		"value":      roundCash(event.Value),
	}).Info("Rebalanced")
}

// crossSection scores every symbol with a bar on date, using closes up to date only
func (e *Engine) crossSection(series map[string]*s0_data.PriceSeries, universe *contracts.Universe, date time.Time) ([]contracts.MomentumRecord, contracts.Diagnostics) {
	set := e.builder.ScoreSequential(series, universe, date)
	// held positions without a bar are reported by markToMarket
	set.DropStale()
	return set.Records, set.Diagnostics
}

func (e *Engine) close(sim *Simulator, symbol string, date time.Time, reason contracts.ExitReason, stale bool) {
	trade, err := sim.Close(symbol, date, sim.LastClose(symbol), reason, stale)
	if err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Error("Failed to close position")
		return
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":       trade.Symbol,
		"date":         date.Format("2006-01-02"),
		"reason":       trade.ExitReason,
		"return_pct":   fmt.Sprintf("%.2f%%", trade.ReturnPct*100),
		"holding_days": trade.HoldingDays,
	}).Debug("Position closed")
}

// finish copies the ledger and computes metrics over whatever has been simulated
func (e *Engine) finish(result *contracts.BacktestResult, sim *Simulator) {
	result.Trades = sim.Trades()
	metrics, diags := audit.Summarize(result.EquityCurve, result.Trades)
	result.Metrics = metrics
	result.Diagnostics = append(result.Diagnostics, diags...)
}

// restrict keeps the series of universe members (all when the universe is empty)
func restrict(series map[string]*s0_data.PriceSeries, universe *contracts.Universe) map[string]*s0_data.PriceSeries {
	all := universe == nil || universe.Count() == 0
	out := make(map[string]*s0_data.PriceSeries, len(series))
	for sym, s := range series {
		if s == nil || s.Len() == 0 {
			continue
		}
		if all || universe.Contains(sym) {
			out[sym] = s
		}
	}
	return out
}
