package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/qmomentum/internal/backtest"
	"github.com/wonny/qmomentum/internal/brain"
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// RebalanceJob rebuilds the portfolio on the last trading day of a rebalance month
// ⭐ SSOT: 분기 리밸런싱 스케줄은 이 Job에서만
type RebalanceJob struct {
	source       contracts.PriceSource
	orchestrator *brain.Orchestrator
	store        contracts.ScreeningStore
	config       *strategyconfig.Config
	logger       *logger.Logger

	now func() time.Time
}

// NewRebalanceJob creates a new rebalance job
func NewRebalanceJob(source contracts.PriceSource, orchestrator *brain.Orchestrator, store contracts.ScreeningStore, cfg *strategyconfig.Config, log *logger.Logger) *RebalanceJob {
	return &RebalanceJob{
		source:       source,
		orchestrator: orchestrator,
		store:        store,
		config:       cfg,
		logger:       log,
		now:          time.Now,
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "quarterly_rebalance"
}

// Schedule returns the cron schedule (weekdays 17:00 IST, after daily screening)
func (j *RebalanceJob) Schedule() string {
	return "0 0 17 * * 1-5"
}

// Run screens with turnover against the previous rebalance; other days are a no-op
func (j *RebalanceJob) Run(ctx context.Context) error {
	series, asOf, err := loadLatest(ctx, j.source, j.now(), j.config.Signals.MinHistory(), j.logger)
	if err != nil {
		return err
	}

	calendar := s0_data.TradingCalendar(series, asOf.AddDate(-1, 0, 0), asOf)
	days := backtest.RebalanceDays(calendar, j.config.Rebalance)
	last := len(calendar) - 1
	if last < 0 || !days[last] {
		j.logger.WithFields(map[string]interface{}{
			"as_of": asOf.Format("2006-01-02"),
			"next":  backtest.NextRebalanceDate(asOf.AddDate(0, 0, 1), j.config.Rebalance).Format("2006-01-02"),
		}).Debug("Not a rebalance day")
		return nil
	}

	previous, err := j.previousHoldings(ctx, calendar, days)
	if err != nil {
		return err
	}

	result, err := j.orchestrator.Screen(ctx, brain.ScreenRequest{
		AsOf:     asOf,
		Series:   series,
		Previous: previous,
	})
	if errors.Is(err, contracts.ErrEmptyUniverse) {
		// 진입 후보 없음: 전량 현금
		j.logger.WithFields(map[string]interface{}{
			"as_of":   asOf.Format("2006-01-02"),
			"removed": len(previous),
		}).Warn("Rebalance found no candidates, holding cash")
		return nil
	}
	if err != nil {
		return fmt.Errorf("rebalance %s: %w", asOf.Format("2006-01-02"), err)
	}

	fields := map[string]interface{}{
		"as_of":     asOf.Format("2006-01-02"),
		"positions": len(result.Positions),
	}
	if result.Turnover != nil {
		fields["added"] = result.Turnover.Added
		fields["removed"] = result.Turnover.Removed
		fields["turnover"] = result.Turnover.Rate
	}
	j.logger.WithFields(fields).Info("Rebalance completed")
	return nil
}

// previousHoldings returns the portfolio of the last rebalance day before the latest one
// No store, no earlier rebalance or none stored yields an empty slate.
func (j *RebalanceJob) previousHoldings(ctx context.Context, calendar []time.Time, days map[int]bool) ([]string, error) {
	if j.store == nil {
		return []string{}, nil
	}
	for i := len(calendar) - 2; i >= 0; i-- {
		if !days[i] {
			continue
		}
		prev, err := j.store.ScreeningByDate(ctx, calendar[i])
		if errors.Is(err, contracts.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load previous rebalance %s: %w", calendar[i].Format("2006-01-02"), err)
		}
		return prev.Symbols(), nil
	}
	return []string{}, nil
}
