package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/qmomentum/internal/brain"
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/pkg/logger"
)

// ScreeningJob produces the daily ranked table after the close
// ⭐ SSOT: 일일 스크리닝 스케줄은 이 Job에서만
type ScreeningJob struct {
	source       contracts.PriceSource
	orchestrator *brain.Orchestrator
	minHistory   int
	logger       *logger.Logger

	now func() time.Time
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(source contracts.PriceSource, orchestrator *brain.Orchestrator, minHistory int, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		source:       source,
		orchestrator: orchestrator,
		minHistory:   minHistory,
		logger:       log,
		now:          time.Now,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "daily_screening"
}

// Schedule returns the cron schedule (weekdays 16:30 IST, after the NSE close)
func (j *ScreeningJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run screens the latest trading day
// A day where nothing passes the entry filter is logged, not failed.
func (j *ScreeningJob) Run(ctx context.Context) error {
	series, asOf, err := loadLatest(ctx, j.source, j.now(), j.minHistory, j.logger)
	if err != nil {
		return err
	}

	result, err := j.orchestrator.Screen(ctx, brain.ScreenRequest{AsOf: asOf, Series: series})
	if errors.Is(err, contracts.ErrEmptyUniverse) {
		j.logger.WithField("as_of", asOf.Format("2006-01-02")).Warn("No symbol passed the entry filter")
		return nil
	}
	if err != nil {
		return fmt.Errorf("screen %s: %w", asOf.Format("2006-01-02"), err)
	}

	j.logger.WithFields(map[string]interface{}{
		"as_of":     asOf.Format("2006-01-02"),
		"ranked":    len(result.Ranked),
		"positions": len(result.Positions),
	}).Info("Scheduled screening completed")
	return nil
}

// loadLatest loads enough history to score the most recent trading day
func loadLatest(ctx context.Context, source contracts.PriceSource, now time.Time, minHistory int, log *logger.Logger) (map[string]*s0_data.PriceSeries, time.Time, error) {
	series, _, err := s0_data.LoadSeries(ctx, source, nil, s0_data.LookbackStart(now, minHistory), now, log)
	if err != nil {
		return nil, time.Time{}, err
	}
	return series, s0_data.LastTradingDate(series), nil
}
