package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/pkg/logger"
)

// ConstituentStore persists index membership
type ConstituentStore interface {
	SaveConstituents(ctx context.Context, selector string, members []contracts.Constituent) error
}

// ConstituentsJob refreshes the stored index membership weekly
type ConstituentsJob struct {
	source    s1_universe.ConstituentSource
	store     ConstituentStore
	selectors []string
	logger    *logger.Logger
}

// NewConstituentsJob creates a new constituents sync job
func NewConstituentsJob(source s1_universe.ConstituentSource, store ConstituentStore, selectors []string, log *logger.Logger) *ConstituentsJob {
	return &ConstituentsJob{
		source:    source,
		store:     store,
		selectors: selectors,
		logger:    log,
	}
}

// Name returns the job name
func (j *ConstituentsJob) Name() string {
	return "constituents_sync"
}

// Schedule returns the cron schedule (Mondays 07:00 IST, before the open)
func (j *ConstituentsJob) Schedule() string {
	return "0 0 7 * * 1"
}

// Run fetches and stores each selector; an empty page keeps the stored list
func (j *ConstituentsJob) Run(ctx context.Context) error {
	for _, selector := range j.selectors {
		members, err := j.source.Constituents(ctx, selector)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", selector, err)
		}
		if len(members) == 0 {
			j.logger.WithField("selector", selector).Warn("Constituents page returned no members, keeping stored list")
			continue
		}

		if err := j.store.SaveConstituents(ctx, selector, members); err != nil {
			return fmt.Errorf("save %s: %w", selector, err)
		}

		j.logger.WithFields(map[string]interface{}{
			"selector": selector,
			"count":    len(members),
		}).Info("Constituents synced")
	}
	return nil
}
