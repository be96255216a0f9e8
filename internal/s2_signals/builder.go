package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/pkg/logger"
)

// ScoreSet is the S2 output: one record per scorable symbol, sorted by symbol
type ScoreSet struct {
	AsOf        time.Time
	Records     []contracts.MomentumRecord
	Diagnostics contracts.Diagnostics
}

// DropStale removes records whose last bar predates the set's date
// A symbol without a bar on the scoring day has no price to trade at, so its
// record is replaced by a STALE_BAR diagnostic that is returned to the caller.
func (s *ScoreSet) DropStale() contracts.Diagnostics {
	var dropped contracts.Diagnostics
	kept := s.Records[:0]
	for _, rec := range s.Records {
		if rec.AsOf.Equal(s.AsOf) {
			kept = append(kept, rec)
			continue
		}
		dropped.Add(contracts.DiagStaleBar, rec.Symbol, s.AsOf,
			"last bar %s, not scored", rec.AsOf.Format("2006-01-02"))
	}
	s.Records = kept
	return dropped
}

// Builder fans momentum scoring out over the universe
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	engine  *Engine
	workers int
	logger  *logger.Logger
}

// NewBuilder creates a new signal builder
func NewBuilder(engine *Engine, workers int, log *logger.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		engine:  engine,
		workers: workers,
		logger:  log.WithStage("s2_signals"),
	}
}

// Engine returns the underlying momentum engine
func (b *Builder) Engine() *Engine {
	return b.engine
}

type scoreSlot struct {
	record contracts.MomentumRecord
	diag   *contracts.Diagnostic
}

// Build scores every symbol in series concurrently
// Results land in per-symbol slots and are read back in symbol order, so the
// output does not depend on goroutine scheduling.
func (b *Builder) Build(ctx context.Context, series map[string]*s0_data.PriceSeries, universe *contracts.Universe, asOf time.Time) (*ScoreSet, error) {
	symbols := sortedSymbols(series, universe)
	slots := make([]scoreSlot, len(symbols))

	b.logger.WithFields(map[string]interface{}{
		"as_of":   asOf.Format("2006-01-02"),
		"symbols": len(symbols),
		"workers": b.workers,
	}).Info("Starting momentum scoring")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = b.scoreOne(series[sym], universe, asOf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("momentum scoring: %w", err)
	}

	set := &ScoreSet{AsOf: s0_data.NormalizeDate(asOf)}
	for _, slot := range slots {
		if slot.diag != nil {
			set.Diagnostics = append(set.Diagnostics, *slot.diag)
			continue
		}
		set.Records = append(set.Records, slot.record)
	}

	b.logger.WithFields(map[string]interface{}{
		"total":   len(symbols),
		"scored":  len(set.Records),
		"skipped": len(set.Diagnostics),
	}).Info("Momentum scoring completed")

	return set, nil
}

// ScoreSequential scores on the calling goroutine (backtest path)
func (b *Builder) ScoreSequential(series map[string]*s0_data.PriceSeries, universe *contracts.Universe, asOf time.Time) *ScoreSet {
	set := &ScoreSet{AsOf: s0_data.NormalizeDate(asOf)}
	for _, sym := range sortedSymbols(series, universe) {
		slot := b.scoreOne(series[sym], universe, asOf)
		if slot.diag != nil {
			set.Diagnostics = append(set.Diagnostics, *slot.diag)
			continue
		}
		set.Records = append(set.Records, slot.record)
	}
	return set
}

func (b *Builder) scoreOne(s *s0_data.PriceSeries, universe *contracts.Universe, asOf time.Time) scoreSlot {
	rec, err := b.engine.Compute(s, asOf)
	if err != nil {
		diag := contracts.DiagnosticFromError(s.Symbol(), s0_data.NormalizeDate(asOf), err)
		if !errors.Is(err, contracts.ErrInsufficientHistory) {
			b.logger.WithError(err).WithField("symbol", s.Symbol()).Warn("Failed to score symbol")
		}
		return scoreSlot{diag: &diag}
	}

	rec.Sector = universe.Sector(s.Symbol())
	rec.MarketCap = universe.MarketCap(s.Symbol())
	return scoreSlot{record: rec}
}

// sortedSymbols returns the series symbols restricted to the universe (all when nil)
func sortedSymbols(series map[string]*s0_data.PriceSeries, universe *contracts.Universe) []string {
	symbols := make([]string, 0, len(series))
	for sym := range series {
		if universe != nil && universe.Count() > 0 && !universe.Contains(sym) {
			continue
		}
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}
