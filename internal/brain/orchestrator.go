package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/portfolio"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/s0_data/quality"
	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/internal/s2_signals"
	"github.com/wonny/qmomentum/internal/selection"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Orchestrator coordinates the live screening pipeline S0 → S5
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	config     *strategyconfig.Config
	configHash string

	// Stage components
	qualityGate      *quality.QualityGate
	universeBuilder  *s1_universe.Builder
	signalBuilder    *s2_signals.Builder
	ranker           *selection.Ranker
	portfolioBuilder *portfolio.Constructor

	// Optional persistence (nil = dry run)
	store contracts.ScreeningStore

	logger *logger.Logger
}

// ScreenRequest holds one screening invocation
type ScreenRequest struct {
	AsOf           time.Time
	Series         map[string]*s0_data.PriceSeries
	Universe       *contracts.Universe // nil 이면 S1 에서 생성
	PortfolioValue float64             // 0 이면 strategy config 초기자본
	Previous       []string            // 직전 보유 종목 (회전율 계산)
}

// NewOrchestrator wires the stage components from the strategy config
// universeBuilder and store may be nil.
func NewOrchestrator(cfg *strategyconfig.Config, universeBuilder *s1_universe.Builder, store contracts.ScreeningStore, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		configHash: strategyconfig.MustHash(cfg),
		qualityGate: quality.NewQualityGate(quality.Config{
			MinHistory:       cfg.Signals.MinHistory(),
			MinPriceCoverage: 0.5,
			MinScore:         0.5,
		}),
		universeBuilder:  universeBuilder,
		signalBuilder:    s2_signals.NewBuilder(s2_signals.NewEngine(cfg.Signals), cfg.Signals.Workers, log),
		ranker:           selection.NewRanker(cfg.Ranking, selection.NewScreener(cfg.Entry, cfg.Universe, log), log),
		portfolioBuilder: portfolio.NewConstructor(cfg.Portfolio, log),
		store:            store,
		logger:           log,
	}
}

// Screen runs the live path and returns the ranked table with positions
// A run where no symbol passes the entry filter returns the partial result
// and an error wrapping ErrEmptyUniverse.
func (o *Orchestrator) Screen(ctx context.Context, req ScreenRequest) (*contracts.ScreeningResult, error) {
	startTime := time.Now()
	asOf := s0_data.NormalizeDate(req.AsOf)

	result := &contracts.ScreeningResult{
		RunID:      uuid.New().String(),
		AsOf:       asOf,
		Universe:   o.config.Universe.Selector,
		ConfigHash: o.configHash,
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"as_of":   asOf.Format("2006-01-02"),
		"symbols": len(req.Series),
	}).Info("Starting screening run")

	// S0: Data Quality Gate
	if err := o.runS0(req.Series, asOf, result); err != nil {
		return result, fmt.Errorf("S0 failed: %w", err)
	}

	// S1: Universe
	universe, err := o.runS1(ctx, req, asOf, result)
	if err != nil {
		return result, fmt.Errorf("S1 failed: %w", err)
	}
	if universe != nil && universe.Name != "" {
		result.Universe = universe.Name
	}

	// S2: Momentum + FIP
	scores, err := o.runS2(ctx, req.Series, universe, asOf, result)
	if err != nil {
		return result, fmt.Errorf("S2 failed: %w", err)
	}

	// S3 + S4: Entry filter and ranking
	ranked := o.runS4(scores, result)
	if len(ranked) == 0 {
		return result, fmt.Errorf("S4 failed: %d scored, 0 passed: %w", result.Scored, contracts.ErrEmptyUniverse)
	}

	// S5: Portfolio Construction
	o.runS5(ranked, req, asOf, result)

	if o.store != nil {
		if err := o.store.SaveScreening(ctx, result); err != nil {
			return result, fmt.Errorf("save screening: %w", err)
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"duration":    time.Since(startTime).Seconds(),
		"scored":      result.Scored,
		"ranked":      len(result.Ranked),
		"positions":   len(result.Positions),
		"diagnostics": len(result.Diagnostics),
	}).Info("Screening run completed successfully")

	return result, nil
}

// runS0 checks price coverage; only a run with no usable symbol fails
func (o *Orchestrator) runS0(series map[string]*s0_data.PriceSeries, asOf time.Time, result *contracts.ScreeningResult) error {
	start := time.Now()
	snap := o.qualityGate.Check(series, asOf)

	result.Stages = append(result.Stages, contracts.NewStageReport(
		contracts.StageDataQuality, snap.TotalSymbols, snap.ValidSymbols, time.Since(start)))

	if snap.ValidSymbols == 0 {
		return fmt.Errorf("%d symbols, none with %d bars up to %s: %w",
			snap.TotalSymbols, o.config.Signals.MinHistory(), asOf.Format("2006-01-02"), contracts.ErrNoValidSymbols)
	}

	fields := map[string]interface{}{
		"quality_score": snap.QualityScore,
		"valid":         snap.ValidSymbols,
		"total":         snap.TotalSymbols,
		"missing_bar":   len(snap.MissingBar),
	}
	if !o.qualityGate.IsValid(snap) {
		o.logger.WithFields(fields).Warn("S0 quality gate below threshold")
	} else {
		o.logger.WithFields(fields).Info("S0 completed")
	}
	return nil
}

// runS1 resolves the universe: explicit request, then builder, then all series
func (o *Orchestrator) runS1(ctx context.Context, req ScreenRequest, asOf time.Time, result *contracts.ScreeningResult) (*contracts.Universe, error) {
	start := time.Now()

	universe := req.Universe
	if universe == nil && o.universeBuilder != nil {
		var err error
		universe, err = o.universeBuilder.Build(ctx, req.Series, asOf)
		if err != nil {
			return nil, fmt.Errorf("universe build: %w", err)
		}
	}

	out := len(req.Series)
	if universe.Count() > 0 {
		out = universe.Count()
	}
	result.Stages = append(result.Stages, contracts.NewStageReport(
		contracts.StageUniverse, len(req.Series), out, time.Since(start)))

	return universe, nil
}

// runS2 scores the universe in parallel
func (o *Orchestrator) runS2(ctx context.Context, series map[string]*s0_data.PriceSeries, universe *contracts.Universe, asOf time.Time, result *contracts.ScreeningResult) (*s2_signals.ScoreSet, error) {
	start := time.Now()

	scores, err := o.signalBuilder.Build(ctx, series, universe, asOf)
	if err != nil {
		return nil, fmt.Errorf("signal build: %w", err)
	}

	stale := scores.DropStale()
	if len(stale) > 0 {
		o.logger.WithFields(map[string]interface{}{
			"as_of": asOf.Format("2006-01-02"),
			"stale": len(stale),
		}).Warn("Dropped symbols without a bar on as-of")
	}

	result.Scored = len(scores.Records)
	result.Diagnostics = append(result.Diagnostics, scores.Diagnostics...)
	result.Diagnostics = append(result.Diagnostics, stale...)
	report := contracts.NewStageReport(contracts.StageSignals,
		len(scores.Records)+len(scores.Diagnostics)+len(stale), len(scores.Records), time.Since(start))
	result.Stages = append(result.Stages, report.DroppedBy(scores.Diagnostics).DroppedBy(stale))

	if len(scores.Records) == 0 {
		return nil, fmt.Errorf("no symbol could be scored: %w", contracts.ErrNoValidSymbols)
	}
	return scores, nil
}

// runS4 applies the entry filter and orders the survivors
func (o *Orchestrator) runS4(scores *s2_signals.ScoreSet, result *contracts.ScreeningResult) []contracts.MomentumRecord {
	start := time.Now()

	ranked := o.ranker.Rank(scores.Records)
	result.Ranked = ranked.Ranked
	result.Diagnostics = append(result.Diagnostics, ranked.Report.Diagnostics...)

	elapsed := time.Since(start)
	screener := contracts.NewStageReport(contracts.StageScreener, ranked.Report.Input, ranked.Report.Passed, elapsed)
	if len(ranked.Report.Filtered) > 0 {
		screener.Dropped = ranked.Report.Filtered
	}
	result.Stages = append(result.Stages,
		screener,
		contracts.NewStageReport(contracts.StageRanker, ranked.Report.Passed, len(ranked.Ranked), elapsed),
	)

	fields := map[string]interface{}{
		"scored": ranked.Report.Input,
		"passed": ranked.Report.Passed,
	}
	if len(ranked.Ranked) > 0 {
		fields["top_symbol"] = ranked.Ranked[0].Symbol
		fields["top_score"] = ranked.Ranked[0].CombinedScore
	}
	o.logger.WithFields(fields).Info("S4 completed")

	return ranked.Ranked
}

// runS5 builds positions and the turnover against the previous holdings
func (o *Orchestrator) runS5(ranked []contracts.MomentumRecord, req ScreenRequest, asOf time.Time, result *contracts.ScreeningResult) {
	start := time.Now()

	value := req.PortfolioValue
	if value <= 0 {
		value = o.config.Backtest.InitialCapital
	}

	positions, diags := o.portfolioBuilder.Construct(ranked, value, asOf)
	result.Positions = positions
	result.Diagnostics = append(result.Diagnostics, diags...)

	if req.Previous != nil {
		turnover := portfolio.Turnover(asOf, req.Previous, result.Symbols())
		result.Turnover = &turnover
	}

	result.Stages = append(result.Stages, contracts.NewStageReport(
		contracts.StagePortfolio, len(ranked), len(positions), time.Since(start)))
}
