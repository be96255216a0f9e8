package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/qmomentum/internal/audit"
	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/internal/external/nse"
	"github.com/wonny/qmomentum/internal/s0_data"
	"github.com/wonny/qmomentum/internal/s1_universe"
	"github.com/wonny/qmomentum/internal/selection"
	"github.com/wonny/qmomentum/internal/strategyconfig"
	"github.com/wonny/qmomentum/pkg/config"
	"github.com/wonny/qmomentum/pkg/database"
	"github.com/wonny/qmomentum/pkg/httputil"
	"github.com/wonny/qmomentum/pkg/logger"
	"github.com/wonny/qmomentum/pkg/redis"
)

// app holds the process-wide dependencies of a command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	db       *database.DB  // nil = DATABASE_URL 미설정
	redis    *redis.Client // 비활성 클라이언트는 no-op
}

// bootstrap loads config, logger, strategy and the optional stores
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strategyPath != "" {
		cfg.StrategyConfigPath = strategyPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{cfg: cfg, log: log, strategy: strategy}

	if cfg.HasDatabase() {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Debug("Connected to database")
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		// 캐시 없이 계속
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = &redis.Client{}
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// requireDB fails commands that need persistence
func (a *app) requireDB() error {
	if a.db == nil {
		return fmt.Errorf("this command needs DATABASE_URL: %w", database.ErrNotConfigured)
	}
	return nil
}

// priceSource returns the configured bar source
func (a *app) priceSource() (contracts.PriceSource, error) {
	switch a.cfg.DataSource {
	case config.DataSourcePostgres:
		if err := a.requireDB(); err != nil {
			return nil, err
		}
		return s0_data.NewPriceRepository(a.db.Pool), nil
	default:
		return s0_data.NewCSVSource(a.cfg.PriceDataDir, a.log), nil
	}
}

// loadSeries loads bars for [from, to] with enough lookback before from
func (a *app) loadSeries(ctx context.Context, symbols []string, from, to time.Time) (map[string]*s0_data.PriceSeries, contracts.Diagnostics, error) {
	src, err := a.priceSource()
	if err != nil {
		return nil, nil, err
	}
	start := s0_data.LookbackStart(from, a.strategy.Signals.MinHistory())
	return s0_data.LoadSeries(ctx, src, symbols, start, to, a.log)
}

// screeningStore returns nil without a database; with Redis enabled reads are cached
func (a *app) screeningStore() contracts.ScreeningStore {
	if a.db == nil {
		return nil
	}
	var store contracts.ScreeningStore = selection.NewRepository(a.db.Pool)
	if a.redis.Enabled() {
		store = selection.NewCachedStore(store, redis.NewCache(a.redis, "qmomentum"), a.cfg.Redis.TTL, a.log)
	}
	return store
}

// backtestStore returns nil without a database
func (a *app) backtestStore() contracts.BacktestStore {
	if a.db == nil {
		return nil
	}
	return audit.NewRepository(a.db.Pool)
}

// scraper returns the live constituents client, nil when no page is configured
func (a *app) scraper() *nse.Client {
	if a.cfg.Constituents.Nifty50URL == "" && a.cfg.Constituents.Nifty500URL == "" {
		return nil
	}
	return nse.NewClient(httputil.New(a.cfg, a.log), a.cfg.Constituents, a.log)
}

// constituentSource prefers the synced table, then the live page
func (a *app) constituentSource() s1_universe.ConstituentSource {
	if a.db != nil {
		return s1_universe.NewRepository(a.db.Pool)
	}
	if s := a.scraper(); s != nil {
		return s
	}
	return nil
}

// universeBuilder builds S1 with the strategy selector and CLI exclusions
func (a *app) universeBuilder(excludeSymbols, excludeSectors []string) *s1_universe.Builder {
	return s1_universe.NewBuilder(a.constituentSource(), s1_universe.Config{
		Selector:       a.strategy.Universe.Selector,
		ExcludeSymbols: excludeSymbols,
		ExcludeSectors: excludeSectors,
	}, a.log)
}

// parseDateFlag parses YYYY-MM-DD; empty returns fallback
func parseDateFlag(name, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return s0_data.NormalizeDate(fallback), nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD)", name, value)
	}
	return d, nil
}

// splitList splits a comma separated flag value
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, s1_universe.NormalizeSymbol(p))
		}
	}
	return out
}
