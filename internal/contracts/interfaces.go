package contracts

import (
	"context"
	"time"
)

// =============================================================================
// Repository interfaces
// ⭐ SSOT: 저장소 경계는 여기서만 정의 (pgx 구현은 각 stage 패키지)
// =============================================================================

// PriceSource loads raw bars for a set of symbols (S0 입력)
type PriceSource interface {
	LoadBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]PriceBar, error)
}

// ScreeningStore persists and serves ranked tables
type ScreeningStore interface {
	SaveScreening(ctx context.Context, result *ScreeningResult) error
	LatestScreening(ctx context.Context) (*ScreeningResult, error)
	ScreeningByDate(ctx context.Context, asOf time.Time) (*ScreeningResult, error)
}

// BacktestStore persists and serves backtest runs
type BacktestStore interface {
	SaveBacktest(ctx context.Context, result *BacktestResult) error
	BacktestByID(ctx context.Context, runID string) (*BacktestResult, error)
}
