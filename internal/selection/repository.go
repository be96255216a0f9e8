package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/qmomentum/internal/contracts"
)

// ErrNotFound is returned when no screening exists for the query
var ErrNotFound = fmt.Errorf("screening result %w", contracts.ErrNotFound)

// Repository implements contracts.ScreeningStore on Postgres
// ⭐ SSOT: Selection 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveScreening stores the run payload and one row per ranked candidate
func (r *Repository) SaveScreening(ctx context.Context, result *contracts.ScreeningResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal screening result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO selection.screening_runs (run_id, as_of, universe, config_hash, scored, passed, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, result.RunID, result.AsOf, result.Universe, result.ConfigHash, result.Scored, len(result.Ranked), payload)
	if err != nil {
		return fmt.Errorf("failed to save screening run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rec := range result.Ranked {
		batch.Queue(`
			INSERT INTO selection.ranked_candidates (
				run_id, rank, symbol, sector, momentum_12m, fip_score,
				momentum_percentile, quality_percentile, combined_score, close_price
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, result.RunID, i+1, rec.Symbol, rec.Sector, rec.Momentum12M, rec.FIPScore,
			rec.MomentumPercentile, rec.QualityPercentile, rec.CombinedScore, rec.Close)
	}

	br := tx.SendBatch(ctx, batch)
	for range result.Ranked {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to save ranked candidate: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// LatestScreening returns the most recent run
func (r *Repository) LatestScreening(ctx context.Context) (*contracts.ScreeningResult, error) {
	return r.queryOne(ctx, `
		SELECT payload FROM selection.screening_runs
		ORDER BY as_of DESC, created_at DESC
		LIMIT 1
	`)
}

// ScreeningByDate returns the latest run for an as-of date
func (r *Repository) ScreeningByDate(ctx context.Context, asOf time.Time) (*contracts.ScreeningResult, error) {
	return r.queryOne(ctx, `
		SELECT payload FROM selection.screening_runs
		WHERE as_of = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, asOf)
}

func (r *Repository) queryOne(ctx context.Context, query string, args ...interface{}) (*contracts.ScreeningResult, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query screening run: %w", err)
	}

	var result contracts.ScreeningResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal screening run: %w", err)
	}
	return &result, nil
}
