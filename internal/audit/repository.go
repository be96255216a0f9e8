package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/qmomentum/internal/contracts"
)

// ErrNotFound is returned when a backtest run does not exist
var ErrNotFound = fmt.Errorf("backtest run %w", contracts.ErrNotFound)

// Repository implements contracts.BacktestStore on Postgres
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveBacktest stores the run summary, its payload and the trade ledger
func (r *Repository) SaveBacktest(ctx context.Context, result *contracts.BacktestResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m := result.Metrics
	_, err = tx.Exec(ctx, `
		INSERT INTO audit.backtest_runs (
			run_id, from_date, to_date, config_hash, initial_value, final_value,
			total_return, cagr, sharpe, sortino, max_drawdown, win_rate,
			total_trades, aborted, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, result.RunID, result.From, result.To, result.ConfigHash, m.InitialValue, m.FinalValue,
		m.TotalReturn, m.CAGR, m.Sharpe, m.Sortino, m.MaxDrawdown, m.WinRate,
		m.TotalTrades, result.Aborted, payload)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range result.Trades {
		batch.Queue(`
			INSERT INTO audit.backtest_trades (
				run_id, symbol, sector, entry_date, exit_date, entry_price, exit_price,
				shares, holding_days, return_pct, net_pnl, exit_reason, stale
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, result.RunID, t.Symbol, t.Sector, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
			t.Shares, t.HoldingDays, t.ReturnPct, t.NetPnL, string(t.ExitReason), t.Stale)
	}

	br := tx.SendBatch(ctx, batch)
	for range result.Trades {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to save trade: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// BacktestByID loads a stored run
func (r *Repository) BacktestByID(ctx context.Context, runID string) (*contracts.BacktestResult, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT payload FROM audit.backtest_runs WHERE run_id = $1
	`, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}

	var result contracts.BacktestResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest run: %w", err)
	}
	return &result, nil
}
