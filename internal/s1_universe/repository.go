package s1_universe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/qmomentum/internal/contracts"
)

// Repository handles data persistence for S1
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Constituents implements ConstituentSource from the stored index membership
func (r *Repository) Constituents(ctx context.Context, selector string) ([]contracts.Constituent, error) {
	query := `
		SELECT symbol, COALESCE(company, ''), COALESCE(sector, ''), market_cap
		FROM market.index_constituents
		WHERE selector = $1
		ORDER BY symbol
	`

	rows, err := r.db.Query(ctx, query, selector)
	if err != nil {
		return nil, fmt.Errorf("query constituents: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Constituent, 0)
	for rows.Next() {
		var c contracts.Constituent
		if err := rows.Scan(&c.Symbol, &c.Company, &c.Sector, &c.MarketCap); err != nil {
			return nil, fmt.Errorf("scan constituent: %w", err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate constituents: %w", rows.Err())
	}

	return out, nil
}

// SaveConstituents replaces the stored membership of an index
func (r *Repository) SaveConstituents(ctx context.Context, selector string, members []contracts.Constituent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market.index_constituents WHERE selector = $1`, selector); err != nil {
		return fmt.Errorf("clear constituents: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range members {
		batch.Queue(`
			INSERT INTO market.index_constituents (selector, symbol, company, sector, market_cap, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, selector, NormalizeSymbol(c.Symbol), c.Company, c.Sector, c.MarketCap)
	}

	br := tx.SendBatch(ctx, batch)
	for range members {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert constituent: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveUniverse saves a universe snapshot to the database
func (r *Repository) SaveUniverse(ctx context.Context, universe *contracts.Universe) error {
	excludedJSON, err := json.Marshal(universe.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	query := `
		INSERT INTO market.universe_snapshots (
			snapshot_date,
			selector,
			eligible_symbols,
			total_count,
			excluded,
			created_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (snapshot_date, selector) DO UPDATE SET
			eligible_symbols = EXCLUDED.eligible_symbols,
			total_count = EXCLUDED.total_count,
			excluded = EXCLUDED.excluded,
			created_at = NOW()
	`

	_, err = r.db.Exec(ctx, query,
		universe.Date,
		universe.Name,
		universe.Symbols(),
		universe.Count(),
		excludedJSON,
	)
	if err != nil {
		return fmt.Errorf("insert universe: %w", err)
	}

	return nil
}
