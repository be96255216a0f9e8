package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/qmomentum/internal/contracts"
)

// PriceRepository implements contracts.PriceSource on Postgres
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// LoadBars retrieves bars for symbols within [from, to], ordered by date
// 빈 symbols 는 전체 종목
func (r *PriceRepository) LoadBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]contracts.PriceBar, error) {
	query := `
		SELECT symbol, trade_date, open_price, high_price, low_price, close_price, volume
		FROM market.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		  AND (cardinality($3::text[]) = 0 OR symbol = ANY($3))
		ORDER BY symbol, trade_date ASC
	`

	if symbols == nil {
		symbols = []string{}
	}

	rows, err := r.pool.Query(ctx, query, from, to, symbols)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]contracts.PriceBar)
	for rows.Next() {
		var sym string
		var b contracts.PriceBar
		if err := rows.Scan(&sym, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan daily price: %w", err)
		}
		b.Date = NormalizeDate(b.Date)
		out[sym] = append(out[sym], b)
	}
	return out, rows.Err()
}

// LatestDate returns the most recent trade date stored
func (r *PriceRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var d time.Time
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(trade_date), '0001-01-01'::date) FROM market.daily_prices`).Scan(&d)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest trade date: %w", err)
	}
	return NormalizeDate(d), nil
}

// SaveBars upserts bars for one symbol in a single batch
func (r *PriceRepository) SaveBars(ctx context.Context, symbol string, bars []contracts.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_prices (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert %s bars: %w", symbol, err)
		}
	}
	return nil
}
