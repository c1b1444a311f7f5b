package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insight/internal/contracts"
)

// SymbolRepository implements contracts.SymbolRepository on PostgreSQL
type SymbolRepository struct {
	pool *pgxpool.Pool
}

// NewSymbolRepository creates a new screened-universe repository
func NewSymbolRepository(pool *pgxpool.Pool) *SymbolRepository {
	return &SymbolRepository{pool: pool}
}

// ListScreened returns the scan universe ordered by symbol
func (r *SymbolRepository) ListScreened(ctx context.Context) ([]contracts.ScreenedStock, error) {
	query := `
		SELECT symbol, exchange, uploaded_at
		FROM data.screened_stocks
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query screened stocks: %w", err)
	}
	defer rows.Close()

	var out []contracts.ScreenedStock
	for rows.Next() {
		var s contracts.ScreenedStock
		if err := rows.Scan(&s.Symbol, &s.Exchange, &s.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan screened stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertScreened inserts or refreshes screened symbols and returns how many were written
func (r *SymbolRepository) UpsertScreened(ctx context.Context, stocks []contracts.ScreenedStock) (int, error) {
	stocks = contracts.NormalizeScreened(stocks)
	if len(stocks) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO data.screened_stocks (symbol, exchange, uploaded_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			exchange = EXCLUDED.exchange,
			uploaded_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, s := range stocks {
		batch.Queue(query, s.Symbol, s.Exchange)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to upsert screened stocks: %w", err)
	}
	return len(stocks), nil
}
