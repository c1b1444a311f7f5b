package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insight/internal/contracts"
)

// CandleRepository implements contracts.CandleRepository on PostgreSQL
// ⭐ SSOT: 일봉 저장소는 여기서만
type CandleRepository struct {
	pool *pgxpool.Pool
}

// NewCandleRepository creates a new candle repository
func NewCandleRepository(pool *pgxpool.Pool) *CandleRepository {
	return &CandleRepository{pool: pool}
}

const candleColumns = `symbol, trade_date, open_price, high_price, low_price, close_price, volume`

// FetchWindow returns up to maxBars candles on or before asOf, oldest first
func (r *CandleRepository) FetchWindow(ctx context.Context, symbol string, asOf time.Time, maxBars int) (contracts.CandleSeries, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM (
			SELECT ` + candleColumns + `
			FROM data.daily_candles
			WHERE symbol = $1 AND trade_date <= $2
			ORDER BY trade_date DESC
			LIMIT $3
		) w
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, contracts.TradingDay(asOf), maxBars)
	if err != nil {
		return nil, fmt.Errorf("failed to query candle window: %w", err)
	}
	return scanCandles(rows)
}

// GetRange returns candles with from <= date <= to, oldest first
func (r *CandleRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) (contracts.CandleSeries, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM data.daily_candles
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, contracts.TradingDay(from), contracts.TradingDay(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	return scanCandles(rows)
}

// SaveBatch upserts candles keyed on (symbol, trade_date)
func (r *CandleRepository) SaveBatch(ctx context.Context, candles []contracts.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_candles (` + candleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(query, c.Symbol, contracts.TradingDay(c.Date), c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save candles: %w", err)
	}
	return nil
}

func scanCandles(rows pgx.Rows) (contracts.CandleSeries, error) {
	defer rows.Close()

	var out contracts.CandleSeries
	for rows.Next() {
		var c contracts.Candle
		if err := rows.Scan(&c.Symbol, &c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		c.Date = contracts.TradingDay(c.Date)
		out = append(out, c)
	}
	return out, rows.Err()
}
