package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wonny/insight/internal/contracts"
)

// CandleRepository implements contracts.CandleRepository
type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new candle repository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// FetchWindow returns up to maxBars candles on or before asOf, oldest first
func (r *CandleRepository) FetchWindow(ctx context.Context, symbol string, asOf time.Time, maxBars int) (contracts.CandleSeries, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("symbol = ? AND trade_date <= ?", symbol, contracts.TradingDay(asOf)).
		Order("trade_date DESC")
	if maxBars > 0 {
		q = q.Limit(maxBars)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query candle window: %w", err)
	}

	out := make(contracts.CandleSeries, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = m.toContract()
	}
	return out, nil
}

// GetRange returns candles with from <= date <= to, oldest first
func (r *CandleRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) (contracts.CandleSeries, error) {
	var rows []CandleModel
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND trade_date BETWEEN ? AND ?", symbol, contracts.TradingDay(from), contracts.TradingDay(to)).
		Order("trade_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}

	out := make(contracts.CandleSeries, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toContract())
	}
	return out, nil
}

// SaveBatch upserts candles keyed on (symbol, trade_date)
func (r *CandleRepository) SaveBatch(ctx context.Context, candles []contracts.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, c := range candles {
		ms = append(ms, candleToModel(c))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
	if err != nil {
		return fmt.Errorf("failed to save candles: %w", err)
	}
	return nil
}
