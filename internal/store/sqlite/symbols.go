package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wonny/insight/internal/contracts"
)

// SymbolRepository implements contracts.SymbolRepository
type SymbolRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSymbolRepository creates a new screened-universe repository
func NewSymbolRepository(db *gorm.DB) *SymbolRepository {
	return &SymbolRepository{db: db, now: time.Now}
}

// ListScreened returns the scan universe ordered by symbol
func (r *SymbolRepository) ListScreened(ctx context.Context) ([]contracts.ScreenedStock, error) {
	var rows []ScreenedModel
	if err := r.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query screened stocks: %w", err)
	}

	out := make([]contracts.ScreenedStock, 0, len(rows))
	for _, m := range rows {
		out = append(out, contracts.ScreenedStock{
			Symbol:     m.Symbol,
			Exchange:   m.Exchange,
			UploadedAt: m.UploadedAt,
		})
	}
	return out, nil
}

// UpsertScreened inserts or refreshes screened symbols and returns how many were written
func (r *SymbolRepository) UpsertScreened(ctx context.Context, stocks []contracts.ScreenedStock) (int, error) {
	stocks = contracts.NormalizeScreened(stocks)
	if len(stocks) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	ms := make([]ScreenedModel, 0, len(stocks))
	for _, s := range stocks {
		ms = append(ms, ScreenedModel{Symbol: s.Symbol, Exchange: s.Exchange, UploadedAt: now})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"exchange", "uploaded_at"}),
	}).Create(&ms).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert screened stocks: %w", err)
	}
	return len(ms), nil
}
