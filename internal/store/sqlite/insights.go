package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wonny/insight/internal/contracts"
)

// InsightRepository implements contracts.InsightRepository
type InsightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// GetInsightType looks up one catalog entry by code
func (r *InsightRepository) GetInsightType(ctx context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	var m InsightTypeModel
	err := r.db.WithContext(ctx).Where("code = ?", string(code)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight type: %w", err)
	}
	it := m.toContract()
	return &it, nil
}

// ListInsightTypes returns the whole catalog
func (r *InsightRepository) ListInsightTypes(ctx context.Context) ([]contracts.InsightType, error) {
	var rows []InsightTypeModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query insight types: %w", err)
	}
	out := make([]contracts.InsightType, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toContract())
	}
	return out, nil
}

// SeedInsightTypes inserts catalog entries that do not exist yet
func (r *InsightRepository) SeedInsightTypes(ctx context.Context, types []contracts.InsightType) error {
	if len(types) == 0 {
		return nil
	}
	ms := make([]InsightTypeModel, 0, len(types))
	for _, it := range types {
		ms = append(ms, InsightTypeModel{
			Code:        string(it.Code),
			Name:        it.Name,
			Category:    string(it.Category),
			Description: it.Description,
		})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&ms).Error
	if err != nil {
		return fmt.Errorf("failed to seed insight types: %w", err)
	}
	return nil
}

// UpsertSignal stores one signal keyed on (symbol, insight_type_id, trade_date)
func (r *InsightRepository) UpsertSignal(ctx context.Context, rec contracts.InsightRecord) error {
	m := InsightModel{
		Symbol:        rec.Symbol,
		InsightTypeID: rec.TypeID,
		TradeDate:     contracts.TradingDay(rec.Date),
		SignalType:    string(rec.Signal.Direction),
		Price:         rec.Signal.Price,
		Score:         rec.Signal.Score,
		Attributes:    rec.Signal.Attributes,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "insight_type_id"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"signal_type", "price", "score", "attributes", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to upsert insight: %w", err)
	}
	return nil
}

// UpsertCompositeScore stores one composite score keyed on (symbol, trade_date)
func (r *InsightRepository) UpsertCompositeScore(ctx context.Context, score contracts.CompositeScore) error {
	m := ScoreModel{
		Symbol:        score.Symbol,
		TradeDate:     contracts.TradingDay(score.Date),
		CombinedScore: score.Combined,
		Details:       score.Details,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"combined_score", "details", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to upsert composite score: %w", err)
	}
	return nil
}

// ListInsights returns a symbol's insights, newest first, optionally for one date
func (r *InsightRepository) ListInsights(ctx context.Context, symbol string, date *time.Time) ([]contracts.InsightView, error) {
	q := r.db.WithContext(ctx).Where("symbol = ?", symbol)
	if date != nil {
		q = q.Where("trade_date = ?", contracts.TradingDay(*date))
	}

	var rows []InsightModel
	if err := q.Order("trade_date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	types, err := r.typesByID(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.InsightView, 0, len(rows))
	for _, m := range rows {
		it := types[m.InsightTypeID]
		out = append(out, contracts.InsightView{
			Symbol:     m.Symbol,
			Date:       contracts.TradingDay(m.TradeDate),
			Code:       it.Code,
			Name:       it.Name,
			Category:   it.Category,
			Direction:  contracts.Direction(m.SignalType),
			Price:      m.Price,
			Score:      m.Score,
			Attributes: m.Attributes,
			CreatedAt:  m.CreatedAt,
		})
	}
	sortViews(out)
	return out, nil
}

// GetCompositeScore returns contracts.ErrNotFound when no signal fired that day
func (r *InsightRepository) GetCompositeScore(ctx context.Context, symbol string, date time.Time) (*contracts.CompositeScore, error) {
	var m ScoreModel
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND trade_date = ?", symbol, contracts.TradingDay(date)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get composite score: %w", err)
	}
	return &contracts.CompositeScore{
		Symbol:   m.Symbol,
		Date:     contracts.TradingDay(m.TradeDate),
		Combined: m.CombinedScore,
		Details:  m.Details,
	}, nil
}

func (r *InsightRepository) typesByID(ctx context.Context) (map[int64]contracts.InsightType, error) {
	types, err := r.ListInsightTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]contracts.InsightType, len(types))
	for _, it := range types {
		out[it.ID] = it
	}
	return out, nil
}

// sortViews orders by date desc, then code asc like the postgres query
func sortViews(views []contracts.InsightView) {
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].Date.Equal(views[j].Date) {
			return views[i].Date.After(views[j].Date)
		}
		return views[i].Code < views[j].Code
	})
}
