package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/insight/internal/contracts"
)

// InsightRepository implements contracts.InsightRepository
// ⭐ SSOT: 인사이트/종합점수 저장/조회는 여기서만
type InsightRepository struct {
	pool *pgxpool.Pool
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(pool *pgxpool.Pool) *InsightRepository {
	return &InsightRepository{pool: pool}
}

// GetInsightType looks up one catalog entry by code
func (r *InsightRepository) GetInsightType(ctx context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	query := `
		SELECT id, code, name, category, description
		FROM insights.insight_types
		WHERE code = $1
	`

	var it contracts.InsightType
	err := r.pool.QueryRow(ctx, query, code).Scan(&it.ID, &it.Code, &it.Name, &it.Category, &it.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight type: %w", err)
	}
	return &it, nil
}

// ListInsightTypes returns the whole catalog
func (r *InsightRepository) ListInsightTypes(ctx context.Context) ([]contracts.InsightType, error) {
	query := `
		SELECT id, code, name, category, description
		FROM insights.insight_types
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query insight types: %w", err)
	}
	defer rows.Close()

	var out []contracts.InsightType
	for rows.Next() {
		var it contracts.InsightType
		if err := rows.Scan(&it.ID, &it.Code, &it.Name, &it.Category, &it.Description); err != nil {
			return nil, fmt.Errorf("failed to scan insight type: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SeedInsightTypes inserts catalog entries that do not exist yet
func (r *InsightRepository) SeedInsightTypes(ctx context.Context, types []contracts.InsightType) error {
	query := `
		INSERT INTO insights.insight_types (code, name, category, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, it := range types {
		batch.Queue(query, it.Code, it.Name, it.Category, it.Description)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed insight types: %w", err)
	}
	return nil
}

// UpsertSignal stores one signal keyed on (symbol, insight_type_id, trade_date)
func (r *InsightRepository) UpsertSignal(ctx context.Context, rec contracts.InsightRecord) error {
	attrs, err := json.Marshal(rec.Signal.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	query := `
		INSERT INTO insights.stock_insights (
			symbol, insight_type_id, trade_date,
			signal_type, price, score, attributes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, insight_type_id, trade_date) DO UPDATE SET
			signal_type = EXCLUDED.signal_type,
			price = EXCLUDED.price,
			score = EXCLUDED.score,
			attributes = EXCLUDED.attributes,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		rec.Symbol, rec.TypeID, contracts.TradingDay(rec.Date),
		rec.Signal.Direction, rec.Signal.Price, rec.Signal.Score, attrs,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert insight: %w", err)
	}
	return nil
}

// UpsertCompositeScore stores one composite score keyed on (symbol, trade_date)
func (r *InsightRepository) UpsertCompositeScore(ctx context.Context, score contracts.CompositeScore) error {
	details, err := json.Marshal(score.Details)
	if err != nil {
		return fmt.Errorf("marshal score details: %w", err)
	}

	query := `
		INSERT INTO insights.stock_scores (symbol, trade_date, combined_score, details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			combined_score = EXCLUDED.combined_score,
			details = EXCLUDED.details,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query, score.Symbol, contracts.TradingDay(score.Date), score.Combined, details)
	if err != nil {
		return fmt.Errorf("failed to upsert composite score: %w", err)
	}
	return nil
}

// ListInsights returns a symbol's insights, newest first, optionally for one date
func (r *InsightRepository) ListInsights(ctx context.Context, symbol string, date *time.Time) ([]contracts.InsightView, error) {
	query := `
		SELECT
			si.symbol, si.trade_date, it.code, it.name, it.category,
			si.signal_type, si.price, si.score, si.attributes, si.created_at
		FROM insights.stock_insights si
		JOIN insights.insight_types it ON it.id = si.insight_type_id
		WHERE si.symbol = $1
	`
	args := []interface{}{symbol}
	if date != nil {
		query += ` AND si.trade_date = $2`
		args = append(args, contracts.TradingDay(*date))
	}
	query += ` ORDER BY si.trade_date DESC, it.code ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var out []contracts.InsightView
	for rows.Next() {
		var (
			v     contracts.InsightView
			attrs []byte
		)
		if err := rows.Scan(&v.Symbol, &v.Date, &v.Code, &v.Name, &v.Category,
			&v.Direction, &v.Price, &v.Score, &attrs, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal attributes: %w", err)
			}
		}
		v.Date = contracts.TradingDay(v.Date)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetCompositeScore returns contracts.ErrNotFound when no signal fired that day
func (r *InsightRepository) GetCompositeScore(ctx context.Context, symbol string, date time.Time) (*contracts.CompositeScore, error) {
	query := `
		SELECT symbol, trade_date, combined_score, details
		FROM insights.stock_scores
		WHERE symbol = $1 AND trade_date = $2
	`

	var (
		score   contracts.CompositeScore
		details []byte
	)
	err := r.pool.QueryRow(ctx, query, symbol, contracts.TradingDay(date)).
		Scan(&score.Symbol, &score.Date, &score.Combined, &details)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get composite score: %w", err)
	}
	if err := json.Unmarshal(details, &score.Details); err != nil {
		return nil, fmt.Errorf("unmarshal score details: %w", err)
	}
	score.Date = contracts.TradingDay(score.Date)
	return &score, nil
}
