package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// CandleRepository manages daily candles
type CandleRepository interface {
	CandleSource
	GetRange(ctx context.Context, symbol string, from, to time.Time) (CandleSeries, error)
	SaveBatch(ctx context.Context, candles []Candle) error
}

// SymbolRepository manages the screened scan universe
type SymbolRepository interface {
	ListScreened(ctx context.Context) ([]ScreenedStock, error)
	UpsertScreened(ctx context.Context, stocks []ScreenedStock) (int, error)
}

// InsightRepository manages the catalog, signals and composite scores
type InsightRepository interface {
	InsightTypeCatalog
	SignalSink
	ScoreSink

	ListInsightTypes(ctx context.Context) ([]InsightType, error)
	SeedInsightTypes(ctx context.Context, types []InsightType) error
	ListInsights(ctx context.Context, symbol string, date *time.Time) ([]InsightView, error)
	GetCompositeScore(ctx context.Context, symbol string, date time.Time) (*CompositeScore, error)
}

// Store bundles every repository behind one backend
type Store interface {
	Candles() CandleRepository
	Symbols() SymbolRepository
	Insights() InsightRepository
	Ping(ctx context.Context) error
	Close() error
}
