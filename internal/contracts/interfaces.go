package contracts

import (
	"context"
	"errors"
	"time"
)

// ⭐ SSOT: 스캐너가 주입받는 의존성 인터페이스는 여기서만 정의

var (
	// ErrUnknownInsightType is returned when a code has no catalog entry
	ErrUnknownInsightType = errors.New("unknown insight type")
	// ErrNotFound is returned by point lookups that match nothing
	ErrNotFound = errors.New("not found")
)

// CandleSource loads the window a scan evaluates
type CandleSource interface {
	// FetchWindow returns at most maxBars candles with date <= asOf, ascending
	FetchWindow(ctx context.Context, symbol string, asOf time.Time, maxBars int) (CandleSeries, error)
}

// InsightTypeCatalog is the read-only insight type catalog
type InsightTypeCatalog interface {
	GetInsightType(ctx context.Context, code InsightCode) (*InsightType, error)
}

// InsightTypeResolver maps an insight code to its persistence key and weight
type InsightTypeResolver interface {
	ResolveTypeID(ctx context.Context, code InsightCode) (int64, error)
	ResolveWeight(ctx context.Context, code InsightCode) (float64, error)
}

// SignalSink persists individual signals
type SignalSink interface {
	UpsertSignal(ctx context.Context, rec InsightRecord) error
}

// ScoreSink persists composite scores
type ScoreSink interface {
	UpsertCompositeScore(ctx context.Context, score CompositeScore) error
}

// ScorePublisher receives composite scores as scans produce them
type ScorePublisher interface {
	Publish(score CompositeScore)
}
