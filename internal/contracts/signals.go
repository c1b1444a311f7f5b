package contracts

import "time"

// Direction is the trading bias of a signal
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL
func (d Direction) Sign() float64 {
	if d == DirectionSell {
		return -1
	}
	return 1
}

// InsightCode identifies an insight type
// ⭐ SSOT: 인사이트 코드는 여기서만 정의
type InsightCode string

const (
	CodeEMACross      InsightCode = "EMA_CROSS"
	CodeRSIOversold   InsightCode = "RSI_OVERSOLD"
	CodeRSIOverbought InsightCode = "RSI_OVERBOUGHT"
	CodeBreakout      InsightCode = "BREAKOUT"
	CodeCupHandle     InsightCode = "CUP_HANDLE"
)

// Category groups insight types for weighting. The set is open.
type Category string

const (
	CategoryFormula   Category = "FORMULA"
	CategoryPattern   Category = "PATTERN"
	CategorySentiment Category = "SENTIMENT"
)

// Signal is one detector's verdict on a window
type Signal struct {
	Code       InsightCode            `json:"code"`
	Direction  Direction              `json:"direction"`
	Price      float64                `json:"price"` // 감지 시점 종가
	Score      float64                `json:"score"` // 0.0 ~ 1.0
	Attributes map[string]interface{} `json:"attributes"`
}

// InsightType is a catalog entry
type InsightType struct {
	ID          int64       `json:"id"`
	Code        InsightCode `json:"code"`
	Name        string      `json:"name"`
	Category    Category    `json:"category"`
	Description string      `json:"description"`
}

// DefaultInsightTypes is the catalog seeded on first start
func DefaultInsightTypes() []InsightType {
	return []InsightType{
		{Code: CodeEMACross, Name: "EMA Crossover", Category: CategoryFormula,
			Description: "EMA 12 crosses EMA 26 on the latest bar"},
		{Code: CodeRSIOversold, Name: "RSI Oversold", Category: CategoryFormula,
			Description: "RSI 14 below the oversold threshold"},
		{Code: CodeRSIOverbought, Name: "RSI Overbought", Category: CategoryFormula,
			Description: "RSI 14 above the overbought threshold"},
		{Code: CodeBreakout, Name: "Resistance Breakout", Category: CategoryPattern,
			Description: "High above 20-bar resistance on elevated volume"},
		{Code: CodeCupHandle, Name: "Cup and Handle", Category: CategoryPattern,
			Description: "Cup and handle base with confirmed breakout"},
	}
}

// InsightRecord is a signal keyed for persistence.
// Upserts are keyed on (Symbol, TypeID, Date).
type InsightRecord struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	TypeID int64     `json:"type_id"`
	Signal Signal    `json:"signal"`
}

// ScoreComponent is one signal's contribution to a composite score
type ScoreComponent struct {
	Type       InsightCode `json:"type"`
	Score      float64     `json:"score"` // 부호 포함
	Weight     float64     `json:"weight"`
	SignalType Direction   `json:"signal_type"`
}

// ScoreDetails is the explanation payload stored with a composite score
type ScoreDetails struct {
	Insights []ScoreComponent `json:"insights"`
	Combined float64          `json:"combined"`
	Scale    string           `json:"scale"`
}

// ScoreScale labels the composite score range
const ScoreScale = "-1 to 1"

// CompositeScore is the weighted blend of one day's signals.
// Upserts are keyed on (Symbol, Date).
type CompositeScore struct {
	Symbol   string       `json:"symbol"`
	Date     time.Time    `json:"date"`
	Combined float64      `json:"combined"` // -1.0 ~ 1.0
	Details  ScoreDetails `json:"details"`
}

// InsightView is a persisted insight joined with its catalog entry
type InsightView struct {
	Symbol     string                 `json:"symbol"`
	Date       time.Time              `json:"date"`
	Code       InsightCode            `json:"code"`
	Name       string                 `json:"name"`
	Category   Category               `json:"category"`
	Direction  Direction              `json:"signal_type"`
	Price      float64                `json:"price"`
	Score      float64                `json:"score"`
	Attributes map[string]interface{} `json:"attributes"`
	CreatedAt  time.Time              `json:"created_at"`
}
