package sqlite

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/insight/internal/contracts"
)

// CandleModel is one daily bar
type CandleModel struct {
	ID        uint            `gorm:"primaryKey"`
	Symbol    string          `gorm:"size:32;not null;uniqueIndex:candle_sym_date,priority:1"`
	TradeDate time.Time       `gorm:"not null;uniqueIndex:candle_sym_date,priority:2"`
	Open      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	High      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Low       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Close     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Volume    int64           `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "daily_candles"
}

// ScreenedModel is one member of the scan universe
type ScreenedModel struct {
	Symbol     string    `gorm:"primaryKey;size:32"`
	Exchange   string    `gorm:"size:16;not null"`
	UploadedAt time.Time `gorm:"not null"`
}

func (ScreenedModel) TableName() string {
	return "screened_stocks"
}

// InsightTypeModel is a catalog entry
type InsightTypeModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Code        string `gorm:"size:64;not null;uniqueIndex"`
	Name        string `gorm:"size:128;not null"`
	Category    string `gorm:"size:32;not null"`
	Description string
}

func (InsightTypeModel) TableName() string {
	return "insight_types"
}

// InsightModel is one persisted signal
type InsightModel struct {
	ID            uint                   `gorm:"primaryKey"`
	Symbol        string                 `gorm:"size:32;not null;uniqueIndex:insight_sym_type_date,priority:1"`
	InsightTypeID int64                  `gorm:"not null;uniqueIndex:insight_sym_type_date,priority:2"`
	TradeDate     time.Time              `gorm:"not null;uniqueIndex:insight_sym_type_date,priority:3"`
	SignalType    string                 `gorm:"size:8;not null"`
	Price         float64                `gorm:"not null"`
	Score         float64                `gorm:"not null"`
	Attributes    map[string]interface{} `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (InsightModel) TableName() string {
	return "stock_insights"
}

// ScoreModel is one composite score
type ScoreModel struct {
	Symbol        string                 `gorm:"primaryKey;size:32"`
	TradeDate     time.Time              `gorm:"primaryKey"`
	CombinedScore float64                `gorm:"not null"`
	Details       contracts.ScoreDetails `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ScoreModel) TableName() string {
	return "stock_scores"
}

// AllModels lists every table AutoMigrate manages
func AllModels() []interface{} {
	return []interface{}{
		&CandleModel{},
		&ScreenedModel{},
		&InsightTypeModel{},
		&InsightModel{},
		&ScoreModel{},
	}
}

func candleToModel(c contracts.Candle) CandleModel {
	return CandleModel{
		Symbol:    c.Symbol,
		TradeDate: contracts.TradingDay(c.Date),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

func (m CandleModel) toContract() contracts.Candle {
	return contracts.Candle{
		Symbol: m.Symbol,
		Date:   contracts.TradingDay(m.TradeDate),
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
	}
}

func (m InsightTypeModel) toContract() contracts.InsightType {
	return contracts.InsightType{
		ID:          m.ID,
		Code:        contracts.InsightCode(m.Code),
		Name:        m.Name,
		Category:    contracts.Category(m.Category),
		Description: m.Description,
	}
}
