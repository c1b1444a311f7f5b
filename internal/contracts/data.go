package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one daily price bar
// ⭐ SSOT: 일봉 데이터 구조는 여기서만 정의
type Candle struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"` // UTC 자정
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// CandleSeries is an ascending-by-date window of candles for one symbol.
// Detectors read it and never reorder or modify it.
type CandleSeries []Candle

// Len returns the number of bars
func (s CandleSeries) Len() int {
	return len(s)
}

// Closes returns close prices as float64, oldest first
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// Highs returns high prices as float64, oldest first
func (s CandleSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

// Volumes returns volumes as float64, oldest first
func (s CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = float64(c.Volume)
	}
	return out
}

// Last returns the most recent candle
func (s CandleSeries) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// Validate checks ordering and uniqueness of trading dates
func (s CandleSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i].Symbol != s[0].Symbol {
			return fmt.Errorf("mixed symbols in series: %s and %s", s[0].Symbol, s[i].Symbol)
		}
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("series not strictly ascending at %s", s[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// TradingDay truncates t to the calendar day in UTC
func TradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseTradingDay parses a YYYY-MM-DD date
func ParseTradingDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return TradingDay(t), nil
}

// ScreenedStock is one member of the scan universe
type ScreenedStock struct {
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DefaultExchange is used when an upload omits the exchange column
const DefaultExchange = "NSE"

// NormalizeScreened trims and upper-cases symbols, fills the default
// exchange and drops blanks and duplicates (last entry wins)
func NormalizeScreened(stocks []ScreenedStock) []ScreenedStock {
	index := make(map[string]int, len(stocks))
	out := make([]ScreenedStock, 0, len(stocks))
	for _, s := range stocks {
		symbol := strings.ToUpper(strings.TrimSpace(s.Symbol))
		if symbol == "" {
			continue
		}
		exchange := strings.ToUpper(strings.TrimSpace(s.Exchange))
		if exchange == "" {
			exchange = DefaultExchange
		}
		entry := ScreenedStock{Symbol: symbol, Exchange: exchange, UploadedAt: s.UploadedAt}
		if i, ok := index[symbol]; ok {
			out[i] = entry
			continue
		}
		index[symbol] = len(out)
		out = append(out, entry)
	}
	return out
}
