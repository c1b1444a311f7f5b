package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/logger"
)

// InsightHandler serves candles, insights and composite scores
// ⭐ SSOT: 조회 API 핸들러는 이 구조체에서만
type InsightHandler struct {
	store  contracts.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewInsightHandler creates a new read handler
func NewInsightHandler(store contracts.Store, log *logger.Logger) *InsightHandler {
	return &InsightHandler{store: store, logger: log, now: time.Now}
}

// OHLCBar is one chart point
type OHLCBar struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
}

// GetOHLC returns candles oldest first, defaulting to the last year
// GET /api/ohlc?symbol=&from_date=&to_date=
func (h *InsightHandler) GetOHLC(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	to, ok, err := optionalDate(r, "to_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to_date' format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		to = contracts.TradingDay(h.now())
	}
	from, ok, err := optionalDate(r, "from_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from_date' format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		from = to.AddDate(-1, 0, 0)
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "'from_date' must not be after 'to_date'")
		return
	}

	series, err := h.store.Candles().GetRange(r.Context(), symbol, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get candles")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve candles")
		return
	}

	bars := make([]OHLCBar, 0, len(series))
	for _, c := range series {
		bars = append(bars, OHLCBar{
			Time:   c.Date.Format("2006-01-02"),
			Open:   c.Open.InexactFloat64(),
			High:   c.High.InexactFloat64(),
			Low:    c.Low.InexactFloat64(),
			Close:  c.Close.InexactFloat64(),
			Volume: c.Volume,
		})
	}
	respondJSON(w, http.StatusOK, bars)
}

// GetInsights returns a symbol's insights, newest first
// GET /api/insights?symbol=&date=
func (h *InsightHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	date, ok, err := optionalDate(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}
	var datePtr *time.Time
	if ok {
		datePtr = &date
	}

	views, err := h.store.Insights().ListInsights(r.Context(), symbol, datePtr)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get insights")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve insights")
		return
	}
	if views == nil {
		views = []contracts.InsightView{}
	}
	respondJSON(w, http.StatusOK, views)
}

// GetStockScore returns the composite score for a day (default today)
// GET /api/stock_score?symbol=&date=
func (h *InsightHandler) GetStockScore(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	date, ok, err := optionalDate(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		date = contracts.TradingDay(h.now())
	}

	score, err := h.store.Insights().GetCompositeScore(r.Context(), symbol, date)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Score not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get composite score")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score")
		return
	}
	respondJSON(w, http.StatusOK, score)
}
