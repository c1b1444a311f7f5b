package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/s2_signals"
	"github.com/wonny/insight/pkg/logger"
	"github.com/wonny/insight/pkg/redis"
)

// maxUploadBytes caps the screened CSV upload
const maxUploadBytes = 4 << 20

// SymbolScanner scans one symbol
type SymbolScanner interface {
	Scan(ctx context.Context, symbol string, date time.Time) (*s2_signals.ScanResult, error)
}

// UniverseScanner scans the whole screened universe
type UniverseScanner interface {
	Scan(ctx context.Context, date time.Time) (*s2_signals.BatchReport, error)
}

// ScannerHandler triggers scans and manages the screened universe
type ScannerHandler struct {
	symbols  contracts.SymbolRepository
	single   SymbolScanner
	universe UniverseScanner
	limiter  *redis.RateLimiter
	limit    redis.RateLimitConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(
	symbols contracts.SymbolRepository,
	single SymbolScanner,
	universe UniverseScanner,
	limiter *redis.RateLimiter,
	runsPerMinute int,
	log *logger.Logger,
) *ScannerHandler {
	return &ScannerHandler{
		symbols:  symbols,
		single:   single,
		universe: universe,
		limiter:  limiter,
		limit:    redis.ScannerRunLimit(runsPerMinute),
		logger:   log,
		now:      time.Now,
	}
}

// RunScannerResponse is returned by POST /api/run_scanner
type RunScannerResponse struct {
	Message string                    `json:"message"`
	Date    string                    `json:"date"`
	Symbol  string                    `json:"symbol,omitempty"`
	Signals []contracts.Signal        `json:"signals,omitempty"`
	Score   *contracts.CompositeScore `json:"score,omitempty"`
	Report  *s2_signals.BatchReport   `json:"report,omitempty"`
}

// RunScanner scans one symbol, or the screened universe when symbol is omitted
// POST /api/run_scanner?symbol=&date=
func (h *ScannerHandler) RunScanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, remaining, err := h.limiter.Allow(ctx, h.limit)
	if err != nil {
		h.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
	} else {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			respondError(w, http.StatusTooManyRequests, "Too many scan requests, try again later")
			return
		}
	}

	date, ok, err := optionalDate(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}
	if !ok {
		date = contracts.TradingDay(h.now())
	}
	day := date.Format("2006-01-02")

	if symbol := symbolParam(r); symbol != "" {
		res, err := h.single.Scan(ctx, symbol, date)
		if errors.Is(err, s2_signals.ErrNoData) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("No candle data for %s", symbol))
			return
		}
		if err != nil {
			h.logger.WithError(err).WithField("symbol", symbol).Error("Scan failed")
			respondError(w, http.StatusInternalServerError, "Scan failed")
			return
		}
		respondJSON(w, http.StatusOK, RunScannerResponse{
			Message: fmt.Sprintf("Scanner completed for %s", symbol),
			Date:    day,
			Symbol:  symbol,
			Signals: res.Signals,
			Score:   res.Score,
		})
		return
	}

	report, err := h.universe.Scan(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Universe scan failed")
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}
	respondJSON(w, http.StatusOK, RunScannerResponse{
		Message: fmt.Sprintf("Scanner completed for %d symbols", report.Total),
		Date:    day,
		Report:  report,
	})
}

// UploadScreened upserts the symbols of a CSV with a Symbol column and an
// optional Exchange column
// POST /api/upload-screened (multipart field "file")
func (h *ScannerHandler) UploadScreened(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "File must be CSV")
		return
	}

	stocks, err := ParseScreenedCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.symbols.UpsertScreened(r.Context(), stocks)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upsert screened stocks")
		respondError(w, http.StatusInternalServerError, "Failed to store screened stocks")
		return
	}

	h.logger.WithField("count", n).Info("Screened stocks uploaded")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Uploaded %d stocks", n),
		"count":   n,
	})
}

// ParseScreenedCSV reads rows under a header containing "Symbol"
// (case-insensitive) and optionally "Exchange"
func ParseScreenedCSV(r io.Reader) ([]contracts.ScreenedStock, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}

	symbolCol, exchangeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "symbol":
			symbolCol = i
		case "exchange":
			exchangeCol = i
		}
	}
	if symbolCol < 0 {
		return nil, errors.New("CSV must have 'Symbol' column")
	}

	var out []contracts.ScreenedStock
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		if symbolCol >= len(row) {
			continue
		}
		s := contracts.ScreenedStock{Symbol: row[symbolCol]}
		if exchangeCol >= 0 && exchangeCol < len(row) {
			s.Exchange = row[exchangeCol]
		}
		out = append(out, s)
	}
	return out, nil
}
