package s2_signals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/logger"
)

// maxReportedErrors caps the messages carried by a BatchReport
const maxReportedErrors = 5

// BatchReport summarizes a multi-symbol scan
type BatchReport struct {
	Date      time.Time     `json:"date"`
	Total     int           `json:"total"`
	Scanned   int           `json:"scanned"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Signals   int           `json:"signals"`
	Scores    int           `json:"scores"`
	Faults    int           `json:"detector_faults"`
	Dropped   int           `json:"dropped_signals"`
	Cancelled int           `json:"cancelled"`
	Errors    []string      `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func (r *BatchReport) addError(msg string) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// BatchScanner runs the scanner over many symbols on a bounded worker pool
type BatchScanner struct {
	scanner *Scanner
	workers int
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewBatchScanner creates a batch scanner. fetchRPS <= 0 disables throttling.
func NewBatchScanner(scanner *Scanner, workers int, fetchRPS float64, log *logger.Logger) *BatchScanner {
	if workers <= 0 {
		workers = 1
	}
	var limiter *rate.Limiter
	if fetchRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(fetchRPS), workers)
	}
	return &BatchScanner{
		scanner: scanner,
		workers: workers,
		limiter: limiter,
		logger:  log,
	}
}

// Run scans every symbol for date. Failures stay isolated per symbol;
// cancelling ctx stops launching new scans and returns ctx.Err().
func (b *BatchScanner) Run(ctx context.Context, symbols []string, date time.Time) (*BatchReport, error) {
	start := time.Now()
	date = contracts.TradingDay(date)
	report := &BatchReport{Date: date, Total: len(symbols)}

	b.logger.WithFields(map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"symbols": len(symbols),
		"workers": b.workers,
	}).Info("Starting batch insight scan")

	resolver := b.scanner.NewResolver()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(b.workers)

	launched := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		launched++

		symbol := symbol
		g.Go(func() error {
			if err := b.wait(ctx); err != nil {
				mu.Lock()
				report.Cancelled++
				mu.Unlock()
				return nil
			}

			res, err := b.scanner.ScanWith(ctx, symbol, date, resolver)

			mu.Lock()
			defer mu.Unlock()
			b.record(report, symbol, res, err)
			return nil
		})
	}

	_ = g.Wait()
	report.Cancelled += len(symbols) - launched
	report.Duration = time.Since(start)

	b.logger.WithFields(map[string]interface{}{
		"total":     report.Total,
		"scanned":   report.Scanned,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"cancelled": report.Cancelled,
		"signals":   report.Signals,
		"scores":    report.Scores,
		"duration":  report.Duration.String(),
	}).Info("Batch insight scan completed")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("batch scan cancelled: %w", err)
	}
	return report, nil
}

// wait applies the fetch throttle and observes cancellation
func (b *BatchScanner) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *BatchScanner) record(report *BatchReport, symbol string, res *ScanResult, err error) {
	switch {
	case IsSkip(err):
		report.Skipped++
		return
	case err != nil:
		report.Failed++
		report.addError(fmt.Sprintf("%s: %v", symbol, err))
		b.logger.WithError(err).WithField("symbol", symbol).Warn("Insight scan failed")
	default:
		report.Scanned++
	}

	if res == nil {
		return
	}
	report.Signals += res.Stored
	report.Faults += len(res.Faults)
	report.Dropped += len(res.Dropped)
	if res.Score != nil {
		report.Scores++
	}
	for _, f := range res.Faults {
		report.addError(fmt.Sprintf("%s: %v", symbol, f))
	}
	for _, d := range res.Dropped {
		report.addError(fmt.Sprintf("%s: %v", symbol, d))
	}
}
