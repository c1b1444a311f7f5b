package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/s2_signals"
	"github.com/wonny/insight/pkg/logger"
)

// DailyScanJobName is the scheduler key of the end-of-day scan
const DailyScanJobName = "daily_insight_scan"

// BatchObserver receives the headline counters of each finished batch
type BatchObserver interface {
	SetLastBatch(total, scanned, skipped, failed, scores int)
}

// DailyScanJob scans the screened universe for the current trading day
// ⭐ SSOT: 일일 인사이트 스캔 스케줄은 이 Job에서만
type DailyScanJob struct {
	symbols  contracts.SymbolRepository
	batch    *s2_signals.BatchScanner
	schedule string
	observer BatchObserver
	logger   *logger.Logger
	now      func() time.Time
}

// NewDailyScanJob creates the scan job. observer may be nil.
func NewDailyScanJob(
	symbols contracts.SymbolRepository,
	batch *s2_signals.BatchScanner,
	schedule string,
	observer BatchObserver,
	log *logger.Logger,
) *DailyScanJob {
	return &DailyScanJob{
		symbols:  symbols,
		batch:    batch,
		schedule: schedule,
		observer: observer,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string {
	return DailyScanJobName
}

// Schedule returns the cron schedule (with seconds)
func (j *DailyScanJob) Schedule() string {
	return j.schedule
}

// Run scans today's trading day
func (j *DailyScanJob) Run(ctx context.Context) (string, error) {
	report, err := j.Scan(ctx, j.now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("scanned=%d skipped=%d failed=%d signals=%d scores=%d",
		report.Scanned, report.Skipped, report.Failed, report.Signals, report.Scores), nil
}

// Scan runs the batch over the screened universe for date
func (j *DailyScanJob) Scan(ctx context.Context, date time.Time) (*s2_signals.BatchReport, error) {
	stocks, err := j.symbols.ListScreened(ctx)
	if err != nil {
		return nil, fmt.Errorf("list screened stocks: %w", err)
	}
	if len(stocks) == 0 {
		j.logger.Warn("Screened universe is empty, nothing to scan")
	}

	symbols := make([]string, 0, len(stocks))
	for _, s := range stocks {
		symbols = append(symbols, s.Symbol)
	}

	report, err := j.batch.Run(ctx, symbols, date)
	if report != nil && j.observer != nil {
		j.observer.SetLastBatch(report.Total, report.Scanned, report.Skipped, report.Failed, report.Scores)
	}
	if err != nil {
		return report, err
	}
	return report, nil
}
