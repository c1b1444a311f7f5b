package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
	"github.com/wonny/insight/pkg/logger"
)

// ScanState tracks one (symbol, date) invocation
type ScanState int

const (
	ScanNotStarted ScanState = iota
	ScanRunning
	ScanCompleted
)

func (s ScanState) String() string {
	switch s {
	case ScanRunning:
		return "running"
	case ScanCompleted:
		return "completed"
	default:
		return "not_started"
	}
}

// Metrics receives scan instrumentation
type Metrics interface {
	ObserveScan(outcome string, elapsed time.Duration)
	IncSignal(code contracts.InsightCode, direction contracts.Direction)
	IncDetectorFault(detector string)
	IncDropped(code contracts.InsightCode)
}

type nopMetrics struct{}

func (nopMetrics) ObserveScan(string, time.Duration) {}
func (nopMetrics) IncSignal(contracts.InsightCode, contracts.Direction) {}
func (nopMetrics) IncDetectorFault(string) {}
func (nopMetrics) IncDropped(contracts.InsightCode) {}

// Scan outcomes reported to Metrics
const (
	OutcomeOK     = "ok"
	OutcomeNoData = "no_data"
	OutcomeFailed = "failed"
)

// ScanResult is the record of one scan
type ScanResult struct {
	Symbol  string
	Date    time.Time
	State   ScanState
	Bars    int
	Signals []contracts.Signal
	Stored  int     // signals written to the sink
	Dropped []error // unresolved or unpersisted signals
	Faults  []error // recovered detector panics
	Score   *contracts.CompositeScore
}

// Scanner runs every registered detector over one symbol's window,
// persists the signals and the composite score.
// ⭐ SSOT: 스캔 오케스트레이션은 여기서만
type Scanner struct {
	registry   *Registry
	candles    contracts.CandleSource
	signals    contracts.SignalSink
	scores     contracts.ScoreSink
	catalog    contracts.InsightTypeCatalog
	weights    detectorconfig.WeightConfig
	windowBars int
	metrics    Metrics
	publisher  contracts.ScorePublisher
	logger     *logger.Logger
}

// ScannerOption customizes a Scanner
type ScannerOption func(*Scanner)

// WithWindowBars sets how many trailing bars a scan loads
func WithWindowBars(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.windowBars = n
		}
	}
}

// WithMetrics attaches instrumentation
func WithMetrics(m Metrics) ScannerOption {
	return func(s *Scanner) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPublisher forwards every persisted composite score
func WithPublisher(p contracts.ScorePublisher) ScannerOption {
	return func(s *Scanner) { s.publisher = p }
}

// DefaultWindowBars is the trailing window loaded per scan
const DefaultWindowBars = 100

// NewScanner creates a new scan orchestrator
func NewScanner(
	registry *Registry,
	candles contracts.CandleSource,
	signals contracts.SignalSink,
	scores contracts.ScoreSink,
	catalog contracts.InsightTypeCatalog,
	weights detectorconfig.WeightConfig,
	log *logger.Logger,
	opts ...ScannerOption,
) *Scanner {
	s := &Scanner{
		registry:   registry,
		candles:    candles,
		signals:    signals,
		scores:     scores,
		catalog:    catalog,
		weights:    weights,
		windowBars: DefaultWindowBars,
		metrics:    nopMetrics{},
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewResolver returns a memoizing resolver scoped to one batch
func (s *Scanner) NewResolver() *TypeResolver {
	return NewTypeResolver(s.catalog, s.weights)
}

// Registry returns the detector registry
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Scan evaluates one symbol on one date with a fresh resolver
func (s *Scanner) Scan(ctx context.Context, symbol string, date time.Time) (*ScanResult, error) {
	return s.ScanWith(ctx, symbol, date, s.NewResolver())
}

// ScanWith evaluates one symbol on one date.
// It returns ErrNoData when the window is empty; detector faults and
// unresolved signals are recorded on the result, not returned.
func (s *Scanner) ScanWith(ctx context.Context, symbol string, date time.Time, resolver contracts.InsightTypeResolver) (*ScanResult, error) {
	start := time.Now()
	date = contracts.TradingDay(date)
	result := &ScanResult{Symbol: symbol, Date: date, State: ScanNotStarted}

	log := s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"date":   date.Format("2006-01-02"),
	})

	result.State = ScanRunning
	log.Debug("Starting insight scan")

	window, err := s.loadWindow(ctx, symbol, date)
	if err != nil {
		result.State = ScanCompleted
		s.metrics.ObserveScan(OutcomeFailed, time.Since(start))
		return result, err
	}
	result.Bars = window.Len()

	if window.Len() == 0 {
		result.State = ScanCompleted
		log.Info("No candle data, skipping")
		s.metrics.ObserveScan(OutcomeNoData, time.Since(start))
		return result, ErrNoData
	}

	// 1. Detect
	for _, d := range s.registry.Detectors() {
		sig, ok, fault := s.runDetector(d, window, symbol)
		if fault != nil {
			result.Faults = append(result.Faults, fault)
			s.metrics.IncDetectorFault(d.Name())
			log.WithError(fault).WithField("detector", d.Name()).Warn("Detector faulted, treating as no signal")
			continue
		}
		if !ok {
			continue
		}
		if owner, known := s.registry.Lookup(sig.Code); !known || owner.Name() != d.Name() {
			result.Dropped = append(result.Dropped, fmt.Errorf("%w: %s emitted by %s", contracts.ErrUnknownInsightType, sig.Code, d.Name()))
			s.metrics.IncDropped(sig.Code)
			continue
		}

		log.WithFields(map[string]interface{}{
			"code":      sig.Code,
			"direction": sig.Direction,
			"score":     sig.Score,
		}).Debug("Signal detected")

		result.Signals = append(result.Signals, sig)
		s.metrics.IncSignal(sig.Code, sig.Direction)
	}

	// 2. Persist signals
	for _, sig := range result.Signals {
		if err := s.persistSignal(ctx, resolver, symbol, date, sig); err != nil {
			result.Dropped = append(result.Dropped, err)
			s.metrics.IncDropped(sig.Code)
			log.WithError(err).WithField("code", sig.Code).Warn("Signal dropped")
			continue
		}
		result.Stored++
	}

	// 3. Aggregate
	score, err := Aggregate(ctx, symbol, date, result.Signals, resolver)
	if err != nil {
		result.State = ScanCompleted
		s.metrics.ObserveScan(OutcomeFailed, time.Since(start))
		return result, fmt.Errorf("failed to aggregate signals: %w", err)
	}
	if score != nil {
		if err := s.scores.UpsertCompositeScore(ctx, *score); err != nil {
			result.State = ScanCompleted
			s.metrics.ObserveScan(OutcomeFailed, time.Since(start))
			return result, fmt.Errorf("failed to save composite score: %w", err)
		}
		result.Score = score
		if s.publisher != nil {
			s.publisher.Publish(*score)
		}
	}

	result.State = ScanCompleted
	s.metrics.ObserveScan(OutcomeOK, time.Since(start))

	log.WithFields(map[string]interface{}{
		"bars":    result.Bars,
		"signals": len(result.Signals),
		"dropped": len(result.Dropped),
		"faults":  len(result.Faults),
	}).Debug("Insight scan completed")

	return result, nil
}

func (s *Scanner) loadWindow(ctx context.Context, symbol string, date time.Time) (contracts.CandleSeries, error) {
	window, err := s.candles.FetchWindow(ctx, symbol, date, s.windowBars)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}
	if len(window) > s.windowBars {
		window = window[len(window)-s.windowBars:]
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candle window: %w", err)
	}
	return window, nil
}

// runDetector isolates one detector: it gets its own copy of the window and
// a panic becomes a DetectorFault
func (s *Scanner) runDetector(d Detector, window contracts.CandleSeries, symbol string) (sig contracts.Signal, ok bool, fault error) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok = contracts.Signal{}, false
			fault = &DetectorFault{Detector: d.Name(), Symbol: symbol, Cause: r}
		}
	}()

	own := make(contracts.CandleSeries, len(window))
	copy(own, window)

	sig, ok = d.Detect(own, symbol)
	return sig, ok, nil
}

func (s *Scanner) persistSignal(ctx context.Context, resolver contracts.InsightTypeResolver, symbol string, date time.Time, sig contracts.Signal) error {
	typeID, err := resolver.ResolveTypeID(ctx, sig.Code)
	if err != nil {
		return err
	}

	rec := contracts.InsightRecord{
		Symbol: symbol,
		Date:   date,
		TypeID: typeID,
		Signal: sig,
	}
	if err := s.signals.UpsertSignal(ctx, rec); err != nil {
		return fmt.Errorf("failed to save signal %s: %w", sig.Code, err)
	}
	return nil
}

// IsSkip reports whether err means the symbol was skipped rather than failed
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoData)
}
