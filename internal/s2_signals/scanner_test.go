package s2_signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

type recordingPublisher struct {
	scores []contracts.CompositeScore
}

func (p *recordingPublisher) Publish(score contracts.CompositeScore) {
	p.scores = append(p.scores, score)
}

type countingMetrics struct {
	outcomes map[string]int
	faults   int
	signals  int
	dropped  int
}

func (m *countingMetrics) ObserveScan(outcome string, _ time.Duration) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}
func (m *countingMetrics) IncSignal(contracts.InsightCode, contracts.Direction) { m.signals++ }
func (m *countingMetrics) IncDetectorFault(string) { m.faults++ }
func (m *countingMetrics) IncDropped(contracts.InsightCode) { m.dropped++ }

func newTestScanner(t *testing.T, reg *Registry, source contracts.CandleSource, sink *memorySink, opts ...ScannerOption) *Scanner {
	t.Helper()
	return NewScanner(reg, source, sink, sink, newFakeCatalog(), defaultCfg().Weights, testLogger(), opts...)
}

func TestScanner_Scan(t *testing.T) {
	reg, err := NewDefaultRegistry(defaultCfg())
	require.NoError(t, err)

	source := &fakeSource{windows: map[string]contracts.CandleSeries{
		"TEST": breakoutSeries(2000, 119),
	}}
	sink := newMemorySink()
	pub := &recordingPublisher{}
	metrics := &countingMetrics{}
	scanner := newTestScanner(t, reg, source, sink, WithPublisher(pub), WithMetrics(metrics))

	date := baseDate.AddDate(0, 0, 20).Add(15 * time.Hour)
	res, err := scanner.Scan(context.Background(), "TEST", date)
	require.NoError(t, err)

	assert.Equal(t, ScanCompleted, res.State)
	assert.Equal(t, 21, res.Bars)
	assert.Equal(t, contracts.TradingDay(date), res.Date)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, contracts.CodeBreakout, res.Signals[0].Code)
	assert.Empty(t, res.Dropped)
	assert.Empty(t, res.Faults)

	require.NotNil(t, res.Score)
	assert.Equal(t, 1.0, res.Score.Combined)
	assert.Equal(t, 1.5, res.Score.Details.Insights[0].Weight)

	assert.Len(t, sink.signals, 1)
	for _, rec := range sink.signals {
		assert.Equal(t, int64(4), rec.TypeID)
		assert.Equal(t, "2024-01-21", rec.Date.Format("2006-01-02"))
	}
	assert.Len(t, sink.scores, 1)
	assert.Len(t, pub.scores, 1)
	assert.Equal(t, 1, metrics.outcomes[OutcomeOK])
	assert.Equal(t, 1, metrics.signals)
}

func TestScanner_Rescan_IsIdempotent(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": closeSeries(emaCrossCloses())}}
	sink := newMemorySink()
	scanner := newTestScanner(t, reg, source, sink)

	_, err := scanner.Scan(context.Background(), "TEST", baseDate)
	require.NoError(t, err)
	firstSignals, firstScores := len(sink.signals), len(sink.scores)

	_, err = scanner.Scan(context.Background(), "TEST", baseDate)
	require.NoError(t, err)
	assert.Equal(t, firstSignals, len(sink.signals))
	assert.Equal(t, firstScores, len(sink.scores))
}

func TestScanner_NoData(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	sink := newMemorySink()
	metrics := &countingMetrics{}
	scanner := newTestScanner(t, reg, &fakeSource{}, sink, WithMetrics(metrics))

	res, err := scanner.Scan(context.Background(), "EMPTY", baseDate)
	assert.ErrorIs(t, err, ErrNoData)
	assert.True(t, IsSkip(err))
	assert.Equal(t, ScanCompleted, res.State)
	assert.Nil(t, res.Score)
	assert.Empty(t, sink.scores)
	assert.Equal(t, 1, metrics.outcomes[OutcomeNoData])
}

func TestScanner_SourceError(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	source := &fakeSource{err: map[string]error{"BAD": errBoom}}
	scanner := newTestScanner(t, reg, source, newMemorySink())

	_, err := scanner.Scan(context.Background(), "BAD", baseDate)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, IsSkip(err))
}

func TestScanner_UnsortedWindowRejected(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	window := closeSeries(linear(30, 100, -1))
	window[3], window[4] = window[4], window[3]
	scanner := newTestScanner(t, reg, &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": window}}, newMemorySink())

	_, err := scanner.Scan(context.Background(), "TEST", baseDate)
	assert.Error(t, err)
}

func TestScanner_DetectorFaultIsolated(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDetector{
		name:  "broken",
		codes: []contracts.InsightCode{contracts.CodeEMACross},
		panic: "index out of range",
	}))
	require.NoError(t, reg.Register(&stubDetector{
		name:  "steady",
		codes: []contracts.InsightCode{contracts.CodeRSIOversold},
		fire:  true,
		sig:   contracts.Signal{Code: contracts.CodeRSIOversold, Direction: contracts.DirectionBuy, Score: 0.5},
	}))

	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": closeSeries(linear(5, 10, 1))}}
	sink := newMemorySink()
	metrics := &countingMetrics{}
	scanner := newTestScanner(t, reg, source, sink, WithMetrics(metrics))

	res, err := scanner.Scan(context.Background(), "TEST", baseDate)
	require.NoError(t, err)

	require.Len(t, res.Faults, 1)
	var fault *DetectorFault
	require.True(t, errors.As(res.Faults[0], &fault))
	assert.Equal(t, "broken", fault.Detector)
	assert.Equal(t, 1, metrics.faults)

	require.Len(t, res.Signals, 1)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.5, res.Score.Combined, 1e-12)
}

func TestScanner_UnknownTypeDropped(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDetector{
		name:  "sentiment",
		codes: []contracts.InsightCode{"NEWS_SENTIMENT"},
		fire:  true,
		sig:   contracts.Signal{Code: "NEWS_SENTIMENT", Direction: contracts.DirectionSell, Score: 0.6},
	}))
	require.NoError(t, reg.Register(&stubDetector{
		name:  "rogue",
		codes: []contracts.InsightCode{contracts.CodeBreakout},
		fire:  true,
		sig:   contracts.Signal{Code: contracts.CodeEMACross, Direction: contracts.DirectionBuy, Score: 1},
	}))

	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": closeSeries(linear(5, 10, 1))}}
	sink := newMemorySink()
	scanner := newTestScanner(t, reg, source, sink)

	res, err := scanner.Scan(context.Background(), "TEST", baseDate)
	require.NoError(t, err)

	require.Len(t, res.Dropped, 2)
	for _, d := range res.Dropped {
		assert.ErrorIs(t, d, contracts.ErrUnknownInsightType)
	}
	assert.Empty(t, sink.signals)

	// the catalog miss still scores with the fallback weight
	require.NotNil(t, res.Score)
	assert.InDelta(t, -0.6, res.Score.Combined, 1e-12)
	assert.Equal(t, 0, res.Stored)
}

func TestScanner_SinkErrors(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": breakoutSeries(2000, 119)}}

	t.Run("signal sink failure is recorded", func(t *testing.T) {
		sink := newMemorySink()
		sink.signalErr = errBoom
		res, err := newTestScanner(t, reg, source, sink).Scan(context.Background(), "TEST", baseDate)
		require.NoError(t, err)
		require.Len(t, res.Dropped, 1)
		assert.ErrorIs(t, res.Dropped[0], errBoom)
		assert.NotNil(t, res.Score)
	})

	t.Run("score sink failure fails the scan", func(t *testing.T) {
		sink := newMemorySink()
		sink.scoreErr = errBoom
		res, err := newTestScanner(t, reg, source, sink).Scan(context.Background(), "TEST", baseDate)
		assert.ErrorIs(t, err, errBoom)
		assert.Nil(t, res.Score)
	})
}

func TestScanner_CatalogOutageFailsScan(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": breakoutSeries(2000, 119)}}
	sink := newMemorySink()
	catalog := newFakeCatalog()
	catalog.err = errBoom
	metrics := &countingMetrics{}

	scanner := NewScanner(reg, source, sink, sink, catalog, defaultCfg().Weights, testLogger(), WithMetrics(metrics))
	res, err := scanner.Scan(context.Background(), "TEST", baseDate)

	assert.ErrorIs(t, err, errBoom)
	require.NotNil(t, res)
	assert.Nil(t, res.Score)
	assert.Empty(t, sink.scores)
	assert.Equal(t, 1, metrics.outcomes[OutcomeFailed])
}

func TestScanner_WindowTrimmed(t *testing.T) {
	reg, _ := NewDefaultRegistry(defaultCfg())
	source := &fakeSource{windows: map[string]contracts.CandleSeries{"TEST": closeSeries(linear(150, 100, 0.1))}}
	scanner := newTestScanner(t, reg, source, newMemorySink(), WithWindowBars(100))

	res, err := scanner.Scan(context.Background(), "TEST", baseDate)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Bars)
}

func TestTypeResolver(t *testing.T) {
	catalog := newFakeCatalog()
	resolver := NewTypeResolver(catalog, defaultCfg().Weights)
	ctx := context.Background()

	w, err := resolver.ResolveWeight(ctx, contracts.CodeCupHandle)
	require.NoError(t, err)
	assert.Equal(t, 1.5, w)

	id, err := resolver.ResolveTypeID(ctx, contracts.CodeCupHandle)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, 1, catalog.calls, "second lookup must be memoized")

	_, err = resolver.ResolveTypeID(ctx, "MISSING")
	assert.ErrorIs(t, err, contracts.ErrUnknownInsightType)

	catalog.err = errBoom
	_, err = NewTypeResolver(catalog, defaultCfg().Weights).ResolveWeight(ctx, contracts.CodeEMACross)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, contracts.ErrUnknownInsightType)
}
