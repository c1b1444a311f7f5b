package s2_signals

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
	"github.com/wonny/insight/pkg/logger"
)

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candle(i int, open, high, low, close float64, volume int64) contracts.Candle {
	return contracts.Candle{
		Symbol: "TEST",
		Date:   baseDate.AddDate(0, 0, i),
		Open:   decimal.NewFromFloat(open),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(close),
		Volume: volume,
	}
}

// closeSeries builds bars where every price equals the close
func closeSeries(closes []float64) contracts.CandleSeries {
	out := make(contracts.CandleSeries, len(closes))
	for i, c := range closes {
		out[i] = candle(i, c, c, c, c, 1000)
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// emaCrossCloses declines steadily then jumps on the final bar,
// so EMA12 crosses above EMA26 on that bar only
func emaCrossCloses() []float64 {
	return append(linear(59, 100, -0.5), 200)
}

// breakoutSeries is a flat base at 100 followed by a 120 high / 119 close bar on double volume
func breakoutSeries(lastVolume int64, lastClose float64) contracts.CandleSeries {
	out := make(contracts.CandleSeries, 0, 21)
	for i := 0; i < 20; i++ {
		out = append(out, candle(i, 100, 100, 99, 100, 1000))
	}
	return append(out, candle(20, 100, 120, 100, lastClose, lastVolume))
}

// cupHandleCloses: 20-bar cup from 100 down to 80 and back, 10-bar shallow handle, then last
func cupHandleCloses(last float64) []float64 {
	closes := make([]float64, 0, 31)
	for i := 0; i < 10; i++ {
		closes = append(closes, 100-2.2*float64(i))
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 80+20*float64(i)/9)
	}
	closes = append(closes, 100, 98, 97, 98, 99, 98, 97, 98, 99, 99)
	return append(closes, last)
}

func cloneSeries(s contracts.CandleSeries) contracts.CandleSeries {
	out := make(contracts.CandleSeries, len(s))
	copy(out, s)
	return out
}

func testLogger() *logger.Logger {
	return logger.Nop()
}

// fakeCatalog serves the default insight types and counts lookups
type fakeCatalog struct {
	mu    sync.Mutex
	types map[contracts.InsightCode]*contracts.InsightType
	calls int
	err   error
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{types: make(map[contracts.InsightCode]*contracts.InsightType)}
	for i, it := range contracts.DefaultInsightTypes() {
		it := it
		it.ID = int64(i + 1)
		c.types[it.Code] = &it
	}
	return c
}

func (c *fakeCatalog) GetInsightType(ctx context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	it, ok := c.types[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return it, nil
}

// fakeSource returns fixed windows per symbol
type fakeSource struct {
	windows map[string]contracts.CandleSeries
	err     map[string]error
}

func (s *fakeSource) FetchWindow(ctx context.Context, symbol string, asOf time.Time, maxBars int) (contracts.CandleSeries, error) {
	if err := s.err[symbol]; err != nil {
		return nil, err
	}
	return cloneSeries(s.windows[symbol]), nil
}

// memorySink records upserts keyed the way the stores key them
type memorySink struct {
	mu        sync.Mutex
	signals   map[string]contracts.InsightRecord
	scores    map[string]contracts.CompositeScore
	signalErr error
	scoreErr  error
}

func newMemorySink() *memorySink {
	return &memorySink{
		signals: make(map[string]contracts.InsightRecord),
		scores:  make(map[string]contracts.CompositeScore),
	}
}

func (m *memorySink) UpsertSignal(ctx context.Context, rec contracts.InsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signalErr != nil {
		return m.signalErr
	}
	key := rec.Symbol + "|" + rec.Date.Format("2006-01-02") + "|" + string(rec.Signal.Code)
	m.signals[key] = rec
	return nil
}

func (m *memorySink) UpsertCompositeScore(ctx context.Context, score contracts.CompositeScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scoreErr != nil {
		return m.scoreErr
	}
	m.scores[score.Symbol+"|"+score.Date.Format("2006-01-02")] = score
	return nil
}

// stubDetector emits a fixed signal or panics
type stubDetector struct {
	name  string
	codes []contracts.InsightCode
	sig   contracts.Signal
	fire  bool
	panic interface{}
}

func (d *stubDetector) Name() string { return d.name }
func (d *stubDetector) Codes() []contracts.InsightCode { return d.codes }
func (d *stubDetector) MinBars() int { return 1 }

func (d *stubDetector) Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool) {
	if d.panic != nil {
		panic(d.panic)
	}
	return d.sig, d.fire
}

var errBoom = errors.New("boom")

func defaultCfg() *detectorconfig.Config {
	return detectorconfig.Default()
}
