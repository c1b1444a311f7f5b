package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

func TestRecorder_ScanCounters(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.ObserveScan("ok", 20*time.Millisecond)
	r.ObserveScan("ok", 30*time.Millisecond)
	r.ObserveScan("no_data", time.Millisecond)
	r.IncSignal(contracts.CodeBreakout, contracts.DirectionBuy)
	r.IncDetectorFault("cup_handle")
	r.IncDropped(contracts.CodeEMACross)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scans.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scans.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signals.WithLabelValues("BREAKOUT", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.detectorFaults.WithLabelValues("cup_handle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dropped.WithLabelValues("EMA_CROSS")))
}

func TestRecorder_LastBatch(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())
	r.SetLastBatch(10, 7, 2, 1, 5)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.lastBatch.WithLabelValues("total")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastBatch.WithLabelValues("failed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.lastBatch.WithLabelValues("scores")))
}

func TestRecorder_HTTPStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusLabel(tt.status))
	}

	r := NewWithRegistry(prometheus.NewRegistry())
	r.ObserveHTTP("/api/insights", http.MethodGet, 404, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/insights", "GET", "4xx")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.IncSignal(contracts.CodeRSIOversold, contracts.DirectionBuy)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `insight_signals_total{code="RSI_OVERSOLD",direction="BUY"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
