package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/insight/internal/contracts"
)

// Recorder implements scanner instrumentation using Prometheus
// ⭐ SSOT: 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	scans          *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	signals        *prometheus.CounterVec
	detectorFaults *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	lastBatch      *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a recorder on its own registry with Go and process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers every metric on reg
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		scans: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_scans_total",
				Help: "Total number of symbol scans by outcome",
			},
			[]string{"outcome"},
		),
		scanDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insight_scan_duration_seconds",
				Help:    "Duration of one symbol scan in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"outcome"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_signals_total",
				Help: "Total number of signals emitted by detectors",
			},
			[]string{"code", "direction"},
		),
		detectorFaults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_detector_faults_total",
				Help: "Total number of detector panics",
			},
			[]string{"detector"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_signals_dropped_total",
				Help: "Signals that could not be resolved or persisted",
			},
			[]string{"code"},
		),
		lastBatch: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "insight_last_batch",
				Help: "Counters of the most recent batch scan",
			},
			[]string{"field"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insight_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// ObserveScan records one symbol scan
func (r *Recorder) ObserveScan(outcome string, elapsed time.Duration) {
	r.scans.WithLabelValues(outcome).Inc()
	r.scanDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncSignal counts an emitted signal
func (r *Recorder) IncSignal(code contracts.InsightCode, dir contracts.Direction) {
	r.signals.WithLabelValues(string(code), string(dir)).Inc()
}

// IncDetectorFault counts a detector panic
func (r *Recorder) IncDetectorFault(detector string) {
	r.detectorFaults.WithLabelValues(detector).Inc()
}

// IncDropped counts a signal that was not persisted
func (r *Recorder) IncDropped(code contracts.InsightCode) {
	r.dropped.WithLabelValues(string(code)).Inc()
}

// SetLastBatch publishes the headline counters of a finished batch
func (r *Recorder) SetLastBatch(total, scanned, skipped, failed, scores int) {
	r.lastBatch.WithLabelValues("total").Set(float64(total))
	r.lastBatch.WithLabelValues("scanned").Set(float64(scanned))
	r.lastBatch.WithLabelValues("skipped").Set(float64(skipped))
	r.lastBatch.WithLabelValues("failed").Set(float64(failed))
	r.lastBatch.WithLabelValues("scores").Set(float64(scores))
}

// ObserveHTTP records one HTTP request
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
