package s2_signals

import (
	"math"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// CupHandleDetector finds a cup-and-handle base in the closes before the
// latest bar and fires BUY when the latest close clears the handle high.
type CupHandleDetector struct {
	cfg detectorconfig.CupHandleConfig
}

// NewCupHandleDetector creates a new cup-and-handle detector
func NewCupHandleDetector(cfg detectorconfig.CupHandleConfig) *CupHandleDetector {
	return &CupHandleDetector{cfg: cfg}
}

func (d *CupHandleDetector) Name() string { return "cup_handle" }

func (d *CupHandleDetector) Codes() []contracts.InsightCode {
	return []contracts.InsightCode{contracts.CodeCupHandle}
}

func (d *CupHandleDetector) MinBars() int { return d.cfg.MinBars() }

// cupHandle describes one matched base
type cupHandle struct {
	cupStart, cupEnd       int // [cupStart, cupEnd)
	handleStart, handleEnd int // [handleStart, handleEnd)
	cupDepth, cupLow       float64
	handleDepth            float64
	handleHigh             float64
}

// Detect scans cup candidates from the oldest bar; the first match wins
func (d *CupHandleDetector) Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool) {
	if window.Len() < d.cfg.MinBars() {
		return contracts.Signal{}, false
	}

	closes := window.Closes()
	latest := closes[len(closes)-1]

	pattern, ok := d.find(closes[:len(closes)-1])
	if !ok || latest <= pattern.handleHigh {
		return contracts.Signal{}, false
	}

	confidence := "Medium"
	if pattern.handleDepth < d.cfg.HighConfidenceRatio*pattern.cupDepth {
		confidence = "High"
	}
	shape := clamp01(1 - pattern.handleDepth/(d.cfg.HandleRatio*pattern.cupDepth))

	return contracts.Signal{
		Code:      contracts.CodeCupHandle,
		Direction: contracts.DirectionBuy,
		Price:     latest,
		Score:     clamp01(0.5 + 0.5*shape),
		Attributes: map[string]interface{}{
			"cup_start":      pattern.cupStart,
			"cup_end":        pattern.cupEnd,
			"handle_start":   pattern.handleStart,
			"handle_end":     pattern.handleEnd,
			"cup_depth":      pattern.cupDepth,
			"handle_depth":   pattern.handleDepth,
			"cup_low":        pattern.cupLow,
			"breakout_level": pattern.handleHigh,
			"confidence":     confidence,
		},
	}, true
}

func (d *CupHandleDetector) find(closes []float64) (cupHandle, bool) {
	n := len(closes)
	for start := 0; start+d.cfg.CupLength < n; start++ {
		end := start + d.cfg.CupLength
		cup := closes[start:end]

		rimStart, rimEnd := cup[0], cup[len(cup)-1]
		low := minOf(cup)
		depth := math.Max(rimStart, rimEnd) - low

		if rimStart <= 0 || depth < d.cfg.MinDepthPct*rimStart {
			continue
		}
		if math.Abs(rimStart-rimEnd) > d.cfg.RimTolerancePct*rimStart {
			continue
		}

		handleLen := min(d.cfg.MaxHandleBars, n-end)
		if handleLen < d.cfg.MinHandleBars {
			continue
		}
		handle := closes[end : end+handleLen]
		high, hLow := maxOf(handle), minOf(handle)
		if high-hLow > d.cfg.HandleRatio*depth {
			continue
		}

		return cupHandle{
			cupStart:    start,
			cupEnd:      end,
			handleStart: end,
			handleEnd:   end + handleLen,
			cupDepth:    depth,
			cupLow:      low,
			handleDepth: high - hLow,
			handleHigh:  high,
		}, true
	}
	return cupHandle{}, false
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = math.Max(m, v)
	}
	return m
}
