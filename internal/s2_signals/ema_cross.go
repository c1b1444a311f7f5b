package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// EMACrossDetector fires when the short EMA crosses the long EMA on the latest bar
type EMACrossDetector struct {
	cfg detectorconfig.EMACrossConfig
}

// NewEMACrossDetector creates a new EMA crossover detector
func NewEMACrossDetector(cfg detectorconfig.EMACrossConfig) *EMACrossDetector {
	return &EMACrossDetector{cfg: cfg}
}

func (d *EMACrossDetector) Name() string { return "ema_cross" }

func (d *EMACrossDetector) Codes() []contracts.InsightCode {
	return []contracts.InsightCode{contracts.CodeEMACross}
}

func (d *EMACrossDetector) MinBars() int { return d.cfg.MinBars }

// Detect compares the two most recent EMA pairs only
func (d *EMACrossDetector) Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool) {
	if window.Len() < d.cfg.MinBars {
		return contracts.Signal{}, false
	}

	closes := window.Closes()
	prevShort, currShort, ok := emaTail(closes, d.cfg.Short)
	if !ok {
		return contracts.Signal{}, false
	}
	prevLong, currLong, ok := emaTail(closes, d.cfg.Long)
	if !ok || currLong <= 0 {
		return contracts.Signal{}, false
	}

	var (
		direction contracts.Direction
		crossover string
		gap       float64
	)
	switch {
	case prevShort <= prevLong && currShort > currLong:
		direction, crossover = contracts.DirectionBuy, "bullish"
		gap = (currShort - currLong) / currLong
	case prevShort >= prevLong && currShort < currLong:
		direction, crossover = contracts.DirectionSell, "bearish"
		gap = (currLong - currShort) / currLong
	default:
		return contracts.Signal{}, false
	}

	return contracts.Signal{
		Code:      contracts.CodeEMACross,
		Direction: direction,
		Price:     latestClose(window),
		Score:     clamp01(gap * d.cfg.ScoreScale),
		Attributes: map[string]interface{}{
			fmt.Sprintf("ema_%d", d.cfg.Short): currShort,
			fmt.Sprintf("ema_%d", d.cfg.Long):  currLong,
			"crossover_type":                   crossover,
			"distance_pct":                     math.Abs(currShort-currLong) / currLong * 100,
		},
	}, true
}
