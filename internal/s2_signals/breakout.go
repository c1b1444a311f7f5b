package s2_signals

import (
	"math"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// BreakoutDetector fires when the latest high clears the prior resistance on
// heavy volume with a strong close. It never emits SELL.
type BreakoutDetector struct {
	cfg detectorconfig.BreakoutConfig
}

// NewBreakoutDetector creates a new breakout detector
func NewBreakoutDetector(cfg detectorconfig.BreakoutConfig) *BreakoutDetector {
	return &BreakoutDetector{cfg: cfg}
}

func (d *BreakoutDetector) Name() string { return "breakout" }

func (d *BreakoutDetector) Codes() []contracts.InsightCode {
	return []contracts.InsightCode{contracts.CodeBreakout}
}

func (d *BreakoutDetector) MinBars() int { return d.cfg.MinBars }

// Detect measures the latest bar against resistance built through the bar before it
func (d *BreakoutDetector) Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool) {
	n := window.Len()
	if n < d.cfg.MinBars {
		return contracts.Signal{}, false
	}

	highs := window.Highs()
	volumes := window.Volumes()

	resistance, ok := rollingMaxAt(highs, d.cfg.Lookback, n-2)
	if !ok || resistance <= 0 {
		return contracts.Signal{}, false
	}
	avgVolume, ok := rollingMeanAt(volumes, d.cfg.Lookback, n-1)
	if !ok || avgVolume <= 0 {
		return contracts.Signal{}, false
	}

	latestHigh := highs[n-1]
	closePrice := latestClose(window)
	if latestHigh <= 0 {
		return contracts.Signal{}, false
	}

	volumeMultiplier := volumes[n-1] / avgVolume
	closeToHigh := closePrice / latestHigh

	if latestHigh <= resistance || volumeMultiplier <= d.cfg.VolumeMultiplier || closeToHigh <= d.cfg.CloseToHigh {
		return contracts.Signal{}, false
	}

	strength := math.Min((latestHigh-resistance)/resistance*100, d.cfg.StrengthCapPct)
	score := math.Min(strength/d.cfg.StrengthCapPct+volumeMultiplier/d.cfg.VolumeScoreDivisor, 1)

	return contracts.Signal{
		Code:      contracts.CodeBreakout,
		Direction: contracts.DirectionBuy,
		Price:     closePrice,
		Score:     clamp01(score),
		Attributes: map[string]interface{}{
			"resistance_level":      resistance,
			"breakout_price":        latestHigh,
			"volume_multiplier":     volumeMultiplier,
			"breakout_strength_pct": strength,
			"close_to_high_ratio":   closeToHigh,
		},
	}, true
}
