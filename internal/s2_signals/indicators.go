package s2_signals

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Indicator helpers wrap go-talib and report validity explicitly.
// talib fills the lookback region with zeros and indexes out of range on
// short input, so every helper checks length before calling it.

// emaTail returns the last two EMA values of closes
func emaTail(closes []float64, period int) (prev, curr float64, ok bool) {
	n := len(closes)
	if period < 2 || n < period+1 {
		return 0, 0, false
	}
	ema := talib.Ema(closes, period)
	prev, curr = ema[n-2], ema[n-1]
	return prev, curr, finite(prev, curr)
}

// rsiLatest returns the latest Wilder RSI of closes.
// The value is indeterminate when the window never declines (average loss is zero).
func rsiLatest(closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period < 2 || n < period+1 {
		return 0, false
	}
	if !hasDecline(closes) {
		return 0, false
	}
	rsi := talib.Rsi(closes, period)
	v := rsi[n-1]
	if !finite(v) || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// rollingMaxAt returns max(values[i-period+1..i])
func rollingMaxAt(values []float64, period, i int) (float64, bool) {
	if period < 1 || i < period-1 || i >= len(values) {
		return 0, false
	}
	v := talib.Max(values[:i+1], period)[i]
	return v, finite(v)
}

// rollingMeanAt returns mean(values[i-period+1..i])
func rollingMeanAt(values []float64, period, i int) (float64, bool) {
	if period < 1 || i < period-1 || i >= len(values) {
		return 0, false
	}
	v := talib.Sma(values[:i+1], period)[i]
	return v, finite(v)
}

func hasDecline(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return true
		}
	}
	return false
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
