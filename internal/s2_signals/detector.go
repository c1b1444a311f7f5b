package s2_signals

import "github.com/wonny/insight/internal/contracts"

// Detector evaluates one candle window and emits at most one signal.
// Implementations are pure: they never modify the window, never fail, and
// return ok=false for short history, indeterminate indicators, or no condition.
type Detector interface {
	// Name is the stable identifier used in config and logs
	Name() string
	// Codes lists every insight code the detector may emit
	Codes() []contracts.InsightCode
	// MinBars is the shortest window the detector inspects
	MinBars() int
	// Detect evaluates the window ending at its last bar
	Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool)
}

func latestClose(window contracts.CandleSeries) float64 {
	last, _ := window.Last()
	return last.Close.InexactFloat64()
}
