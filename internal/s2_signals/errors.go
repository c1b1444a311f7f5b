package s2_signals

import (
	"errors"
	"fmt"
)

// ErrNoData means the candle source returned an empty window
var ErrNoData = errors.New("no candle data")

// DetectorFault wraps a panic recovered from one detector
type DetectorFault struct {
	Detector string
	Symbol   string
	Cause    interface{}
}

func (e *DetectorFault) Error() string {
	return fmt.Sprintf("detector %s faulted on %s: %v", e.Detector, e.Symbol, e.Cause)
}

// Unwrap exposes the cause when the panic value was an error
func (e *DetectorFault) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
