package s2_signals

import (
	"fmt"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// Registry maps insight codes to the detector that produces them.
// It is built once at startup and read-only afterwards.
// ⭐ SSOT: 디텍터 등록은 여기서만
type Registry struct {
	byCode    map[contracts.InsightCode]Detector
	detectors []Detector
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byCode: make(map[contracts.InsightCode]Detector)}
}

// Register adds a detector under each of its codes
func (r *Registry) Register(d Detector) error {
	codes := d.Codes()
	if len(codes) == 0 {
		return fmt.Errorf("detector %s declares no insight codes", d.Name())
	}
	for _, code := range codes {
		if existing, ok := r.byCode[code]; ok {
			return fmt.Errorf("insight code %s already registered by %s", code, existing.Name())
		}
	}
	for _, code := range codes {
		r.byCode[code] = d
	}
	r.detectors = append(r.detectors, d)
	return nil
}

// Lookup returns the detector responsible for a code
func (r *Registry) Lookup(code contracts.InsightCode) (Detector, bool) {
	d, ok := r.byCode[code]
	return d, ok
}

// Detectors returns each registered detector once, in registration order
func (r *Registry) Detectors() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Codes returns every registered insight code
func (r *Registry) Codes() []contracts.InsightCode {
	var out []contracts.InsightCode
	for _, d := range r.detectors {
		out = append(out, d.Codes()...)
	}
	return out
}

// NewDefaultRegistry registers the built-in detectors not disabled in cfg
func NewDefaultRegistry(cfg *detectorconfig.Config) (*Registry, error) {
	reg := NewRegistry()
	all := []Detector{
		NewEMACrossDetector(cfg.EMACross),
		NewRSIDetector(cfg.RSI),
		NewBreakoutDetector(cfg.Breakout),
		NewCupHandleDetector(cfg.CupHandle),
	}
	for _, d := range all {
		if cfg.IsDisabled(d.Name()) {
			continue
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
