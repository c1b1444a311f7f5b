package detectorconfig

import "github.com/wonny/insight/internal/contracts"

// Config holds every detector threshold and the aggregation weights
// ⭐ SSOT: 디텍터 임계값은 여기서만 정의
type Config struct {
	EMACross  EMACrossConfig  `yaml:"ema_cross" json:"ema_cross"`
	RSI       RSIConfig       `yaml:"rsi" json:"rsi"`
	Breakout  BreakoutConfig  `yaml:"breakout" json:"breakout"`
	CupHandle CupHandleConfig `yaml:"cup_handle" json:"cup_handle"`
	Weights   WeightConfig    `yaml:"weights" json:"weights"`

	// Disabled lists detector names excluded from the registry
	Disabled []string `yaml:"disabled" json:"disabled" validate:"dive,oneof=ema_cross rsi breakout cup_handle"`
}

// EMACrossConfig configures the EMA crossover detector
type EMACrossConfig struct {
	MinBars    int     `yaml:"min_bars" json:"min_bars" default:"50" validate:"gtfield=Long"`
	Short      int     `yaml:"short" json:"short" default:"12" validate:"gte=2"`
	Long       int     `yaml:"long" json:"long" default:"26" validate:"gtfield=Short"`
	ScoreScale float64 `yaml:"score_scale" json:"score_scale" default:"10" validate:"gt=0"`
}

// RSIConfig configures the RSI threshold detector
type RSIConfig struct {
	MinBars    int     `yaml:"min_bars" json:"min_bars" default:"14" validate:"gte=2"`
	Period     int     `yaml:"period" json:"period" default:"14" validate:"gte=2"`
	Oversold   float64 `yaml:"oversold" json:"oversold" default:"30" validate:"gt=0,lt=100"`
	Overbought float64 `yaml:"overbought" json:"overbought" default:"70" validate:"gtfield=Oversold,lt=100"`
}

// BreakoutConfig configures the resistance breakout detector
type BreakoutConfig struct {
	MinBars            int     `yaml:"min_bars" json:"min_bars" default:"20" validate:"gtefield=Lookback"`
	Lookback           int     `yaml:"lookback" json:"lookback" default:"20" validate:"gte=2"`
	VolumeMultiplier   float64 `yaml:"volume_multiplier" json:"volume_multiplier" default:"1.5" validate:"gt=0"`
	CloseToHigh        float64 `yaml:"close_to_high" json:"close_to_high" default:"0.95" validate:"gt=0,lte=1"`
	StrengthCapPct     float64 `yaml:"strength_cap_pct" json:"strength_cap_pct" default:"5" validate:"gt=0"`
	VolumeScoreDivisor float64 `yaml:"volume_score_divisor" json:"volume_score_divisor" default:"3" validate:"gt=0"`
}

// CupHandleConfig configures the cup-and-handle detector
type CupHandleConfig struct {
	CupLength           int     `yaml:"cup_length" json:"cup_length" default:"20" validate:"gte=5"`
	MinDepthPct         float64 `yaml:"min_depth_pct" json:"min_depth_pct" default:"0.10" validate:"gt=0,lt=1"`
	RimTolerancePct     float64 `yaml:"rim_tolerance_pct" json:"rim_tolerance_pct" default:"0.05" validate:"gte=0,lt=1"`
	MaxHandleBars       int     `yaml:"max_handle_bars" json:"max_handle_bars" default:"10" validate:"gtefield=MinHandleBars"`
	MinHandleBars       int     `yaml:"min_handle_bars" json:"min_handle_bars" default:"3" validate:"gte=1"`
	HandleRatio         float64 `yaml:"handle_ratio" json:"handle_ratio" default:"0.30" validate:"gt=0,lte=1"`
	HighConfidenceRatio float64 `yaml:"high_confidence_ratio" json:"high_confidence_ratio" default:"0.15" validate:"gt=0,ltefield=HandleRatio"`
}

// MinBars is the shortest window the detector inspects
func (c CupHandleConfig) MinBars() int {
	return c.CupLength + 5
}

// WeightConfig holds per-category aggregation weights
type WeightConfig struct {
	Formula   float64 `yaml:"formula" json:"formula" default:"1.0" validate:"gt=0"`
	Pattern   float64 `yaml:"pattern" json:"pattern" default:"1.5" validate:"gt=0"`
	Sentiment float64 `yaml:"sentiment" json:"sentiment" default:"1.2" validate:"gt=0"`
	Default   float64 `yaml:"default" json:"default" default:"1.0" validate:"gt=0"`
}

// ForCategory returns the weight for a category, Default for unknown ones
func (w WeightConfig) ForCategory(c contracts.Category) float64 {
	switch c {
	case contracts.CategoryFormula:
		return w.Formula
	case contracts.CategoryPattern:
		return w.Pattern
	case contracts.CategorySentiment:
		return w.Sentiment
	default:
		return w.Default
	}
}

// IsDisabled reports whether a detector name is switched off
func (c *Config) IsDisabled(name string) bool {
	for _, d := range c.Disabled {
		if d == name {
			return true
		}
	}
	return false
}
