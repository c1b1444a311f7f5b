package s2_signals

import (
	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/internal/detectorconfig"
)

// RSIDetector fires on oversold (BUY) or overbought (SELL) RSI readings
type RSIDetector struct {
	cfg detectorconfig.RSIConfig
}

// NewRSIDetector creates a new RSI threshold detector
func NewRSIDetector(cfg detectorconfig.RSIConfig) *RSIDetector {
	return &RSIDetector{cfg: cfg}
}

func (d *RSIDetector) Name() string { return "rsi" }

func (d *RSIDetector) Codes() []contracts.InsightCode {
	return []contracts.InsightCode{contracts.CodeRSIOversold, contracts.CodeRSIOverbought}
}

func (d *RSIDetector) MinBars() int { return d.cfg.MinBars }

// Detect reads the latest RSI value only
func (d *RSIDetector) Detect(window contracts.CandleSeries, symbol string) (contracts.Signal, bool) {
	if window.Len() < d.cfg.MinBars {
		return contracts.Signal{}, false
	}

	rsi, ok := rsiLatest(window.Closes(), d.cfg.Period)
	if !ok {
		return contracts.Signal{}, false
	}

	sig := contracts.Signal{
		Price: latestClose(window),
		Attributes: map[string]interface{}{
			"rsi_value": rsi,
		},
	}

	switch {
	case rsi < d.cfg.Oversold:
		sig.Code = contracts.CodeRSIOversold
		sig.Direction = contracts.DirectionBuy
		sig.Score = clamp01((d.cfg.Oversold - rsi) / d.cfg.Oversold)
		sig.Attributes["threshold"] = d.cfg.Oversold
		sig.Attributes["condition"] = "oversold"
	case rsi > d.cfg.Overbought:
		sig.Code = contracts.CodeRSIOverbought
		sig.Direction = contracts.DirectionSell
		sig.Score = clamp01((rsi - d.cfg.Overbought) / (100 - d.cfg.Overbought))
		sig.Attributes["threshold"] = d.cfg.Overbought
		sig.Attributes["condition"] = "overbought"
	default:
		return contracts.Signal{}, false
	}

	return sig, true
}
