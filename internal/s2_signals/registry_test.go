package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

func TestNewDefaultRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(defaultCfg())
	require.NoError(t, err)

	names := []string{}
	for _, d := range reg.Detectors() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"ema_cross", "rsi", "breakout", "cup_handle"}, names)

	tests := []struct {
		code contracts.InsightCode
		want string
	}{
		{contracts.CodeEMACross, "ema_cross"},
		{contracts.CodeRSIOversold, "rsi"},
		{contracts.CodeRSIOverbought, "rsi"},
		{contracts.CodeBreakout, "breakout"},
		{contracts.CodeCupHandle, "cup_handle"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			d, ok := reg.Lookup(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, ok := reg.Lookup("MACD_CROSS")
	assert.False(t, ok)
	assert.Len(t, reg.Codes(), 5)
}

func TestNewDefaultRegistry_Disabled(t *testing.T) {
	cfg := defaultCfg()
	cfg.Disabled = []string{"cup_handle", "rsi"}

	reg, err := NewDefaultRegistry(cfg)
	require.NoError(t, err)
	assert.Len(t, reg.Detectors(), 2)

	_, ok := reg.Lookup(contracts.CodeRSIOversold)
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubDetector{name: "a", codes: []contracts.InsightCode{"X"}}))

	err := reg.Register(&stubDetector{name: "b", codes: []contracts.InsightCode{"Y", "X"}})
	assert.Error(t, err)
	_, ok := reg.Lookup("Y")
	assert.False(t, ok, "failed registration must not leave partial entries")

	assert.Error(t, reg.Register(&stubDetector{name: "c"}))
	assert.Len(t, reg.Detectors(), 1)
}
