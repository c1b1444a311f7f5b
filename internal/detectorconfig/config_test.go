package detectorconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.EMACross.MinBars)
	assert.Equal(t, 12, cfg.EMACross.Short)
	assert.Equal(t, 26, cfg.EMACross.Long)
	assert.Equal(t, 14, cfg.RSI.Period)
	assert.Equal(t, 30.0, cfg.RSI.Oversold)
	assert.Equal(t, 70.0, cfg.RSI.Overbought)
	assert.Equal(t, 20, cfg.Breakout.Lookback)
	assert.Equal(t, 1.5, cfg.Breakout.VolumeMultiplier)
	assert.Equal(t, 0.95, cfg.Breakout.CloseToHigh)
	assert.Equal(t, 25, cfg.CupHandle.MinBars())
	assert.NoError(t, Validate(cfg))
}

func TestWeights_ForCategory(t *testing.T) {
	w := Default().Weights

	tests := []struct {
		category contracts.Category
		want     float64
	}{
		{contracts.CategoryFormula, 1.0},
		{contracts.CategoryPattern, 1.5},
		{contracts.CategorySentiment, 1.2},
		{contracts.Category("MACRO"), 1.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, w.ForCategory(tt.category))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantErr   bool
		wantField string
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name: "partial override keeps defaults",
			yaml: "rsi:\n  oversold: 25\nweights:\n  pattern: 2.0\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 25.0, cfg.RSI.Oversold)
				assert.Equal(t, 70.0, cfg.RSI.Overbought)
				assert.Equal(t, 2.0, cfg.Weights.Pattern)
				assert.Equal(t, 26, cfg.EMACross.Long)
			},
		},
		{
			name: "disabled detectors",
			yaml: "disabled: [cup_handle]\n",
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsDisabled("cup_handle"))
				assert.False(t, cfg.IsDisabled("rsi"))
			},
		},
		{
			name:    "unknown field rejected",
			yaml:    "rsi:\n  oversould: 25\n",
			wantErr: true,
		},
		{
			name:      "overbought below oversold",
			yaml:      "rsi:\n  oversold: 60\n  overbought: 50\n",
			wantErr:   true,
			wantField: "RSI.Overbought",
		},
		{
			name:      "long not above short",
			yaml:      "ema_cross:\n  short: 30\n  long: 26\n",
			wantErr:   true,
			wantField: "EMACross.Long",
		},
		{
			name:      "unknown detector name",
			yaml:      "disabled: [macd]\n",
			wantErr:   true,
			wantField: "Disabled[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantField != "" {
					var ve ValidationError
					require.True(t, errors.As(err, &ve))
					assert.Equal(t, tt.wantField, ve.Field)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "detectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("breakout:\n  volume_multiplier: 2.0\n"), 0o644))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Breakout.VolumeMultiplier)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, _ := Hash(Default())
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.RSI.Oversold = 25
	c, _ := Hash(changed)
	assert.NotEqual(t, a, c)
}
