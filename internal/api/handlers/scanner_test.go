package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insight/internal/contracts"
)

func TestParseScreenedCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []contracts.ScreenedStock
		wantErr string
	}{
		{
			name:  "symbol only",
			input: "Symbol\nINFY\nTCS\n",
			want:  []contracts.ScreenedStock{{Symbol: "INFY"}, {Symbol: "TCS"}},
		},
		{
			name:  "symbol and exchange in any order",
			input: "Exchange,Name,Symbol\nBSE,Infosys,INFY\n,Tata,TCS\n",
			want: []contracts.ScreenedStock{
				{Symbol: "INFY", Exchange: "BSE"},
				{Symbol: "TCS", Exchange: ""},
			},
		},
		{
			name:  "byte order mark and lower-case header",
			input: "\ufeffsymbol\nRELIANCE\n",
			want:  []contracts.ScreenedStock{{Symbol: "RELIANCE"}},
		},
		{
			name:  "short rows are skipped",
			input: "Name,Symbol\nonly-name\nTata,TCS\n",
			want:  []contracts.ScreenedStock{{Symbol: "TCS"}},
		},
		{name: "missing symbol column", input: "Ticker\nINFY\n", wantErr: "CSV must have 'Symbol' column"},
		{name: "empty", input: "", wantErr: "CSV is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScreenedCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
