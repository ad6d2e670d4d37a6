package advisor

import (
	"reflect"
	"testing"
)

func TestExtractCoins(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"symbol", "What about SOL?", []string{"Solana"}},
		{"name and symbol keep universe order", "Compare eth and bitcoin", []string{"Bitcoin", "Ethereum"}},
		{"duplicates collapse", "BTC btc Bitcoin", []string{"Bitcoin"}},
		{"multi-word name", "is usd coin still pegged?", []string{"USD Coin"}},
		{"none", "What looks good right now?", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCoins(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractCoins(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
