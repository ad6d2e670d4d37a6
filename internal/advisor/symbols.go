package advisor

import (
	"strings"

	"cryptopulse/internal/domain"
)

// ExtractCoins scans text for coin names or symbols and returns canonical
// names in universe order.
func ExtractCoins(text string) []string {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	found := make(map[string]bool)
	for _, w := range words {
		if c, ok := domain.LookupCoin(w); ok {
			found[c.Name] = true
		}
	}
	// Multi-word names never match a single token.
	for _, c := range domain.Coins {
		if strings.Contains(c.Name, " ") && strings.Contains(lower, strings.ToLower(c.Name)) {
			found[c.Name] = true
		}
	}

	var result []string
	for _, name := range domain.CoinNames {
		if found[name] {
			result = append(result, name)
		}
	}
	return result
}
