package tui

import (
	"strings"

	"cryptopulse/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// coinPicker is a one-row checkbox group over the coin universe.
type coinPicker struct {
	cursor int
}

// update moves the cursor or returns the new selection when it changed.
func (p *coinPicker) update(msg tea.KeyMsg, selected []string) ([]string, bool) {
	switch {
	case key.Matches(msg, keys.Left):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Right):
		if p.cursor < len(domain.Coins)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		return toggle(selected, domain.Coins[p.cursor].Name), true
	case key.Matches(msg, keys.All):
		if len(selected) == len(domain.Coins) {
			return []string{}, true
		}
		return append([]string(nil), domain.CoinNames...), true
	}
	return selected, false
}

func toggle(selected []string, coin string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, c := range selected {
		if c == coin {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, coin)
	}
	normalized, err := domain.NormalizeSelection(out)
	if err != nil {
		return out
	}
	return normalized
}

func (p coinPicker) view(selected []string) string {
	on := make(map[string]bool, len(selected))
	for _, c := range selected {
		on[c] = true
	}
	parts := make([]string, len(domain.Coins))
	for i, c := range domain.Coins {
		box := "[ ]"
		if on[c.Name] {
			box = "[x]"
		}
		label := box + " " + coinStyle(c.Name).Render(c.Symbol)
		if i == p.cursor {
			label = cursorStyle.Render(box) + " " + coinStyle(c.Name).Render(c.Symbol)
		}
		parts[i] = label
	}
	return strings.Join(parts, "  ")
}
