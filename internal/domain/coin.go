package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCoin is returned when a coin identifier is outside the universe.
var ErrUnknownCoin = errors.New("unknown coin")

// Coin is one entry of the fixed coin universe.
type Coin struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Color  string `json:"color"`
}

// Coins is the coin universe in display order.
var Coins = []Coin{
	{Name: "Bitcoin", Symbol: "BTC", Color: "#e6194b"},
	{Name: "Ethereum", Symbol: "ETH", Color: "#3cb44b"},
	{Name: "Tether", Symbol: "USDT", Color: "#ffe119"},
	{Name: "XRP", Symbol: "XRP", Color: "#0082c8"},
	{Name: "BNB", Symbol: "BNB", Color: "#f58231"},
	{Name: "Solana", Symbol: "SOL", Color: "#911eb4"},
	{Name: "USD Coin", Symbol: "USDC", Color: "#46f0f0"},
	{Name: "TRON", Symbol: "TRX", Color: "#f032e6"},
	{Name: "Dogecoin", Symbol: "DOGE", Color: "#d2f53c"},
	{Name: "Cardano", Symbol: "ADA", Color: "#fabebe"},
}

// CoinNames lists the wire identifiers of every coin in the universe.
var CoinNames []string

var coinIndex map[string]int

func init() {
	CoinNames = make([]string, len(Coins))
	coinIndex = make(map[string]int, len(Coins)*2)
	for i, c := range Coins {
		CoinNames[i] = c.Name
		coinIndex[strings.ToLower(c.Name)] = i
		coinIndex[strings.ToLower(c.Symbol)] = i
	}
}

// LookupCoin resolves a name or symbol, case-insensitively.
func LookupCoin(id string) (Coin, bool) {
	i, ok := coinIndex[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Coin{}, false
	}
	return Coins[i], true
}

// ColorOf returns the chart color of a coin, or a neutral grey.
func ColorOf(name string) string {
	if c, ok := LookupCoin(name); ok {
		return c.Color
	}
	return "#999999"
}

// NormalizeSelection maps every identifier to its canonical name, drops
// duplicates and keeps universe order. Any unknown identifier fails the
// whole selection.
func NormalizeSelection(ids []string) ([]string, error) {
	picked := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := coinIndex[strings.ToLower(strings.TrimSpace(id))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCoin, id)
		}
		picked[i] = struct{}{}
	}
	out := make([]string, 0, len(picked))
	for i, c := range Coins {
		if _, ok := picked[i]; ok {
			out = append(out, c.Name)
		}
	}
	return out, nil
}
