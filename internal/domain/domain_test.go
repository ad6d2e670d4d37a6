package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLookupCoinByNameOrSymbol(t *testing.T) {
	c, ok := LookupCoin("btc")
	if !ok || c.Name != "Bitcoin" {
		t.Fatalf("expected Bitcoin, got %+v ok=%v", c, ok)
	}
	c, ok = LookupCoin(" usd coin ")
	if !ok || c.Symbol != "USDC" {
		t.Fatalf("expected USDC, got %+v ok=%v", c, ok)
	}
	if _, ok := LookupCoin("FAKE"); ok {
		t.Fatal("expected unknown coin")
	}
}

func TestNormalizeSelection(t *testing.T) {
	got, err := NormalizeSelection([]string{"Cardano", "BTC", "bitcoin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Bitcoin" || got[1] != "Cardano" {
		t.Fatalf("unexpected selection: %v", got)
	}

	if _, err := NormalizeSelection([]string{"Bitcoin", "Nope"}); !errors.Is(err, ErrUnknownCoin) {
		t.Fatalf("expected ErrUnknownCoin, got %v", err)
	}

	empty, err := NormalizeSelection(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty selection, got %v %v", empty, err)
	}
}

func TestCoinNamesMatchUniverse(t *testing.T) {
	if len(CoinNames) != 10 || CoinNames[0] != "Bitcoin" || CoinNames[9] != "Cardano" {
		t.Fatalf("unexpected coin names: %v", CoinNames)
	}
}

func TestTimeRange(t *testing.T) {
	start := time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)
	r := TimeRange{Start: start, End: start.Add(30 * time.Minute)}
	if !r.Valid() || r.Span() != 30*time.Minute {
		t.Fatalf("unexpected range: %+v", r)
	}
	if (TimeRange{Start: start, End: start.Add(-time.Minute)}).Valid() {
		t.Fatal("expected reversed range to be invalid")
	}
}

func TestPointCloneIsDeep(t *testing.T) {
	p := SentimentPoint{Sentiment: map[string]float64{"Bitcoin": 0.5}, Title: map[string]string{"Bitcoin": "x"}}
	c := p.Clone()
	c.Sentiment["Bitcoin"] = -1
	c.Title["Bitcoin"] = "y"
	if p.Sentiment["Bitcoin"] != 0.5 || p.Title["Bitcoin"] != "x" {
		t.Fatalf("clone shares maps with original: %+v", p)
	}
}

func TestDescribeScore(t *testing.T) {
	if got := DescribeScore("Bitcoin", 0.75); got != "Bitcoin chatter is strongly bullish (0.75)" {
		t.Fatalf("unexpected description: %s", got)
	}
	if got := DescribeScore("Solana", -0.3); got != "Solana chatter is mildly bearish (-0.30)" {
		t.Fatalf("unexpected description: %s", got)
	}
}

func TestClampScore(t *testing.T) {
	if ClampScore(2) != 1 || ClampScore(-3) != -1 || ClampScore(0.25) != 0.25 {
		t.Fatal("clamp out of bounds")
	}
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)
	points := []SentimentPoint{
		{Time: t0, Sentiment: map[string]float64{"Bitcoin": 0.5}},
		{Time: t0.Add(time.Minute), Sentiment: map[string]float64{"Ethereum": 0.9}},
		{Time: t0.Add(2 * time.Minute), Sentiment: map[string]float64{"Bitcoin": -0.3}},
	}
	s := Summarize("Bitcoin", points)
	if s.Points != 2 || s.Min != -0.3 || s.Max != 0.5 || s.Mean != 0.1 || s.Latest != -0.3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if !s.LatestAt.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("unexpected latest time: %v", s.LatestAt)
	}
	if empty := Summarize("Solana", points); empty.Points != 0 || empty.Mean != 0 {
		t.Fatalf("expected empty summary, got %+v", empty)
	}
}

func TestAlertMatches(t *testing.T) {
	above := AlertSubscription{Threshold: 0.5, Direction: AlertAbove}
	below := AlertSubscription{Threshold: -0.2, Direction: AlertBelow}
	unset := AlertSubscription{Threshold: 0.5}

	cases := []struct {
		alert AlertSubscription
		score float64
		want  bool
	}{
		{above, 0.5, true},
		{above, 0.49, false},
		{below, -0.2, true},
		{below, 0, false},
		{unset, 0.7, true},
	}
	for _, tc := range cases {
		if got := tc.alert.Matches(tc.score); got != tc.want {
			t.Fatalf("%s %+.2f at %+.2f: expected %v", tc.alert.Direction, tc.alert.Threshold, tc.score, tc.want)
		}
	}
}
