package mockdata

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"cryptopulse/internal/domain"
)

var base = time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)

func TestGenerateThirtyMinutesFiveMinuteStep(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewPCG(1, 2))))

	points := g.Generate(base, base.Add(30*time.Minute), 5*time.Minute, []string{"Bitcoin"})
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	for i, p := range points {
		want := base.Add(time.Duration(i) * 5 * time.Minute)
		if !p.Time.Equal(want) {
			t.Fatalf("point %d: expected %v, got %v", i, want, p.Time)
		}
		v, ok := p.Score("Bitcoin")
		if !ok {
			t.Fatalf("point %d has no Bitcoin score", i)
		}
		if v < -1 || v > 1 {
			t.Fatalf("point %d score out of range: %v", i, v)
		}
	}
	if points[0].Label != "21-April-2025 15:00" {
		t.Fatalf("unexpected label: %s", points[0].Label)
	}
}

func TestGenerateSpacingAndBounds(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewPCG(7, 7))))
	coins := domain.CoinNames

	for _, tc := range []struct {
		span     time.Duration
		interval time.Duration
		want     int
	}{
		{span: 2 * time.Hour, interval: 5 * time.Minute, want: 25},
		{span: 59 * time.Minute, interval: 15 * time.Minute, want: 4},
		{span: 0, interval: time.Minute, want: 1},
	} {
		points := g.Generate(base, base.Add(tc.span), tc.interval, coins)
		if len(points) != tc.want {
			t.Fatalf("span %v/%v: expected %d points, got %d", tc.span, tc.interval, tc.want, len(points))
		}
		for i := 1; i < len(points); i++ {
			if d := points[i].Time.Sub(points[i-1].Time); d != tc.interval {
				t.Fatalf("expected spacing %v, got %v", tc.interval, d)
			}
		}
		for _, p := range points {
			if len(p.Sentiment) != len(coins) {
				t.Fatalf("expected %d scores, got %d", len(coins), len(p.Sentiment))
			}
			for coin, v := range p.Sentiment {
				if v < -1 || v > 1 {
					t.Fatalf("%s score out of range: %v", coin, v)
				}
				if math.Abs(v*100-math.Round(v*100)) > 1e-9 {
					t.Fatalf("%s score not rounded to two decimals: %v", coin, v)
				}
			}
		}
	}
}

func TestGenerateEmptyCoinsAndReversedRange(t *testing.T) {
	g := New()

	points := g.Generate(base, base.Add(10*time.Minute), 5*time.Minute, nil)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for _, p := range points {
		if len(p.Sentiment) != 0 {
			t.Fatalf("expected no scores, got %v", p.Sentiment)
		}
	}

	if got := g.Generate(base, base.Add(-time.Minute), 5*time.Minute, []string{"Bitcoin"}); len(got) != 0 {
		t.Fatalf("expected no points for reversed range, got %d", len(got))
	}
}

func TestGenerateNonPositiveIntervalUsesDefault(t *testing.T) {
	g := New()
	points := g.Generate(base, base.Add(10*time.Minute), 0, []string{"Bitcoin"})
	if len(points) != 3 {
		t.Fatalf("expected default 5m spacing (3 points), got %d", len(points))
	}
}

func TestGenerateWithTitles(t *testing.T) {
	g := New(WithTitles())
	p := g.Point(base, []string{"Solana"})
	if p.Title["Solana"] == "" {
		t.Fatalf("expected a title for Solana: %+v", p)
	}
}

func TestSourceFetch(t *testing.T) {
	src := NewSource(New(), 5*time.Minute)
	points, err := src.Fetch(context.Background(), domain.TimeRange{Start: base, End: base.Add(30 * time.Minute)}, []string{"Bitcoin", "Ethereum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Fetch(ctx, domain.TimeRange{Start: base, End: base}, nil); err == nil {
		t.Fatal("expected context error")
	}
}
