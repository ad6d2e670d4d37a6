package tui

import (
	"strings"
	"testing"
	"time"

	"cryptopulse/internal/domain"
)

func series(scores ...float64) []domain.SentimentPoint {
	base := time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)
	out := make([]domain.SentimentPoint, len(scores))
	for i, v := range scores {
		t := base.Add(time.Duration(i) * 5 * time.Minute)
		out[i] = domain.SentimentPoint{
			Time:      t,
			Label:     t.Format(domain.HistoricalLabelLayout),
			Sentiment: map[string]float64{"Bitcoin": v},
		}
	}
	return out
}

func TestRowFor(t *testing.T) {
	if got := rowFor(1, 11); got != 0 {
		t.Fatalf("expected +1 on the top row, got %d", got)
	}
	if got := rowFor(-1, 11); got != 10 {
		t.Fatalf("expected -1 on the bottom row, got %d", got)
	}
	if got := rowFor(0, 11); got != 5 {
		t.Fatalf("expected 0 in the middle, got %d", got)
	}
	if got := rowFor(3, 11); got != 0 {
		t.Fatalf("expected out-of-range scores to clamp, got %d", got)
	}
}

func TestPlotInterpolatesEveryColumn(t *testing.T) {
	grid := plot(series(1, -1), []string{"Bitcoin"}, 11, 11)

	if grid[0][0] != 0 {
		t.Fatal("expected first sample top-left")
	}
	if grid[10][10] != 0 {
		t.Fatal("expected last sample bottom-right")
	}
	for c := 0; c < 11; c++ {
		marked := false
		for r := 0; r < 11; r++ {
			if grid[r][c] == 0 {
				marked = true
			}
		}
		if !marked {
			t.Fatalf("expected column %d to be drawn", c)
		}
	}
}

func TestPlotSkipsCoinsWithoutScores(t *testing.T) {
	grid := plot(series(0.5, 0.5), []string{"Ethereum"}, 10, 5)
	for _, row := range grid {
		for _, cell := range row {
			if cell != emptyCell {
				t.Fatal("expected empty grid for a coin the series lacks")
			}
		}
	}
}

func TestRenderChartLabelsAndLegend(t *testing.T) {
	out := RenderChart(series(0.1, 0.2, 0.3), []string{"Bitcoin"}, 80, 9)
	if !strings.Contains(out, "21-April-2025 15:00") || !strings.Contains(out, "21-April-2025 15:10") {
		t.Fatalf("expected first and last labels, got:\n%s", out)
	}
	if !strings.Contains(out, "Bitcoin") {
		t.Fatal("expected legend entry")
	}
	if !strings.Contains(out, "1.0") || !strings.Contains(out, "-1.0") {
		t.Fatal("expected axis bounds")
	}

	if empty := RenderChart(nil, []string{"Bitcoin"}, 10, 2); !strings.Contains(empty, "no data") {
		t.Fatalf("expected placeholder for empty series, got:\n%s", empty)
	}
}
