package tui

import (
	"fmt"
	"math"
	"strings"

	"cryptopulse/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

const (
	minChartWidth  = 20
	minChartHeight = 5
	axisWidth      = 6
	emptyCell      = -1
)

func colorOf(name string) string {
	return domain.ColorOf(name)
}

// rowFor maps a score in [-1, 1] to a row, 0 being the top.
func rowFor(v float64, height int) int {
	v = domain.ClampScore(v)
	return int(math.Round((1 - v) / 2 * float64(height-1)))
}

// plot rasterizes every coin's series onto a width x height grid. Each cell
// holds the index into coins of the last series drawn through it, or
// emptyCell. Columns between samples are linearly interpolated.
func plot(series []domain.SentimentPoint, coins []string, width, height int) [][]int {
	grid := make([][]int, height)
	for r := range grid {
		grid[r] = make([]int, width)
		for c := range grid[r] {
			grid[r][c] = emptyCell
		}
	}
	n := len(series)
	if n == 0 || width == 0 || height == 0 {
		return grid
	}

	colOf := func(i int) int {
		if n == 1 {
			return 0
		}
		return i * (width - 1) / (n - 1)
	}

	for ci, coin := range coins {
		prevCol, prevVal, havePrev := 0, 0.0, false
		for i, p := range series {
			v, ok := p.Score(coin)
			if !ok {
				havePrev = false
				continue
			}
			col := colOf(i)
			if havePrev && col > prevCol+1 {
				for c := prevCol + 1; c < col; c++ {
					frac := float64(c-prevCol) / float64(col-prevCol)
					grid[rowFor(prevVal+(v-prevVal)*frac, height)][c] = ci
				}
			}
			grid[rowFor(v, height)][col] = ci
			prevCol, prevVal, havePrev = col, v, true
		}
	}
	return grid
}

// RenderChart draws a multi-series line chart with a [-1, 1] axis, the
// first and last labels underneath and a color legend.
func RenderChart(series []domain.SentimentPoint, coins []string, width, height int) string {
	if width < minChartWidth+axisWidth {
		width = minChartWidth + axisWidth
	}
	if height < minChartHeight {
		height = minChartHeight
	}
	plotWidth := width - axisWidth
	grid := plot(series, coins, plotWidth, height)

	styles := make([]lipgloss.Style, len(coins))
	for i, coin := range coins {
		styles[i] = coinStyle(coin)
	}

	var sb strings.Builder
	for r, row := range grid {
		sb.WriteString(dimStyle.Render(axisLabel(r, height)))
		for _, cell := range row {
			if cell == emptyCell {
				if r == rowFor(0, height) {
					sb.WriteString(dimStyle.Render("┈"))
				} else {
					sb.WriteString(" ")
				}
				continue
			}
			sb.WriteString(styles[cell].Render("•"))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat(" ", axisWidth))
	if len(series) > 0 {
		first, last := series[0].Label, series[len(series)-1].Label
		gap := plotWidth - lipgloss.Width(first) - lipgloss.Width(last)
		if len(series) == 1 || gap < 1 {
			sb.WriteString(dimStyle.Render(first))
		} else {
			sb.WriteString(dimStyle.Render(first + strings.Repeat(" ", gap) + last))
		}
	} else {
		sb.WriteString(dimStyle.Render("no data"))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", axisWidth))
	sb.WriteString(legend(coins))
	return sb.String()
}

func axisLabel(row, height int) string {
	switch row {
	case 0:
		return fmt.Sprintf("%5.1f ", 1.0)
	case rowFor(0, height):
		return fmt.Sprintf("%5.1f ", 0.0)
	case height - 1:
		return fmt.Sprintf("%5.1f ", -1.0)
	}
	return strings.Repeat(" ", axisWidth)
}

func legend(coins []string) string {
	parts := make([]string, len(coins))
	for i, coin := range coins {
		parts[i] = coinStyle(coin).Render("• " + coin)
	}
	return strings.Join(parts, "  ")
}
