package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// HistoricalLabelLayout formats point labels on the historical chart.
	HistoricalLabelLayout = "02-January-2006 15:04"
	// LiveLabelLayout formats point labels on the live chart.
	LiveLabelLayout = "02-January 15:04"
)

// SentimentPoint is one sample of the chart: a labeled timestamp, the score
// per coin and an optional human-readable rationale per coin.
type SentimentPoint struct {
	Time      time.Time          `json:"time"`
	Label     string             `json:"label"`
	Sentiment map[string]float64 `json:"sentiment"`
	Title     map[string]string  `json:"title,omitempty"`
}

// Score returns the score for a coin and whether the point carries one.
func (p SentimentPoint) Score(coin string) (float64, bool) {
	v, ok := p.Sentiment[coin]
	return v, ok
}

// Clone returns a deep copy so callers can't mutate shared buffers.
func (p SentimentPoint) Clone() SentimentPoint {
	out := SentimentPoint{Time: p.Time, Label: p.Label}
	if p.Sentiment != nil {
		out.Sentiment = make(map[string]float64, len(p.Sentiment))
		for k, v := range p.Sentiment {
			out.Sentiment[k] = v
		}
	}
	if p.Title != nil {
		out.Title = make(map[string]string, len(p.Title))
		for k, v := range p.Title {
			out.Title[k] = v
		}
	}
	return out
}

// TimeRange is an ordered [Start, End] pair.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Span returns End-Start.
func (r TimeRange) Span() time.Duration {
	return r.End.Sub(r.Start)
}

// Valid reports whether End is not before Start.
func (r TimeRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// ClampScore bounds v to [-1, 1].
func ClampScore(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// DescribeScore produces the short rationale string used in title mappings.
func DescribeScore(coin string, score float64) string {
	var mood string
	switch {
	case score >= 0.6:
		mood = "strongly bullish"
	case score >= 0.2:
		mood = "mildly bullish"
	case score > -0.2:
		mood = "neutral"
	case score > -0.6:
		mood = "mildly bearish"
	default:
		mood = "strongly bearish"
	}
	return fmt.Sprintf("%s chatter is %s (%.2f)", coin, mood, score)
}

// Summary aggregates one coin's scores over a series.
type Summary struct {
	Coin     string    `json:"coin"`
	Points   int       `json:"points"`
	Mean     float64   `json:"mean"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Latest   float64   `json:"latest"`
	LatestAt time.Time `json:"latest_at"`
}

// Summarize skips points without a score for coin.
func Summarize(coin string, points []SentimentPoint) Summary {
	s := Summary{Coin: coin}
	var sum float64
	for _, p := range points {
		v, ok := p.Score(coin)
		if !ok {
			continue
		}
		if s.Points == 0 || v < s.Min {
			s.Min = v
		}
		if s.Points == 0 || v > s.Max {
			s.Max = v
		}
		sum += v
		s.Points++
		s.Latest, s.LatestAt = v, p.Time
	}
	if s.Points > 0 {
		s.Mean = math.Round(sum/float64(s.Points)*100) / 100
	}
	return s
}
