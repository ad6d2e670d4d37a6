package live

import (
	"errors"
	"strings"
	"time"

	"cryptopulse/internal/domain"

	"github.com/tidwall/gjson"
)

var ErrMalformedMessage = errors.New("malformed live message")

// Subscription is the client→server message sent on open and on every
// selection change.
type Subscription struct {
	Coins []string `json:"coins"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime accepts the ISO-like timestamps the feed emits.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeMessage parses a server→client payload. Scores are read from the
// nested "sentiment" object or, for older servers, from numeric top-level
// keys. An unparseable time keeps the raw string as the label.
func DecodeMessage(data []byte, loc *time.Location) (domain.SentimentPoint, error) {
	if !gjson.ValidBytes(data) {
		return domain.SentimentPoint{}, ErrMalformedMessage
	}
	msg := gjson.ParseBytes(data)
	if !msg.IsObject() {
		return domain.SentimentPoint{}, ErrMalformedMessage
	}
	if loc == nil {
		loc = time.Local
	}

	rawTime := msg.Get("time").String()
	p := domain.SentimentPoint{Sentiment: make(map[string]float64)}
	if t, ok := ParseTime(rawTime); ok {
		p.Time = t
		p.Label = t.In(loc).Format(domain.LiveLabelLayout)
	} else {
		p.Label = rawTime
	}

	scores := msg.Get("sentiment")
	if !scores.IsObject() {
		scores = msg
	}
	scores.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			p.Sentiment[key.String()] = value.Float()
		}
		return true
	})

	if titles := msg.Get("title"); titles.IsObject() {
		p.Title = make(map[string]string)
		titles.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.String {
				p.Title[key.String()] = value.String()
			}
			return true
		})
	}
	return p, nil
}
