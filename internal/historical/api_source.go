package historical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptopulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SentimentRequest is the body of POST /api/sentiment.
type SentimentRequest struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Coins     []string `json:"coins"`
}

// SentimentResponse is the body returned by POST /api/sentiment.
type SentimentResponse struct {
	Points []domain.SentimentPoint `json:"points"`
}

// APISource fetches the series from the backend sentiment endpoint.
type APISource struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewAPISource(tracer trace.Tracer, baseURL string) *APISource {
	return &APISource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

func (s *APISource) Fetch(ctx context.Context, r domain.TimeRange, coins []string) ([]domain.SentimentPoint, error) {
	ctx, span := s.tracer.Start(ctx, "historical.api-fetch")
	defer span.End()
	span.SetAttributes(attribute.Int("coins", len(coins)))

	body, err := json.Marshal(SentimentRequest{
		StartTime: r.Start.UTC().Format(time.RFC3339),
		EndTime:   r.End.UTC().Format(time.RFC3339),
		Coins:     coins,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(s.baseURL, "/") + "/api/sentiment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		switch payload.Code {
		case CodeRangeTooLarge:
			return nil, fmt.Errorf("%w: %s", ErrRangeTooLarge, payload.Error)
		case CodeInvalidRange:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRange, payload.Error)
		case CodeUnknownCoin:
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCoin, payload.Error)
		}
		return nil, fmt.Errorf("sentiment API rejected request: %s", payload.Error)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sentiment API error %d: %s", resp.StatusCode, string(raw))
	}

	var out SentimentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sentiment response: %w", err)
	}
	for i := range out.Points {
		if out.Points[i].Label == "" {
			out.Points[i].Label = out.Points[i].Time.Local().Format(domain.HistoricalLabelLayout)
		}
	}
	return out.Points, nil
}
