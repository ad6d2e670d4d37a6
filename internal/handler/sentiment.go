package handler

import (
	"errors"
	"net/http"
	"time"

	"cryptopulse/internal/advisor"
	"cryptopulse/internal/historical"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const codeBadRequest = "bad_request"

// ExplainRequest is the body of POST /api/explain.
type ExplainRequest struct {
	Coin      string `json:"coin"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("startTime must be an RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("endTime must be an RFC3339 timestamp")
	}
	return start, end, nil
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": historical.ErrorCode(err)})
}

// GetSentiment godoc
// @Summary      Historical sentiment series
// @Description  Returns one point per sampling interval in [startTime, endTime] for the selected coins
// @Tags         sentiment
// @Accept       json
// @Produce      json
// @Param        request  body  historical.SentimentRequest  true  "Range and coins"
// @Success      200  {object}  historical.SentimentResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/sentiment [post]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	var req historical.SentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": codeBadRequest})
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeBadRequest})
		return
	}
	span.SetAttributes(attribute.Int("coins", len(req.Coins)))

	points, err := h.sentiment.History(ctx, start, end, req.Coins)
	if historical.IsValidation(err) {
		validationError(c, err)
		return
	}
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, historical.SentimentResponse{Points: points})
}

// Explain godoc
// @Summary      Explain a coin's sentiment
// @Description  Asks the language model why the coin's sentiment was positive or negative over the range
// @Tags         sentiment
// @Accept       json
// @Produce      json
// @Param        request  body  ExplainRequest  true  "Coin and range"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/explain [post]
func (h *Handler) Explain(c *gin.Context) {
	if h.explainer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "explainer unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.explain")
	defer span.End()

	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Coin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coin, startTime and endTime are required", "code": codeBadRequest})
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeBadRequest})
		return
	}
	span.SetAttributes(attribute.String("coin", req.Coin))

	explanation, err := h.explainer.Explain(ctx, req.Coin, start, end)
	switch {
	case err == nil:
	case historical.IsValidation(err):
		validationError(c, err)
		return
	case errors.Is(err, advisor.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	default:
		span.RecordError(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"coin": req.Coin, "explanation": explanation})
}
