package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateAlertRequest is the body of POST /api/alerts.
type CreateAlertRequest struct {
	Coin           string  `json:"coin" binding:"required"`
	Threshold      float64 `json:"threshold"`
	Direction      string  `json:"direction"`
	Email          string  `json:"email"`
	TelegramChatID int64   `json:"telegramChatId"`
}

// currentUser resolves the bearer token or writes a 401.
func (h *Handler) currentUser(ctx context.Context, c *gin.Context) (*domain.UserProfile, bool) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No authorization token provided"})
		return nil, false
	}
	user, err := h.auth.Profile(ctx, token)
	if errors.Is(err, service.ErrUnauthorized) || errors.Is(err, service.ErrMissingToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authentication token"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve user profile"})
		return nil, false
	}
	return user, true
}

// ListAlerts godoc
// @Summary      List alert subscriptions
// @Description  Returns the signed-in user's sentiment threshold alerts
// @Tags         alerts
// @Produce      json
// @Param        Authorization  header  string  true  "Bearer token"
// @Success      200  {array}   domain.AlertSubscription
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/alerts [get]
func (h *Handler) ListAlerts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-alerts")
	defer span.End()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}
	alerts, err := h.alerts.List(ctx, user.UID)
	if err != nil {
		span.RecordError(err)
		log.Printf("list alerts for %s: %v", user.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not list alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// CreateAlert godoc
// @Summary      Create an alert subscription
// @Description  Notifies the user when a coin's live score crosses the threshold
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string              true  "Bearer token"
// @Param        request        body    CreateAlertRequest  true  "Alert"
// @Success      201  {object}  domain.AlertSubscription
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/alerts [post]
func (h *Handler) CreateAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-alert")
	defer span.End()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	email := req.Email
	if email == "" {
		email = user.Email
	}

	a, err := h.alerts.Create(ctx, user.UID, domain.AlertSubscription{
		Coin:      req.Coin,
		Threshold: req.Threshold,
		Direction: domain.AlertDirection(req.Direction),
		Email:     email,
		ChatID:    req.TelegramChatID,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidAlert), errors.Is(err, service.ErrTooManyAlerts):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	default:
		span.RecordError(err)
		log.Printf("create alert for %s: %v", user.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "could not create alert"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DeleteAlert godoc
// @Summary      Delete an alert subscription
// @Tags         alerts
// @Param        Authorization  header  string  true  "Bearer token"
// @Param        id             path    string  true  "Alert ID"
// @Success      204
// @Failure      401  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/alerts/{id} [delete]
func (h *Handler) DeleteAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-alert")
	defer span.End()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}
	err := h.alerts.Delete(ctx, user.UID, c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, domain.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "alert not found"})
	default:
		span.RecordError(err)
		log.Printf("delete alert %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
	}
}
