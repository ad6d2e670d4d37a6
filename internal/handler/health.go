package handler

import (
	"net/http"

	"cryptopulse/internal/domain"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ListCoins godoc
// @Summary      List tracked coins
// @Description  Returns the coin universe with symbols and chart colors
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/coins [get]
func (h *Handler) ListCoins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coins": domain.Coins})
}
