package handler

import (
	"errors"
	"log"
	"net/http"

	"cryptopulse/internal/service"

	"github.com/gin-gonic/gin"
)

// GoogleSignInRequest is the body of POST /api/auth/google.
type GoogleSignInRequest struct {
	IDToken string `json:"idToken"`
}

// GoogleSignIn godoc
// @Summary      Sign in with Google
// @Description  Verifies a Google ID token, records the user and issues a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  GoogleSignInRequest  true  "Google ID token"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Router       /api/auth/google [post]
func (h *Handler) GoogleSignIn(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.google-sign-in")
	defer span.End()

	var req GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	result, err := h.auth.SignInWithGoogle(ctx, req.IDToken)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No ID token provided"})
		return
	case errors.Is(err, service.ErrUnauthorized):
		log.Printf("google sign-in rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication failed"})
		return
	default:
		span.RecordError(err)
		log.Printf("google sign-in failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User authenticated successfully",
		"user":    result.User.Public(),
		"token":   result.Token,
	})
}

// GetProfile godoc
// @Summary      Current user profile
// @Description  Resolves the bearer token to the signed-in user
// @Tags         auth
// @Produce      json
// @Param        Authorization  header  string  true  "Bearer token"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /api/users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-profile")
	defer span.End()

	user, ok := h.currentUser(ctx, c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Public()})
}
