package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/services"
)

type AuthHandler struct {
	jwtService *services.JWTService
	env        string
}

func NewAuthHandler(jwtService *services.JWTService, env string) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, env: env}
}

// IssueToken hands out a principal token. Development convenience only;
// in production principals come from the real identity provider and
// this endpoint is disabled.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	if h.env == "production" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not available"})
		return
	}

	principal := c.Query("principal")
	if principal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "principal query parameter required"})
		return
	}

	token, err := h.jwtService.IssueToken(principal, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"principal": principal,
	})
}
