package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CheckUsername handles GET /api/check_username?username=...
func (h *Handlers) CheckUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter is required"})
		return
	}

	exists, err := h.Users.UsernameExists(c.Request.Context(), username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !exists})
}

// GetProfile handles GET /v1/me
func (h *Handlers) GetProfile(c *gin.Context) {
	auth := authFrom(c)
	u, err := h.Users.GetByID(c.Request.Context(), auth.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
