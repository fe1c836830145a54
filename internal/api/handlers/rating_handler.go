package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/api/dto"
)

// RateRide handles POST /v1/rides/:id/rating
func (h *Handlers) RateRide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	var req dto.RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	rt, err := h.Rides.Rate(c.Request.Context(), id, authFrom(c), req.Value, req.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse{
		Message: "Rating recorded",
		Data:    gin.H{"id": rt.ID, "value": rt.Value},
	})
}
