package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/api/dto"
	"github.com/bikepool/bikepool/internal/service/reservation"
)

// ReserveSeat handles POST /v1/rides/:id/bookings
func (h *Handlers) ReserveSeat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	result, err := h.Reservations.Reserve(c.Request.Context(), id, authFrom(c))
	if err != nil {
		if err == reservation.ErrHighContention {
			h.Monitor.RecordHighContention(id.String())
		}
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordSeatReserved(id.String(), result.Attempts)
	h.invalidateOpenRides(c.Request.Context())

	status := http.StatusCreated
	if result.Status == reservation.StatusAlreadyBooked {
		status = http.StatusOK
	}
	c.JSON(status, dto.BookingResponse{
		RideID:   id,
		Status:   string(result.Status),
		Attempts: result.Attempts,
	})
}

// ReleaseSeat handles DELETE /v1/rides/:id/bookings
func (h *Handlers) ReleaseSeat(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	if err := h.Reservations.Release(c.Request.Context(), id, authFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordSeatReleased(id.String())
	h.invalidateOpenRides(c.Request.Context())

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Booking cancelled"})
}
