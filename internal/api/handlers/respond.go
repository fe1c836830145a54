package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/service/reservation"
	"github.com/bikepool/bikepool/internal/service/rides"
	"github.com/bikepool/bikepool/pkg/logger"
)

// respondError maps domain errors to HTTP statuses. Unmapped errors are
// logged and reported as 500 without leaking internals.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrRideNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, notification.ErrNotificationNotFound),
		errors.Is(err, user.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, ride.ErrRideFull):
		c.JSON(http.StatusConflict, gin.H{"error": "No seats available on this ride"})

	case errors.Is(err, reservation.ErrHighContention):
		c.JSON(http.StatusConflict, gin.H{"error": "Ride is being booked heavily, please try again"})

	case errors.Is(err, rating.ErrDuplicateRating):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already rated this ride"})

	case errors.Is(err, reservation.ErrNotPassenger),
		errors.Is(err, reservation.ErrGenderPreference),
		errors.Is(err, rides.ErrNotRider),
		errors.Is(err, rides.ErrNotRideOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, reservation.ErrRideCompleted),
		errors.Is(err, rides.ErrRideCompleted),
		errors.Is(err, rides.ErrRideNotCompleted),
		errors.Is(err, ride.ErrRideInPast),
		errors.Is(err, ride.ErrInvalidSeats),
		errors.Is(err, rating.ErrInvalidValue),
		errors.Is(err, user.ErrInvalidGender):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		h.Logger.Error("Unhandled error", logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
