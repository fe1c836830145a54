package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bikepool/bikepool/internal/api/dto"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/service/rides"
	"github.com/bikepool/bikepool/pkg/cache"
	"github.com/bikepool/bikepool/pkg/logger"
)

const openRidesCacheKey = "rides:open"

// PostRide handles POST /v1/rides
func (h *Handlers) PostRide(c *gin.Context) {
	var req dto.PostRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	in, err := parsePostInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.Rides.Post(c.Request.Context(), authFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRidePosted(r.SeatsTotal)
	h.invalidateOpenRides(c.Request.Context())

	c.JSON(http.StatusCreated, rideResponse(r, "", time.Now()))
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	r, err := h.RideRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	owner := ""
	if u, err := h.Users.GetByID(c.Request.Context(), r.OwnerID); err == nil {
		owner = u.Username
	}
	c.JSON(http.StatusOK, rideResponse(r, owner, time.Now()))
}

// DeleteRide handles DELETE /v1/rides/:id
func (h *Handlers) DeleteRide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	if err := h.Rides.Delete(c.Request.Context(), id, authFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRideDeleted(id.String(), 0)
	h.invalidateOpenRides(c.Request.Context())

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Ride deleted"})
}

// ListOpenRides handles GET /v1/rides
//
// The full open-ride list is cached in Redis for a short TTL; per-caller
// filtering (own rides, completed, full) happens after the cache read.
func (h *Handlers) ListOpenRides(c *gin.Context) {
	ctx := c.Request.Context()
	auth := authFrom(c)

	all, err := h.openRidesCached(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	booked := make(map[uuid.UUID]bool)
	if mine, err := h.Bookings.ListByPassenger(ctx, auth.UserID); err == nil {
		for _, b := range mine {
			booked[b.RideID] = true
		}
	}

	now := time.Now()
	out := make([]dto.RideResponse, 0)
	for _, r := range all {
		if r.OwnerID == auth.UserID || r.SeatsAvailable <= 0 || r.Completed(now) {
			continue
		}
		if booked[r.ID] || !r.AcceptsPassenger(auth.Gender) {
			continue
		}
		out = append(out, rideResponse(r, "", now))
	}
	c.JSON(http.StatusOK, gin.H{"rides": out})
}

// GetRiderDashboard handles GET /v1/dashboard/rider
func (h *Handlers) GetRiderDashboard(c *gin.Context) {
	dash, err := h.Rides.RiderDashboard(c.Request.Context(), authFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetPassengerDashboard handles GET /v1/dashboard/passenger
func (h *Handlers) GetPassengerDashboard(c *gin.Context) {
	dash, err := h.Rides.PassengerDashboard(c.Request.Context(), authFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handlers) openRidesCached(ctx context.Context) ([]*ride.Ride, error) {
	if cached, err := cache.Get(ctx, h.Redis, openRidesCacheKey); err == nil {
		var out []*ride.Ride
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
		// Corrupt entry, fall through to the database.
		h.invalidateOpenRides(ctx)
	} else if err != redis.Nil {
		h.Logger.Warn("Open-rides cache read failed", logger.Err(err))
	}

	all, err := h.RideRepo.ListOpen(ctx, uuid.Nil, 100)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(all); err == nil {
		if err := cache.SetWithExpiry(ctx, h.Redis, openRidesCacheKey, data, h.Cfg.Cache.TTLOpenRides); err != nil {
			h.Logger.Warn("Open-rides cache write failed", logger.Err(err))
		}
	}
	return all, nil
}

func (h *Handlers) invalidateOpenRides(ctx context.Context) {
	if err := cache.Delete(ctx, h.Redis, openRidesCacheKey); err != nil {
		h.Logger.Warn("Open-rides cache invalidation failed", logger.Err(err))
	}
}

func parsePostInput(req dto.PostRideRequest) (rides.PostInput, error) {
	in := rides.PostInput{
		Source:           req.Source,
		Destination:      req.Destination,
		Seats:            req.Seats,
		GenderPreference: user.Gender(req.GenderPreference),
	}

	date, err := time.Parse("2006-01-02", req.RideDate)
	if err != nil {
		return in, err
	}
	in.RideDate = date

	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return in, err
	}
	in.StartTime = ride.ClockTime(start.Hour(), start.Minute())

	if req.EndTime != "" {
		end, err := time.Parse("15:04", req.EndTime)
		if err != nil {
			return in, err
		}
		t := ride.ClockTime(end.Hour(), end.Minute())
		in.EndTime = &t
	}
	return in, nil
}

func rideResponse(r *ride.Ride, owner string, now time.Time) dto.RideResponse {
	resp := dto.RideResponse{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Owner:            owner,
		Source:           r.Source,
		Destination:      r.Destination,
		SeatsTotal:       r.SeatsTotal,
		SeatsAvailable:   r.SeatsAvailable,
		RideDate:         r.RideDate.Format("2006-01-02"),
		StartTime:        r.StartTime.Format("15:04"),
		GenderPreference: string(r.GenderPreference),
		Completed:        r.Completed(now),
		CreatedAt:        r.CreatedAt,
	}
	if r.EndTime != nil {
		end := r.EndTime.Format("15:04")
		resp.EndTime = &end
	}
	return resp
}
