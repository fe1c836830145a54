package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/bikepool/bikepool/internal/api/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Unauthenticated helper for signup forms
	r.GET("/api/check_username",
		h.RateLimit("check_username", h.Cfg.RateLimit.CheckUsernamePerMinute),
		h.CheckUsername)

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(h.RequireUser())
	v1.Use(h.RateLimit("general", h.Cfg.RateLimit.GeneralPerMinute))
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		// Profile
		v1.GET("/me", h.GetProfile)

		// Ride endpoints
		rides := v1.Group("/rides")
		{
			rides.GET("", h.ListOpenRides)
			rides.POST("", h.PostRide)
			rides.GET("/:id", h.GetRide)
			rides.DELETE("/:id", h.DeleteRide)

			// Seat bookings carry their own tighter limit.
			rides.POST("/:id/bookings",
				h.RateLimit("bookings", h.Cfg.RateLimit.BookingsPerMinute),
				h.ReserveSeat)
			rides.DELETE("/:id/bookings", h.ReleaseSeat)

			rides.POST("/:id/rating", h.RateRide)

			rides.GET("/:id/messages", h.ListMessages)
			rides.POST("/:id/messages", h.PostMessage)
		}

		// Dashboards
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/rider", h.GetRiderDashboard)
			dashboard.GET("/passenger", h.GetPassengerDashboard)
		}

		// Notification endpoints
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.GET("/unread", h.GetUnreadCount)
			notifications.POST("/read", h.MarkNotificationsRead)
			notifications.DELETE("/:id", h.DeleteNotification)
		}
	}
}
