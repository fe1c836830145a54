package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/pkg/cache"
	"github.com/bikepool/bikepool/pkg/logger"
)

const authKey = "auth"

// RequireUser resolves the caller from the X-User-ID header set by the
// authenticating proxy and stores an AuthContext on the request.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing X-User-ID header"})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid X-User-ID header"})
			return
		}

		u, err := h.Users.GetByID(c.Request.Context(), id)
		if err != nil {
			if err == user.ErrUserNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
				return
			}
			h.Logger.Error("Failed to resolve user", logger.Err(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}

		c.Set(authKey, user.AuthContext{
			UserID:   u.ID,
			Username: u.Username,
			IsRider:  u.IsRider,
			Gender:   u.Gender,
		})
		c.Next()
	}
}

func authFrom(c *gin.Context) user.AuthContext {
	v, _ := c.Get(authKey)
	auth, _ := v.(user.AuthContext)
	return auth
}

// RateLimit caps requests per caller per minute for a named scope using a
// Redis counter keyed to the current minute.
func (h *Handlers) RateLimit(scope string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		caller := c.GetHeader("X-User-ID")
		if caller == "" {
			caller = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, caller, time.Now().Unix()/60)

		ctx := c.Request.Context()
		count, err := cache.Incr(ctx, h.Redis, key)
		if err != nil {
			// Redis being down should not take bookings with it.
			h.Logger.Warn("Rate limit check failed, allowing request", logger.Err(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := cache.Expire(ctx, h.Redis, key, time.Minute); err != nil {
				h.Logger.Warn("Failed to set rate limit expiry", logger.Err(err))
			}
		}
		if count > int64(perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded, try again in a minute",
			})
			return
		}
		c.Next()
	}
}
