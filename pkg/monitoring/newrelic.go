package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Custom metric helpers

// RecordSeatReserved records a successful seat reservation and how many
// attempts the retry loop needed.
func (nr *NewRelicApp) RecordSeatReserved(rideID string, attempts int) {
	nr.RecordCustomEvent("SeatReserved", map[string]interface{}{
		"ride_id":  rideID,
		"attempts": attempts,
	})
	nr.RecordCustomMetric("custom/booking/reserve_attempts", float64(attempts))
}

// RecordSeatReleased records a cancellation.
func (nr *NewRelicApp) RecordSeatReleased(rideID string) {
	nr.RecordCustomEvent("SeatReleased", map[string]interface{}{
		"ride_id": rideID,
	})
}

// RecordVersionConflict records a conditional write that lost its race.
func (nr *NewRelicApp) RecordVersionConflict(rideID string) {
	nr.RecordCustomMetric("custom/booking/version_conflicts", 1)
	nr.RecordCustomEvent("SeatVersionConflict", map[string]interface{}{
		"ride_id": rideID,
	})
}

// RecordHighContention records a reservation that exhausted its retry budget.
func (nr *NewRelicApp) RecordHighContention(rideID string) {
	nr.RecordCustomMetric("custom/booking/high_contention", 1)
}

// RecordRidePosted records ride creation.
func (nr *NewRelicApp) RecordRidePosted(seats int) {
	nr.RecordCustomEvent("RidePosted", map[string]interface{}{
		"seats":     seats,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRideDeleted records an owner-initiated cascade delete.
func (nr *NewRelicApp) RecordRideDeleted(rideID string, bookings int) {
	nr.RecordCustomEvent("RideDeleted", map[string]interface{}{
		"ride_id":  rideID,
		"bookings": bookings,
	})
}

// RecordRedisPoolStats records Redis pool statistics
func (nr *NewRelicApp) RecordRedisPoolStats(stats map[string]interface{}) {
	if hits, ok := stats["hits"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_hits", float64(hits))
	}
	if misses, ok := stats["misses"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/cache_misses", float64(misses))
	}
	if timeouts, ok := stats["timeouts"].(uint32); ok {
		nr.RecordCustomMetric("custom/redis/timeouts", float64(timeouts))
	}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}
