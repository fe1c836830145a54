package dto

import (
	"time"

	"github.com/google/uuid"
)

// PostRideRequest represents a request to post a new ride
type PostRideRequest struct {
	Source           string `json:"source" binding:"required"`
	Destination      string `json:"destination" binding:"required"`
	Seats            int    `json:"seats" binding:"required,min=1"`
	RideDate         string `json:"ride_date" binding:"required"`          // 2006-01-02
	StartTime        string `json:"start_time" binding:"required"`         // 15:04
	EndTime          string `json:"end_time,omitempty"`                    // 15:04, optional
	GenderPreference string `json:"gender_preference,omitempty" binding:"omitempty,oneof=Any Male Female"`
}

// RateRideRequest represents a passenger rating a completed ride
type RateRideRequest struct {
	Value    int    `json:"value" binding:"required,min=1,max=5"`
	Comments string `json:"comments,omitempty"`
}

// ChatMessageRequest represents a message posted to a ride's chat
type ChatMessageRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

// RideResponse is the wire form of a ride
type RideResponse struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Owner            string     `json:"owner,omitempty"`
	Source           string     `json:"source"`
	Destination      string     `json:"destination"`
	SeatsTotal       int        `json:"seats_total"`
	SeatsAvailable   int        `json:"seats_available"`
	RideDate         string     `json:"ride_date"`
	StartTime        string     `json:"start_time"`
	EndTime          *string    `json:"end_time,omitempty"`
	GenderPreference string     `json:"gender_preference"`
	Completed        bool       `json:"completed"`
	CreatedAt        time.Time  `json:"created_at"`
}

// BookingResponse reports the outcome of a seat reservation
type BookingResponse struct {
	RideID   uuid.UUID `json:"ride_id"`
	Status   string    `json:"status"`
	Attempts int       `json:"attempts"`
}

// NotificationResponse is the wire form of a notification
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse is the wire form of a chat message
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RideID    uuid.UUID `json:"ride_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Sender    string    `json:"sender,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
