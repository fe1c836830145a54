package handlers

import (
	"github.com/redis/go-redis/v9"

	"github.com/bikepool/bikepool/internal/config"
	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/internal/service/reservation"
	"github.com/bikepool/bikepool/internal/service/rides"
	"github.com/bikepool/bikepool/pkg/logger"
	"github.com/bikepool/bikepool/pkg/monitoring"
	"github.com/bikepool/bikepool/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Reservations  *reservation.Service
	Rides         *rides.Service
	RideRepo      ride.Repository
	Bookings      booking.Repository
	Users         user.Repository
	Notifications notification.Repository
	Messages      message.Repository
	Redis         *redis.Client
	Logger        *logger.Logger
	Hub           *websocket.Hub
	Monitor       *monitoring.NewRelicApp
	Cfg           *config.Config
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	reservations *reservation.Service,
	rideSvc *rides.Service,
	rideRepo ride.Repository,
	bookings booking.Repository,
	users user.Repository,
	notifications notification.Repository,
	messages message.Repository,
	redisClient *redis.Client,
	log *logger.Logger,
	hub *websocket.Hub,
	monitor *monitoring.NewRelicApp,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		Reservations:  reservations,
		Rides:         rideSvc,
		RideRepo:      rideRepo,
		Bookings:      bookings,
		Users:         users,
		Notifications: notifications,
		Messages:      messages,
		Redis:         redisClient,
		Logger:        log,
		Hub:           hub,
		Monitor:       monitor,
		Cfg:           cfg,
	}
}
