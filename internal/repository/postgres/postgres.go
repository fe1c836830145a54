// Package postgres implements the repository contracts on PostgreSQL. Seat
// mutations use single-statement conditional UPDATEs so the version guard and
// the write are atomic without row locks.
package postgres

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/notification"
	"github.com/bikepool/bikepool/internal/domain/rating"
	"github.com/bikepool/bikepool/internal/domain/ride"
	"github.com/bikepool/bikepool/internal/domain/user"
)

const uniqueViolation = "23505"

// Repositories bundles every repository over one connection pool.
type Repositories struct {
	db *sql.DB
}

func New(db *sql.DB) *Repositories {
	return &Repositories{db: db}
}

func (r *Repositories) Rides() ride.Repository                 { return &rideRepo{db: r.db} }
func (r *Repositories) Bookings() booking.Repository           { return &bookingRepo{db: r.db} }
func (r *Repositories) Ratings() rating.Repository             { return &ratingRepo{db: r.db} }
func (r *Repositories) Messages() message.Repository           { return &messageRepo{db: r.db} }
func (r *Repositories) Notifications() notification.Repository { return &notificationRepo{db: r.db} }
func (r *Repositories) Users() user.Repository                 { return &userRepo{db: r.db} }

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}
