package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Gender is a user's declared gender, or a ride's passenger preference.
type Gender string

const (
	GenderAny    Gender = "Any"
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// IsValid reports whether g is a declarable gender. GenderAny is only
// meaningful as a ride preference, never on a user.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// IsValidPreference reports whether g can be used as a ride preference.
func (g Gender) IsValidPreference() bool {
	return g == GenderAny || g == GenderMale || g == GenderFemale
}

// User represents a registered user, either a rider (ride owner) or a
// passenger.
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	IsRider          bool      `json:"is_rider"`
	Gender           Gender    `json:"gender"`
	GenderPreference Gender    `json:"gender_preference"`
	Bio              string    `json:"bio,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuthContext is the already-authenticated caller identity passed into every
// core operation. Session and credential mechanics live outside this module.
type AuthContext struct {
	UserID   uuid.UUID
	Username string
	IsRider  bool
	Gender   Gender
}

// Repository defines user data access.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}
