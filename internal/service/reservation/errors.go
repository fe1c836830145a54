package reservation

import "errors"

var (
	// ErrNotPassenger rejects riders trying to book or cancel seats.
	ErrNotPassenger = errors.New("riders cannot book rides")

	// ErrGenderPreference rejects passengers who do not satisfy the ride's
	// gender preference.
	ErrGenderPreference = errors.New("ride gender preference not satisfied")

	// ErrRideCompleted rejects operations on a ride whose active window has
	// passed.
	ErrRideCompleted = errors.New("ride has already completed")

	// ErrHighContention is returned after the retry budget is exhausted
	// under write contention. Transient: the caller may retry later.
	ErrHighContention = errors.New("could not apply seat update due to concurrent activity")
)
