package ride

import "time"

// ActiveWindow combines a ride's date and clock times into concrete start and
// end instants.
//
// Without an end time the ride is a point-in-time event: the end instant
// equals the start instant, so the ride counts as completed immediately after
// it begins. With an end time at or before the start time on the same date,
// the end rolls forward by one day (overnight ride).
//
// Booking, cancellation, deletion and rating eligibility all go through this
// one function.
func ActiveWindow(rideDate, startTime time.Time, endTime *time.Time) (start, end time.Time) {
	start = combine(rideDate, startTime)
	if endTime == nil {
		return start, start
	}
	end = combine(rideDate, *endTime)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// combine applies the clock portion of t to the calendar portion of date.
func combine(date, t time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), 0,
		date.Location(),
	)
}

// ClockTime builds a bare clock value for ride start/end times.
func ClockTime(hour, min int) time.Time {
	return time.Date(0, time.January, 1, hour, min, 0, 0, time.UTC)
}
