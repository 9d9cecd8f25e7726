package domain

import "time"

type CalendarStatus string

const (
	CalendarAvailable CalendarStatus = "AVAILABLE"
	CalendarBooked    CalendarStatus = "BOOKED"
	CalendarBlocked   CalendarStatus = "BLOCKED"
)

// CalendarEntry is the per-date availability record. An absent entry is
// equivalent to AVAILABLE; entries are created lazily on first claim and
// transition back to AVAILABLE on release, never deleted.
type CalendarEntry struct {
	Date          time.Time
	Status        CalendarStatus
	ReservationID *string // set iff Status == CalendarBooked
	BlockReason   *string
	UpdatedAt     time.Time
}

// DateKey renders a calendar date as the ISO key used by the stores.
func DateKey(d time.Time) string { return d.Format(time.DateOnly) }

// Day truncates t to a calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights returns the whole-day count between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	return int(Day(checkOut).Sub(Day(checkIn)) / (24 * time.Hour))
}

// StayDates enumerates [checkIn, checkOut): every night of the stay.
func StayDates(checkIn, checkOut time.Time) []time.Time {
	var dates []time.Time
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
