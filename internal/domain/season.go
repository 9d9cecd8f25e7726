package domain

import "time"

// Season is a rate period. Active seasons never overlap; gaps are filled by a
// synthesized default season at pricing time. Seasons are maintained by an
// administrative process and are read-only to the engine.
type Season struct {
	ID            string
	Name          string
	StartDate     time.Time // inclusive
	EndDate       time.Time // inclusive
	NightlyRate   int       // EUR cents
	MinimumNights int
	CleaningFee   int // EUR cents
	Active        bool
}

// Contains reports whether d falls inside the season's [StartDate, EndDate].
func (s Season) Contains(d time.Time) bool {
	day := Day(d)
	return !day.Before(Day(s.StartDate)) && !day.After(Day(s.EndDate))
}
