package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Expected business outcomes. Anything outside this taxonomy is an
// infrastructure failure and must be surfaced as-is, never retried here.
var (
	ErrNotFound         = errors.New("reservation not found")
	ErrUnauthorized     = errors.New("caller does not own this reservation")
	ErrInvalidState     = errors.New("operation not allowed in current reservation state")
	ErrAlreadyProcessed = errors.New("reservation was already processed by a concurrent request")
	ErrNoPricing        = errors.New("no pricing available for selected dates")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MinimumStayError carries season-specific guidance for the caller.
type MinimumStayError struct {
	Nights        int
	MinimumNights int
	SeasonName    string
}

func (e *MinimumStayError) Error() string {
	return fmt.Sprintf("%d nights selected, minimum is %d for %s",
		e.Nights, e.MinimumNights, e.SeasonName)
}

// DatesUnavailableError is the recoverable booking conflict. Dates is
// best-effort: populated by the advisory probe or by the store's conditional
// batch, and may be empty when only the reservation-id guard raced.
type DatesUnavailableError struct {
	Dates []time.Time
}

func (e *DatesUnavailableError) Error() string {
	if len(e.Dates) == 0 {
		return "dates not available"
	}
	keys := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		keys[i] = DateKey(d)
	}
	return "dates not available: " + strings.Join(keys, ", ")
}

// ConflictError is returned by Store.Apply when one or more conditional
// writes in a batch failed. The batch is rejected as a whole.
type ConflictError struct {
	Dates         []time.Time // calendar claims whose condition failed
	ReservationID string      // set when the reservation guard failed
}

func (e *ConflictError) Error() string {
	if e.ReservationID != "" {
		return fmt.Sprintf("conditional write conflict on reservation %s", e.ReservationID)
	}
	keys := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		keys[i] = DateKey(d)
	}
	return "conditional write conflict on dates: " + strings.Join(keys, ", ")
}
