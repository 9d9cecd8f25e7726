package domain

import "time"

// Tx is one atomic batch of conditional writes against the calendar and
// reservation stores. Apply either lands every write or none of them; a
// failed condition rejects the whole batch with *ConflictError.
type Tx struct {
	// InsertReservation creates the record iff no reservation with this id
	// exists. Id collision is a recoverable conflict, not a generator bug.
	InsertReservation *Reservation

	// UpdateReservation replaces the record iff its current status equals
	// ExpectedStatus.
	UpdateReservation *ReservationUpdate

	// Claims transition AVAILABLE (or absent) dates to BOOKED.
	Claims []DateClaim

	// Releases transition dates back to AVAILABLE. Owned releases require
	// the date to be BOOKED by the named reservation; unowned releases are
	// unconditional (cancel path, where this reservation is the sole owner
	// by invariant).
	Releases []DateRelease
}

type ReservationUpdate struct {
	ExpectedStatus ReservationStatus
	Reservation    Reservation
}

type DateClaim struct {
	Date          time.Time
	ReservationID string
}

type DateRelease struct {
	Date          time.Time
	ReservationID string // required when Owned
	Owned         bool
}

// Empty reports whether the batch carries no writes.
func (tx Tx) Empty() bool {
	return tx.InsertReservation == nil && tx.UpdateReservation == nil &&
		len(tx.Claims) == 0 && len(tx.Releases) == 0
}
