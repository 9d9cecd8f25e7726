package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "PENDING"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentRefunded      PaymentStatus = "REFUNDED"
	PaymentPartialRefund PaymentStatus = "PARTIAL_REFUND"
)

// Reservation is a guest's claim on a contiguous range of nights.
// All amounts are EUR cents; CheckIn/CheckOut are calendar dates (UTC midnight).
type Reservation struct {
	ID                 string
	OwnerID            string
	CheckIn            time.Time
	CheckOut           time.Time
	Adults             int
	Children           int
	Status             ReservationStatus
	PaymentStatus      PaymentStatus
	Nights             int
	NightlyRate        int
	CleaningFee        int
	TotalAmount        int
	SpecialRequests    *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason *string
	RefundAmount       *int
}

// ReservationSummary is the listing view returned by owner queries.
type ReservationSummary struct {
	ID          string
	CheckIn     time.Time
	CheckOut    time.Time
	Status      ReservationStatus
	TotalAmount int
}
