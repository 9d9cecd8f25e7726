package domain

import (
	"context"
	"time"
)

type Store interface {
	// Write path: exactly one atomic batch per state-changing operation.
	Apply(ctx context.Context, tx Tx) error

	// Read paths. Reads are advisory with respect to subsequent writes; the
	// conditional batch is the sole authority on conflicts.
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservationsByOwner(ctx context.Context, ownerID string) ([]ReservationSummary, error)
	ListConfirmedEnded(ctx context.Context, before time.Time) ([]Reservation, error)
	GetCalendarRange(ctx context.Context, start, end time.Time) ([]CalendarEntry, error)
	ListActiveSeasons(ctx context.Context) ([]Season, error)

	// Administrative paths, outside the engine's own control flow. The
	// engine reads BLOCKED dates but never creates or clears them.
	UpsertSeason(ctx context.Context, s Season) error
	// BlockDate marks a date BLOCKED unless it is currently BOOKED, in
	// which case it returns *ConflictError.
	BlockDate(ctx context.Context, date time.Time, reason string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
