// Package memory implements domain.Store on maps behind a single mutex.
// Apply validates every condition in a batch before mutating anything, so a
// rejected batch leaves no trace. Used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"summerhouse/internal/domain"
)

type Store struct {
	mu           sync.Mutex
	reservations map[string]domain.Reservation
	calendar     map[string]domain.CalendarEntry // keyed by ISO date
	seasons      map[string]domain.Season
}

func New() *Store {
	return &Store{
		reservations: make(map[string]domain.Reservation),
		calendar:     make(map[string]domain.CalendarEntry),
		seasons:      make(map[string]domain.Season),
	}
}

func (s *Store) Apply(_ context.Context, tx domain.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every condition first; only an all-clear batch mutates.
	conflict := &domain.ConflictError{}

	if ins := tx.InsertReservation; ins != nil {
		if _, exists := s.reservations[ins.ID]; exists {
			conflict.ReservationID = ins.ID
		}
	}
	if upd := tx.UpdateReservation; upd != nil {
		cur, exists := s.reservations[upd.Reservation.ID]
		if !exists || cur.Status != upd.ExpectedStatus {
			conflict.ReservationID = upd.Reservation.ID
		}
	}
	for _, c := range tx.Claims {
		entry, exists := s.calendar[domain.DateKey(c.Date)]
		if exists && entry.Status != domain.CalendarAvailable {
			conflict.Dates = append(conflict.Dates, domain.Day(c.Date))
		}
	}
	for _, r := range tx.Releases {
		if !r.Owned {
			continue
		}
		entry, exists := s.calendar[domain.DateKey(r.Date)]
		if !exists || entry.Status != domain.CalendarBooked ||
			entry.ReservationID == nil || *entry.ReservationID != r.ReservationID {
			conflict.Dates = append(conflict.Dates, domain.Day(r.Date))
		}
	}

	if conflict.ReservationID != "" || len(conflict.Dates) > 0 {
		return conflict
	}

	now := time.Now().UTC()
	if ins := tx.InsertReservation; ins != nil {
		s.reservations[ins.ID] = *ins
	}
	if upd := tx.UpdateReservation; upd != nil {
		s.reservations[upd.Reservation.ID] = upd.Reservation
	}
	for _, c := range tx.Claims {
		rid := c.ReservationID
		s.calendar[domain.DateKey(c.Date)] = domain.CalendarEntry{
			Date:          domain.Day(c.Date),
			Status:        domain.CalendarBooked,
			ReservationID: &rid,
			UpdatedAt:     now,
		}
	}
	for _, r := range tx.Releases {
		s.calendar[domain.DateKey(r.Date)] = domain.CalendarEntry{
			Date:      domain.Day(r.Date),
			Status:    domain.CalendarAvailable,
			UpdatedAt: now,
		}
	}
	return nil
}

func (s *Store) GetReservation(_ context.Context, id string) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return res, nil
}

func (s *Store) ListReservationsByOwner(_ context.Context, ownerID string) ([]domain.ReservationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReservationSummary
	for _, r := range s.reservations {
		if r.OwnerID != ownerID {
			continue
		}
		out = append(out, domain.ReservationSummary{
			ID:          r.ID,
			CheckIn:     r.CheckIn,
			CheckOut:    r.CheckOut,
			Status:      r.Status,
			TotalAmount: r.TotalAmount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (s *Store) ListConfirmedEnded(_ context.Context, before time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if r.Status == domain.ReservationConfirmed && !r.CheckOut.After(domain.Day(before)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckOut.Before(out[j].CheckOut) })
	return out, nil
}

func (s *Store) GetCalendarRange(_ context.Context, start, end time.Time) ([]domain.CalendarEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CalendarEntry
	for d := domain.Day(start); !d.After(domain.Day(end)); d = d.AddDate(0, 0, 1) {
		if entry, ok := s.calendar[domain.DateKey(d)]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *Store) ListActiveSeasons(_ context.Context) ([]domain.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Season
	for _, season := range s.seasons {
		if season.Active {
			out = append(out, season)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) UpsertSeason(_ context.Context, season domain.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seasons[season.ID] = season
	return nil
}

func (s *Store) BlockDate(_ context.Context, date time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.DateKey(date)
	if entry, ok := s.calendar[key]; ok && entry.Status == domain.CalendarBooked {
		return &domain.ConflictError{Dates: []time.Time{domain.Day(date)}}
	}
	s.calendar[key] = domain.CalendarEntry{
		Date:        domain.Day(date),
		Status:      domain.CalendarBlocked,
		BlockReason: &reason,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}
