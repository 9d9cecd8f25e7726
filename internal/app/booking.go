package app

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"summerhouse/internal/domain"
)

// BookingService is the transaction coordinator: every state change is exactly
// one atomic batch against the store, and the batch's conditional writes are
// the sole authority on conflicts. There is no in-process lock.
type BookingService struct {
	store     domain.Store
	pricing   *PricingService
	cache     domain.Cache
	maxGuests int

	// Now is the clock used for timestamps and policy cutoffs; tests pin it.
	Now func() time.Time
}

func NewBookingService(store domain.Store, pricing *PricingService, cache domain.Cache, maxGuests int) *BookingService {
	return &BookingService{
		store:     store,
		pricing:   pricing,
		cache:     cache,
		maxGuests: maxGuests,
		Now:       time.Now,
	}
}

type CreateReservationInput struct {
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	SpecialRequests *string
}

type ModifyReservationInput struct {
	CheckIn         *time.Time
	CheckOut        *time.Time
	Adults          *int
	Children        *int
	SpecialRequests *string
}

type ModifyResult struct {
	Reservation     domain.Reservation
	OldTotal        int
	NewTotal        int
	PriceDifference int // positive = additional amount owed, negative = refund owed
}

type CancelResult struct {
	Reservation      domain.Reservation
	RefundAmount     int
	RefundPercentage int
	DaysUntilCheckIn int
}

func (s *BookingService) CreateReservation(ctx context.Context, ownerID string, in CreateReservationInput) (domain.Reservation, error) {
	if err := s.validateGuests(in.Adults, in.Children); err != nil {
		return domain.Reservation{}, err
	}
	checkIn, checkOut := domain.Day(in.CheckIn), domain.Day(in.CheckOut)
	if !checkOut.After(checkIn) {
		return domain.Reservation{}, &domain.ValidationError{Field: "check_out", Reason: "check-out must be after check-in"}
	}

	if err := s.pricing.ValidateMinimumStay(ctx, checkIn, checkOut); err != nil {
		return domain.Reservation{}, err
	}
	quote, err := s.pricing.CalculatePrice(ctx, checkIn, checkOut)
	if err != nil {
		return domain.Reservation{}, err
	}

	dates := domain.StayDates(checkIn, checkOut)

	// Advisory probe for a friendlier error; the atomic batch below remains
	// the authority and must tolerate a second race after this read.
	if conflicts, err := s.probeUnavailable(ctx, dates); err != nil {
		return domain.Reservation{}, err
	} else if len(conflicts) > 0 {
		return domain.Reservation{}, &domain.DatesUnavailableError{Dates: conflicts}
	}

	now := s.Now().UTC()
	res := domain.Reservation{
		ID:              s.newReservationID(),
		OwnerID:         ownerID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          in.Adults,
		Children:        in.Children,
		Status:          domain.ReservationPending,
		PaymentStatus:   domain.PaymentPending,
		Nights:          quote.Nights,
		NightlyRate:     quote.NightlyRate,
		CleaningFee:     quote.CleaningFee,
		TotalAmount:     quote.Total,
		SpecialRequests: in.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx := domain.Tx{InsertReservation: &res}
	for _, d := range dates {
		tx.Claims = append(tx.Claims, domain.DateClaim{Date: d, ReservationID: res.ID})
	}
	if err := s.store.Apply(ctx, tx); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			log.Warn().Str("reservation_id", res.ID).
				Strs("dates", dateKeys(conflict.Dates)).
				Msg("create rejected by conditional batch")
			return domain.Reservation{}, &domain.DatesUnavailableError{Dates: conflict.Dates}
		}
		return domain.Reservation{}, err
	}

	s.invalidateOwner(ctx, ownerID)
	log.Info().Str("reservation_id", res.ID).
		Str("check_in", domain.DateKey(checkIn)).
		Str("check_out", domain.DateKey(checkOut)).
		Int("total", res.TotalAmount).
		Msg("reservation created")
	return res, nil
}

// ConfirmReservation marks payment success: PENDING -> CONFIRMED, guarded so a
// concurrent confirm or cancel loses cleanly instead of overwriting.
func (s *BookingService) ConfirmReservation(ctx context.Context, id string) (domain.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if res.Status != domain.ReservationPending {
		return domain.Reservation{}, domain.ErrAlreadyProcessed
	}

	res.Status = domain.ReservationConfirmed
	res.PaymentStatus = domain.PaymentPaid
	res.UpdatedAt = s.Now().UTC()

	tx := domain.Tx{UpdateReservation: &domain.ReservationUpdate{
		ExpectedStatus: domain.ReservationPending,
		Reservation:    res,
	}}
	if err := s.store.Apply(ctx, tx); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return domain.Reservation{}, domain.ErrAlreadyProcessed
		}
		return domain.Reservation{}, err
	}

	s.invalidateReservation(ctx, id)
	s.invalidateOwner(ctx, res.OwnerID)
	log.Info().Str("reservation_id", id).Msg("reservation confirmed")
	return res, nil
}

func (s *BookingService) ModifyReservation(ctx context.Context, ownerID, id string, in ModifyReservationInput) (ModifyResult, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return ModifyResult{}, err
	}
	if res.OwnerID != ownerID {
		return ModifyResult{}, domain.ErrUnauthorized
	}
	if res.Status == domain.ReservationCancelled || res.Status == domain.ReservationCompleted {
		return ModifyResult{}, domain.ErrInvalidState
	}

	// Fields not supplied keep their current values.
	checkIn, checkOut := res.CheckIn, res.CheckOut
	if in.CheckIn != nil {
		checkIn = domain.Day(*in.CheckIn)
	}
	if in.CheckOut != nil {
		checkOut = domain.Day(*in.CheckOut)
	}
	adults, children := res.Adults, res.Children
	if in.Adults != nil {
		adults = *in.Adults
	}
	if in.Children != nil {
		children = *in.Children
	}

	if err := s.validateGuests(adults, children); err != nil {
		return ModifyResult{}, err
	}
	if !checkOut.After(checkIn) {
		return ModifyResult{}, &domain.ValidationError{Field: "check_out", Reason: "check-out must be after check-in"}
	}

	oldDates := dateSet(domain.StayDates(res.CheckIn, res.CheckOut))
	newDates := dateSet(domain.StayDates(checkIn, checkOut))

	// Dates already held by this reservation are implicitly available to it;
	// only the net-new dates need checking and claiming.
	var toClaim, toRelease []time.Time
	for key, d := range newDates {
		if _, held := oldDates[key]; !held {
			toClaim = append(toClaim, d)
		}
	}
	for key, d := range oldDates {
		if _, kept := newDates[key]; !kept {
			toRelease = append(toRelease, d)
		}
	}

	if len(toClaim) > 0 {
		if conflicts, err := s.probeUnavailable(ctx, toClaim); err != nil {
			return ModifyResult{}, err
		} else if len(conflicts) > 0 {
			return ModifyResult{}, &domain.DatesUnavailableError{Dates: conflicts}
		}
	}

	quote, err := s.pricing.CalculatePrice(ctx, checkIn, checkOut)
	if err != nil {
		return ModifyResult{}, err
	}
	oldTotal := res.TotalAmount

	updated := res
	updated.CheckIn = checkIn
	updated.CheckOut = checkOut
	updated.Adults = adults
	updated.Children = children
	updated.Nights = quote.Nights
	updated.NightlyRate = quote.NightlyRate
	updated.CleaningFee = quote.CleaningFee
	updated.TotalAmount = quote.Total
	if in.SpecialRequests != nil {
		updated.SpecialRequests = in.SpecialRequests
	}
	updated.UpdatedAt = s.Now().UTC()

	tx := domain.Tx{UpdateReservation: &domain.ReservationUpdate{
		ExpectedStatus: res.Status,
		Reservation:    updated,
	}}
	for _, d := range toClaim {
		tx.Claims = append(tx.Claims, domain.DateClaim{Date: d, ReservationID: id})
	}
	for _, d := range toRelease {
		tx.Releases = append(tx.Releases, domain.DateRelease{Date: d, ReservationID: id, Owned: true})
	}

	if err := s.store.Apply(ctx, tx); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			if conflict.ReservationID != "" {
				return ModifyResult{}, domain.ErrAlreadyProcessed
			}
			return ModifyResult{}, &domain.DatesUnavailableError{Dates: conflict.Dates}
		}
		return ModifyResult{}, err
	}

	s.invalidateReservation(ctx, id)
	s.invalidateOwner(ctx, ownerID)
	log.Info().Str("reservation_id", id).
		Int("old_total", oldTotal).
		Int("new_total", updated.TotalAmount).
		Msg("reservation modified")
	return ModifyResult{
		Reservation:     updated,
		OldTotal:        oldTotal,
		NewTotal:        updated.TotalAmount,
		PriceDifference: updated.TotalAmount - oldTotal,
	}, nil
}

func (s *BookingService) CancelReservation(ctx context.Context, ownerID, id, reason string) (CancelResult, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	if res.OwnerID != ownerID {
		return CancelResult{}, domain.ErrUnauthorized
	}
	if res.Status == domain.ReservationCancelled || res.Status == domain.ReservationCompleted {
		return CancelResult{}, domain.ErrInvalidState
	}

	today := domain.Day(s.Now())
	if !res.CheckIn.After(today) {
		return CancelResult{}, domain.ErrInvalidState
	}
	daysUntil := domain.Nights(today, res.CheckIn)
	refundAmount, refundPct := Refund(res.TotalAmount, daysUntil)

	now := s.Now().UTC()
	if reason == "" {
		reason = "No reason provided"
	}
	updated := res
	updated.Status = domain.ReservationCancelled
	updated.CancelledAt = &now
	updated.CancellationReason = &reason
	updated.RefundAmount = &refundAmount
	updated.UpdatedAt = now
	switch {
	case refundAmount == res.TotalAmount:
		updated.PaymentStatus = domain.PaymentRefunded
	case refundAmount > 0:
		updated.PaymentStatus = domain.PaymentPartialRefund
	}

	tx := domain.Tx{UpdateReservation: &domain.ReservationUpdate{
		ExpectedStatus: res.Status,
		Reservation:    updated,
	}}
	// This reservation is the sole owner of its dates by invariant, so the
	// release needs no condition check; only claims are guarded.
	for _, d := range domain.StayDates(res.CheckIn, res.CheckOut) {
		tx.Releases = append(tx.Releases, domain.DateRelease{Date: d})
	}

	if err := s.store.Apply(ctx, tx); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return CancelResult{}, domain.ErrAlreadyProcessed
		}
		return CancelResult{}, err
	}

	s.invalidateReservation(ctx, id)
	s.invalidateOwner(ctx, ownerID)
	log.Info().Str("reservation_id", id).
		Int("refund", refundAmount).
		Int("refund_pct", refundPct).
		Msg("reservation cancelled")
	return CancelResult{
		Reservation:      updated,
		RefundAmount:     refundAmount,
		RefundPercentage: refundPct,
		DaysUntilCheckIn: daysUntil,
	}, nil
}

// CompleteReservation is the time-driven terminal transition, invoked by the
// external sweeper once a confirmed stay's checkout has passed.
func (s *BookingService) CompleteReservation(ctx context.Context, id string) (domain.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if res.Status != domain.ReservationConfirmed {
		return domain.Reservation{}, domain.ErrInvalidState
	}
	if domain.Day(s.Now()).Before(res.CheckOut) {
		return domain.Reservation{}, domain.ErrInvalidState
	}

	res.Status = domain.ReservationCompleted
	res.UpdatedAt = s.Now().UTC()

	tx := domain.Tx{UpdateReservation: &domain.ReservationUpdate{
		ExpectedStatus: domain.ReservationConfirmed,
		Reservation:    res,
	}}
	if err := s.store.Apply(ctx, tx); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return domain.Reservation{}, domain.ErrAlreadyProcessed
		}
		return domain.Reservation{}, err
	}

	s.invalidateReservation(ctx, id)
	s.invalidateOwner(ctx, res.OwnerID)
	return res, nil
}

func (s *BookingService) validateGuests(adults, children int) error {
	if adults < 1 {
		return &domain.ValidationError{Field: "adults", Reason: "at least 1 adult is required"}
	}
	if children < 0 {
		return &domain.ValidationError{Field: "children", Reason: "must not be negative"}
	}
	if adults+children > s.maxGuests {
		return &domain.ValidationError{
			Field:  "guests",
			Reason: fmt.Sprintf("maximum %d guests allowed, %d requested", s.maxGuests, adults+children),
		}
	}
	return nil
}

func (s *BookingService) probeUnavailable(ctx context.Context, dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	entries, err := s.store.GetCalendarRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	wanted := dateSet(dates)
	var conflicts []time.Time
	for _, e := range entries {
		if e.Status == domain.CalendarAvailable {
			continue
		}
		if d, ok := wanted[domain.DateKey(e.Date)]; ok {
			conflicts = append(conflicts, d)
		}
	}
	return conflicts, nil
}

// newReservationID produces a human-legible id like RES-2025-4F3A9C1B. The
// insert condition in the atomic batch is the real collision guard.
func (s *BookingService) newReservationID() string {
	buf := make([]byte, 4)
	_, _ = crand.Read(buf)
	return fmt.Sprintf("RES-%d-%s", s.Now().Year(), strings.ToUpper(hex.EncodeToString(buf)))
}

func (s *BookingService) invalidateReservation(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "reservation:"+id)
}

func (s *BookingService) invalidateOwner(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	for _, upcoming := range []string{"all", "upcoming"} {
		_ = s.cache.Del(ctx, fmt.Sprintf("owner:%s:%s", ownerID, upcoming))
	}
}

func dateSet(dates []time.Time) map[string]time.Time {
	set := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		set[domain.DateKey(d)] = d
	}
	return set
}

func dateKeys(dates []time.Time) []string {
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = domain.DateKey(d)
	}
	return keys
}
