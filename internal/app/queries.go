package app

import (
	"context"
	"fmt"
	"time"

	"summerhouse/internal/domain"
)

// AvailabilityReport is the advisory read for a date range: per-date conflicts
// plus a price summary for the stay. Never authoritative for booking; the
// coordinator's atomic batch is.
type AvailabilityReport struct {
	StartDate        time.Time
	EndDate          time.Time
	Available        bool
	UnavailableDates []time.Time
	TotalNights      int
	NightlyRate      int
	CleaningFee      int
	TotalAmount      int
	SeasonName       string
}

type QueryService struct {
	store    domain.Store
	pricing  *PricingService
	cache    domain.Cache // optional
	cacheTTL time.Duration

	// Now is the clock for the upcoming filter; tests pin it.
	Now func() time.Time
}

func NewQueryService(store domain.Store, pricing *PricingService, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, pricing: pricing, cache: cache, cacheTTL: ttl, Now: time.Now}
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
}

func (s *QueryService) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	key := "reservation:" + id
	var res domain.Reservation
	if s.cacheGet(ctx, key, &res) {
		return res, nil
	}
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	s.cacheSet(ctx, key, res)
	return res, nil
}

func (s *QueryService) ListReservationsForOwner(ctx context.Context, ownerID string, upcomingOnly bool) ([]domain.ReservationSummary, error) {
	scope := "all"
	if upcomingOnly {
		scope = "upcoming"
	}
	key := fmt.Sprintf("owner:%s:%s", ownerID, scope)

	var out []domain.ReservationSummary
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	all, err := s.store.ListReservationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// a stay checking in today still counts as upcoming
	today := domain.Day(s.Now())
	for _, r := range all {
		if upcomingOnly && r.CheckIn.Before(today) {
			continue
		}
		out = append(out, r)
	}

	// copy before caching so callers cannot mutate the cached slice
	cached := make([]domain.ReservationSummary, len(out))
	copy(cached, out)
	s.cacheSet(ctx, key, cached)
	return out, nil
}

// CheckAvailability probes the calendar for [start, end) and prices the range.
func (s *QueryService) CheckAvailability(ctx context.Context, start, end time.Time) (AvailabilityReport, error) {
	start, end = domain.Day(start), domain.Day(end)
	if !end.After(start) {
		return AvailabilityReport{}, &domain.ValidationError{Field: "end_date", Reason: "end date must be after start date"}
	}

	entries, err := s.store.GetCalendarRange(ctx, start, end.AddDate(0, 0, -1))
	if err != nil {
		return AvailabilityReport{}, err
	}
	var unavailable []time.Time
	for _, e := range entries {
		if e.Status != domain.CalendarAvailable {
			unavailable = append(unavailable, e.Date)
		}
	}

	quote, err := s.pricing.CalculatePrice(ctx, start, end)
	if err != nil {
		return AvailabilityReport{}, err
	}

	return AvailabilityReport{
		StartDate:        start,
		EndDate:          end,
		Available:        len(unavailable) == 0,
		UnavailableDates: unavailable,
		TotalNights:      quote.Nights,
		NightlyRate:      quote.NightlyRate,
		CleaningFee:      quote.CleaningFee,
		TotalAmount:      quote.Total,
		SeasonName:       quote.SeasonName,
	}, nil
}

func (s *QueryService) SeasonalRates(ctx context.Context) ([]domain.Season, error) {
	const key = "rates"
	var seasons []domain.Season
	if s.cacheGet(ctx, key, &seasons) {
		return seasons, nil
	}
	seasons, err := s.pricing.SeasonalRates(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, seasons)
	return seasons, nil
}
