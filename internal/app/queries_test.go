package app_test

import (
	"context"
	"testing"
	"time"

	"summerhouse/internal/app"
	"summerhouse/internal/domain"
	"summerhouse/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Reservation:
		*d = v.(domain.Reservation)
	case *[]domain.ReservationSummary:
		*d = v.([]domain.ReservationSummary)
	case *[]domain.Season:
		*d = v.([]domain.Season)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func newQueries(t *testing.T) (*app.QueryService, *app.BookingService, *memory.Store, *fakeCache) {
	t.Helper()
	store := memory.New()
	seedSeasons(t, store)
	pricing := app.NewPricingService(store)
	pricing.Now = func() time.Time { return date("2025-06-01") }
	cache := &fakeCache{}
	booking := app.NewBookingService(store, pricing, cache, 6)
	booking.Now = func() time.Time { return date("2025-06-01") }
	queries := app.NewQueryService(store, pricing, cache, 10*time.Minute)
	return queries, booking, store, cache
}

// ---- tests ----

func TestGetReservation_CacheMissThenHit(t *testing.T) {
	q, b, store, _ := newQueries(t)
	ctx := context.Background()

	res, err := b.CreateReservation(ctx, "guest-1", app.CreateReservationInput{
		CheckIn:  date("2025-07-10"),
		CheckOut: date("2025-07-17"),
		Adults:   2,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// miss populates the cache
	got, err := q.GetReservation(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.ID != res.ID || got.TotalAmount != 111000 {
		t.Fatalf("unexpected reservation: %+v", got)
	}

	// mutate the store directly; a second read must come from cache
	tweaked := got
	tweaked.TotalAmount = 1
	if err := store.Apply(ctx, domain.Tx{UpdateReservation: &domain.ReservationUpdate{
		ExpectedStatus: got.Status,
		Reservation:    tweaked,
	}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got2, err := q.GetReservation(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got2.TotalAmount != 111000 {
		t.Fatalf("expected cached total 111000, got %d", got2.TotalAmount)
	}
}

func TestBookingInvalidatesCachedReads(t *testing.T) {
	q, b, _, cache := newQueries(t)
	ctx := context.Background()

	res, err := b.CreateReservation(ctx, "guest-1", app.CreateReservationInput{
		CheckIn:  date("2025-07-10"),
		CheckOut: date("2025-07-17"),
		Adults:   2,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if _, err := q.GetReservation(ctx, res.ID); err != nil {
		t.Fatalf("GetReservation: %v", err)
	}

	if _, err := b.ConfirmReservation(ctx, res.ID); err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}

	// confirm evicted the stale entry, so the read sees the new status
	got, err := q.GetReservation(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.Status != domain.ReservationConfirmed {
		t.Fatalf("status = %s, want CONFIRMED after invalidation", got.Status)
	}

	wantKey := "reservation:" + res.ID
	found := false
	for _, k := range cache.dels {
		if k == wantKey {
			found = true
		}
	}
	if !found {
		t.Fatalf("confirm did not evict %s (dels: %v)", wantKey, cache.dels)
	}
}

func TestListReservationsForOwner_UpcomingFilter(t *testing.T) {
	q, _, store, _ := newQueries(t)
	ctx := context.Background()
	q.Now = func() time.Time { return date("2025-06-01") }

	past := domain.Reservation{
		ID: "RES-2020-AAAA0001", OwnerID: "guest-1",
		CheckIn: date("2020-01-10"), CheckOut: date("2020-01-17"),
		Status: domain.ReservationCompleted, TotalAmount: 50000,
	}
	// boundary: checking in today is still upcoming
	today := domain.Reservation{
		ID: "RES-2025-CCCC0003", OwnerID: "guest-1",
		CheckIn: date("2025-06-01"), CheckOut: date("2025-06-08"),
		Status: domain.ReservationConfirmed, TotalAmount: 75000,
	}
	future := domain.Reservation{
		ID: "RES-2025-BBBB0002", OwnerID: "guest-1",
		CheckIn: date("2025-08-10"), CheckOut: date("2025-08-17"),
		Status: domain.ReservationConfirmed, TotalAmount: 111000,
	}
	for _, r := range []domain.Reservation{past, today, future} {
		r := r
		if err := store.Apply(ctx, domain.Tx{InsertReservation: &r}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	all, err := q.ListReservationsForOwner(ctx, "guest-1", false)
	if err != nil {
		t.Fatalf("ListReservationsForOwner: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d items, want 3", len(all))
	}

	upcoming, err := q.ListReservationsForOwner(ctx, "guest-1", true)
	if err != nil {
		t.Fatalf("ListReservationsForOwner: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("upcoming = %+v, want the today and future stays", upcoming)
	}
	got := map[string]bool{}
	for _, r := range upcoming {
		got[r.ID] = true
	}
	if !got[today.ID] || !got[future.ID] {
		t.Fatalf("upcoming = %+v, want %s and %s", upcoming, today.ID, future.ID)
	}
}

func TestQueries_WorkWithoutCache(t *testing.T) {
	store := memory.New()
	seedSeasons(t, store)
	pricing := app.NewPricingService(store)
	pricing.Now = func() time.Time { return date("2025-06-01") }
	booking := app.NewBookingService(store, pricing, nil, 6)
	booking.Now = func() time.Time { return date("2025-06-01") }
	q := app.NewQueryService(store, pricing, nil, 10*time.Minute)
	q.Now = func() time.Time { return date("2025-06-01") }
	ctx := context.Background()

	res, err := booking.CreateReservation(ctx, "guest-1", app.CreateReservationInput{
		CheckIn:  date("2025-07-10"),
		CheckOut: date("2025-07-17"),
		Adults:   2,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	if got, err := q.GetReservation(ctx, res.ID); err != nil || got.ID != res.ID {
		t.Fatalf("GetReservation: %v %+v", err, got)
	}
	if sums, err := q.ListReservationsForOwner(ctx, "guest-1", true); err != nil || len(sums) != 1 {
		t.Fatalf("ListReservationsForOwner: %v %+v", err, sums)
	}
	if seasons, err := q.SeasonalRates(ctx); err != nil || len(seasons) != 2 {
		t.Fatalf("SeasonalRates: %v %+v", err, seasons)
	}
}

func TestCheckAvailability(t *testing.T) {
	q, b, _, _ := newQueries(t)
	ctx := context.Background()

	if _, err := b.CreateReservation(ctx, "guest-1", app.CreateReservationInput{
		CheckIn:  date("2025-07-10"),
		CheckOut: date("2025-07-17"),
		Adults:   2,
	}); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// overlapping probe reports the booked nights
	rep, err := q.CheckAvailability(ctx, date("2025-07-15"), date("2025-07-22"))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if rep.Available {
		t.Fatalf("expected unavailable, got %+v", rep)
	}
	if len(rep.UnavailableDates) != 2 {
		t.Fatalf("unavailable = %v, want 2 dates", rep.UnavailableDates)
	}
	if rep.TotalNights != 7 || rep.TotalAmount != 111000 {
		t.Fatalf("pricing = %d nights / %d, want 7 / 111000", rep.TotalNights, rep.TotalAmount)
	}

	// a clear window is available; the check-out day of the stay is bookable
	rep2, err := q.CheckAvailability(ctx, date("2025-07-17"), date("2025-07-24"))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !rep2.Available || len(rep2.UnavailableDates) != 0 {
		t.Fatalf("expected clear window, got %+v", rep2)
	}
}

func TestSeasonalRates_Cached(t *testing.T) {
	q, _, store, _ := newQueries(t)
	ctx := context.Background()

	first, err := q.SeasonalRates(ctx)
	if err != nil {
		t.Fatalf("SeasonalRates: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d seasons, want 2", len(first))
	}

	// new season added after caching is not visible until TTL expiry
	if err := store.UpsertSeason(ctx, domain.Season{
		ID: "new-season", Name: "New", StartDate: date("2025-10-01"), EndDate: date("2025-10-31"),
		NightlyRate: 9000, MinimumNights: 2, CleaningFee: 4000, Active: true,
	}); err != nil {
		t.Fatalf("UpsertSeason: %v", err)
	}
	second, err := q.SeasonalRates(ctx)
	if err != nil {
		t.Fatalf("SeasonalRates: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected cached catalog of 2, got %d", len(second))
	}
}
