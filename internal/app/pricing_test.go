package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"summerhouse/internal/app"
	"summerhouse/internal/domain"
	"summerhouse/internal/storage/memory"
)

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedSeasons(t *testing.T, store *memory.Store) {
	t.Helper()
	seasons := []domain.Season{
		{ID: "low-winter-2025", Name: "Low Season (Winter)", StartDate: date("2025-01-01"), EndDate: date("2025-03-31"),
			NightlyRate: 8000, MinimumNights: 3, CleaningFee: 5000, Active: true},
		{ID: "high-summer-2025", Name: "High Season (Summer)", StartDate: date("2025-07-01"), EndDate: date("2025-08-31"),
			NightlyRate: 15000, MinimumNights: 7, CleaningFee: 6000, Active: true},
		{ID: "retired-season", Name: "Retired", StartDate: date("2025-05-01"), EndDate: date("2025-05-31"),
			NightlyRate: 1, MinimumNights: 1, CleaningFee: 0, Active: false},
	}
	for _, s := range seasons {
		if err := store.UpsertSeason(context.Background(), s); err != nil {
			t.Fatalf("UpsertSeason: %v", err)
		}
	}
}

func newPricing(t *testing.T) (*app.PricingService, *memory.Store) {
	t.Helper()
	store := memory.New()
	seedSeasons(t, store)
	svc := app.NewPricingService(store)
	svc.Now = func() time.Time { return date("2025-06-01") }
	return svc, store
}

// ---- tests ----

func TestCalculatePrice_SummerWeek(t *testing.T) {
	svc, _ := newPricing(t)

	// 7 nights in high season: 7 * 15000 + 6000
	q, err := svc.CalculatePrice(context.Background(), date("2025-07-10"), date("2025-07-17"))
	if err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	if q.Nights != 7 {
		t.Fatalf("nights = %d, want 7", q.Nights)
	}
	if q.NightlyRate != 15000 || q.CleaningFee != 6000 {
		t.Fatalf("rate/fee = %d/%d, want 15000/6000", q.NightlyRate, q.CleaningFee)
	}
	if q.Total != 111000 {
		t.Fatalf("total = %d, want 111000", q.Total)
	}
	if q.SeasonName != "High Season (Summer)" {
		t.Fatalf("season = %q", q.SeasonName)
	}
}

func TestCalculatePrice_SeasonByCheckInOnly(t *testing.T) {
	svc, _ := newPricing(t)

	// Stay crosses from winter into uncovered April; the whole stay is priced
	// at the check-in date's season.
	q, err := svc.CalculatePrice(context.Background(), date("2025-03-30"), date("2025-04-04"))
	if err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	if q.NightlyRate != 8000 {
		t.Fatalf("rate = %d, want winter rate 8000", q.NightlyRate)
	}
	if q.Total != 5*8000+5000 {
		t.Fatalf("total = %d, want %d", q.Total, 5*8000+5000)
	}
}

func TestCalculatePrice_DefaultSeason(t *testing.T) {
	svc, _ := newPricing(t)

	// June is not covered by any active season; the inactive May season must
	// not leak in either.
	q, err := svc.CalculatePrice(context.Background(), date("2025-06-10"), date("2025-06-13"))
	if err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	if q.NightlyRate != 12000 || q.CleaningFee != 5000 {
		t.Fatalf("rate/fee = %d/%d, want default 12000/5000", q.NightlyRate, q.CleaningFee)
	}
	if q.Total != 3*12000+5000 {
		t.Fatalf("total = %d", q.Total)
	}
	if q.SeasonName != "Standard Season" {
		t.Fatalf("season = %q", q.SeasonName)
	}
}

func TestCalculatePrice_Deterministic(t *testing.T) {
	svc, _ := newPricing(t)

	q1, err := svc.CalculatePrice(context.Background(), date("2025-07-10"), date("2025-07-17"))
	if err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	q2, err := svc.CalculatePrice(context.Background(), date("2025-07-10"), date("2025-07-17"))
	if err != nil {
		t.Fatalf("CalculatePrice: %v", err)
	}
	if q1 != q2 {
		t.Fatalf("identical inputs priced differently: %+v vs %+v", q1, q2)
	}
}

func TestCalculatePrice_NoPricingForEmptyWindow(t *testing.T) {
	svc, _ := newPricing(t)

	_, err := svc.CalculatePrice(context.Background(), date("2025-07-17"), date("2025-07-10"))
	if !errors.Is(err, domain.ErrNoPricing) {
		t.Fatalf("expected ErrNoPricing for inverted dates, got %v", err)
	}
	_, err = svc.CalculatePrice(context.Background(), date("2025-07-10"), date("2025-07-10"))
	if !errors.Is(err, domain.ErrNoPricing) {
		t.Fatalf("expected ErrNoPricing for zero nights, got %v", err)
	}
}

func TestValidateMinimumStay(t *testing.T) {
	svc, _ := newPricing(t)

	// 4 nights in a 7-night-minimum season
	err := svc.ValidateMinimumStay(context.Background(), date("2025-07-10"), date("2025-07-14"))
	var ms *domain.MinimumStayError
	if !errors.As(err, &ms) {
		t.Fatalf("expected MinimumStayError, got %v", err)
	}
	if ms.Nights != 4 || ms.MinimumNights != 7 {
		t.Fatalf("unexpected fields: %+v", ms)
	}
	want := "4 nights selected, minimum is 7 for High Season (Summer)"
	if ms.Error() != want {
		t.Fatalf("message = %q, want %q", ms.Error(), want)
	}

	// exactly the minimum passes
	if err := svc.ValidateMinimumStay(context.Background(), date("2025-07-10"), date("2025-07-17")); err != nil {
		t.Fatalf("minimum-length stay rejected: %v", err)
	}
}

func TestSeasonalRates_SortedActiveOnly(t *testing.T) {
	svc, _ := newPricing(t)

	seasons, err := svc.SeasonalRates(context.Background())
	if err != nil {
		t.Fatalf("SeasonalRates: %v", err)
	}
	if len(seasons) != 2 {
		t.Fatalf("got %d seasons, want 2 active", len(seasons))
	}
	if seasons[0].ID != "low-winter-2025" || seasons[1].ID != "high-summer-2025" {
		t.Fatalf("unexpected order: %s, %s", seasons[0].ID, seasons[1].ID)
	}
}
