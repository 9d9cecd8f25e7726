package app

import (
	"context"
	"sort"
	"time"

	"summerhouse/internal/domain"
)

// Default pricing used when no configured season covers the check-in date.
const (
	defaultNightlyRate = 12000 // €120.00
	defaultCleaningFee = 5000  // €50.00
	defaultMinimumStay = 1
)

// PriceQuote is the result of pricing a stay. Amounts in EUR cents.
type PriceQuote struct {
	CheckIn       time.Time
	CheckOut      time.Time
	Nights        int
	NightlyRate   int
	Subtotal      int
	CleaningFee   int
	Total         int
	MinimumNights int
	SeasonName    string
}

type PricingService struct {
	store domain.Store

	// Now anchors the synthesized default season; tests pin it.
	Now func() time.Time
}

func NewPricingService(store domain.Store) *PricingService {
	return &PricingService{store: store, Now: time.Now}
}

// ResolveSeason finds the active season containing date, or synthesizes the
// default season when none matches so pricing never hard-fails. The season is
// resolved from the check-in date alone and governs the entire stay, even
// when later nights cross a season boundary.
func (s *PricingService) ResolveSeason(ctx context.Context, date time.Time) (domain.Season, error) {
	seasons, err := s.store.ListActiveSeasons(ctx)
	if err != nil {
		return domain.Season{}, err
	}
	for _, season := range seasons {
		if season.Contains(date) {
			return season, nil
		}
	}
	return s.defaultSeason(), nil
}

func (s *PricingService) defaultSeason() domain.Season {
	today := domain.Day(s.Now())
	return domain.Season{
		ID:            "default",
		Name:          "Standard Season",
		StartDate:     today,
		EndDate:       today.AddDate(1, 0, 0),
		NightlyRate:   defaultNightlyRate,
		MinimumNights: defaultMinimumStay,
		CleaningFee:   defaultCleaningFee,
		Active:        true,
	}
}

// CalculatePrice prices the stay [checkIn, checkOut). It does not enforce the
// minimum stay; callers run ValidateMinimumStay separately so they can surface
// season-specific guidance. A window with no nights to price yields
// ErrNoPricing.
func (s *PricingService) CalculatePrice(ctx context.Context, checkIn, checkOut time.Time) (PriceQuote, error) {
	if !domain.Day(checkOut).After(domain.Day(checkIn)) {
		return PriceQuote{}, domain.ErrNoPricing
	}
	season, err := s.ResolveSeason(ctx, checkIn)
	if err != nil {
		return PriceQuote{}, err
	}
	nights := domain.Nights(checkIn, checkOut)
	subtotal := nights * season.NightlyRate
	return PriceQuote{
		CheckIn:       domain.Day(checkIn),
		CheckOut:      domain.Day(checkOut),
		Nights:        nights,
		NightlyRate:   season.NightlyRate,
		Subtotal:      subtotal,
		CleaningFee:   season.CleaningFee,
		Total:         subtotal + season.CleaningFee,
		MinimumNights: season.MinimumNights,
		SeasonName:    season.Name,
	}, nil
}

// ValidateMinimumStay checks the stay against the governing season's minimum.
func (s *PricingService) ValidateMinimumStay(ctx context.Context, checkIn, checkOut time.Time) error {
	if !domain.Day(checkOut).After(domain.Day(checkIn)) {
		return &domain.ValidationError{Field: "check_out", Reason: "check-out must be after check-in"}
	}
	season, err := s.ResolveSeason(ctx, checkIn)
	if err != nil {
		return err
	}
	nights := domain.Nights(checkIn, checkOut)
	if nights < season.MinimumNights {
		return &domain.MinimumStayError{
			Nights:        nights,
			MinimumNights: season.MinimumNights,
			SeasonName:    season.Name,
		}
	}
	return nil
}

// SeasonalRates returns the active rate catalog ordered by start date.
func (s *PricingService) SeasonalRates(ctx context.Context) ([]domain.Season, error) {
	seasons, err := s.store.ListActiveSeasons(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].StartDate.Before(seasons[j].StartDate)
	})
	return seasons, nil
}
