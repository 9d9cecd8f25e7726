package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"summerhouse/internal/adapters/observability"
	"summerhouse/internal/domain"
	"summerhouse/internal/shared"
	mysqlrepo "summerhouse/internal/storage/mysql"
)

type seedSeason struct {
	id, name   string
	start, end string // YYYY-MM-DD, end inclusive
	rate       int    // EUR cents per night
	minNights  int
	fee        int // EUR cents
}

var seasons = []seedSeason{
	{"low-winter-2025", "Low Season (Winter)", "2025-01-01", "2025-03-31", 8000, 3, 5000},
	{"mid-spring-2025", "Mid Season (Spring)", "2025-04-01", "2025-06-30", 10000, 5, 5000},
	{"high-summer-2025", "High Season (Summer)", "2025-07-01", "2025-08-31", 15000, 7, 6000},
	{"mid-fall-2025", "Mid Season (Fall)", "2025-09-01", "2025-11-30", 10000, 5, 5000},
	{"peak-christmas-2025", "Peak Season (Christmas & New Year)", "2025-12-01", "2025-12-31", 18000, 7, 6000},
	{"low-winter-2026", "Low Season (Winter)", "2026-01-01", "2026-03-31", 8500, 3, 5000},
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)

	for _, s := range seasons {
		start, err := time.Parse(time.DateOnly, s.start)
		if err != nil {
			log.Fatal().Str("season", s.id).Err(err).Msg("bad start date")
		}
		end, err := time.Parse(time.DateOnly, s.end)
		if err != nil {
			log.Fatal().Str("season", s.id).Err(err).Msg("bad end date")
		}
		season := domain.Season{
			ID:            s.id,
			Name:          s.name,
			StartDate:     start,
			EndDate:       end,
			NightlyRate:   s.rate,
			MinimumNights: s.minNights,
			CleaningFee:   s.fee,
			Active:        true,
		}
		if err := repo.UpsertSeason(ctx, season); err != nil {
			log.Fatal().Str("season", s.id).Err(err).Msg("upsert failed")
		}
		log.Info().
			Str("season", s.id).
			Int("nightly_rate", s.rate).
			Int("minimum_nights", s.minNights).
			Msg("season seeded")
	}

	// owner-held windows relative to today
	blocked := []struct {
		offset, days int
		reason       string
	}{
		{14, 7, "Annual maintenance"},
		{30, 3, "Owner personal use"},
	}
	today := domain.Day(time.Now().UTC())
	for _, b := range blocked {
		for i := 0; i < b.days; i++ {
			d := today.AddDate(0, 0, b.offset+i)
			if err := repo.BlockDate(ctx, d, b.reason); err != nil {
				var conflict *domain.ConflictError
				if errors.As(err, &conflict) {
					log.Warn().Str("date", domain.DateKey(d)).Msg("day already booked, left as is")
					continue
				}
				log.Fatal().Str("date", domain.DateKey(d)).Err(err).Msg("block failed")
			}
		}
		log.Info().Str("reason", b.reason).Int("days", b.days).Msg("dates blocked")
	}

	log.Info().Int("count", len(seasons)).Msg("seeding completed")
}
