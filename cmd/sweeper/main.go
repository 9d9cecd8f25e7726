package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"summerhouse/internal/adapters/observability"
	redisad "summerhouse/internal/adapters/redis"
	"summerhouse/internal/app"
	"summerhouse/internal/shared"
	mysqlrepo "summerhouse/internal/storage/mysql"
)

// The sweeper transitions confirmed reservations whose check-out has passed
// to COMPLETED. It is safe to run concurrently with the API and with itself:
// each transition is a guarded conditional write, so a reservation that was
// completed or cancelled by a racing actor is simply skipped.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Int("workers", cfg.SweeperWorkers).Msg("sweeper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pricing := app.NewPricingService(repo)
	booking := app.NewBookingService(repo, pricing, cache, cfg.MaxGuests)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	ended, err := repo.ListConfirmedEnded(ctx, today)
	if err != nil {
		log.Fatal().Err(err).Msg("listing ended reservations failed")
	}
	log.Info().Int("count", len(ended)).Msg("reservations due for completion")

	sem := semaphore.NewWeighted(int64(cfg.SweeperWorkers))
	var wg sync.WaitGroup

	for _, res := range ended {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if _, err := booking.CompleteReservation(ctx, id); err != nil {
				log.Warn().Str("id", id).Err(err).Msg("complete failed")
				return
			}
			log.Info().Str("id", id).Msg("completed")
		}(res.ID)
	}

	wg.Wait()
	log.Info().Msg("sweep completed")
}
