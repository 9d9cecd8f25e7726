package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "summerhouse/internal/adapters/http_server"
	"summerhouse/internal/adapters/observability"
	redisad "summerhouse/internal/adapters/redis"
	"summerhouse/internal/app"
	"summerhouse/internal/domain"
	"summerhouse/internal/shared"
	"summerhouse/internal/storage/memory"
	mysqlrepo "summerhouse/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	store := openStore(cfg)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	pricing := app.NewPricingService(store)
	booking := app.NewBookingService(store, pricing, cache, cfg.MaxGuests)
	queries := app.NewQueryService(store, pricing, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{B: booking, Q: queries})

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func openStore(cfg shared.Config) domain.Store {
	if cfg.Store == "memory" {
		log.Warn().Msg("using in-memory store, state is not durable")
		return memory.New()
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db)
}
