package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	Store          string // mysql | memory
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	MaxGuests      int
	SweeperWorkers int
	RateLimitRPS   int
	RateLimitBurst int
	CacheTTL       time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		Store:       env("STORE", "mysql"),
		// clientFoundRows is required so guarded UPDATEs report matched rows
		// even when the new values equal the old ones.
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/summerhouse?parseTime=true&charset=utf8mb4,utf8&loc=UTC&clientFoundRows=true"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		MaxGuests:      atoi("MAX_GUESTS", 6),
		SweeperWorkers: atoi("SWEEPER_WORKERS", 4),
		RateLimitRPS:   atoi("RATE_LIMIT_RPS", 50),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 100),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.Store != "mysql" && c.Store != "memory" {
		log.Warn().Str("store", c.Store).Msg("unknown STORE, falling back to mysql")
		c.Store = "mysql"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
