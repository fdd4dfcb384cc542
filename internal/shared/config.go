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
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	ProfilesBase   string
	ProfilesKey    string
	LegacyBase     string
	LegacyKey      string
	Workers        int
	ImportPageSize int
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
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/homio?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		ProfilesBase:   env("PROFILES_BASE_URL", "http://localhost:8081"),
		ProfilesKey:    env("PROFILES_API_KEY", ""),
		LegacyBase:     env("LEGACY_BASE_URL", "https://legacy.homio.internal"),
		LegacyKey:      env("LEGACY_API_KEY", ""),
		Workers:        atoi("IMPORT_WORKERS", 8),
		ImportPageSize: atoi("IMPORT_PAGE_SIZE", 100),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 120)) * time.Second,
	}
	if c.LegacyKey == "" {
		log.Warn().Msg("LEGACY_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
