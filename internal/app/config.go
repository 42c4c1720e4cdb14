package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/clients/redis"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/db"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/envutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Config struct {
	Environment    string
	Version        string
	DB             db.Config
	Redis          redis.Config
	EnrollLockTTL  time.Duration
	MetricsAddr    string
	AutoMigrate    bool
	DefaultPageLen int
}

// LoadDotEnv reads .env files when present. Existing variables win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(strings.TrimSpace(p))
	}
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Environment:    envutil.Logged(log, "APP_ENV", "development"),
		Version:        envutil.Logged(log, "APP_VERSION", "dev"),
		DB:             db.ConfigFromEnv(log),
		Redis:          redis.ConfigFromEnv(),
		EnrollLockTTL:  envutil.Millis("ENROLL_LOCK_TTL_MS", 5*time.Second),
		MetricsAddr:    envutil.Logged(log, "METRICS_ADDR", ":9464"),
		AutoMigrate:    envutil.Bool("AUTO_MIGRATE", false),
		DefaultPageLen: envutil.Int("CATALOG_PAGE_SIZE", 50),
	}
}
