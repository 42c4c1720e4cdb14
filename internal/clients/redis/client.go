package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/envutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func ConfigFromEnv() Config {
	return Config{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	}
}

// NewClient connects and pings. An empty Addr means redis is not configured
// and returns (nil, nil).
func NewClient(log *logger.Logger, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		if log != nil {
			log.Info("REDIS_ADDR not set; using in-process locks")
		}
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("Connected to redis", "addr", cfg.Addr, "db", cfg.DB)
	}
	return rdb, nil
}
