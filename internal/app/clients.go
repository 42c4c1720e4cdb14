package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/clients/redis"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Clients struct {
	Redis  *goredis.Client
	Locker aggregates.PairLocker
}

// wireClients connects to redis when REDIS_ADDR is set. Without it enrollment
// pair locks stay in-process, which is only safe for a single instance.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Debug("Wiring clients...")
	rdb, err := redis.NewClient(log, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	if rdb == nil {
		return Clients{Locker: aggregates.NewLocalPairLocker()}, nil
	}
	return Clients{
		Redis:  rdb,
		Locker: redis.NewLocker(rdb, log, cfg.EnrollLockTTL),
	}, nil
}

func (c Clients) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
