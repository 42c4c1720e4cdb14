package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/db"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/envutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        Config
	Metrics    *observability.Metrics
	Clients    Clients
	Repos      Repos
	Aggregates Aggregates
	Services   Services

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Debug("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "lms",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := dbService.AutoMigrateAll(); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	theDB := dbService.DB()
	repoSet, aggSet, serviceSet := Wire(theDB, log, clients.Locker, metrics)
	if err := aggSet.CheckContracts(); err != nil {
		_ = clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("aggregate contracts: %w", err)
	}
	for _, c := range aggSet.Contracts() {
		log.Debug("aggregate wired", "aggregate", c.Name, "course_lock", c.CourseLock)
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        repoSet,
		Aggregates:   aggSet,
		Services:     serviceSet,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Wire builds the repo, aggregate and service graph over an open database.
// A nil locker falls back to in-process pair locks.
func Wire(gdb *gorm.DB, log *logger.Logger, locker aggregates.PairLocker, metrics *observability.Metrics) (Repos, Aggregates, Services) {
	if locker == nil {
		locker = aggregates.NewLocalPairLocker()
	}
	repoSet := wireRepos(gdb, log)
	aggSet := wireAggregates(gdb, log, repoSet, locker, metrics)
	serviceSet := wireServices(gdb, log, repoSet, aggSet, metrics)
	return repoSet, aggSet, serviceSet
}

// Start launches the optional background collectors and the metrics endpoint.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil || a.Metrics == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("redis close failed", "error", err)
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	a.Log.Sync()
}

// WriteMetricsFile writes the current registry in Prometheus text format,
// replacing path atomically so a textfile collector never reads a partial
// file.
func (a *App) WriteMetricsFile(path string) error {
	if a == nil || a.Metrics == nil {
		return errors.New("metrics are disabled; set METRICS_ENABLED=true")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".metrics-*")
	if err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := a.Metrics.WritePrometheus(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Migrate creates or updates every table and index.
func (a *App) Migrate() error {
	return a.dbService.AutoMigrateAll()
}
