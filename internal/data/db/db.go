package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/envutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	SQLitePath string

	SlowThreshold time.Duration
}

func ConfigFromEnv(logg *logger.Logger) Config {
	return Config{
		Driver:           strings.ToLower(envutil.Logged(logg, "DB_DRIVER", DriverPostgres)),
		PostgresHost:     envutil.Logged(logg, "POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.Logged(logg, "POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.Logged(logg, "POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.Logged(logg, "POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.Logged(logg, "POSTGRES_NAME", "lms"),
		PostgresSSLMode:  envutil.Logged(logg, "POSTGRES_SSLMODE", "disable"),
		SQLitePath:       envutil.Logged(logg, "SQLITE_PATH", "lms.db"),
		SlowThreshold:    envutil.Millis("DB_SLOW_THRESHOLD_MS", time.Second),
	}
}

// Service owns the process-wide *gorm.DB.
type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewService(cfg Config, logg *logger.Logger) (*Service, error) {
	switch cfg.Driver {
	case "", DriverPostgres:
		return NewPostgresService(cfg, logg)
	case DriverSQLite:
		return NewSQLiteService(cfg, logg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func (s *Service) DB() *gorm.DB   { return s.db }
func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig(cfg Config) *gorm.Config {
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	}
}
