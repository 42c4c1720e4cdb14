package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

// SQLiteDSN enables foreign keys and a busy timeout on every connection.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func NewSQLiteService(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")

	db, err := OpenSQLite(cfg.SQLitePath, gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Opened SQLite database", "path", cfg.SQLitePath)
	return &Service{db: db, driver: DriverSQLite, log: serviceLog}, nil
}

// OpenSQLite opens path with a single connection. SQLite allows one writer at
// a time, so transactions queue on the pool instead of failing with SQLITE_BUSY.
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
