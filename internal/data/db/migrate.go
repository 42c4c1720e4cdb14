package db

import (
	"fmt"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureCatalogIndexes creates the indexes gorm tags cannot express. The
// statements are valid on both Postgres and SQLite.
func EnsureCatalogIndexes(db *gorm.DB) error {
	// Catalog and top-selling queries only ever look at published courses.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_published_enrolled
		ON course (enrolled_count DESC)
		WHERE status = 'Published';
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_published_enrolled: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_category_status
		ON course (category_id, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_category_status: %w", err)
	}

	// Student dashboard ordering.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_progress_user_last_access
		ON course_progress (user_id, last_accessed_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_progress_user_last_access: %w", err)
	}

	return nil
}

func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return err
	}
	return EnsureCatalogIndexes(db)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCatalogIndexes(s.db); err != nil {
		s.log.Error("Catalog index migration failed", "error", err)
		return err
	}
	return nil
}
