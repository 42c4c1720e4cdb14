package learning

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type CourseProgress struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_progress_user_course,priority:1" json:"user_id"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_course_progress_user_course,priority:2;index" json:"course_id"`
	CompletedCount  int        `gorm:"column:completed_count;not null;default:0" json:"completed_count"`
	Percentage      int        `gorm:"column:percentage;not null;default:0" json:"percentage"`
	FirstAccessedAt *time.Time `gorm:"column:first_accessed_at" json:"first_accessed_at,omitempty"`
	LastAccessedAt  *time.Time `gorm:"column:last_accessed_at;index" json:"last_accessed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (CourseProgress) TableName() string { return "course_progress" }

// CompletedLecture is one member of a progress record's completed set.
type CompletedLecture struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProgressID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completed_lecture_progress_item,priority:1" json:"progress_id"`
	SubSectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completed_lecture_progress_item,priority:2;index" json:"sub_section_id"`
	CompletedAt  time.Time `gorm:"column:completed_at;not null" json:"completed_at"`
}

func (CompletedLecture) TableName() string { return "completed_lecture" }

// CompletionPercentage is completed/total*100 rounded to the nearest whole
// percent and clamped to [0,100]. A course without lectures is 0%.
func CompletionPercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
