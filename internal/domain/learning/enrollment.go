package learning

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment is the single source of truth for student/course membership.
// "Courses of a user" and "students of a course" are both answered from it.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"course_id"`
	EnrolledAt time.Time `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Enrollment) TableName() string { return "enrollment" }
