package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Section belongs to one course. Sections of a course are ordered by
// ascending Position; positions may have gaps after deletes.
type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_section_course_position,priority:1" json:"course_id"`
	Position  int       `gorm:"column:position;not null;index:idx_section_course_position,priority:2" json:"position"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Section) TableName() string { return "section" }
