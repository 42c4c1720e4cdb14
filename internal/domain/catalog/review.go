package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course,priority:1" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course,priority:2;index" json:"course_id"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Text      string    `gorm:"column:text;type:text" json:"text"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Review) TableName() string { return "review" }
