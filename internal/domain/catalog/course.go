package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CourseStatusDraft     = "Draft"
	CourseStatusPublished = "Published"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	CategoryID   uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`

	Name         string                      `gorm:"column:name;not null" json:"name"`
	Description  string                      `gorm:"column:description;type:text" json:"description"`
	Price        int64                       `gorm:"column:price;not null;default:0" json:"price"`
	Status       string                      `gorm:"column:status;not null;default:'Draft';index" json:"status"`
	ThumbnailURL string                      `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	Tags         datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Instructions datatypes.JSONSlice[string] `gorm:"column:instructions" json:"instructions"`

	// Denormalized. EnrolledCount always equals the number of enrollment rows
	// for the course; rating fields are recomputed on every review write.
	EnrolledCount int     `gorm:"column:enrolled_count;not null;default:0" json:"enrolled_count"`
	AverageRating float64 `gorm:"column:average_rating;not null;default:0" json:"average_rating"`
	RatingCount   int     `gorm:"column:rating_count;not null;default:0" json:"rating_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) IsPublished() bool {
	return c != nil && c.Status == CourseStatusPublished
}
