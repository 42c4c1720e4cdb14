package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubSection is a single lecture item.
type SubSection struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID       uuid.UUID `gorm:"type:uuid;not null;index:idx_sub_section_section_position,priority:1" json:"section_id"`
	Position        int       `gorm:"column:position;not null;index:idx_sub_section_section_position,priority:2" json:"position"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	Description     string    `gorm:"column:description;type:text" json:"description"`
	VideoURL        string    `gorm:"column:video_url" json:"video_url"`
	DurationSeconds int64     `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (SubSection) TableName() string { return "sub_section" }

// FormatDuration renders seconds as "1h 5m", "4m 12s" or "9s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
