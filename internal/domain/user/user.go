package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent    = "Student"
	RoleInstructor = "Instructor"
	RoleAdmin      = "Admin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	FirstName string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string    `gorm:"not null;column:last_name" json:"last_name"`
	Role      string    `gorm:"not null;column:role;index" json:"role"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsStudent() bool    { return u != nil && u.Role == RoleStudent }
func (u *User) IsInstructor() bool { return u != nil && u.Role == RoleInstructor }
