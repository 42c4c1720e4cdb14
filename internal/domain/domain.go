package domain

import (
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/catalog"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/learning"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/user"
)

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor
	RoleAdmin      = user.RoleAdmin

	CourseStatusDraft     = catalog.CourseStatusDraft
	CourseStatusPublished = catalog.CourseStatusPublished
)

type User = user.User

type Category = catalog.Category
type Course = catalog.Course
type Section = catalog.Section
type SubSection = catalog.SubSection
type Review = catalog.Review

type Enrollment = learning.Enrollment
type CourseProgress = learning.CourseProgress
type CompletedLecture = learning.CompletedLecture

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Course{},
		&Section{},
		&SubSection{},
		&Enrollment{},
		&CourseProgress{},
		&CompletedLecture{},
		&Review{},
	}
}
