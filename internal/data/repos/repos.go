package repos

import (
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/catalog"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/learning"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/user"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CategoryRepo = catalog.CategoryRepo
type CourseRepo = catalog.CourseRepo
type SectionRepo = catalog.SectionRepo
type SubSectionRepo = catalog.SubSectionRepo
type ReviewRepo = catalog.ReviewRepo
type LectureStats = catalog.LectureStats
type RatingStats = catalog.RatingStats

type EnrollmentRepo = learning.EnrollmentRepo
type CourseProgressRepo = learning.CourseProgressRepo
type CompletedLectureRepo = learning.CompletedLectureRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewCategoryRepo(db *gorm.DB, log *logger.Logger) CategoryRepo {
	return catalog.NewCategoryRepo(db, log)
}
func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo { return catalog.NewCourseRepo(db, log) }
func NewSectionRepo(db *gorm.DB, log *logger.Logger) SectionRepo {
	return catalog.NewSectionRepo(db, log)
}
func NewSubSectionRepo(db *gorm.DB, log *logger.Logger) SubSectionRepo {
	return catalog.NewSubSectionRepo(db, log)
}
func NewReviewRepo(db *gorm.DB, log *logger.Logger) ReviewRepo { return catalog.NewReviewRepo(db, log) }

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, log)
}
func NewCourseProgressRepo(db *gorm.DB, log *logger.Logger) CourseProgressRepo {
	return learning.NewCourseProgressRepo(db, log)
}
func NewCompletedLectureRepo(db *gorm.DB, log *logger.Logger) CompletedLectureRepo {
	return learning.NewCompletedLectureRepo(db, log)
}
