package app

import (
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	Category         repos.CategoryRepo
	Course           repos.CourseRepo
	Section          repos.SectionRepo
	SubSection       repos.SubSectionRepo
	Review           repos.ReviewRepo
	Enrollment       repos.EnrollmentRepo
	CourseProgress   repos.CourseProgressRepo
	CompletedLecture repos.CompletedLectureRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Debug("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Category:         repos.NewCategoryRepo(db, log),
		Course:           repos.NewCourseRepo(db, log),
		Section:          repos.NewSectionRepo(db, log),
		SubSection:       repos.NewSubSectionRepo(db, log),
		Review:           repos.NewReviewRepo(db, log),
		Enrollment:       repos.NewEnrollmentRepo(db, log),
		CourseProgress:   repos.NewCourseProgressRepo(db, log),
		CompletedLecture: repos.NewCompletedLectureRepo(db, log),
	}
}
