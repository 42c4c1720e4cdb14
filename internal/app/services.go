package app

import (
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/seed"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/services"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/verify"
)

type Services struct {
	Enrollment services.EnrollmentService
	Content    services.ContentService
	Progress   services.ProgressService
	Dashboard  services.DashboardService
	Catalog    services.CatalogService
	Verifier   *verify.Verifier
	Seeder     *seed.Seeder
}

func wireServices(db *gorm.DB, log *logger.Logger, r Repos, a Aggregates, metrics *observability.Metrics) Services {
	log.Debug("Wiring services...")
	return Services{
		Enrollment: services.NewEnrollmentService(db, log, a.Enrollment, r.Enrollment, r.Course, r.User, metrics),
		Content:    services.NewContentService(db, log, r.Course, r.Category, r.User, r.Section, r.SubSection, metrics),
		Progress:   services.NewProgressService(db, log, a.Progress, r.CourseProgress, r.CompletedLecture, r.SubSection, metrics),
		Dashboard:  services.NewDashboardService(db, log, r.User, r.Course, r.SubSection, r.Enrollment, r.CourseProgress, metrics),
		Catalog:    services.NewCatalogService(db, log, r.Category, r.Course, metrics),
		Verifier: verify.New(db, log, verify.Deps{
			Users:       r.User,
			Categories:  r.Category,
			Courses:     r.Course,
			SubSections: r.SubSection,
			Enrollments: r.Enrollment,
			Progress:    r.CourseProgress,
			Completed:   r.CompletedLecture,
			Reviews:     r.Review,
		}),
		Seeder: seed.New(log, seed.Deps{
			Users:       r.User,
			Categories:  r.Category,
			Courses:     r.Course,
			Sections:    r.Section,
			SubSections: r.SubSection,
			Course:      a.Course,
			Enrollment:  a.Enrollment,
			Progress:    a.Progress,
			Review:      a.Review,
		}),
	}
}
