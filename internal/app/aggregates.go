package app

import (
	"errors"

	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Aggregates struct {
	Enrollment domainagg.EnrollmentAggregate
	Progress   domainagg.ProgressAggregate
	Course     domainagg.CourseAggregate
	Review     domainagg.ReviewAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, r Repos, locker aggregates.PairLocker, metrics *observability.Metrics) Aggregates {
	log.Debug("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log.With("layer", "aggregate"),
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	return Aggregates{
		Enrollment: aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
			Base:        base,
			Users:       r.User,
			Courses:     r.Course,
			Enrollments: r.Enrollment,
			Progress:    r.CourseProgress,
			Completed:   r.CompletedLecture,
			Reviews:     r.Review,
			Locker:      locker,
			Metrics:     metrics,
		}),
		Progress: aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
			Base:        base,
			Courses:     r.Course,
			Enrollments: r.Enrollment,
			SubSections: r.SubSection,
			Progress:    r.CourseProgress,
			Completed:   r.CompletedLecture,
			Metrics:     metrics,
		}),
		Course: aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
			Base:        base,
			Users:       r.User,
			Categories:  r.Category,
			Courses:     r.Course,
			Sections:    r.Section,
			SubSections: r.SubSection,
			Enrollments: r.Enrollment,
			Progress:    r.CourseProgress,
			Completed:   r.CompletedLecture,
			Reviews:     r.Review,
		}),
		Review: aggregates.NewReviewAggregate(aggregates.ReviewAggregateDeps{
			Base:        base,
			Courses:     r.Course,
			Enrollments: r.Enrollment,
			Reviews:     r.Review,
		}),
	}
}

// Contracts lists the contract of every wired aggregate.
func (a Aggregates) Contracts() []domainagg.Contract {
	all := []domainagg.Aggregate{a.Enrollment, a.Progress, a.Course, a.Review}
	out := make([]domainagg.Contract, 0, len(all))
	for _, agg := range all {
		if agg == nil {
			continue
		}
		out = append(out, agg.Contract())
	}
	return out
}

// CheckContracts fails when an aggregate is missing or declares a policy the
// write path does not implement.
func (a Aggregates) CheckContracts() error {
	if a.Enrollment == nil || a.Progress == nil || a.Course == nil || a.Review == nil {
		return errors.New("aggregate set is incomplete")
	}
	var errs []error
	for _, c := range a.Contracts() {
		errs = append(errs, c.Validate())
	}
	return errors.Join(errs...)
}
