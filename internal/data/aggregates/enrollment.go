package aggregates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type EnrollmentAggregateDeps struct {
	Base BaseDeps

	Users       repos.UserRepo
	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	Progress    repos.CourseProgressRepo
	Completed   repos.CompletedLectureRepo
	Reviews     repos.ReviewRepo

	Locker  PairLocker
	Metrics *observability.Metrics
}

type enrollmentAggregate struct {
	deps EnrollmentAggregateDeps
}

func NewEnrollmentAggregate(deps EnrollmentAggregateDeps) domainagg.EnrollmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) Contract() domainagg.Contract {
	return domainagg.EnrollmentAggregateContract
}

func (a *enrollmentAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Learning.Enrollment.Enroll"

	out := domainagg.EnrollResult{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if a.deps.Users == nil || a.deps.Courses == nil || a.deps.Enrollments == nil || a.deps.Progress == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate missing repos", nil)
	}
	at := eventTime(in.At)

	unlock, err := lockPair(ctx, op, a.deps.Locker, a.deps.Metrics, in.UserID, in.CourseID)
	if err != nil {
		return out, err
	}
	defer unlock()

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u, err := a.deps.Users.GetByID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "user not found", nil)
		}
		if !u.IsStudent() {
			return domainagg.NewError(domainagg.CodeValidation, op, "only students can enroll; user role is "+u.Role, nil)
		}
		// Held until commit so an unpublish cannot land between the status
		// check and the insert.
		course, err := a.deps.Courses.LockByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
		}
		if !course.IsPublished() {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "course is not published", nil)
		}

		row := &types.Enrollment{
			ID:         uuid.New(),
			UserID:     in.UserID,
			CourseID:   in.CourseID,
			EnrolledAt: at,
			CreatedAt:  at,
		}
		inserted, err := a.deps.Enrollments.CreateIgnoreDuplicates(dbc, row)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := a.deps.Enrollments.Get(dbc, in.UserID, in.CourseID)
			if err != nil {
				return err
			}
			if existing == nil {
				return RetryableError("enrollment vanished after duplicate insert")
			}
			out = domainagg.EnrollResult{
				EnrollmentID:  existing.ID,
				Enrolled:      false,
				EnrolledCount: course.EnrolledCount,
				EnrolledAt:    existing.EnrolledAt,
			}
			return nil
		}

		// The counter update also catches a course deleted since the read above.
		count, err := a.deps.Courses.AddEnrolled(dbc, in.CourseID, 1)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "course not found", err)
			}
			return err
		}
		if _, err := a.deps.Progress.Ensure(dbc, in.UserID, in.CourseID); err != nil {
			return err
		}
		out = domainagg.EnrollResult{
			EnrollmentID:  row.ID,
			Enrolled:      true,
			EnrolledCount: count,
			EnrolledAt:    at,
		}
		return nil
	})
	if err != nil {
		a.deps.Metrics.IncEnrollment(string(domainagg.CodeOf(err)))
		return domainagg.EnrollResult{}, err
	}
	if out.Enrolled {
		a.deps.Metrics.IncEnrollment("enrolled")
		a.deps.Base.Log.Info("student enrolled", "user_id", in.UserID, "course_id", in.CourseID, "enrolled_count", out.EnrolledCount)
	} else {
		a.deps.Metrics.IncEnrollment("already_enrolled")
	}
	return out, nil
}

func (a *enrollmentAggregate) Unenroll(ctx context.Context, in domainagg.UnenrollInput) (domainagg.UnenrollResult, error) {
	const op = "Learning.Enrollment.Unenroll"

	out := domainagg.UnenrollResult{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if a.deps.Courses == nil || a.deps.Enrollments == nil || a.deps.Progress == nil || a.deps.Completed == nil || a.deps.Reviews == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate missing repos", nil)
	}

	unlock, err := lockPair(ctx, op, a.deps.Locker, a.deps.Metrics, in.UserID, in.CourseID)
	if err != nil {
		return out, err
	}
	defer unlock()

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.deps.Courses.LockByID(dbc, in.CourseID); err != nil {
			return err
		}
		removed, err := a.deps.Enrollments.Delete(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if !removed {
			return domainagg.NewError(domainagg.CodeNotEnrolled, op, "user is not enrolled in course", nil)
		}
		count, err := a.deps.Courses.AddEnrolled(dbc, in.CourseID, -1)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return InvariantError("enrollment referenced a missing course")
			}
			return err
		}
		if count < 0 {
			return InvariantError("enrolled_count dropped below zero")
		}
		progress, err := a.deps.Progress.Delete(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if progress != nil {
			if _, err := a.deps.Completed.DeleteByProgressIDs(dbc, []uuid.UUID{progress.ID}); err != nil {
				return err
			}
		}
		// Only enrolled students may rate a course.
		reviewed, err := a.deps.Reviews.Delete(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if reviewed {
			if _, _, err := refreshRating(dbc, a.deps.Reviews, a.deps.Courses, in.CourseID); err != nil {
				return err
			}
		}
		out = domainagg.UnenrollResult{
			EnrolledCount:   count,
			ProgressDeleted: progress != nil,
			ReviewDeleted:   reviewed,
		}
		return nil
	})
	if err != nil {
		return domainagg.UnenrollResult{}, err
	}
	a.deps.Metrics.IncEnrollment("unenrolled")
	a.deps.Base.Log.Info("student unenrolled", "user_id", in.UserID, "course_id", in.CourseID, "enrolled_count", out.EnrolledCount)
	return out, nil
}
