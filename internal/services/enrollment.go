package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (domainagg.EnrollResult, error)
	Unenroll(ctx context.Context, userID, courseID uuid.UUID) (domainagg.UnenrollResult, error)
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	// ListEnrolledCourses returns the user's courses, most recent enrollment first.
	ListEnrolledCourses(ctx context.Context, userID uuid.UUID) ([]*types.Course, error)
	// ListEnrolledStudents returns a course's students in enrollment order.
	ListEnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]*types.User, error)
}

type enrollmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	agg         domainagg.EnrollmentAggregate
	enrollments repos.EnrollmentRepo
	courses     repos.CourseRepo
	users       repos.UserRepo
	metrics     *observability.Metrics
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	agg domainagg.EnrollmentAggregate,
	enrollments repos.EnrollmentRepo,
	courses repos.CourseRepo,
	users repos.UserRepo,
	metrics *observability.Metrics,
) EnrollmentService {
	return &enrollmentService{
		db:          db,
		log:         baseLog.With("service", "EnrollmentService"),
		agg:         agg,
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		metrics:     metrics,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (domainagg.EnrollResult, error) {
	return s.agg.Enroll(ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID})
}

func (s *enrollmentService) Unenroll(ctx context.Context, userID, courseID uuid.UUID) (domainagg.UnenrollResult, error) {
	return s.agg.Unenroll(ctx, domainagg.UnenrollInput{UserID: userID, CourseID: courseID})
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	ok, err := s.enrollments.Exists(dbctx.Of(ctx), userID, courseID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return ok, nil
}

func (s *enrollmentService) ListEnrolledCourses(ctx context.Context, userID uuid.UUID) ([]*types.Course, error) {
	defer observeRead(s.metrics, "enrolled_courses", time.Now())
	dbc := dbctx.Of(ctx)
	rows, err := s.enrollments.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CourseID)
	}
	courses, err := s.courses.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	out := make([]*types.Course, 0, len(ids))
	for _, id := range ids {
		if c := byID[id]; c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *enrollmentService) ListEnrolledStudents(ctx context.Context, courseID uuid.UUID) ([]*types.User, error) {
	defer observeRead(s.metrics, "enrolled_students", time.Now())
	dbc := dbctx.Of(ctx)
	rows, err := s.enrollments.ListByCourse(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*types.User, 0, len(ids))
	for _, id := range ids {
		if u := byID[id]; u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}
