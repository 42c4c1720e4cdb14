package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/catalog"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type InstructorCourseStats struct {
	CourseID      uuid.UUID `json:"course_id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	EnrolledCount int       `json:"enrolled_count"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	Price         int64     `json:"price"`
	Revenue       int64     `json:"revenue"`
}

type InstructorDashboard struct {
	InstructorID     uuid.UUID               `json:"instructor_id"`
	Courses          []InstructorCourseStats `json:"courses"`
	CourseCount      int                     `json:"course_count"`
	TotalEnrollments int                     `json:"total_enrollments"`
	TotalRevenue     int64                   `json:"total_revenue"`
}

type StudentCourseProgress struct {
	CourseID             uuid.UUID  `json:"course_id"`
	Name                 string     `json:"name"`
	Percentage           int        `json:"percentage"`
	CompletedCount       int        `json:"completed_count"`
	LectureCount         int        `json:"lecture_count"`
	TotalDurationSeconds int64      `json:"total_duration_seconds"`
	TotalDuration        string     `json:"total_duration"`
	LastAccessedAt       *time.Time `json:"last_accessed_at,omitempty"`
}

type StudentDashboard struct {
	UserID  uuid.UUID               `json:"user_id"`
	Courses []StudentCourseProgress `json:"courses"`
}

type DashboardService interface {
	InstructorDashboard(ctx context.Context, instructorID uuid.UUID) (*InstructorDashboard, error)
	// StudentDashboard lists enrolled courses, most recently accessed first.
	StudentDashboard(ctx context.Context, userID uuid.UUID) (*StudentDashboard, error)
}

type dashboardService struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	subSections repos.SubSectionRepo
	enrollments repos.EnrollmentRepo
	progress    repos.CourseProgressRepo
	metrics     *observability.Metrics
}

func NewDashboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users repos.UserRepo,
	courses repos.CourseRepo,
	subSections repos.SubSectionRepo,
	enrollments repos.EnrollmentRepo,
	progress repos.CourseProgressRepo,
	metrics *observability.Metrics,
) DashboardService {
	return &dashboardService{
		db:          db,
		log:         baseLog.With("service", "DashboardService"),
		users:       users,
		courses:     courses,
		subSections: subSections,
		enrollments: enrollments,
		progress:    progress,
		metrics:     metrics,
	}
}

func (s *dashboardService) InstructorDashboard(ctx context.Context, instructorID uuid.UUID) (*InstructorDashboard, error) {
	defer observeRead(s.metrics, "instructor_dashboard", time.Now())
	dbc := dbctx.Of(ctx)

	u, err := s.users.GetByID(dbc, instructorID)
	if err != nil {
		return nil, fmt.Errorf("load instructor: %w", err)
	}
	if u == nil {
		return nil, notFound("Dashboard.Instructor", "instructor not found")
	}
	courses, err := s.courses.ListByInstructor(dbc, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := &InstructorDashboard{
		InstructorID: instructorID,
		Courses:      make([]InstructorCourseStats, 0, len(courses)),
		CourseCount:  len(courses),
	}
	for _, c := range courses {
		revenue := int64(c.EnrolledCount) * c.Price
		out.Courses = append(out.Courses, InstructorCourseStats{
			CourseID:      c.ID,
			Name:          c.Name,
			Status:        c.Status,
			EnrolledCount: c.EnrolledCount,
			AverageRating: c.AverageRating,
			RatingCount:   c.RatingCount,
			Price:         c.Price,
			Revenue:       revenue,
		})
		out.TotalEnrollments += c.EnrolledCount
		out.TotalRevenue += revenue
	}
	return out, nil
}

func (s *dashboardService) StudentDashboard(ctx context.Context, userID uuid.UUID) (*StudentDashboard, error) {
	defer observeRead(s.metrics, "student_dashboard", time.Now())

	var (
		enrollments []*types.Enrollment
		progress    []*types.CourseProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.enrollments.ListByUser(dbctx.Of(gctx), userID)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}
		enrollments = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.progress.ListByUser(dbctx.Of(gctx), userID)
		if err != nil {
			return fmt.Errorf("list progress: %w", err)
		}
		progress = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	var (
		courses []*types.Course
		stats   map[uuid.UUID]repos.LectureStats
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.courses.GetByIDs(dbctx.Of(gctx), courseIDs)
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		courses = rows
		return nil
	})
	g.Go(func() error {
		m, err := s.subSections.StatsByCourseIDs(dbctx.Of(gctx), courseIDs)
		if err != nil {
			return fmt.Errorf("load lecture stats: %w", err)
		}
		stats = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	courseByID := make(map[uuid.UUID]*types.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	progressByCourse := make(map[uuid.UUID]*types.CourseProgress, len(progress))
	for _, p := range progress {
		progressByCourse[p.CourseID] = p
	}

	out := &StudentDashboard{UserID: userID, Courses: make([]StudentCourseProgress, 0, len(enrollments))}
	for _, e := range enrollments {
		c := courseByID[e.CourseID]
		if c == nil {
			s.log.Warn("enrollment references missing course", "user_id", userID, "course_id", e.CourseID)
			continue
		}
		st := stats[c.ID]
		row := StudentCourseProgress{
			CourseID:             c.ID,
			Name:                 c.Name,
			LectureCount:         st.Lectures,
			TotalDurationSeconds: st.DurationSeconds,
			TotalDuration:        catalog.FormatDuration(st.DurationSeconds),
		}
		if p := progressByCourse[c.ID]; p != nil {
			row.Percentage = p.Percentage
			row.CompletedCount = p.CompletedCount
			row.LastAccessedAt = p.LastAccessedAt
		}
		out.Courses = append(out.Courses, row)
	}
	sortByLastAccess(out.Courses)
	return out, nil
}

// sortByLastAccess orders rows by last access, newest first. Never-accessed
// courses go last, by name.
func sortByLastAccess(rows []StudentCourseProgress) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].LastAccessedAt, rows[j].LastAccessedAt
		switch {
		case a != nil && b != nil:
			if !a.Equal(*b) {
				return a.After(*b)
			}
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return rows[i].Name < rows[j].Name
	})
}
