package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/catalog"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type InstructorSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SectionContent struct {
	Section     *types.Section      `json:"section"`
	SubSections []*types.SubSection `json:"sub_sections"`
}

// CourseContent is a course with its whole content tree resolved, sections
// and lectures in position order.
type CourseContent struct {
	Course               *types.Course     `json:"course"`
	Instructor           InstructorSummary `json:"instructor"`
	Category             CategorySummary   `json:"category"`
	Sections             []SectionContent  `json:"sections"`
	LectureCount         int               `json:"lecture_count"`
	TotalDurationSeconds int64             `json:"total_duration_seconds"`
	TotalDuration        string            `json:"total_duration"`
}

type ContentService interface {
	// GetCourseWithContent loads the course tree. Concurrent calls for the same
	// course share one load; the returned value must not be mutated.
	GetCourseWithContent(ctx context.Context, courseID uuid.UUID) (*CourseContent, error)
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	categories  repos.CategoryRepo
	users       repos.UserRepo
	sections    repos.SectionRepo
	subSections repos.SubSectionRepo
	metrics     *observability.Metrics

	loads singleflight.Group
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	categories repos.CategoryRepo,
	users repos.UserRepo,
	sections repos.SectionRepo,
	subSections repos.SubSectionRepo,
	metrics *observability.Metrics,
) ContentService {
	return &contentService{
		db:          db,
		log:         baseLog.With("service", "ContentService"),
		courses:     courses,
		categories:  categories,
		users:       users,
		sections:    sections,
		subSections: subSections,
		metrics:     metrics,
	}
}

func (s *contentService) GetCourseWithContent(ctx context.Context, courseID uuid.UUID) (*CourseContent, error) {
	defer observeRead(s.metrics, "course_content", time.Now())
	if courseID == uuid.Nil {
		return nil, notFound("Catalog.Content.Get", "course not found")
	}
	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(courseID.String(), func() (interface{}, error) {
		return s.load(loadCtx, courseID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CourseContent), nil
	}
}

func (s *contentService) load(ctx context.Context, courseID uuid.UUID) (*CourseContent, error) {
	dbc := dbctx.Of(ctx)
	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, notFound("Catalog.Content.Get", "course not found")
	}
	out := &CourseContent{Course: course, Sections: []SectionContent{}}

	instructor, err := s.users.GetByID(dbc, course.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("load instructor: %w", err)
	}
	if instructor != nil {
		out.Instructor = InstructorSummary{ID: instructor.ID, Name: instructor.FullName(), Email: instructor.Email}
	} else {
		s.log.Warn("course instructor missing", "course_id", course.ID, "instructor_id", course.InstructorID)
	}
	category, err := s.categories.GetByID(dbc, course.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if category != nil {
		out.Category = CategorySummary{ID: category.ID, Name: category.Name}
	}

	sections, err := s.sections.ListByCourse(dbc, course.ID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	sectionIDs := make([]uuid.UUID, 0, len(sections))
	for _, sec := range sections {
		sectionIDs = append(sectionIDs, sec.ID)
	}
	subs, err := s.subSections.ListBySectionIDs(dbc, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("load lectures: %w", err)
	}
	bySection := make(map[uuid.UUID][]*types.SubSection, len(sections))
	for _, sub := range subs {
		bySection[sub.SectionID] = append(bySection[sub.SectionID], sub)
		out.LectureCount++
		out.TotalDurationSeconds += sub.DurationSeconds
	}
	for _, sec := range sections {
		lectures := bySection[sec.ID]
		if lectures == nil {
			lectures = []*types.SubSection{}
		}
		out.Sections = append(out.Sections, SectionContent{Section: sec, SubSections: lectures})
	}
	out.TotalDuration = catalog.FormatDuration(out.TotalDurationSeconds)
	return out, nil
}
