// Package seed loads a YAML catalog fixture through the write aggregates, so a
// seeded store holds the same invariants as one built by real traffic.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Deps struct {
	Users       repos.UserRepo
	Categories  repos.CategoryRepo
	Courses     repos.CourseRepo
	Sections    repos.SectionRepo
	SubSections repos.SubSectionRepo

	Course     domainagg.CourseAggregate
	Enrollment domainagg.EnrollmentAggregate
	Progress   domainagg.ProgressAggregate
	Review     domainagg.ReviewAggregate
}

// Result maps fixture keys to the ids they resolved to. Lecture keys are
// "<course>/<lecture>".
type Result struct {
	Categories map[string]uuid.UUID `json:"categories"`
	Users      map[string]uuid.UUID `json:"users"`
	Courses    map[string]uuid.UUID `json:"courses"`
	Lectures   map[string]uuid.UUID `json:"lectures"`

	CreatedUsers      int `json:"created_users"`
	CreatedCategories int `json:"created_categories"`
	CreatedCourses    int `json:"created_courses"`
	Enrolled          int `json:"enrolled"`
	Completed         int `json:"completed"`
	Reviewed          int `json:"reviewed"`
}

type Seeder struct {
	log  *logger.Logger
	deps Deps
}

func New(baseLog *logger.Logger, deps Deps) *Seeder {
	return &Seeder{log: baseLog.With("service", "Seeder"), deps: deps}
}

// Apply writes fx. Re-applying the same fixture is a no-op: users match by
// email, categories by name, courses by instructor and name, and membership
// writes are idempotent.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) (*Result, error) {
	if fx == nil {
		return nil, fmt.Errorf("nil fixture")
	}
	res := &Result{
		Categories: map[string]uuid.UUID{},
		Users:      map[string]uuid.UUID{},
		Courses:    map[string]uuid.UUID{},
		Lectures:   map[string]uuid.UUID{},
	}
	steps := []struct {
		name string
		fn   func(context.Context, *Fixture, *Result) error
	}{
		{"categories", s.applyCategories},
		{"users", s.applyUsers},
		{"courses", s.applyCourses},
		{"enrollments", s.applyEnrollments},
		{"completions", s.applyCompletions},
		{"reviews", s.applyReviews},
	}
	for _, step := range steps {
		if err := step.fn(ctx, fx, res); err != nil {
			return nil, fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	s.log.Info("seed applied",
		"users", res.CreatedUsers,
		"categories", res.CreatedCategories,
		"courses", res.CreatedCourses,
		"enrolled", res.Enrolled,
		"completed", res.Completed,
		"reviewed", res.Reviewed,
	)
	return res, nil
}

func (s *Seeder) applyCategories(ctx context.Context, fx *Fixture, res *Result) error {
	dbc := dbctx.Of(ctx)
	for _, c := range fx.Categories {
		existing, err := s.deps.Categories.GetByName(dbc, c.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			res.Categories[c.Key] = existing.ID
			continue
		}
		created, err := s.deps.Categories.Create(dbc, []*types.Category{{Name: c.Name, Description: c.Description}})
		if err != nil {
			return fmt.Errorf("create %q: %w", c.Key, err)
		}
		res.Categories[c.Key] = created[0].ID
		res.CreatedCategories++
	}
	return nil
}

func (s *Seeder) applyUsers(ctx context.Context, fx *Fixture, res *Result) error {
	dbc := dbctx.Of(ctx)
	for _, u := range fx.Users {
		existing, err := s.deps.Users.GetByEmail(dbc, u.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			res.Users[u.Key] = existing.ID
			continue
		}
		created, err := s.deps.Users.Create(dbc, []*types.User{{
			Email:     strings.ToLower(strings.TrimSpace(u.Email)),
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      canonicalRole(u.Role),
			AvatarURL: u.AvatarURL,
		}})
		if err != nil {
			return fmt.Errorf("create %q: %w", u.Key, err)
		}
		res.Users[u.Key] = created[0].ID
		res.CreatedUsers++
	}
	return nil
}

func (s *Seeder) applyCourses(ctx context.Context, fx *Fixture, res *Result) error {
	dbc := dbctx.Of(ctx)
	for _, c := range fx.Courses {
		instID, err := lookup(res.Users, "user", c.Instructor)
		if err != nil {
			return err
		}
		catID, err := lookup(res.Categories, "category", c.Category)
		if err != nil {
			return err
		}
		owned, err := s.deps.Courses.ListByInstructor(dbc, instID)
		if err != nil {
			return err
		}
		if existing := findCourse(owned, c.Name); existing != nil {
			res.Courses[c.Key] = existing.ID
			if err := s.resolveLectures(ctx, c, existing.ID, res); err != nil {
				return err
			}
			continue
		}

		courseID, err := s.deps.Course.CreateCourse(ctx, domainagg.CreateCourseInput{
			InstructorID: instID,
			CategoryID:   catID,
			Name:         c.Name,
			Description:  c.Description,
			Price:        c.Price,
			ThumbnailURL: c.ThumbnailURL,
			Tags:         c.Tags,
			Instructions: c.Instructions,
		})
		if err != nil {
			return fmt.Errorf("create %q: %w", c.Key, err)
		}
		res.Courses[c.Key] = courseID
		res.CreatedCourses++

		for _, sec := range c.Sections {
			sectionID, err := s.deps.Course.AddSection(ctx, domainagg.AddSectionInput{
				InstructorID: instID, CourseID: courseID, Name: sec.Name,
			})
			if err != nil {
				return fmt.Errorf("course %q section %q: %w", c.Key, sec.Name, err)
			}
			for _, l := range sec.Lectures {
				id, err := s.deps.Course.AddSubSection(ctx, domainagg.AddSubSectionInput{
					InstructorID:    instID,
					SectionID:       sectionID,
					Title:           l.Title,
					Description:     l.Description,
					VideoURL:        l.VideoURL,
					DurationSeconds: l.DurationSeconds,
				})
				if err != nil {
					return fmt.Errorf("course %q lecture %q: %w", c.Key, l.Key, err)
				}
				res.Lectures[c.Key+"/"+l.Key] = id
			}
		}
		// Content goes in first so no student ever sees a half-built course.
		if c.Publish {
			if _, err := s.deps.Course.PublishCourse(ctx, domainagg.CourseRef{InstructorID: instID, CourseID: courseID}); err != nil {
				return fmt.Errorf("publish %q: %w", c.Key, err)
			}
		}
	}
	return nil
}

// resolveLectures maps lecture keys of an already seeded course. Sections
// match by name and lectures by title within their section.
func (s *Seeder) resolveLectures(ctx context.Context, c CourseFixture, courseID uuid.UUID, res *Result) error {
	dbc := dbctx.Of(ctx)
	sections, err := s.deps.Sections.ListByCourse(dbc, courseID)
	if err != nil {
		return err
	}
	byName := make(map[string]uuid.UUID, len(sections))
	ids := make([]uuid.UUID, 0, len(sections))
	for _, sec := range sections {
		byName[sec.Name] = sec.ID
		ids = append(ids, sec.ID)
	}
	lectures, err := s.deps.SubSections.ListBySectionIDs(dbc, ids)
	if err != nil {
		return err
	}
	byTitle := make(map[uuid.UUID]map[string]uuid.UUID, len(sections))
	for _, l := range lectures {
		if byTitle[l.SectionID] == nil {
			byTitle[l.SectionID] = map[string]uuid.UUID{}
		}
		byTitle[l.SectionID][l.Title] = l.ID
	}
	for _, sec := range c.Sections {
		for _, l := range sec.Lectures {
			id, ok := byTitle[byName[sec.Name]][l.Title]
			if !ok {
				return fmt.Errorf("course %q exists without lecture %q", c.Key, l.Key)
			}
			res.Lectures[c.Key+"/"+l.Key] = id
		}
	}
	return nil
}

func (s *Seeder) applyEnrollments(ctx context.Context, fx *Fixture, res *Result) error {
	for _, e := range fx.Enrollments {
		userID, courseID, err := pair(res, e.User, e.Course)
		if err != nil {
			return err
		}
		out, err := s.deps.Enrollment.Enroll(ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID})
		if err != nil {
			return fmt.Errorf("%s in %s: %w", e.User, e.Course, err)
		}
		if out.Enrolled {
			res.Enrolled++
		}
	}
	return nil
}

func (s *Seeder) applyCompletions(ctx context.Context, fx *Fixture, res *Result) error {
	for _, c := range fx.Completions {
		userID, courseID, err := pair(res, c.User, c.Course)
		if err != nil {
			return err
		}
		lectureID, err := lookup(res.Lectures, "lecture", c.Course+"/"+c.Lecture)
		if err != nil {
			return err
		}
		view, err := s.deps.Progress.MarkComplete(ctx, domainagg.MarkCompleteInput{
			UserID: userID, CourseID: courseID, LectureID: lectureID,
		})
		if err != nil {
			return fmt.Errorf("%s completes %s/%s: %w", c.User, c.Course, c.Lecture, err)
		}
		if view.NewlyCompleted {
			res.Completed++
		}
	}
	return nil
}

func (s *Seeder) applyReviews(ctx context.Context, fx *Fixture, res *Result) error {
	for _, r := range fx.Reviews {
		userID, courseID, err := pair(res, r.User, r.Course)
		if err != nil {
			return err
		}
		if _, err := s.deps.Review.SubmitReview(ctx, domainagg.SubmitReviewInput{
			UserID: userID, CourseID: courseID, Rating: r.Rating, Text: r.Text,
		}); err != nil {
			return fmt.Errorf("%s reviews %s: %w", r.User, r.Course, err)
		}
		res.Reviewed++
	}
	return nil
}

func pair(res *Result, userKey, courseKey string) (uuid.UUID, uuid.UUID, error) {
	userID, err := lookup(res.Users, "user", userKey)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	courseID, err := lookup(res.Courses, "course", courseKey)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, courseID, nil
}

func lookup(m map[string]uuid.UUID, kind, key string) (uuid.UUID, error) {
	id, ok := m[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown %s key %q", kind, key)
	}
	return id, nil
}

func findCourse(rows []*types.Course, name string) *types.Course {
	for _, c := range rows {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func canonicalRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "instructor":
		return types.RoleInstructor
	case "admin":
		return types.RoleAdmin
	default:
		return types.RoleStudent
	}
}
