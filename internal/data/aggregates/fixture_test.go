package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	aggtestutil "github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates/testutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	repotestutil "github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/testutil"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	hooks *aggtestutil.HooksRecorder

	users       repos.UserRepo
	categories  repos.CategoryRepo
	courses     repos.CourseRepo
	sections    repos.SectionRepo
	subSections repos.SubSectionRepo
	enrollments repos.EnrollmentRepo
	progress    repos.CourseProgressRepo
	completed   repos.CompletedLectureRepo
	reviews     repos.ReviewRepo

	enroll  domainagg.EnrollmentAggregate
	track   domainagg.ProgressAggregate
	author  domainagg.CourseAggregate
	reviewA domainagg.ReviewAggregate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotestutil.DB(t)
	log := repotestutil.Logger(t)
	f := &fixture{
		ctx:         context.Background(),
		db:          db,
		hooks:       &aggtestutil.HooksRecorder{},
		users:       repos.NewUserRepo(db, log),
		categories:  repos.NewCategoryRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		sections:    repos.NewSectionRepo(db, log),
		subSections: repos.NewSubSectionRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		progress:    repos.NewCourseProgressRepo(db, log),
		completed:   repos.NewCompletedLectureRepo(db, log),
		reviews:     repos.NewReviewRepo(db, log),
	}
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: f.hooks}
	f.enroll = aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        base,
		Users:       f.users,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Progress:    f.progress,
		Completed:   f.completed,
		Reviews:     f.reviews,
		Locker:      aggregates.NewLocalPairLocker(),
	})
	f.track = aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:        base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		SubSections: f.subSections,
		Progress:    f.progress,
		Completed:   f.completed,
	})
	f.author = aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base:        base,
		Users:       f.users,
		Categories:  f.categories,
		Courses:     f.courses,
		Sections:    f.sections,
		SubSections: f.subSections,
		Enrollments: f.enrollments,
		Progress:    f.progress,
		Completed:   f.completed,
		Reviews:     f.reviews,
	})
	f.reviewA = aggregates.NewReviewAggregate(aggregates.ReviewAggregateDeps{
		Base:        base,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Reviews:     f.reviews,
	})
	return f
}

func (f *fixture) dbc() dbctx.Context { return dbctx.Context{Ctx: f.ctx} }

func (f *fixture) student(t *testing.T) *types.User {
	t.Helper()
	return repotestutil.SeedUser(t, f.ctx, f.db, types.RoleStudent)
}

func (f *fixture) instructor(t *testing.T) *types.User {
	t.Helper()
	return repotestutil.SeedUser(t, f.ctx, f.db, types.RoleInstructor)
}

type builtCourse struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	CategoryID   uuid.UUID
	Sections     []uuid.UUID
	Lectures     [][]uuid.UUID
}

func (c builtCourse) allLectures() []uuid.UUID {
	var out []uuid.UUID
	for _, l := range c.Lectures {
		out = append(out, l...)
	}
	return out
}

// buildCourse creates a course through the authoring aggregate with one
// section per entry of layout, each holding that many lectures of 60s.
func (f *fixture) buildCourse(t *testing.T, publish bool, layout ...int) builtCourse {
	t.Helper()
	inst := f.instructor(t)
	cat := repotestutil.SeedCategory(t, f.ctx, f.db, "cat-"+uuid.NewString())
	return f.buildCourseFor(t, inst.ID, cat.ID, publish, layout...)
}

func (f *fixture) buildCourseFor(t *testing.T, instructorID, categoryID uuid.UUID, publish bool, layout ...int) builtCourse {
	t.Helper()
	id, err := f.author.CreateCourse(f.ctx, domainagg.CreateCourseInput{
		InstructorID: instructorID,
		CategoryID:   categoryID,
		Name:         "Course " + uuid.NewString()[:8],
		Description:  "desc",
		Price:        500,
		Tags:         []string{"go"},
		Publish:      publish,
	})
	require.NoError(t, err)
	out := builtCourse{ID: id, InstructorID: instructorID, CategoryID: categoryID}
	for i, n := range layout {
		sid, err := f.author.AddSection(f.ctx, domainagg.AddSectionInput{
			InstructorID: instructorID,
			CourseID:     id,
			Name:         "Section " + string(rune('A'+i)),
		})
		require.NoError(t, err)
		out.Sections = append(out.Sections, sid)
		var lectures []uuid.UUID
		for j := 0; j < n; j++ {
			lid, err := f.author.AddSubSection(f.ctx, domainagg.AddSubSectionInput{
				InstructorID:    instructorID,
				SectionID:       sid,
				Title:           "Lecture",
				VideoURL:        "https://media.example.com/v.mp4",
				DurationSeconds: 60,
			})
			require.NoError(t, err)
			lectures = append(lectures, lid)
		}
		out.Lectures = append(out.Lectures, lectures)
	}
	return out
}

func (f *fixture) mustEnroll(t *testing.T, userID, courseID uuid.UUID) domainagg.EnrollResult {
	t.Helper()
	res, err := f.enroll.Enroll(f.ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID})
	require.NoError(t, err)
	return res
}

func (f *fixture) courseRow(t *testing.T, id uuid.UUID) *types.Course {
	t.Helper()
	c, err := f.courses.GetByID(f.dbc(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) progressRow(t *testing.T, userID, courseID uuid.UUID) *types.CourseProgress {
	t.Helper()
	p, err := f.progress.Get(f.dbc(), userID, courseID)
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, domainagg.IsCode(err, code), "want code %q, got %q (%v)", code, domainagg.CodeOf(err), err)
}
