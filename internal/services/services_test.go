package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/app"
	repotestutil "github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/testutil"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
)

type env struct {
	ctx  context.Context
	db   *gorm.DB
	aggs app.Aggregates
	svcs app.Services
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotestutil.DB(t)
	_, aggs, svcs := app.Wire(db, repotestutil.Logger(t), nil, nil)
	return &env{ctx: context.Background(), db: db, aggs: aggs, svcs: svcs}
}

type lecture struct {
	title   string
	seconds int64
}

type section struct {
	name     string
	lectures []lecture
}

// course creates a course owned by instID with the given outline and returns
// its id and lecture ids in outline order.
func (e *env) course(t *testing.T, instID, catID uuid.UUID, name string, price int64, publish bool, outline ...section) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	courseID, err := e.aggs.Course.CreateCourse(e.ctx, domainagg.CreateCourseInput{
		InstructorID: instID, CategoryID: catID, Name: name, Price: price,
	})
	require.NoError(t, err)
	var lectures []uuid.UUID
	for _, s := range outline {
		sectionID, err := e.aggs.Course.AddSection(e.ctx, domainagg.AddSectionInput{
			InstructorID: instID, CourseID: courseID, Name: s.name,
		})
		require.NoError(t, err)
		for _, l := range s.lectures {
			id, err := e.aggs.Course.AddSubSection(e.ctx, domainagg.AddSubSectionInput{
				InstructorID: instID, SectionID: sectionID, Title: l.title, DurationSeconds: l.seconds,
			})
			require.NoError(t, err)
			lectures = append(lectures, id)
		}
	}
	if publish {
		_, err := e.aggs.Course.PublishCourse(e.ctx, domainagg.CourseRef{InstructorID: instID, CourseID: courseID})
		require.NoError(t, err)
	}
	return courseID, lectures
}

func (e *env) enroll(t *testing.T, userID, courseID uuid.UUID, at time.Time) {
	t.Helper()
	_, err := e.aggs.Enrollment.Enroll(e.ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID, At: at})
	require.NoError(t, err)
}

func TestContent_TreeInPositionOrder(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "Systems")
	courseID, _ := e.course(t, inst.ID, cat.ID, "Operating Systems", 900, true,
		section{"Processes", []lecture{{"fork", 60}, {"exec", 120}}},
		section{"Memory", []lecture{{"paging", 3600}}},
		section{"Files", nil},
	)

	got, err := e.svcs.Content.GetCourseWithContent(e.ctx, courseID)
	require.NoError(t, err)

	type outlineRow struct {
		Section  string
		Lectures []string
	}
	var outline []outlineRow
	for _, s := range got.Sections {
		row := outlineRow{Section: s.Section.Name, Lectures: []string{}}
		for _, l := range s.SubSections {
			row.Lectures = append(row.Lectures, l.Title)
		}
		outline = append(outline, row)
	}
	want := []outlineRow{
		{Section: "Processes", Lectures: []string{"fork", "exec"}},
		{Section: "Memory", Lectures: []string{"paging"}},
		{Section: "Files", Lectures: []string{}},
	}
	if diff := cmp.Diff(want, outline); diff != "" {
		t.Fatalf("outline mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 3, got.LectureCount)
	require.Equal(t, int64(3780), got.TotalDurationSeconds)
	require.Equal(t, "1h 3m", got.TotalDuration)
	require.Equal(t, inst.FullName(), got.Instructor.Name)
	require.Equal(t, "Systems", got.Category.Name)

	_, err = e.svcs.Content.GetCourseWithContent(e.ctx, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestContent_ConcurrentReadersAgree(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "Systems")
	courseID, _ := e.course(t, inst.ID, cat.ID, "Networks", 100, true,
		section{"Links", []lecture{{"ethernet", 30}, {"wifi", 30}}},
	)

	const readers = 8
	results := make([]int, readers)
	errs := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := e.svcs.Content.GetCourseWithContent(e.ctx, courseID)
			errs[i] = err
			if c != nil {
				results[i] = c.LectureCount
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, 2, results[i])
	}
}

func TestProgress_GetProgress(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "Math")
	student := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
	stranger := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
	courseID, lectures := e.course(t, inst.ID, cat.ID, "Algebra", 100, true,
		section{"Groups", []lecture{{"a", 60}, {"b", 60}, {"c", 60}, {"d", 60}}},
	)

	view, err := e.svcs.Progress.GetProgress(e.ctx, stranger.ID, courseID)
	require.NoError(t, err)
	require.False(t, view.Exists)
	require.Equal(t, stranger.ID, view.UserID)
	require.Equal(t, courseID, view.CourseID)
	require.Equal(t, 4, view.TotalLectures)
	require.Zero(t, view.Percentage)
	require.NotNil(t, view.CompletedLectures)

	e.enroll(t, student.ID, courseID, time.Time{})
	_, err = e.svcs.Progress.MarkComplete(e.ctx, student.ID, courseID, lectures[2])
	require.NoError(t, err)

	view, err = e.svcs.Progress.GetProgress(e.ctx, student.ID, courseID)
	require.NoError(t, err)
	require.True(t, view.Exists)
	require.Equal(t, []uuid.UUID{lectures[2]}, view.CompletedLectures)
	require.Equal(t, 25, view.Percentage)
}

func TestDashboard_Student(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "Languages")
	student := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
	one := section{"Intro", []lecture{{"hello", 90}, {"bye", 30}}}

	goID, goLectures := e.course(t, inst.ID, cat.ID, "Go", 100, true, one)
	rustID, _ := e.course(t, inst.ID, cat.ID, "Rust", 100, true, one)
	zigID, _ := e.course(t, inst.ID, cat.ID, "Zig", 100, true, one)
	adaID, _ := e.course(t, inst.ID, cat.ID, "Ada", 100, true, one)
	for _, id := range []uuid.UUID{goID, rustID, zigID, adaID} {
		e.enroll(t, student.ID, id, time.Time{})
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := e.aggs.Progress.TouchAccess(e.ctx, domainagg.TouchAccessInput{UserID: student.ID, CourseID: rustID, At: base})
	require.NoError(t, err)
	_, err = e.aggs.Progress.MarkComplete(e.ctx, domainagg.MarkCompleteInput{
		UserID: student.ID, CourseID: goID, LectureID: goLectures[0], At: base.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = e.aggs.Progress.TouchAccess(e.ctx, domainagg.TouchAccessInput{UserID: student.ID, CourseID: goID, At: base.Add(time.Hour)})
	require.NoError(t, err)

	// A course row that vanished behind the aggregates' back is skipped.
	require.NoError(t, e.db.Exec("DELETE FROM course WHERE id = ?", adaID).Error)

	d, err := e.svcs.Dashboard.StudentDashboard(e.ctx, student.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(d.Courses))
	for _, c := range d.Courses {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Go", "Rust", "Zig"}, names)

	goRow := d.Courses[0]
	require.Equal(t, 50, goRow.Percentage)
	require.Equal(t, 1, goRow.CompletedCount)
	require.Equal(t, 2, goRow.LectureCount)
	require.Equal(t, int64(120), goRow.TotalDurationSeconds)
	require.Equal(t, "2m 0s", goRow.TotalDuration)
	require.NotNil(t, goRow.LastAccessedAt)
	require.Nil(t, d.Courses[2].LastAccessedAt)
}

func TestDashboard_Instructor(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "Design")
	paid, _ := e.course(t, inst.ID, cat.ID, "Typography", 2500, true, section{"Type", []lecture{{"serif", 60}}})
	e.course(t, inst.ID, cat.ID, "Colour", 1000, false)
	for i := 0; i < 3; i++ {
		s := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
		e.enroll(t, s.ID, paid, time.Time{})
	}

	d, err := e.svcs.Dashboard.InstructorDashboard(e.ctx, inst.ID)
	require.NoError(t, err)
	require.Equal(t, 2, d.CourseCount)
	require.Equal(t, 3, d.TotalEnrollments)
	require.Equal(t, int64(7500), d.TotalRevenue)
	require.Equal(t, types.CourseStatusDraft, d.Courses[1].Status)

	_, err = e.svcs.Dashboard.InstructorDashboard(e.ctx, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestCatalog_CategoryPage(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	art := repotestutil.SeedCategory(t, e.ctx, e.db, "Art")
	bio := repotestutil.SeedCategory(t, e.ctx, e.db, "Biology")
	repotestutil.SeedCategory(t, e.ctx, e.db, "Chemistry")
	one := section{"Only", []lecture{{"x", 60}}}

	painting, _ := e.course(t, inst.ID, art.ID, "Painting", 100, true, one)
	e.course(t, inst.ID, art.ID, "Sculpture (draft)", 100, false, one)
	cells, _ := e.course(t, inst.ID, bio.ID, "Cells", 100, true, one)
	genes, _ := e.course(t, inst.ID, bio.ID, "Genes", 100, true, one)
	for i := 0; i < 2; i++ {
		s := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
		e.enroll(t, s.ID, genes, time.Time{})
	}
	s := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
	e.enroll(t, s.ID, cells, time.Time{})

	page, err := e.svcs.Catalog.CategoryPage(e.ctx, art.ID)
	require.NoError(t, err)
	require.Equal(t, art.ID, page.Selected.ID)
	require.Len(t, page.Courses, 1)
	require.Equal(t, painting, page.Courses[0].ID)
	require.NotNil(t, page.Different)
	require.Equal(t, bio.ID, page.Different.ID, "categories without published courses are never suggested")
	require.Len(t, page.DifferentCourses, 2)

	top := make([]uuid.UUID, 0, len(page.TopSelling))
	for _, c := range page.TopSelling {
		top = append(top, c.ID)
	}
	require.Equal(t, []uuid.UUID{genes, cells, painting}, top)

	published, err := e.svcs.Catalog.ListPublished(e.ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, published, 3)

	mine, err := e.svcs.Catalog.ListInstructorCourses(e.ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, mine, 4)

	_, err = e.svcs.Catalog.CategoryPage(e.ctx, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestEnrollment_Listings(t *testing.T) {
	e := newEnv(t)
	inst := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleInstructor)
	cat := repotestutil.SeedCategory(t, e.ctx, e.db, "History")
	first, _ := e.course(t, inst.ID, cat.ID, "Rome", 100, true)
	second, _ := e.course(t, inst.ID, cat.ID, "Greece", 100, true)
	alice := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)
	bob := repotestutil.SeedUser(t, e.ctx, e.db, types.RoleStudent)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.enroll(t, alice.ID, first, base)
	e.enroll(t, alice.ID, second, base.Add(time.Minute))
	e.enroll(t, bob.ID, first, base.Add(2*time.Minute))

	courses, err := e.svcs.Enrollment.ListEnrolledCourses(e.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, second, courses[0].ID, "most recent enrollment first")

	students, err := e.svcs.Enrollment.ListEnrolledStudents(e.ctx, first)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, alice.ID, students[0].ID, "earliest enrollment first")

	ok, err := e.svcs.Enrollment.IsEnrolled(e.ctx, bob.ID, second)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = e.svcs.Enrollment.Unenroll(e.ctx, alice.ID, first)
	require.NoError(t, err)
	students, err = e.svcs.Enrollment.ListEnrolledStudents(e.ctx, first)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, bob.ID, students[0].ID)
}
