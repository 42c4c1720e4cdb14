package aggregates_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
)

func TestMarkComplete_AllLecturesReachesHundred(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{
		UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][0], At: at,
	})
	require.NoError(t, err)
	require.True(t, first.NewlyCompleted)
	require.Equal(t, 50, first.Percentage)
	require.Equal(t, 2, first.TotalLectures)
	require.NotNil(t, first.FirstAccessedAt)
	require.True(t, first.FirstAccessedAt.Equal(at))

	later := at.Add(time.Hour)
	second, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{
		UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][1], At: later,
	})
	require.NoError(t, err)
	require.Equal(t, 100, second.Percentage)
	require.Equal(t, 2, second.CompletedCount)
	require.ElementsMatch(t, course.Lectures[0], second.CompletedLectures)

	p := f.progressRow(t, u.ID, course.ID)
	require.Equal(t, 100, p.Percentage)
	require.True(t, p.FirstAccessedAt.Equal(at), "first access is kept")
	require.True(t, p.LastAccessedAt.Equal(later))
}

func TestMarkComplete_RemarkIsNoop(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 3)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)
	in := domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][1]}

	first, err := f.track.MarkComplete(f.ctx, in)
	require.NoError(t, err)
	again, err := f.track.MarkComplete(f.ctx, in)
	require.NoError(t, err)

	require.True(t, first.NewlyCompleted)
	require.False(t, again.NewlyCompleted)
	require.Equal(t, 1, again.CompletedCount)
	require.Equal(t, 33, again.Percentage)
}

func TestMarkComplete_LectureFromOtherCourse(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2)
	other := f.buildCourse(t, true, 1)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)
	_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][0]})
	require.NoError(t, err)
	before := f.progressRow(t, u.ID, course.ID)

	_, err = f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: other.Lectures[0][0]})
	requireCode(t, err, domainagg.CodeInvalidLecture)

	_, err = f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: uuid.New()})
	requireCode(t, err, domainagg.CodeInvalidLecture)

	after := f.progressRow(t, u.ID, course.ID)
	require.Equal(t, before.Percentage, after.Percentage)
	require.Equal(t, before.CompletedCount, after.CompletedCount)
	done, err := f.completed.ListByProgress(f.dbc(), after.ID)
	require.NoError(t, err)
	require.Len(t, done, 1)
}

func TestMarkComplete_RequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 1)
	u := f.student(t)

	_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][0]})
	requireCode(t, err, domainagg.CodeNotEnrolled)
	require.Nil(t, f.progressRow(t, u.ID, course.ID))

	_, err = f.track.TouchAccess(f.ctx, domainagg.TouchAccessInput{UserID: u.ID, CourseID: course.ID})
	requireCode(t, err, domainagg.CodeNotEnrolled)
}

func TestTouchAccess_SetsTimestampsOnly(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)

	at := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	view, err := f.track.TouchAccess(f.ctx, domainagg.TouchAccessInput{UserID: u.ID, CourseID: course.ID, At: at})
	require.NoError(t, err)
	require.True(t, view.Exists)
	require.Equal(t, 0, view.Percentage)
	require.Empty(t, view.CompletedLectures)
	require.True(t, view.LastAccessedAt.Equal(at))
	require.True(t, view.FirstAccessedAt.Equal(at))
}

func TestProgress_StaysInBoundsAcrossContentEdits(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2, 2)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)
	for _, lid := range course.Lectures[0] {
		_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: lid})
		require.NoError(t, err)
	}
	require.Equal(t, 50, f.progressRow(t, u.ID, course.ID).Percentage)

	// Removing the untouched section leaves only completed lectures.
	require.NoError(t, f.author.DeleteSection(f.ctx, domainagg.SectionRef{InstructorID: course.InstructorID, SectionID: course.Sections[1]}))
	require.Equal(t, 100, f.progressRow(t, u.ID, course.ID).Percentage)

	// A new lecture dilutes progress again.
	_, err := f.author.AddSubSection(f.ctx, domainagg.AddSubSectionInput{
		InstructorID: course.InstructorID, SectionID: course.Sections[0], Title: "Extra", DurationSeconds: 30,
	})
	require.NoError(t, err)
	p := f.progressRow(t, u.ID, course.ID)
	require.Equal(t, 67, p.Percentage)
	require.Equal(t, 2, p.CompletedCount)

	// Removing a completed lecture drops its completion.
	require.NoError(t, f.author.DeleteSubSection(f.ctx, domainagg.SubSectionRef{InstructorID: course.InstructorID, SubSectionID: course.Lectures[0][0]}))
	p = f.progressRow(t, u.ID, course.ID)
	require.Equal(t, 1, p.CompletedCount)
	require.Equal(t, 50, p.Percentage)

	// Removing every lecture leaves an empty course at 0%.
	require.NoError(t, f.author.DeleteSection(f.ctx, domainagg.SectionRef{InstructorID: course.InstructorID, SectionID: course.Sections[0]}))
	p = f.progressRow(t, u.ID, course.ID)
	require.Equal(t, 0, p.Percentage)
	require.Equal(t, 0, p.CompletedCount)

	orphans, err := f.completed.ListOrphaned(f.dbc())
	require.NoError(t, err)
	require.Empty(t, orphans)
}

func TestRecomputeCourse_FixesDriftedRows(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2)
	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)
	_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: u.ID, CourseID: course.ID, LectureID: course.Lectures[0][0]})
	require.NoError(t, err)

	p := f.progressRow(t, u.ID, course.ID)
	require.NoError(t, f.progress.UpdateFields(f.dbc(), p.ID, map[string]interface{}{"percentage": 99, "completed_count": 7}))

	n, err := f.track.RecomputeCourse(f.ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 50, f.progressRow(t, u.ID, course.ID).Percentage)

	n, err = f.track.RecomputeCourse(f.ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
