package aggregates_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
)

func TestDeleteCourse_CascadesToEveryReference(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2, 1)
	sibling := f.buildCourseFor(t, course.InstructorID, course.CategoryID, true, 1)

	students := make([]uuid.UUID, 5)
	for i := range students {
		students[i] = f.student(t).ID
		f.mustEnroll(t, students[i], course.ID)
		f.mustEnroll(t, students[i], sibling.ID)
		_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: students[i], CourseID: course.ID, LectureID: course.Lectures[0][0]})
		require.NoError(t, err)
	}
	_, err := f.reviewA.SubmitReview(f.ctx, domainagg.SubmitReviewInput{UserID: students[0], CourseID: course.ID, Rating: 4})
	require.NoError(t, err)

	res, err := f.author.DeleteCourse(f.ctx, domainagg.CourseRef{InstructorID: course.InstructorID, CourseID: course.ID})
	require.NoError(t, err)
	require.Equal(t, int64(5), res.EnrollmentsDeleted)
	require.Equal(t, int64(5), res.ProgressDeleted)
	require.Equal(t, int64(1), res.ReviewsDeleted)
	require.Equal(t, int64(2), res.SectionsDeleted)
	require.Equal(t, int64(3), res.SubSectionsDeleted)

	require.Nil(t, f.courseRow(t, course.ID))
	for _, id := range students {
		rows, err := f.enrollments.ListByUser(f.dbc(), id)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, sibling.ID, rows[0].CourseID)
		require.Nil(t, f.progressRow(t, id, course.ID))
	}

	inCategory, err := f.courses.ListPublishedByCategory(f.dbc(), course.CategoryID)
	require.NoError(t, err)
	require.Len(t, inCategory, 1)
	require.Equal(t, sibling.ID, inCategory[0].ID)

	sections, err := f.sections.ListByCourse(f.dbc(), course.ID)
	require.NoError(t, err)
	require.Empty(t, sections)
	orphans, err := f.completed.ListOrphaned(f.dbc())
	require.NoError(t, err)
	require.Empty(t, orphans)
	require.Equal(t, 5, f.courseRow(t, sibling.ID).EnrolledCount)
}

func TestCourseAuthoring_OnlyOwnerMayWrite(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, false, 1)
	intruder := f.instructor(t)

	_, err := f.author.PublishCourse(f.ctx, domainagg.CourseRef{InstructorID: intruder.ID, CourseID: course.ID})
	requireCode(t, err, domainagg.CodePermissionDenied)

	_, err = f.author.AddSection(f.ctx, domainagg.AddSectionInput{InstructorID: intruder.ID, CourseID: course.ID, Name: "x"})
	requireCode(t, err, domainagg.CodePermissionDenied)

	err = f.author.DeleteSubSection(f.ctx, domainagg.SubSectionRef{InstructorID: intruder.ID, SubSectionID: course.Lectures[0][0]})
	requireCode(t, err, domainagg.CodePermissionDenied)

	_, err = f.author.DeleteCourse(f.ctx, domainagg.CourseRef{InstructorID: intruder.ID, CourseID: course.ID})
	requireCode(t, err, domainagg.CodePermissionDenied)
	require.NotNil(t, f.courseRow(t, course.ID))

	student := f.student(t)
	_, err = f.author.CreateCourse(f.ctx, domainagg.CreateCourseInput{InstructorID: student.ID, CategoryID: course.CategoryID, Name: "nope"})
	requireCode(t, err, domainagg.CodePermissionDenied)

	_, err = f.author.CreateCourse(f.ctx, domainagg.CreateCourseInput{InstructorID: course.InstructorID, CategoryID: uuid.New(), Name: "nope"})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = f.author.CreateCourse(f.ctx, domainagg.CreateCourseInput{InstructorID: course.InstructorID, CategoryID: course.CategoryID, Name: "bad", Price: -1})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestPublishCourse_TransitionsAndRepeats(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, false, 1)
	ref := domainagg.CourseRef{InstructorID: course.InstructorID, CourseID: course.ID}
	require.Equal(t, types.CourseStatusDraft, f.courseRow(t, course.ID).Status)

	changed, err := f.author.PublishCourse(f.ctx, ref)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = f.author.PublishCourse(f.ctx, ref)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, types.CourseStatusPublished, f.courseRow(t, course.ID).Status)

	u := f.student(t)
	f.mustEnroll(t, u.ID, course.ID)

	changed, err = f.author.UnpublishCourse(f.ctx, ref)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, types.CourseStatusDraft, f.courseRow(t, course.ID).Status)

	// Existing students keep their enrollment; new ones are refused.
	ok, err := f.enrollments.Exists(f.dbc(), u.ID, course.ID)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.enroll.Enroll(f.ctx, domainagg.EnrollInput{UserID: f.student(t).ID, CourseID: course.ID})
	requireCode(t, err, domainagg.CodePreconditionFailed)
}

func TestUpdateCourse_ChangesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 1)
	cat, err := f.categories.Create(f.dbc(), []*types.Category{{ID: uuid.New(), Name: "Data"}})
	require.NoError(t, err)

	name := "Renamed"
	price := int64(1500)
	require.NoError(t, f.author.UpdateCourse(f.ctx, domainagg.UpdateCourseInput{
		InstructorID: course.InstructorID,
		CourseID:     course.ID,
		CategoryID:   &cat[0].ID,
		Name:         &name,
		Price:        &price,
		Tags:         []string{"sql", "go"},
	}))
	row := f.courseRow(t, course.ID)
	require.Equal(t, "Renamed", row.Name)
	require.Equal(t, int64(1500), row.Price)
	require.Equal(t, cat[0].ID, row.CategoryID)
	require.Equal(t, []string{"sql", "go"}, []string(row.Tags))
	require.Equal(t, "desc", row.Description)

	missing := uuid.New()
	err = f.author.UpdateCourse(f.ctx, domainagg.UpdateCourseInput{InstructorID: course.InstructorID, CourseID: course.ID, CategoryID: &missing})
	requireCode(t, err, domainagg.CodeNotFound)
	require.Equal(t, cat[0].ID, f.courseRow(t, course.ID).CategoryID)
}

func TestSections_KeepInsertionOrder(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 2, 2, 2)

	sections, err := f.sections.ListByCourse(f.dbc(), course.ID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, s := range sections {
		require.Equal(t, course.Sections[i], s.ID)
	}
	subs, err := f.subSections.ListBySectionIDs(f.dbc(), course.Sections)
	require.NoError(t, err)
	got := map[uuid.UUID][]uuid.UUID{}
	for _, s := range subs {
		got[s.SectionID] = append(got[s.SectionID], s.ID)
	}
	for i, sid := range course.Sections {
		require.Equal(t, course.Lectures[i], got[sid])
	}

	require.NoError(t, f.author.RenameSection(f.ctx, domainagg.RenameSectionInput{InstructorID: course.InstructorID, SectionID: course.Sections[1], Name: "Middle"}))
	s, err := f.sections.GetByID(f.dbc(), course.Sections[1])
	require.NoError(t, err)
	require.Equal(t, "Middle", s.Name)
}
