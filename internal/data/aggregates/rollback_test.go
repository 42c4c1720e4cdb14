package aggregates_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	aggtestutil "github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates/testutil"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

var errInjected = errors.New("injected failure")

// failingReviews fails the review cleanup, which runs after enrollments and
// progress are already deleted.
type failingReviews struct {
	repos.ReviewRepo
}

func (failingReviews) DeleteByCourse(dbctx.Context, uuid.UUID) (int64, error) {
	return 0, errInjected
}

// failingProgress fails progress creation, which runs after the enrollment
// row and enrolled_count are written.
type failingProgress struct {
	repos.CourseProgressRepo
}

func (failingProgress) Ensure(dbctx.Context, uuid.UUID, uuid.UUID) (*types.CourseProgress, error) {
	return nil, errInjected
}

func (f *fixture) authorWith(base aggregates.BaseDeps, reviews repos.ReviewRepo) domainagg.CourseAggregate {
	return aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base:        base,
		Users:       f.users,
		Categories:  f.categories,
		Courses:     f.courses,
		Sections:    f.sections,
		SubSections: f.subSections,
		Enrollments: f.enrollments,
		Progress:    f.progress,
		Completed:   f.completed,
		Reviews:     reviews,
	})
}

func (f *fixture) enrollWith(base aggregates.BaseDeps, progress repos.CourseProgressRepo) domainagg.EnrollmentAggregate {
	return aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        base,
		Users:       f.users,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Progress:    progress,
		Completed:   f.completed,
		Reviews:     f.reviews,
		Locker:      aggregates.NewLocalPairLocker(),
	})
}

// populatedCourse is a published course with one enrolled student who has
// completed a lecture and left a review.
func (f *fixture) populatedCourse(t *testing.T) (builtCourse, uuid.UUID) {
	t.Helper()
	course := f.buildCourse(t, true, 2, 1)
	student := f.student(t).ID
	f.mustEnroll(t, student, course.ID)
	_, err := f.track.MarkComplete(f.ctx, domainagg.MarkCompleteInput{UserID: student, CourseID: course.ID, LectureID: course.Lectures[0][0]})
	require.NoError(t, err)
	_, err = f.reviewA.SubmitReview(f.ctx, domainagg.SubmitReviewInput{UserID: student, CourseID: course.ID, Rating: 4})
	require.NoError(t, err)
	return course, student
}

func (f *fixture) requireCourseIntact(t *testing.T, course builtCourse, student uuid.UUID) {
	t.Helper()
	row := f.courseRow(t, course.ID)
	require.NotNil(t, row)
	require.Equal(t, 1, row.EnrolledCount)
	require.Equal(t, 1, row.RatingCount)

	enrolled, err := f.enrollments.Exists(f.dbc(), student, course.ID)
	require.NoError(t, err)
	require.True(t, enrolled)

	p := f.progressRow(t, student, course.ID)
	require.NotNil(t, p)
	require.Equal(t, 1, p.CompletedCount)
	done, err := f.completed.ListByProgress(f.dbc(), p.ID)
	require.NoError(t, err)
	require.Len(t, done, 1)

	sections, err := f.sections.ListByCourse(f.dbc(), course.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	lectures, err := f.subSections.CountByCourse(f.dbc(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 3, lectures)

	review, err := f.reviews.Get(f.dbc(), student, course.ID)
	require.NoError(t, err)
	require.NotNil(t, review)
}

func TestDeleteCourse_FailurePartwayLeavesNothingApplied(t *testing.T) {
	f := newFixture(t)
	course, student := f.populatedCourse(t)

	author := f.authorWith(aggregates.BaseDeps{DB: f.db}, failingReviews{f.reviews})
	_, err := author.DeleteCourse(f.ctx, domainagg.CourseRef{InstructorID: course.InstructorID, CourseID: course.ID})
	require.ErrorIs(t, err, errInjected)

	f.requireCourseIntact(t, course, student)
}

func TestDeleteCourse_FailedCommitLeavesNothingApplied(t *testing.T) {
	f := newFixture(t)
	course, student := f.populatedCourse(t)

	runner := &aggtestutil.InjectedTxRunner{Inner: aggregates.NewGormTxRunner(f.db), FailCommit: errInjected}
	author := f.authorWith(aggregates.BaseDeps{DB: f.db, Runner: runner}, f.reviews)
	_, err := author.DeleteCourse(f.ctx, domainagg.CourseRef{InstructorID: course.InstructorID, CourseID: course.ID})
	require.ErrorIs(t, err, errInjected)
	require.Equal(t, 1, runner.RollbackCalls)
	require.Zero(t, runner.CommitCalls)

	f.requireCourseIntact(t, course, student)
}

func TestEnroll_FailurePartwayLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	course := f.buildCourse(t, true, 1)
	student := f.student(t).ID

	cases := []struct {
		name   string
		enroll domainagg.EnrollmentAggregate
	}{
		{
			name:   "progress write fails",
			enroll: f.enrollWith(aggregates.BaseDeps{DB: f.db}, failingProgress{f.progress}),
		},
		{
			name: "commit fails",
			enroll: f.enrollWith(aggregates.BaseDeps{
				DB:     f.db,
				Runner: &aggtestutil.InjectedTxRunner{Inner: aggregates.NewGormTxRunner(f.db), FailCommit: errInjected},
			}, f.progress),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.enroll.Enroll(f.ctx, domainagg.EnrollInput{UserID: student, CourseID: course.ID})
			require.ErrorIs(t, err, errInjected)

			enrolled, err := f.enrollments.Exists(f.dbc(), student, course.ID)
			require.NoError(t, err)
			require.False(t, enrolled)
			require.Zero(t, f.courseRow(t, course.ID).EnrolledCount)
			require.Nil(t, f.progressRow(t, student, course.ID))
		})
	}

	res := f.mustEnroll(t, student, course.ID)
	require.True(t, res.Enrolled)
	require.Equal(t, 1, res.EnrolledCount)
}
