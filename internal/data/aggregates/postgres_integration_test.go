//go:build integration
// +build integration

package aggregates_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/aggregates"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/learning"
)

// startPostgres runs a throwaway Postgres and points repotestutil.DB at it.
func startPostgres(t *testing.T, ctx context.Context) {
	t.Helper()
	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("lms"),
		postgres.WithUsername("lms"),
		postgres.WithPassword("lms"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	t.Setenv("TEST_POSTGRES_DSN", dsn)
}

// TestPostgres_EnrollWithoutPairLock runs the enrollment aggregate with no
// pair lock against a real Postgres, so only the course row lock and the
// unique index keep enrollment rows and enrolled_count in step.
func TestPostgres_EnrollWithoutPairLock(t *testing.T) {
	ctx := context.Background()
	startPostgres(t, ctx)

	f := newFixture(t)
	unlocked := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        aggregates.BaseDeps{DB: f.db},
		Users:       f.users,
		Courses:     f.courses,
		Enrollments: f.enrollments,
		Progress:    f.progress,
		Completed:   f.completed,
		Reviews:     f.reviews,
	})
	course := f.buildCourse(t, true, 2)

	const students = 12
	ids := make([]uuid.UUID, students)
	for i := range ids {
		ids[i] = f.student(t).ID
	}

	var wg sync.WaitGroup
	for round := 0; round < 3; round++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, err := unlocked.Enroll(ctx, domainagg.EnrollInput{UserID: id, CourseID: course.ID})
				if err != nil && !domainagg.IsCode(err, domainagg.CodeRetryable) {
					t.Errorf("enroll %s: %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	// Retry anything that lost a serialization race.
	for _, id := range ids {
		_, err := unlocked.Enroll(ctx, domainagg.EnrollInput{UserID: id, CourseID: course.ID})
		require.NoError(t, err)
	}

	n, err := f.enrollments.CountByCourse(f.dbc(), course.ID)
	require.NoError(t, err)
	require.Equal(t, students, n)
	require.Equal(t, students, f.courseRow(t, course.ID).EnrolledCount)

	for _, id := range ids[:students/2] {
		_, err := unlocked.Unenroll(ctx, domainagg.UnenrollInput{UserID: id, CourseID: course.ID})
		require.NoError(t, err)
	}
	require.Equal(t, students-students/2, f.courseRow(t, course.ID).EnrolledCount)
}

// TestPostgres_CompletionsDuringContentEdits completes lectures while the
// instructor keeps adding lectures to the same course. Every cached
// percentage must match a fresh recount afterwards.
func TestPostgres_CompletionsDuringContentEdits(t *testing.T) {
	ctx := context.Background()
	startPostgres(t, ctx)

	f := newFixture(t)
	course := f.buildCourse(t, true, 6)
	const students = 4
	ids := make([]uuid.UUID, students)
	for i := range ids {
		ids[i] = f.student(t).ID
		f.mustEnroll(t, ids[i], course.ID)
	}

	retry := func(fn func() error) error {
		for {
			err := fn()
			if !domainagg.IsCode(err, domainagg.CodeRetryable) {
				return err
			}
		}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for _, lecture := range course.Lectures[0] {
			wg.Add(1)
			go func(id, lecture uuid.UUID) {
				defer wg.Done()
				err := retry(func() error {
					_, err := f.track.MarkComplete(ctx, domainagg.MarkCompleteInput{UserID: id, CourseID: course.ID, LectureID: lecture})
					return err
				})
				if err != nil {
					t.Errorf("complete %s: %v", lecture, err)
				}
			}(id, lecture)
		}
	}
	const added = 4
	for i := 0; i < added; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := retry(func() error {
				_, err := f.author.AddSubSection(ctx, domainagg.AddSubSectionInput{
					InstructorID: course.InstructorID,
					SectionID:    course.Sections[0],
					Title:        "Late lecture",
				})
				return err
			})
			if err != nil {
				t.Errorf("add lecture: %v", err)
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		p := f.progressRow(t, id, course.ID)
		require.NotNil(t, p)
		require.Equal(t, 6, p.CompletedCount)
		require.Equal(t, learning.CompletionPercentage(6, 6+added), p.Percentage)
	}
	changed, err := f.track.RecomputeCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Zero(t, changed)
}
