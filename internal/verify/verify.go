// Package verify cross-checks denormalized and relational state: membership
// rows against users and courses, cached counters against the rows they
// count, and completion sets against the course tree.
package verify

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/learning"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

const (
	KindEnrollmentMissingUser     = "enrollment_missing_user"
	KindEnrollmentMissingCourse   = "enrollment_missing_course"
	KindProgressMissingCourse     = "progress_missing_course"
	KindProgressWithoutEnrollment = "progress_without_enrollment"
	KindCompletionOutsideCourse   = "completion_outside_course"
	KindEnrolledCountMismatch     = "enrolled_count_mismatch"
	KindCompletedCountMismatch    = "completed_count_mismatch"
	KindPercentageMismatch        = "percentage_mismatch"
	KindCourseMissingCategory     = "course_missing_category"
	KindCourseMissingInstructor   = "course_missing_instructor"
	KindReviewWithoutEnrollment   = "review_without_enrollment"
	KindRatingMismatch            = "rating_mismatch"
)

type Finding struct {
	Kind     string    `json:"kind"`
	EntityID uuid.UUID `json:"entity_id"`
	Detail   string    `json:"detail"`
}

type Report struct {
	CheckedAt  time.Time      `json:"checked_at"`
	Counts     map[string]int `json:"counts"`
	Findings   []Finding      `json:"findings"`
	DurationMS int64          `json:"duration_ms"`
}

func (r *Report) OK() bool { return r != nil && len(r.Findings) == 0 }

// ByKind groups finding counts by kind.
func (r *Report) ByKind() map[string]int {
	out := map[string]int{}
	if r == nil {
		return out
	}
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}

func (r *Report) add(kind string, id uuid.UUID, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Kind: kind, EntityID: id, Detail: fmt.Sprintf(format, args...)})
}

type Deps struct {
	Users       repos.UserRepo
	Categories  repos.CategoryRepo
	Courses     repos.CourseRepo
	SubSections repos.SubSectionRepo
	Enrollments repos.EnrollmentRepo
	Progress    repos.CourseProgressRepo
	Completed   repos.CompletedLectureRepo
	Reviews     repos.ReviewRepo
}

type Verifier struct {
	db   *gorm.DB
	log  *logger.Logger
	deps Deps
}

func New(db *gorm.DB, baseLog *logger.Logger, deps Deps) *Verifier {
	return &Verifier{db: db, log: baseLog.With("service", "Verifier"), deps: deps}
}

type snapshot struct {
	userIDs     map[uuid.UUID]bool
	categoryIDs map[uuid.UUID]bool
	courses     map[uuid.UUID]*types.Course
	enrollments []*types.Enrollment
	progress    []*types.CourseProgress
	orphans     []*types.CompletedLecture
	reviews     []*types.Review
	lectures    map[uuid.UUID]repos.LectureStats
}

// Verify reads the whole store and reports every inconsistency it finds. It
// never writes.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	start := time.Now()
	snap, err := v.load(ctx)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		CheckedAt: start.UTC(),
		Findings:  []Finding{},
		Counts: map[string]int{
			"users":       len(snap.userIDs),
			"categories":  len(snap.categoryIDs),
			"courses":     len(snap.courses),
			"enrollments": len(snap.enrollments),
			"progress":    len(snap.progress),
			"reviews":     len(snap.reviews),
		},
	}

	for _, c := range snap.courses {
		if !snap.categoryIDs[c.CategoryID] {
			rep.add(KindCourseMissingCategory, c.ID, "course %q references missing category %s", c.Name, c.CategoryID)
		}
		if !snap.userIDs[c.InstructorID] {
			rep.add(KindCourseMissingInstructor, c.ID, "course %q references missing instructor %s", c.Name, c.InstructorID)
		}
	}

	type pair struct{ user, course uuid.UUID }
	enrolled := make(map[pair]bool, len(snap.enrollments))
	perCourse := map[uuid.UUID]int{}
	for _, e := range snap.enrollments {
		enrolled[pair{e.UserID, e.CourseID}] = true
		perCourse[e.CourseID]++
		if !snap.userIDs[e.UserID] {
			rep.add(KindEnrollmentMissingUser, e.ID, "enrollment references missing user %s", e.UserID)
		}
		if snap.courses[e.CourseID] == nil {
			rep.add(KindEnrollmentMissingCourse, e.ID, "enrollment references missing course %s", e.CourseID)
		}
	}
	for _, c := range snap.courses {
		if got := perCourse[c.ID]; got != c.EnrolledCount {
			rep.add(KindEnrolledCountMismatch, c.ID, "enrolled_count=%d but %d enrollment rows", c.EnrolledCount, got)
		}
	}

	dbc := dbctx.Of(ctx)
	for _, p := range snap.progress {
		if snap.courses[p.CourseID] == nil {
			rep.add(KindProgressMissingCourse, p.ID, "progress references missing course %s", p.CourseID)
			continue
		}
		if !enrolled[pair{p.UserID, p.CourseID}] {
			rep.add(KindProgressWithoutEnrollment, p.ID, "progress for user %s has no enrollment in course %s", p.UserID, p.CourseID)
		}
		done, err := v.deps.Completed.CountInCourse(dbc, p.ID, p.CourseID)
		if err != nil {
			return nil, fmt.Errorf("count completions: %w", err)
		}
		if done != p.CompletedCount {
			rep.add(KindCompletedCountMismatch, p.ID, "completed_count=%d but %d completions in course", p.CompletedCount, done)
		}
		want := learning.CompletionPercentage(done, snap.lectures[p.CourseID].Lectures)
		if want != p.Percentage {
			rep.add(KindPercentageMismatch, p.ID, "percentage=%d, expected %d", p.Percentage, want)
		}
	}
	type rating struct{ sum, n int }
	ratings := map[uuid.UUID]rating{}
	for _, r := range snap.reviews {
		if !enrolled[pair{r.UserID, r.CourseID}] {
			rep.add(KindReviewWithoutEnrollment, r.ID, "review by user %s has no enrollment in course %s", r.UserID, r.CourseID)
		}
		agg := ratings[r.CourseID]
		agg.sum += r.Rating
		agg.n++
		ratings[r.CourseID] = agg
	}
	for _, c := range snap.courses {
		agg := ratings[c.ID]
		want := 0.0
		if agg.n > 0 {
			want = math.Round(float64(agg.sum)/float64(agg.n)*100) / 100
		}
		if agg.n != c.RatingCount || math.Abs(want-c.AverageRating) > 0.005 {
			rep.add(KindRatingMismatch, c.ID, "rating=%.2f over %d reviews, expected %.2f over %d", c.AverageRating, c.RatingCount, want, agg.n)
		}
	}
	for _, c := range snap.orphans {
		rep.add(KindCompletionOutsideCourse, c.ID, "completed lecture %s is not in the progress record's course", c.SubSectionID)
	}

	sort.SliceStable(rep.Findings, func(i, j int) bool {
		if rep.Findings[i].Kind != rep.Findings[j].Kind {
			return rep.Findings[i].Kind < rep.Findings[j].Kind
		}
		return rep.Findings[i].EntityID.String() < rep.Findings[j].EntityID.String()
	})
	rep.DurationMS = time.Since(start).Milliseconds()
	if rep.OK() {
		v.log.Info("verify passed", "courses", len(snap.courses), "enrollments", len(snap.enrollments))
	} else {
		v.log.Warn("verify found inconsistencies", "findings", len(rep.Findings), "by_kind", rep.ByKind())
	}
	return rep, nil
}

func (v *Verifier) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := v.deps.Users.ListAllIDs(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		snap.userIDs = make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			snap.userIDs[id] = true
		}
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Categories.List(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		snap.categoryIDs = make(map[uuid.UUID]bool, len(rows))
		for _, c := range rows {
			snap.categoryIDs[c.ID] = true
		}
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Courses.ListAll(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		snap.courses = make(map[uuid.UUID]*types.Course, len(rows))
		ids := make([]uuid.UUID, 0, len(rows))
		for _, c := range rows {
			snap.courses[c.ID] = c
			ids = append(ids, c.ID)
		}
		stats, err := v.deps.SubSections.StatsByCourseIDs(dbctx.Of(gctx), ids)
		if err != nil {
			return fmt.Errorf("lecture stats: %w", err)
		}
		snap.lectures = stats
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Enrollments.ListAll(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}
		snap.enrollments = rows
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Progress.ListAll(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list progress: %w", err)
		}
		snap.progress = rows
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Completed.ListOrphaned(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list orphaned completions: %w", err)
		}
		snap.orphans = rows
		return nil
	})
	g.Go(func() error {
		rows, err := v.deps.Reviews.ListAll(dbctx.Of(gctx))
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		snap.reviews = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
