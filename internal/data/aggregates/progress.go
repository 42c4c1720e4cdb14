package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/learning"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type ProgressAggregateDeps struct {
	Base BaseDeps

	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	SubSections repos.SubSectionRepo
	Progress    repos.CourseProgressRepo
	Completed   repos.CompletedLectureRepo

	Metrics *observability.Metrics
}

type progressAggregate struct {
	deps ProgressAggregateDeps
	calc progressCalculator
}

func NewProgressAggregate(deps ProgressAggregateDeps) domainagg.ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	return &progressAggregate{
		deps: deps,
		calc: progressCalculator{
			subSections: deps.SubSections,
			progress:    deps.Progress,
			completed:   deps.Completed,
		},
	}
}

func (a *progressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (a *progressAggregate) MarkComplete(ctx context.Context, in domainagg.MarkCompleteInput) (domainagg.ProgressView, error) {
	const op = "Learning.Progress.MarkComplete"

	out := domainagg.ProgressView{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.holdCourse(dbc, op, in.UserID, in.CourseID); err != nil {
			return err
		}
		owner, err := a.deps.SubSections.CourseIDOf(dbc, in.LectureID)
		if err != nil {
			return err
		}
		if owner != in.CourseID {
			return domainagg.NewError(domainagg.CodeInvalidLecture, op, "lecture "+in.LectureID.String()+" is not part of course "+in.CourseID.String(), nil)
		}

		p, err := a.deps.Progress.Ensure(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		added, err := a.deps.Completed.CreateIgnoreDuplicates(dbc, &types.CompletedLecture{
			ID:           uuid.New(),
			ProgressID:   p.ID,
			SubSectionID: in.LectureID,
			CompletedAt:  at,
		})
		if err != nil {
			return err
		}
		view, err := a.calc.refresh(dbc, p, &at)
		if err != nil {
			return err
		}
		view.NewlyCompleted = added
		out = view
		return nil
	})
	if err != nil {
		a.deps.Metrics.IncLectureCompletion(string(domainagg.CodeOf(err)))
		return domainagg.ProgressView{}, err
	}
	if out.NewlyCompleted {
		a.deps.Metrics.IncLectureCompletion("completed")
	} else {
		a.deps.Metrics.IncLectureCompletion("already_completed")
	}
	return out, nil
}

func (a *progressAggregate) TouchAccess(ctx context.Context, in domainagg.TouchAccessInput) (domainagg.ProgressView, error) {
	const op = "Learning.Progress.TouchAccess"

	out := domainagg.ProgressView{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.holdCourse(dbc, op, in.UserID, in.CourseID); err != nil {
			return err
		}
		p, err := a.deps.Progress.Ensure(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		out, err = a.calc.refresh(dbc, p, &at)
		return err
	})
	if err != nil {
		return domainagg.ProgressView{}, err
	}
	return out, nil
}

func (a *progressAggregate) RecomputeCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	const op = "Learning.Progress.RecomputeCourse"

	if courseID == uuid.Nil {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "missing course id", nil)
	}
	if err := a.requireRepos(op); err != nil {
		return 0, err
	}
	changed := 0
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.LockByID(dbc, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
		}
		n, err := a.calc.recomputeCourse(dbc, courseID)
		changed = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (a *progressAggregate) requireRepos(op string) error {
	if a.deps.Courses == nil || a.deps.Enrollments == nil || a.deps.SubSections == nil || a.deps.Progress == nil || a.deps.Completed == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate missing repos", nil)
	}
	return nil
}

// holdCourse share-locks the course row before the enrollment check. Content
// edits lock the same row for update, so a completion never interleaves with
// the recount an edit runs.
func (a *progressAggregate) holdCourse(dbc dbctx.Context, op string, userID, courseID uuid.UUID) error {
	if _, err := a.deps.Courses.ShareByID(dbc, courseID); err != nil {
		return err
	}
	return a.requireEnrolled(dbc, op, userID, courseID)
}

func (a *progressAggregate) requireEnrolled(dbc dbctx.Context, op string, userID, courseID uuid.UUID) error {
	ok, err := a.deps.Enrollments.Exists(dbc, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return domainagg.NewError(domainagg.CodeNotEnrolled, op, "user is not enrolled in course", nil)
	}
	return nil
}

// progressCalculator keeps completed_count and percentage of progress rows in
// step with the course tree. It runs inside the caller's transaction.
type progressCalculator struct {
	subSections repos.SubSectionRepo
	progress    repos.CourseProgressRepo
	completed   repos.CompletedLectureRepo
}

// refresh recounts one progress row. A non-nil touchAt also records an access.
func (c progressCalculator) refresh(dbc dbctx.Context, p *types.CourseProgress, touchAt *time.Time) (domainagg.ProgressView, error) {
	total, err := c.subSections.CountByCourse(dbc, p.CourseID)
	if err != nil {
		return domainagg.ProgressView{}, err
	}
	done, err := c.completed.CountInCourse(dbc, p.ID, p.CourseID)
	if err != nil {
		return domainagg.ProgressView{}, err
	}
	if done > total {
		return domainagg.ProgressView{}, InvariantError("completed lectures exceed lectures in course")
	}
	pct := learning.CompletionPercentage(done, total)

	updates := map[string]interface{}{
		"completed_count": done,
		"percentage":      pct,
	}
	p.CompletedCount = done
	p.Percentage = pct
	if touchAt != nil {
		t := *touchAt
		updates["last_accessed_at"] = t
		p.LastAccessedAt = &t
		if p.FirstAccessedAt == nil {
			updates["first_accessed_at"] = t
			p.FirstAccessedAt = &t
		}
	}
	if err := c.progress.UpdateFields(dbc, p.ID, updates); err != nil {
		return domainagg.ProgressView{}, err
	}

	rows, err := c.completed.ListByProgress(dbc, p.ID)
	if err != nil {
		return domainagg.ProgressView{}, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SubSectionID)
	}
	return domainagg.ProgressViewOf(p, ids, total), nil
}

// recomputeCourse refreshes every progress row of a course after its content
// changed and reports how many rows moved.
func (c progressCalculator) recomputeCourse(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	rows, err := c.progress.ListByCourse(dbc, courseID)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	total, err := c.subSections.CountByCourse(dbc, courseID)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, p := range rows {
		done, err := c.completed.CountInCourse(dbc, p.ID, courseID)
		if err != nil {
			return changed, err
		}
		pct := learning.CompletionPercentage(done, total)
		if done == p.CompletedCount && pct == p.Percentage {
			continue
		}
		if err := c.progress.UpdateFields(dbc, p.ID, map[string]interface{}{
			"completed_count": done,
			"percentage":      pct,
		}); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
