package aggregates

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type ReviewAggregateDeps struct {
	Base BaseDeps

	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	Reviews     repos.ReviewRepo
}

type reviewAggregate struct {
	deps ReviewAggregateDeps
}

func NewReviewAggregate(deps ReviewAggregateDeps) domainagg.ReviewAggregate {
	deps.Base = deps.Base.withDefaults()
	return &reviewAggregate{deps: deps}
}

func (a *reviewAggregate) Contract() domainagg.Contract {
	return domainagg.ReviewAggregateContract
}

func (a *reviewAggregate) SubmitReview(ctx context.Context, in domainagg.SubmitReviewInput) (domainagg.SubmitReviewResult, error) {
	const op = "Catalog.Review.Submit"

	out := domainagg.SubmitReviewResult{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if a.deps.Courses == nil || a.deps.Enrollments == nil || a.deps.Reviews == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "review aggregate missing repos", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.LockByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
		}
		enrolled, err := a.deps.Enrollments.Exists(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return domainagg.NewError(domainagg.CodeNotEnrolled, op, "only enrolled students can review a course", nil)
		}

		existing, err := a.deps.Reviews.Get(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(in.Text)
		if existing == nil {
			row := &types.Review{
				ID:       uuid.New(),
				UserID:   in.UserID,
				CourseID: in.CourseID,
				Rating:   in.Rating,
				Text:     text,
			}
			if err := a.deps.Reviews.Create(dbc, row); err != nil {
				return err
			}
			out.ReviewID = row.ID
			out.Created = true
		} else {
			if err := a.deps.Reviews.UpdateFields(dbc, existing.ID, map[string]interface{}{
				"rating":     in.Rating,
				"text":       text,
				"updated_at": time.Now().UTC(),
			}); err != nil {
				return err
			}
			out.ReviewID = existing.ID
		}

		avg, n, err := refreshRating(dbc, a.deps.Reviews, a.deps.Courses, in.CourseID)
		if err != nil {
			return err
		}
		out.AverageRating = avg
		out.RatingCount = n
		return nil
	})
	if err != nil {
		return domainagg.SubmitReviewResult{}, err
	}
	return out, nil
}

// refreshRating recomputes the cached rating of a course from its reviews.
// The caller holds the course row lock.
func refreshRating(dbc dbctx.Context, reviews repos.ReviewRepo, courses repos.CourseRepo, courseID uuid.UUID) (float64, int, error) {
	stats, err := reviews.StatsByCourse(dbc, courseID)
	if err != nil {
		return 0, 0, err
	}
	avg := math.Round(stats.AverageRating*100) / 100
	if err := courses.SetRating(dbc, courseID, avg, stats.RatingCount); err != nil {
		return 0, 0, err
	}
	return avg, stats.RatingCount, nil
}
