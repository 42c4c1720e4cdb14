package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/learning"
)

var ProgressAggregateContract = Contract{
	Name:             "Learning.ProgressAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	CourseLock:       CourseLockShare,
	Notes:            "Owns the completed-lecture set and the cached percentage of a progress record. RecomputeCourse takes the update lock.",
}

// ProgressAggregate records lecture completion for enrolled students.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotEnrolled, CodeInvalidLecture, CodeRetryable, CodeInternal.
type ProgressAggregate interface {
	Aggregate

	// MarkComplete adds the lecture to the completed set. Re-marking is a no-op.
	MarkComplete(ctx context.Context, in MarkCompleteInput) (ProgressView, error)

	// TouchAccess records an access without completing anything.
	TouchAccess(ctx context.Context, in TouchAccessInput) (ProgressView, error)

	// RecomputeCourse refreshes the cached percentage of every progress row of
	// a course. It returns how many rows changed.
	RecomputeCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}

type MarkCompleteInput struct {
	UserID    uuid.UUID `validate:"required"`
	CourseID  uuid.UUID `validate:"required"`
	LectureID uuid.UUID `validate:"required"`
	At        time.Time
}

type TouchAccessInput struct {
	UserID   uuid.UUID `validate:"required"`
	CourseID uuid.UUID `validate:"required"`
	At       time.Time
}

// ProgressView is the caller-facing shape of a progress record. A student
// without any activity gets the zero view with Exists=false.
type ProgressView struct {
	UserID            uuid.UUID
	CourseID          uuid.UUID
	Exists            bool
	CompletedLectures []uuid.UUID
	CompletedCount    int
	TotalLectures     int
	Percentage        int
	FirstAccessedAt   *time.Time
	LastAccessedAt    *time.Time
	NewlyCompleted    bool
}

// ProgressViewOf builds the view of a stored progress row.
func ProgressViewOf(p *learning.CourseProgress, completed []uuid.UUID, total int) ProgressView {
	if p == nil {
		return ProgressView{TotalLectures: total, CompletedLectures: []uuid.UUID{}}
	}
	if completed == nil {
		completed = []uuid.UUID{}
	}
	return ProgressView{
		UserID:            p.UserID,
		CourseID:          p.CourseID,
		Exists:            true,
		CompletedLectures: completed,
		CompletedCount:    p.CompletedCount,
		TotalLectures:     total,
		Percentage:        p.Percentage,
		FirstAccessedAt:   p.FirstAccessedAt,
		LastAccessedAt:    p.LastAccessedAt,
	}
}
