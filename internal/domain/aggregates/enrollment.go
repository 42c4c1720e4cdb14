package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var EnrollmentAggregateContract = Contract{
	Name:             "Learning.EnrollmentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	CourseLock:       CourseLockUpdate,
	Notes:            "Owns the enrollment row, course.enrolled_count, lazy progress creation and withdrawal of the student's review as one atomic unit.",
}

// EnrollmentAggregate owns student/course membership.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeNotEnrolled, CodePreconditionFailed, CodeRetryable, CodeInternal.
type EnrollmentAggregate interface {
	Aggregate

	// Enroll is idempotent. Enrolling twice returns Enrolled=false and leaves
	// the membership count untouched.
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)

	// Unenroll removes the membership and the student's progress and review
	// for the course.
	Unenroll(ctx context.Context, in UnenrollInput) (UnenrollResult, error)
}

type EnrollInput struct {
	UserID   uuid.UUID `validate:"required"`
	CourseID uuid.UUID `validate:"required"`
	At       time.Time
}

type EnrollResult struct {
	EnrollmentID  uuid.UUID
	Enrolled      bool
	EnrolledCount int
	EnrolledAt    time.Time
}

type UnenrollInput struct {
	UserID   uuid.UUID `validate:"required"`
	CourseID uuid.UUID `validate:"required"`
}

type UnenrollResult struct {
	EnrolledCount   int
	ProgressDeleted bool
	ReviewDeleted   bool
}
