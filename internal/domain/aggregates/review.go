package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var ReviewAggregateContract = Contract{
	Name:             "Catalog.ReviewAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	CourseLock:       CourseLockUpdate,
	Notes:            "Owns the review row and the course's cached average rating.",
}

// ReviewAggregate keeps course.average_rating in step with its reviews.
type ReviewAggregate interface {
	Aggregate

	// SubmitReview creates the student's review or replaces their earlier one.
	SubmitReview(ctx context.Context, in SubmitReviewInput) (SubmitReviewResult, error)
}

type SubmitReviewInput struct {
	UserID   uuid.UUID `validate:"required"`
	CourseID uuid.UUID `validate:"required"`
	Rating   int       `validate:"required,min=1,max=5"`
	Text     string    `validate:"max=5000"`
}

type SubmitReviewResult struct {
	ReviewID      uuid.UUID
	Created       bool
	AverageRating float64
	RatingCount   int
}
