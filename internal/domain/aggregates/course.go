package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var CourseAggregateContract = Contract{
	Name:             "Catalog.CourseAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	CourseLock:       CourseLockUpdate,
	Notes:            "Owns the course content tree, its publication status and the cascade on delete.",
}

// CourseAggregate owns course authoring. Every method checks that the actor
// is the course's instructor.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodePermissionDenied, CodePreconditionFailed,
// CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type CourseAggregate interface {
	Aggregate

	CreateCourse(ctx context.Context, in CreateCourseInput) (uuid.UUID, error)
	UpdateCourse(ctx context.Context, in UpdateCourseInput) error
	PublishCourse(ctx context.Context, in CourseRef) (bool, error)
	UnpublishCourse(ctx context.Context, in CourseRef) (bool, error)

	// DeleteCourse removes the course together with its content tree,
	// enrollments, progress and reviews in one transaction.
	DeleteCourse(ctx context.Context, in CourseRef) (DeleteCourseResult, error)

	AddSection(ctx context.Context, in AddSectionInput) (uuid.UUID, error)
	RenameSection(ctx context.Context, in RenameSectionInput) error
	DeleteSection(ctx context.Context, in SectionRef) error

	AddSubSection(ctx context.Context, in AddSubSectionInput) (uuid.UUID, error)
	UpdateSubSection(ctx context.Context, in UpdateSubSectionInput) error
	DeleteSubSection(ctx context.Context, in SubSectionRef) error
}

type CreateCourseInput struct {
	InstructorID uuid.UUID `validate:"required"`
	CategoryID   uuid.UUID `validate:"required"`
	Name         string    `validate:"required,max=200"`
	Description  string    `validate:"max=5000"`
	Price        int64     `validate:"gte=0"`
	ThumbnailURL string    `validate:"omitempty,url"`
	Tags         []string  `validate:"dive,required"`
	Instructions []string  `validate:"dive,required"`
	Publish      bool
}

// UpdateCourseInput changes only the non-nil fields.
type UpdateCourseInput struct {
	InstructorID uuid.UUID `validate:"required"`
	CourseID     uuid.UUID `validate:"required"`
	CategoryID   *uuid.UUID
	Name         *string `validate:"omitempty,min=1,max=200"`
	Description  *string `validate:"omitempty,max=5000"`
	Price        *int64  `validate:"omitempty,gte=0"`
	ThumbnailURL *string `validate:"omitempty,url"`
	Tags         []string
	Instructions []string
}

type CourseRef struct {
	InstructorID uuid.UUID `validate:"required"`
	CourseID     uuid.UUID `validate:"required"`
}

type DeleteCourseResult struct {
	SectionsDeleted    int64
	SubSectionsDeleted int64
	EnrollmentsDeleted int64
	ProgressDeleted    int64
	ReviewsDeleted     int64
}

type AddSectionInput struct {
	InstructorID uuid.UUID `validate:"required"`
	CourseID     uuid.UUID `validate:"required"`
	Name         string    `validate:"required,max=200"`
}

type RenameSectionInput struct {
	InstructorID uuid.UUID `validate:"required"`
	SectionID    uuid.UUID `validate:"required"`
	Name         string    `validate:"required,max=200"`
}

type SectionRef struct {
	InstructorID uuid.UUID `validate:"required"`
	SectionID    uuid.UUID `validate:"required"`
}

type AddSubSectionInput struct {
	InstructorID    uuid.UUID `validate:"required"`
	SectionID       uuid.UUID `validate:"required"`
	Title           string    `validate:"required,max=200"`
	Description     string    `validate:"max=5000"`
	VideoURL        string    `validate:"omitempty,url"`
	DurationSeconds int64     `validate:"gte=0"`
}

type UpdateSubSectionInput struct {
	InstructorID    uuid.UUID `validate:"required"`
	SubSectionID    uuid.UUID `validate:"required"`
	Title           *string   `validate:"omitempty,min=1,max=200"`
	Description     *string   `validate:"omitempty,max=5000"`
	VideoURL        *string   `validate:"omitempty,url"`
	DurationSeconds *int64    `validate:"omitempty,gte=0"`
}

type SubSectionRef struct {
	InstructorID uuid.UUID `validate:"required"`
	SubSectionID uuid.UUID `validate:"required"`
}
