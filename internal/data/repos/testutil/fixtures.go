package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:        id,
		Email:     id.String() + "@example.com",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: "category",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID, categoryID uuid.UUID, status string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		CategoryID:   categoryID,
		Name:         "course",
		Description:  "description",
		Price:        100,
		Status:       status,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int) *types.Section {
	tb.Helper()
	s := &types.Section{
		ID:       uuid.New(),
		CourseID: courseID,
		Position: position,
		Name:     "section",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedSubSection(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, position int, seconds int64) *types.SubSection {
	tb.Helper()
	s := &types.SubSection{
		ID:              uuid.New(),
		SectionID:       sectionID,
		Position:        position,
		Title:           "lecture",
		VideoURL:        "https://media.example.com/v.mp4",
		DurationSeconds: seconds,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed sub section: %v", err)
	}
	return s
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:         uuid.New(),
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
