package learning

import (
	"context"
	"testing"
	"time"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos/testutil"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	instructor := testutil.SeedUser(t, ctx, tx, types.RoleInstructor)
	student := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	cat := testutil.SeedCategory(t, ctx, tx, "Cat")
	course := testutil.SeedCourse(t, ctx, tx, instructor.ID, cat.ID, types.CourseStatusPublished)

	repo := NewEnrollmentRepo(db, testutil.Logger(t))

	inserted, err := repo.CreateIgnoreDuplicates(dbc, &types.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateIgnoreDuplicates: %v", err)
	}
	if !inserted {
		t.Fatalf("CreateIgnoreDuplicates: expected insert")
	}
	inserted, err = repo.CreateIgnoreDuplicates(dbc, &types.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateIgnoreDuplicates (dup): %v", err)
	}
	if inserted {
		t.Fatalf("CreateIgnoreDuplicates (dup): expected no-op")
	}

	ok, err := repo.Exists(dbc, student.ID, course.ID)
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	byUser, err := repo.ListByUser(dbc, student.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	byCourse, err := repo.ListByCourse(dbc, course.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(byUser) != 1 || len(byCourse) != 1 || byUser[0].ID != byCourse[0].ID {
		t.Fatalf("both directions must read the same row: user=%+v course=%+v", byUser, byCourse)
	}

	n, err := repo.CountByCourse(dbc, course.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountByCourse: n=%d err=%v", n, err)
	}

	removed, err := repo.Delete(dbc, student.ID, course.ID)
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	removed, err = repo.Delete(dbc, student.ID, course.ID)
	if err != nil || removed {
		t.Fatalf("Delete (again): removed=%v err=%v", removed, err)
	}
}
