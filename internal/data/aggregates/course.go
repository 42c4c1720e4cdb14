package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
)

type CourseAggregateDeps struct {
	Base BaseDeps

	Users       repos.UserRepo
	Categories  repos.CategoryRepo
	Courses     repos.CourseRepo
	Sections    repos.SectionRepo
	SubSections repos.SubSectionRepo
	Enrollments repos.EnrollmentRepo
	Progress    repos.CourseProgressRepo
	Completed   repos.CompletedLectureRepo
	Reviews     repos.ReviewRepo
}

type courseAggregate struct {
	deps CourseAggregateDeps
	calc progressCalculator
}

func NewCourseAggregate(deps CourseAggregateDeps) domainagg.CourseAggregate {
	deps.Base = deps.Base.withDefaults()
	return &courseAggregate{
		deps: deps,
		calc: progressCalculator{
			subSections: deps.SubSections,
			progress:    deps.Progress,
			completed:   deps.Completed,
		},
	}
}

func (a *courseAggregate) Contract() domainagg.Contract {
	return domainagg.CourseAggregateContract
}

func (a *courseAggregate) CreateCourse(ctx context.Context, in domainagg.CreateCourseInput) (uuid.UUID, error) {
	const op = "Catalog.Course.Create"

	if err := validateInput(op, in); err != nil {
		return uuid.Nil, err
	}
	if err := a.requireRepos(op); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		instructor, err := a.deps.Users.GetByID(dbc, in.InstructorID)
		if err != nil {
			return err
		}
		if instructor == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "instructor not found", nil)
		}
		if !instructor.IsInstructor() {
			return domainagg.NewError(domainagg.CodePermissionDenied, op, "only instructors can create courses", nil)
		}
		if err := a.requireCategory(dbc, op, in.CategoryID); err != nil {
			return err
		}

		status := types.CourseStatusDraft
		if in.Publish {
			status = types.CourseStatusPublished
		}
		course := &types.Course{
			ID:           uuid.New(),
			InstructorID: in.InstructorID,
			CategoryID:   in.CategoryID,
			Name:         strings.TrimSpace(in.Name),
			Description:  in.Description,
			Price:        in.Price,
			Status:       status,
			ThumbnailURL: in.ThumbnailURL,
			Tags:         datatypes.JSONSlice[string](nonNil(in.Tags)),
			Instructions: datatypes.JSONSlice[string](nonNil(in.Instructions)),
		}
		if err := a.deps.Courses.Create(dbc, course); err != nil {
			return err
		}
		id = course.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	a.deps.Base.Log.Info("course created", "course_id", id, "instructor_id", in.InstructorID)
	return id, nil
}

func (a *courseAggregate) UpdateCourse(ctx context.Context, in domainagg.UpdateCourseInput) error {
	const op = "Catalog.Course.Update"

	if err := validateInput(op, in); err != nil {
		return err
	}
	if err := a.requireRepos(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.ownedCourse(dbc, op, in.InstructorID, in.CourseID); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.CategoryID != nil {
			if err := a.requireCategory(dbc, op, *in.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *in.CategoryID
		}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Price != nil {
			updates["price"] = *in.Price
		}
		if in.ThumbnailURL != nil {
			updates["thumbnail_url"] = *in.ThumbnailURL
		}
		if in.Tags != nil {
			updates["tags"] = datatypes.JSONSlice[string](in.Tags)
		}
		if in.Instructions != nil {
			updates["instructions"] = datatypes.JSONSlice[string](in.Instructions)
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		return a.deps.Courses.UpdateFields(dbc, in.CourseID, updates)
	})
}

func (a *courseAggregate) PublishCourse(ctx context.Context, in domainagg.CourseRef) (bool, error) {
	return a.transition(ctx, "Catalog.Course.Publish", in, types.CourseStatusDraft, types.CourseStatusPublished)
}

func (a *courseAggregate) UnpublishCourse(ctx context.Context, in domainagg.CourseRef) (bool, error) {
	return a.transition(ctx, "Catalog.Course.Unpublish", in, types.CourseStatusPublished, types.CourseStatusDraft)
}

// transition moves a course from one status to the other. A course already in
// the target status is left alone and reports false.
func (a *courseAggregate) transition(ctx context.Context, op string, in domainagg.CourseRef, from, to string) (bool, error) {
	if err := validateInput(op, in); err != nil {
		return false, err
	}
	if err := a.requireRepos(op); err != nil {
		return false, err
	}
	changed := false
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.ownedCourse(dbc, op, in.InstructorID, in.CourseID)
		if err != nil {
			return err
		}
		if course.Status == to {
			return nil
		}
		if err := RequireStatusAllowed(course.Status, from); err != nil {
			return err
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, "course", course.ID, []string{from}, map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "course status changed concurrently"); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		a.deps.Base.Log.Info("course status changed", "course_id", in.CourseID, "status", to)
	}
	return changed, nil
}

func (a *courseAggregate) DeleteCourse(ctx context.Context, in domainagg.CourseRef) (domainagg.DeleteCourseResult, error) {
	const op = "Catalog.Course.Delete"

	out := domainagg.DeleteCourseResult{}
	if err := validateInput(op, in); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.ownedCourse(dbc, op, in.InstructorID, in.CourseID); err != nil {
			return err
		}
		sectionIDs, err := a.deps.Sections.IDsByCourse(dbc, in.CourseID)
		if err != nil {
			return err
		}
		lectureIDs, err := a.deps.SubSections.IDsBySectionIDs(dbc, sectionIDs)
		if err != nil {
			return err
		}
		progressIDs, err := a.deps.Progress.IDsByCourse(dbc, in.CourseID)
		if err != nil {
			return err
		}

		if _, err := a.deps.Completed.DeleteByProgressIDs(dbc, progressIDs); err != nil {
			return err
		}
		if _, err := a.deps.Completed.DeleteBySubSectionIDs(dbc, lectureIDs); err != nil {
			return err
		}
		if out.ProgressDeleted, err = a.deps.Progress.DeleteByCourse(dbc, in.CourseID); err != nil {
			return err
		}
		if out.EnrollmentsDeleted, err = a.deps.Enrollments.DeleteByCourse(dbc, in.CourseID); err != nil {
			return err
		}
		if out.ReviewsDeleted, err = a.deps.Reviews.DeleteByCourse(dbc, in.CourseID); err != nil {
			return err
		}
		if out.SubSectionsDeleted, err = a.deps.SubSections.DeleteBySectionIDs(dbc, sectionIDs); err != nil {
			return err
		}
		if out.SectionsDeleted, err = a.deps.Sections.DeleteByCourse(dbc, in.CourseID); err != nil {
			return err
		}
		n, err := a.deps.Courses.Delete(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if n != 1 {
			return InvariantError("course row vanished during delete")
		}
		return nil
	})
	if err != nil {
		return domainagg.DeleteCourseResult{}, err
	}
	a.deps.Base.Log.Info("course deleted",
		"course_id", in.CourseID,
		"enrollments", out.EnrollmentsDeleted,
		"progress", out.ProgressDeleted,
		"sections", out.SectionsDeleted,
	)
	return out, nil
}

func (a *courseAggregate) AddSection(ctx context.Context, in domainagg.AddSectionInput) (uuid.UUID, error) {
	const op = "Catalog.Course.AddSection"

	if err := validateInput(op, in); err != nil {
		return uuid.Nil, err
	}
	if err := a.requireRepos(op); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.ownedCourse(dbc, op, in.InstructorID, in.CourseID); err != nil {
			return err
		}
		row := &types.Section{
			ID:       uuid.New(),
			CourseID: in.CourseID,
			Name:     strings.TrimSpace(in.Name),
		}
		if err := a.deps.Sections.Create(dbc, row); err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (a *courseAggregate) RenameSection(ctx context.Context, in domainagg.RenameSectionInput) error {
	const op = "Catalog.Course.RenameSection"

	if err := validateInput(op, in); err != nil {
		return err
	}
	if err := a.requireRepos(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		section, err := a.ownedSection(dbc, op, in.InstructorID, in.SectionID)
		if err != nil {
			return err
		}
		return a.deps.Sections.UpdateFields(dbc, section.ID, map[string]interface{}{
			"name":       strings.TrimSpace(in.Name),
			"updated_at": time.Now().UTC(),
		})
	})
}

func (a *courseAggregate) DeleteSection(ctx context.Context, in domainagg.SectionRef) error {
	const op = "Catalog.Course.DeleteSection"

	if err := validateInput(op, in); err != nil {
		return err
	}
	if err := a.requireRepos(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		section, err := a.ownedSection(dbc, op, in.InstructorID, in.SectionID)
		if err != nil {
			return err
		}
		lectureIDs, err := a.deps.SubSections.IDsBySectionIDs(dbc, []uuid.UUID{section.ID})
		if err != nil {
			return err
		}
		if _, err := a.deps.Completed.DeleteBySubSectionIDs(dbc, lectureIDs); err != nil {
			return err
		}
		if _, err := a.deps.SubSections.DeleteBySectionIDs(dbc, []uuid.UUID{section.ID}); err != nil {
			return err
		}
		if _, err := a.deps.Sections.Delete(dbc, section.ID); err != nil {
			return err
		}
		_, err = a.calc.recomputeCourse(dbc, section.CourseID)
		return err
	})
}

func (a *courseAggregate) AddSubSection(ctx context.Context, in domainagg.AddSubSectionInput) (uuid.UUID, error) {
	const op = "Catalog.Course.AddSubSection"

	if err := validateInput(op, in); err != nil {
		return uuid.Nil, err
	}
	if err := a.requireRepos(op); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		section, err := a.ownedSection(dbc, op, in.InstructorID, in.SectionID)
		if err != nil {
			return err
		}
		row := &types.SubSection{
			ID:              uuid.New(),
			SectionID:       section.ID,
			Title:           strings.TrimSpace(in.Title),
			Description:     in.Description,
			VideoURL:        in.VideoURL,
			DurationSeconds: in.DurationSeconds,
		}
		if err := a.deps.SubSections.Create(dbc, row); err != nil {
			return err
		}
		id = row.ID
		_, err = a.calc.recomputeCourse(dbc, section.CourseID)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (a *courseAggregate) UpdateSubSection(ctx context.Context, in domainagg.UpdateSubSectionInput) error {
	const op = "Catalog.Course.UpdateSubSection"

	if err := validateInput(op, in); err != nil {
		return err
	}
	if err := a.requireRepos(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.ownedSubSection(dbc, op, in.InstructorID, in.SubSectionID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.VideoURL != nil {
			updates["video_url"] = *in.VideoURL
		}
		if in.DurationSeconds != nil {
			updates["duration_seconds"] = *in.DurationSeconds
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		return a.deps.SubSections.UpdateFields(dbc, sub.ID, updates)
	})
}

func (a *courseAggregate) DeleteSubSection(ctx context.Context, in domainagg.SubSectionRef) error {
	const op = "Catalog.Course.DeleteSubSection"

	if err := validateInput(op, in); err != nil {
		return err
	}
	if err := a.requireRepos(op); err != nil {
		return err
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.ownedSubSection(dbc, op, in.InstructorID, in.SubSectionID)
		if err != nil {
			return err
		}
		section, err := a.deps.Sections.GetByID(dbc, sub.SectionID)
		if err != nil {
			return err
		}
		if _, err := a.deps.Completed.DeleteBySubSectionIDs(dbc, []uuid.UUID{sub.ID}); err != nil {
			return err
		}
		if _, err := a.deps.SubSections.Delete(dbc, sub.ID); err != nil {
			return err
		}
		_, err = a.calc.recomputeCourse(dbc, section.CourseID)
		return err
	})
}

func (a *courseAggregate) requireRepos(op string) error {
	d := a.deps
	if d.Users == nil || d.Categories == nil || d.Courses == nil || d.Sections == nil || d.SubSections == nil ||
		d.Enrollments == nil || d.Progress == nil || d.Completed == nil || d.Reviews == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "course aggregate missing repos", nil)
	}
	return nil
}

func (a *courseAggregate) requireCategory(dbc dbctx.Context, op string, id uuid.UUID) error {
	category, err := a.deps.Categories.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if category == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, "category not found", nil)
	}
	return nil
}

// ownedCourse locks the course row and checks that instructorID owns it.
// Every content write goes through here first, so writes to one course tree
// are serialized on the course row.
func (a *courseAggregate) ownedCourse(dbc dbctx.Context, op string, instructorID, courseID uuid.UUID) (*types.Course, error) {
	course, err := a.deps.Courses.LockByID(dbc, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
	}
	if course.InstructorID != instructorID {
		return nil, domainagg.NewError(domainagg.CodePermissionDenied, op, "course is owned by another instructor", nil)
	}
	return course, nil
}

func (a *courseAggregate) ownedSection(dbc dbctx.Context, op string, instructorID, sectionID uuid.UUID) (*types.Section, error) {
	section, err := a.deps.Sections.GetByID(dbc, sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "section not found", nil)
	}
	if _, err := a.ownedCourse(dbc, op, instructorID, section.CourseID); err != nil {
		return nil, err
	}
	return section, nil
}

func (a *courseAggregate) ownedSubSection(dbc dbctx.Context, op string, instructorID, subSectionID uuid.UUID) (*types.SubSection, error) {
	sub, err := a.deps.SubSections.GetByID(dbc, subSectionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "lecture not found", nil)
	}
	if _, err := a.ownedSection(dbc, op, instructorID, sub.SectionID); err != nil {
		return nil, err
	}
	return sub, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
