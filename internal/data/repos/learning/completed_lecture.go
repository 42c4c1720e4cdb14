package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type CompletedLectureRepo interface {
	// CreateIgnoreDuplicates adds the lecture to the progress record's completed
	// set and reports whether it was not already there.
	CreateIgnoreDuplicates(dbc dbctx.Context, row *types.CompletedLecture) (bool, error)
	ListByProgress(dbc dbctx.Context, progressID uuid.UUID) ([]*types.CompletedLecture, error)
	// CountInCourse counts completions whose lecture is still part of courseID.
	CountInCourse(dbc dbctx.Context, progressID, courseID uuid.UUID) (int, error)
	// ListOrphaned returns completions whose lecture is gone or now belongs to
	// a different course than the progress record.
	ListOrphaned(dbc dbctx.Context) ([]*types.CompletedLecture, error)
	DeleteByProgressIDs(dbc dbctx.Context, progressIDs []uuid.UUID) (int64, error)
	DeleteBySubSectionIDs(dbc dbctx.Context, subSectionIDs []uuid.UUID) (int64, error)
}

type completedLectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletedLectureRepo(db *gorm.DB, baseLog *logger.Logger) CompletedLectureRepo {
	return &completedLectureRepo{db: db, log: baseLog.With("repo", "CompletedLectureRepo")}
}

func (r *completedLectureRepo) CreateIgnoreDuplicates(dbc dbctx.Context, row *types.CompletedLecture) (bool, error) {
	if row == nil || row.ProgressID == uuid.Nil || row.SubSectionID == uuid.Nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "progress_id"}, {Name: "sub_section_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *completedLectureRepo) ListByProgress(dbc dbctx.Context, progressID uuid.UUID) ([]*types.CompletedLecture, error) {
	out := []*types.CompletedLecture{}
	if progressID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("progress_id = ?", progressID).
		Order("completed_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completedLectureRepo) CountInCourse(dbc dbctx.Context, progressID, courseID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.CompletedLecture{}).
		Joins("JOIN sub_section ON sub_section.id = completed_lecture.sub_section_id").
		Joins("JOIN section ON section.id = sub_section.section_id").
		Where("completed_lecture.progress_id = ? AND section.course_id = ?", progressID, courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *completedLectureRepo) ListOrphaned(dbc dbctx.Context) ([]*types.CompletedLecture, error) {
	out := []*types.CompletedLecture{}
	if err := dbc.DB(r.db).
		Model(&types.CompletedLecture{}).
		Select("completed_lecture.*").
		Joins("JOIN course_progress ON course_progress.id = completed_lecture.progress_id").
		Joins("LEFT JOIN sub_section ON sub_section.id = completed_lecture.sub_section_id").
		Joins("LEFT JOIN section ON section.id = sub_section.section_id").
		Where("section.id IS NULL OR section.course_id <> course_progress.course_id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *completedLectureRepo) DeleteByProgressIDs(dbc dbctx.Context, progressIDs []uuid.UUID) (int64, error) {
	if len(progressIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("progress_id IN ?", progressIDs).Delete(&types.CompletedLecture{})
	return res.RowsAffected, res.Error
}

func (r *completedLectureRepo) DeleteBySubSectionIDs(dbc dbctx.Context, subSectionIDs []uuid.UUID) (int64, error) {
	if len(subSectionIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("sub_section_id IN ?", subSectionIDs).Delete(&types.CompletedLecture{})
	return res.RowsAffected, res.Error
}
