package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

// LectureStats summarizes the lecture items of one course.
type LectureStats struct {
	CourseID        uuid.UUID
	Lectures        int
	DurationSeconds int64
}

type SubSectionRepo interface {
	// Create appends the item after the section's last one.
	Create(dbc dbctx.Context, row *types.SubSection) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SubSection, error)
	ListBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.SubSection, error)
	IDsBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]uuid.UUID, error)
	// CourseIDOf resolves the course owning a lecture item through its section.
	CourseIDOf(dbc dbctx.Context, id uuid.UUID) (uuid.UUID, error)
	CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	StatsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID]LectureStats, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
	DeleteBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) (int64, error)
}

type subSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubSectionRepo(db *gorm.DB, baseLog *logger.Logger) SubSectionRepo {
	return &subSectionRepo{db: db, log: baseLog.With("repo", "SubSectionRepo")}
}

func (r *subSectionRepo) Create(dbc dbctx.Context, row *types.SubSection) error {
	if row == nil || row.SectionID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	var maxPos int
	if err := dbc.DB(r.db).
		Model(&types.SubSection{}).
		Where("section_id = ?", row.SectionID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error; err != nil {
		return err
	}
	row.Position = maxPos + 1
	return dbc.DB(r.db).Create(row).Error
}

func (r *subSectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SubSection, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.SubSection
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *subSectionRepo) ListBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.SubSection, error) {
	out := []*types.SubSection{}
	if len(sectionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("section_id IN ?", sectionIDs).
		Order("section_id ASC").
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subSectionRepo) IDsBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(sectionIDs) == 0 {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.SubSection{}).
		Where("section_id IN ?", sectionIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *subSectionRepo) CourseIDOf(dbc dbctx.Context, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, nil
	}
	var courseIDs []uuid.UUID
	if err := dbc.DB(r.db).
		Model(&types.SubSection{}).
		Joins("JOIN section ON section.id = sub_section.section_id").
		Where("sub_section.id = ?", id).
		Limit(1).
		Pluck("section.course_id", &courseIDs).Error; err != nil {
		return uuid.Nil, err
	}
	if len(courseIDs) == 0 {
		return uuid.Nil, nil
	}
	return courseIDs[0], nil
}

func (r *subSectionRepo) CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.SubSection{}).
		Joins("JOIN section ON section.id = sub_section.section_id").
		Where("section.course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *subSectionRepo) StatsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID]LectureStats, error) {
	out := map[uuid.UUID]LectureStats{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	var rows []LectureStats
	if err := dbc.DB(r.db).
		Model(&types.SubSection{}).
		Select("section.course_id AS course_id, COUNT(sub_section.id) AS lectures, COALESCE(SUM(sub_section.duration_seconds), 0) AS duration_seconds").
		Joins("JOIN section ON section.id = sub_section.section_id").
		Where("section.course_id IN ?", courseIDs).
		Group("section.course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CourseID] = row
	}
	return out, nil
}

func (r *subSectionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.SubSection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *subSectionRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.SubSection{})
	return res.RowsAffected, res.Error
}

func (r *subSectionRepo) DeleteBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("section_id IN ?", sectionIDs).Delete(&types.SubSection{})
	return res.RowsAffected, res.Error
}
