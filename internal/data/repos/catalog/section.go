package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type SectionRepo interface {
	// Create appends the section after the course's last one.
	Create(dbc dbctx.Context, row *types.Section) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Section, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Section, error)
	IDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
	DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) Create(dbc dbctx.Context, row *types.Section) error {
	if row == nil || row.CourseID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	var maxPos int
	if err := dbc.DB(r.db).
		Model(&types.Section{}).
		Where("course_id = ?", row.CourseID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error; err != nil {
		return err
	}
	row.Position = maxPos + 1
	return dbc.DB(r.db).Create(row).Error
}

func (r *sectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Section, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Section
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sectionRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Section, error) {
	out := []*types.Section{}
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) IDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if courseID == uuid.Nil {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.Section{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sectionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Section{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sectionRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Section{})
	return res.RowsAffected, res.Error
}

func (r *sectionRepo) DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("course_id = ?", courseID).Delete(&types.Section{})
	return res.RowsAffected, res.Error
}
