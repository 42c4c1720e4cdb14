package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, course *types.Course) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	// ShareByID reads the course under FOR SHARE. Sharers do not block each
	// other; sharers and LockByID holders exclude one another.
	ShareByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)

	ListByInstructor(dbc dbctx.Context, instructorID uuid.UUID) ([]*types.Course, error)
	ListPublished(dbc dbctx.Context, limit, offset int) ([]*types.Course, error)
	ListPublishedByCategory(dbc dbctx.Context, categoryID uuid.UUID) ([]*types.Course, error)
	TopSelling(dbc dbctx.Context, limit int) ([]*types.Course, error)
	ListAll(dbc dbctx.Context) ([]*types.Course, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// AddEnrolled shifts enrolled_count by delta in SQL and returns the new value.
	AddEnrolled(dbc dbctx.Context, id uuid.UUID, delta int) (int, error)
	SetRating(dbc dbctx.Context, id uuid.UUID, average float64, count int) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, course *types.Course) error {
	if course == nil {
		return nil
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	if course.Status == "" {
		course.Status = types.CourseStatusDraft
	}
	return dbc.DB(r.db).Create(course).Error
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Course
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	out := []*types.Course{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	return r.lockByID(dbc, id, clause.LockingStrengthUpdate)
}

func (r *courseRepo) ShareByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	return r.lockByID(dbc, id, clause.LockingStrengthShare)
}

func (r *courseRepo) lockByID(dbc dbctx.Context, id uuid.UUID, strength string) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Course
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseRepo) ListByInstructor(dbc dbctx.Context, instructorID uuid.UUID) ([]*types.Course, error) {
	out := []*types.Course{}
	if instructorID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("instructor_id = ?", instructorID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListPublished(dbc dbctx.Context, limit, offset int) ([]*types.Course, error) {
	out := []*types.Course{}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if err := dbc.DB(r.db).
		Where("status = ?", types.CourseStatusPublished).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListPublishedByCategory(dbc dbctx.Context, categoryID uuid.UUID) ([]*types.Course, error) {
	out := []*types.Course{}
	if categoryID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("category_id = ? AND status = ?", categoryID, types.CourseStatusPublished).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) TopSelling(dbc dbctx.Context, limit int) ([]*types.Course, error) {
	out := []*types.Course{}
	if limit <= 0 {
		limit = 10
	}
	if err := dbc.DB(r.db).
		Where("status = ?", types.CourseStatusPublished).
		Order("enrolled_count DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListAll(dbc dbctx.Context) ([]*types.Course, error) {
	out := []*types.Course{}
	if err := dbc.DB(r.db).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Course{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *courseRepo) AddEnrolled(dbc dbctx.Context, id uuid.UUID, delta int) (int, error) {
	tx := dbc.DB(r.db)
	res := tx.Model(&types.Course{}).
		Where("id = ?", id).
		UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var count int
	if err := dbc.DB(r.db).
		Model(&types.Course{}).
		Where("id = ?", id).
		Pluck("enrolled_count", &count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *courseRepo) SetRating(dbc dbctx.Context, id uuid.UUID, average float64, count int) error {
	return dbc.DB(r.db).
		Model(&types.Course{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"average_rating": average,
			"rating_count":   count,
		}).Error
}

func (r *courseRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Course{})
	return res.RowsAffected, res.Error
}
