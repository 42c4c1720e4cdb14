package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type CourseProgressRepo interface {
	// Ensure returns the (user, course) progress row, creating a zero row when
	// none exists. The row is locked for the rest of the transaction on Postgres.
	Ensure(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CourseProgress, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseProgress, error)
	ListAll(dbc dbctx.Context) ([]*types.CourseProgress, error)
	IDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{db: db, log: baseLog.With("repo", "CourseProgressRepo")}
}

func (r *courseProgressRepo) Ensure(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	now := time.Now().UTC()
	row := &types.CourseProgress{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	var out types.CourseProgress
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

func (r *courseProgressRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.CourseProgress
	if err := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CourseProgress, error) {
	out := []*types.CourseProgress{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseProgressRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseProgress, error) {
	out := []*types.CourseProgress{}
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseProgressRepo) ListAll(dbc dbctx.Context) ([]*types.CourseProgress, error) {
	out := []*types.CourseProgress{}
	if err := dbc.DB(r.db).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseProgressRepo) IDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.DB(r.db).
		Model(&types.CourseProgress{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *courseProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CourseProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the row and returns what was removed, or nil when nothing matched.
func (r *courseProgressRepo) Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	row, err := r.Get(dbc, userID, courseID)
	if err != nil || row == nil {
		return nil, err
	}
	if err := dbc.DB(r.db).Where("id = ?", row.ID).Delete(&types.CourseProgress{}).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *courseProgressRepo) DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("course_id = ?", courseID).Delete(&types.CourseProgress{})
	return res.RowsAffected, res.Error
}
