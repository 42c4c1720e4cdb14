package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type EnrollmentRepo interface {
	// CreateIgnoreDuplicates inserts row unless the (user, course) pair already
	// exists. It reports whether a row was written.
	CreateIgnoreDuplicates(dbc dbctx.Context, row *types.Enrollment) (bool, error)
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
	Exists(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error)
	ListAll(dbc dbctx.Context) ([]*types.Enrollment, error)
	CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error)
	DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) CreateIgnoreDuplicates(dbc dbctx.Context, row *types.Enrollment) (bool, error) {
	if row == nil || row.UserID == uuid.Nil || row.CourseID == uuid.Nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
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

func (r *enrollmentRepo) Exists(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListAll(dbc dbctx.Context) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if err := dbc.DB(r.db).Order("enrolled_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *enrollmentRepo) Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&types.Enrollment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("course_id = ?", courseID).Delete(&types.Enrollment{})
	return res.RowsAffected, res.Error
}
