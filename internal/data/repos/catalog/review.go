package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type RatingStats struct {
	AverageRating float64
	RatingCount   int
}

type ReviewRepo interface {
	Create(dbc dbctx.Context, row *types.Review) error
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Review, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Review, error)
	ListAll(dbc dbctx.Context) ([]*types.Review, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	StatsByCourse(dbc dbctx.Context, courseID uuid.UUID) (RatingStats, error)
	DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) Create(dbc dbctx.Context, row *types.Review) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *reviewRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Review, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Review
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

func (r *reviewRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Review, error) {
	out := []*types.Review{}
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) ListAll(dbc dbctx.Context) ([]*types.Review, error) {
	out := []*types.Review{}
	if err := dbc.DB(r.db).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Review{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *reviewRepo) StatsByCourse(dbc dbctx.Context, courseID uuid.UUID) (RatingStats, error) {
	var out RatingStats
	err := dbc.DB(r.db).
		Model(&types.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS rating_count").
		Where("course_id = ?", courseID).
		Scan(&out).Error
	return out, err
}

func (r *reviewRepo) DeleteByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("course_id = ?", courseID).Delete(&types.Review{})
	return res.RowsAffected, res.Error
}

func (r *reviewRepo) Delete(dbc dbctx.Context, userID, courseID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&types.Review{})
	return res.RowsAffected > 0, res.Error
}
