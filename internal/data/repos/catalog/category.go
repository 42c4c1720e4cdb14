package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.Category) ([]*types.Category, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	GetByName(dbc dbctx.Context, name string) (*types.Category, error)
	List(dbc dbctx.Context) ([]*types.Category, error)
	// ListWithPublished returns categories other than exclude that hold at
	// least one published course.
	ListWithPublished(dbc dbctx.Context, exclude uuid.UUID) ([]*types.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, rows []*types.Category) ([]*types.Category, error) {
	if len(rows) == 0 {
		return []*types.Category{}, nil
	}
	for _, c := range rows {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Category
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) GetByName(dbc dbctx.Context, name string) (*types.Category, error) {
	if name == "" {
		return nil, nil
	}
	var row types.Category
	if err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*types.Category, error) {
	out := []*types.Category{}
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) ListWithPublished(dbc dbctx.Context, exclude uuid.UUID) ([]*types.Category, error) {
	out := []*types.Category{}
	q := dbc.DB(r.db).
		Where("id IN (?)", dbc.DB(r.db).
			Model(&types.Course{}).
			Select("category_id").
			Where("status = ?", types.CourseStatusPublished))
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
