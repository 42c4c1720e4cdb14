package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	types "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

const topSellingLimit = 10

// CategoryPage is the browse view of one category.
type CategoryPage struct {
	Selected         *types.Category `json:"selected"`
	Courses          []*types.Course `json:"courses"`
	Different        *types.Category `json:"different,omitempty"`
	DifferentCourses []*types.Course `json:"different_courses"`
	TopSelling       []*types.Course `json:"top_selling"`
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]*types.Category, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*types.Course, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*types.Course, error)
	CategoryPage(ctx context.Context, categoryID uuid.UUID) (*CategoryPage, error)
	// ListInstructorCourses includes drafts.
	ListInstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]*types.Course, error)
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	categories repos.CategoryRepo
	courses    repos.CourseRepo
	metrics    *observability.Metrics
}

func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	categories repos.CategoryRepo,
	courses repos.CourseRepo,
	metrics *observability.Metrics,
) CatalogService {
	return &catalogService{
		db:         db,
		log:        baseLog.With("service", "CatalogService"),
		categories: categories,
		courses:    courses,
		metrics:    metrics,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	rows, err := s.categories.List(dbctx.Of(ctx))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return rows, nil
}

func (s *catalogService) ListPublished(ctx context.Context, limit, offset int) ([]*types.Course, error) {
	defer observeRead(s.metrics, "catalog_published", time.Now())
	rows, err := s.courses.ListPublished(dbctx.Of(ctx), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}
	return rows, nil
}

func (s *catalogService) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*types.Course, error) {
	rows, err := s.courses.ListPublishedByCategory(dbctx.Of(ctx), categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category courses: %w", err)
	}
	return rows, nil
}

func (s *catalogService) CategoryPage(ctx context.Context, categoryID uuid.UUID) (*CategoryPage, error) {
	defer observeRead(s.metrics, "category_page", time.Now())
	dbc := dbctx.Of(ctx)

	selected, err := s.categories.GetByID(dbc, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if selected == nil {
		return nil, notFound("Catalog.CategoryPage", "category not found")
	}
	out := &CategoryPage{Selected: selected, DifferentCourses: []*types.Course{}}
	if out.Courses, err = s.courses.ListPublishedByCategory(dbc, categoryID); err != nil {
		return nil, fmt.Errorf("list category courses: %w", err)
	}

	others, err := s.categories.ListWithPublished(dbc, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list other categories: %w", err)
	}
	if len(others) > 0 {
		out.Different = others[0]
		if out.DifferentCourses, err = s.courses.ListPublishedByCategory(dbc, out.Different.ID); err != nil {
			return nil, fmt.Errorf("list different category courses: %w", err)
		}
	}
	if out.TopSelling, err = s.courses.TopSelling(dbc, topSellingLimit); err != nil {
		return nil, fmt.Errorf("list top selling: %w", err)
	}
	return out, nil
}

func (s *catalogService) ListInstructorCourses(ctx context.Context, instructorID uuid.UUID) ([]*types.Course, error) {
	rows, err := s.courses.ListByInstructor(dbctx.Of(ctx), instructorID)
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return rows, nil
}
