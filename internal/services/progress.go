package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/data/repos"
	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/dbctx"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type ProgressService interface {
	MarkComplete(ctx context.Context, userID, courseID, lectureID uuid.UUID) (domainagg.ProgressView, error)
	TouchAccess(ctx context.Context, userID, courseID uuid.UUID) (domainagg.ProgressView, error)
	// GetProgress never fails for a missing record; it returns the zero view.
	GetProgress(ctx context.Context, userID, courseID uuid.UUID) (domainagg.ProgressView, error)
}

type progressService struct {
	db          *gorm.DB
	log         *logger.Logger
	agg         domainagg.ProgressAggregate
	progress    repos.CourseProgressRepo
	completed   repos.CompletedLectureRepo
	subSections repos.SubSectionRepo
	metrics     *observability.Metrics
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	agg domainagg.ProgressAggregate,
	progress repos.CourseProgressRepo,
	completed repos.CompletedLectureRepo,
	subSections repos.SubSectionRepo,
	metrics *observability.Metrics,
) ProgressService {
	return &progressService{
		db:          db,
		log:         baseLog.With("service", "ProgressService"),
		agg:         agg,
		progress:    progress,
		completed:   completed,
		subSections: subSections,
		metrics:     metrics,
	}
}

func (s *progressService) MarkComplete(ctx context.Context, userID, courseID, lectureID uuid.UUID) (domainagg.ProgressView, error) {
	return s.agg.MarkComplete(ctx, domainagg.MarkCompleteInput{UserID: userID, CourseID: courseID, LectureID: lectureID})
}

func (s *progressService) TouchAccess(ctx context.Context, userID, courseID uuid.UUID) (domainagg.ProgressView, error) {
	return s.agg.TouchAccess(ctx, domainagg.TouchAccessInput{UserID: userID, CourseID: courseID})
}

func (s *progressService) GetProgress(ctx context.Context, userID, courseID uuid.UUID) (domainagg.ProgressView, error) {
	defer observeRead(s.metrics, "progress", time.Now())
	dbc := dbctx.Of(ctx)

	total, err := s.subSections.CountByCourse(dbc, courseID)
	if err != nil {
		return domainagg.ProgressView{}, fmt.Errorf("count lectures: %w", err)
	}
	p, err := s.progress.Get(dbc, userID, courseID)
	if err != nil {
		return domainagg.ProgressView{}, fmt.Errorf("load progress: %w", err)
	}
	if p == nil {
		view := domainagg.ProgressViewOf(nil, nil, total)
		view.UserID = userID
		view.CourseID = courseID
		return view, nil
	}
	rows, err := s.completed.ListByProgress(dbc, p.ID)
	if err != nil {
		return domainagg.ProgressView{}, fmt.Errorf("load completions: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SubSectionID)
	}
	return domainagg.ProgressViewOf(p, ids, total), nil
}
