package services

import (
	"time"

	domainagg "github.com/kishore-anbalagan/learning-management-system-sub000/internal/domain/aggregates"
	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
)

func observeRead(m *observability.Metrics, view string, start time.Time) {
	m.ObserveRead(view, time.Since(start))
}

func notFound(op, msg string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, msg, nil)
}
