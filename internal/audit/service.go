// Package audit keeps the local trail of record mutations made through the
// admin and serves it back as a filterable timeline.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store is the persistence used by Service.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error)
	All(ctx context.Context, f TimelineFilters, max int) ([]TimelineRow, error)
}

// Result wraps timeline rows with paging.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
	maxExportRows   = 5000
)

// Service records entries and reads the timeline.
type Service struct {
	repo   Store
	logger *slog.Logger
}

// NewService creates the audit service.
func NewService(repo Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record persists e. Entries need an action, an entity and its id.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Action == "" || e.Entity == "" || e.EntityID == "" {
		return errors.New("audit: entry requires action/entity/entity_id")
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return err
	}
	s.logger.Debug("audit recorded",
		slog.String("actor", e.ActorID),
		slog.String("action", string(e.Action)),
		slog.String("entity", e.Entity),
		slog.String("entity_id", e.EntityID),
	)
	return nil
}

// Timeline reads one page of entries.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s == nil || s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, filters, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export reads every matching entry, capped for safety.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, filters, maxExportRows)
}
