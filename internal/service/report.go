package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/repository"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

// ReportEventPublisher publishes report lifecycle events.
type ReportEventPublisher interface {
	ReportCreated(ctx context.Context, reportUserID string, teamNumber, count int)
}

// ReportService implements match report submission and retrieval.
type ReportService struct {
	reports repository.ReportRepository
	events  ReportEventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportService creates the report service. events may be nil.
func NewReportService(reports repository.ReportRepository, events ReportEventPublisher, logger *slog.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a single report authored by the given user.
func (s *ReportService) Create(ctx context.Context, rep *domain.Report, userID string) error {
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = s.now()
	}
	if err := s.reports.Create(ctx, rep, userID); err != nil {
		return err
	}
	if s.events != nil {
		s.events.ReportCreated(ctx, userID, rep.TeamNumber, 1)
	}
	return nil
}

// CreateBatch stores multiple reports in one transaction. Offline scouting
// clients sync their queued reports through this path.
func (s *ReportService) CreateBatch(ctx context.Context, reports []domain.Report, userID string) error {
	now := s.now()
	for i := range reports {
		if reports[i].CreatedAt.IsZero() {
			reports[i].CreatedAt = now
		}
	}
	if err := s.reports.CreateBatch(ctx, reports, userID); err != nil {
		return err
	}
	if s.events != nil && len(reports) > 0 {
		s.events.ReportCreated(ctx, userID, reports[0].TeamNumber, len(reports))
	}
	s.logger.InfoContext(ctx, "reports created",
		slog.Int("count", len(reports)),
		slog.String("user_id", userID),
	)
	return nil
}

// Get retrieves a full report by id.
func (s *ReportService) Get(ctx context.Context, id int64) (*domain.Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ReportNotFound()
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// List returns report summaries matching the filter.
func (s *ReportService) List(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportSummary, error) {
	return s.reports.List(ctx, filter)
}
