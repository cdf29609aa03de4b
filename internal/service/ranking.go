package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/repository"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

// RankingClient produces team rankings from the full report set.
type RankingClient interface {
	Rank(ctx context.Context, reports []domain.Report) ([]domain.Ranking, error)
}

// RankingCache is a byte-level cache for computed rankings. A miss is
// reported as (nil, nil).
type RankingCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const rankingCacheTTL = 24 * time.Hour

// RankingService computes AI rankings over all stored reports. Results are
// cached keyed by the report count, so the cache invalidates itself as soon
// as new reports arrive.
type RankingService struct {
	reports repository.ReportRepository
	client  RankingClient
	cache   RankingCache
	logger  *slog.Logger
}

// NewRankingService creates the ranking service. cache may be nil, in which
// case every request recomputes.
func NewRankingService(reports repository.ReportRepository, client RankingClient, cache RankingCache, logger *slog.Logger) *RankingService {
	return &RankingService{
		reports: reports,
		client:  client,
		cache:   cache,
		logger:  logger,
	}
}

// Rankings returns the evaluation of every scouted team.
func (s *RankingService) Rankings(ctx context.Context) ([]domain.Ranking, error) {
	count, err := s.reports.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	key := fmt.Sprintf("rankings:%d", count)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	rankings, err := s.client.Rank(ctx, reports)
	if err != nil {
		return nil, apperrors.RankingUpstreamFailed(err)
	}

	s.toCache(ctx, key, rankings)
	return rankings, nil
}

func (s *RankingService) fromCache(ctx context.Context, key string) []domain.Ranking {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "ranking cache read failed", slog.String("error", err.Error()))
		return nil
	}
	if data == nil {
		return nil
	}
	var rankings []domain.Ranking
	if err := json.Unmarshal(data, &rankings); err != nil {
		s.logger.WarnContext(ctx, "ranking cache entry corrupt", slog.String("key", key))
		return nil
	}
	return rankings
}

func (s *RankingService) toCache(ctx context.Context, key string, rankings []domain.Ranking) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rankings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, rankingCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "ranking cache write failed", slog.String("error", err.Error()))
	}
}
