package analytics

import (
	"context"
	"time"

	"networth-tracker/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ResultCache stores the last computed result per user.
type ResultCache interface {
	Get(userID string) (models.AnalyticsResult, bool)
	Set(userID string, result models.AnalyticsResult)
	Invalidate(userID string)
}

// Service answers analytics reads, computing from the repository on a cache miss.
type Service struct {
	repo   Repository
	cache  ResultCache
	logger *zap.Logger
	group  singleflight.Group
	nowFn  func() time.Time
}

// NewService creates an analytics service.
func NewService(repo Repository, cache ResultCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		nowFn:  time.Now,
	}
}

// GetAnalytics returns the metrics for userID.
//
// A user without snapshots gets the all-zero result, which is not cached so the
// first snapshot is picked up immediately. Repository errors are returned as is
// and nothing is cached for them. Concurrent misses for the same user share one
// computation.
func (s *Service) GetAnalytics(ctx context.Context, userID string) (models.AnalyticsResult, error) {
	if result, ok := s.cache.Get(userID); ok {
		s.logger.Debug("analytics cache hit", zap.String("user", userID))
		return result, nil
	}
	s.logger.Debug("analytics cache miss", zap.String("user", userID))

	v, err, _ := s.group.Do(userID, func() (any, error) {
		series, err := BuildSeries(ctx, s.repo, userID)
		if err != nil {
			return nil, err
		}
		if len(series) == 0 {
			return models.EmptyAnalytics(), nil
		}
		result := Compute(series, s.nowFn())
		s.cache.Set(userID, result)
		return result, nil
	})
	if err != nil {
		s.logger.Error("failed to compute analytics", zap.String("user", userID), zap.Error(err))
		return models.AnalyticsResult{}, err
	}
	return v.(models.AnalyticsResult), nil
}

// GetCategoryHistory returns per-snapshot category totals for userID, oldest first.
func (s *Service) GetCategoryHistory(ctx context.Context, userID string) ([]models.CategoryHistoryPoint, error) {
	series, err := BuildSeries(ctx, s.repo, userID)
	if err != nil {
		s.logger.Error("failed to load category history", zap.String("user", userID), zap.Error(err))
		return nil, err
	}
	return CategoryHistory(series), nil
}

// Invalidate drops the cached result of userID. Writers call it after every
// committed change to the user's snapshots or entries.
func (s *Service) Invalidate(userID string) {
	s.cache.Invalidate(userID)
}
