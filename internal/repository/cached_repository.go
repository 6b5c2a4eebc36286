package repository

import (
	"context"
	"errors"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	"FundFlow/pkg/cache"
	applogger "FundFlow/pkg/logger"
)

const latestResultKey = "result:latest"

// CachedFlowRepository decorates a FlowRepository with a short-lived cache for
// the latest result, the hottest read on the API and the feed. Cache failures
// degrade to the underlying store; writes invalidate before they return.
type CachedFlowRepository struct {
	drepo.FlowRepository

	cache cache.Service
	ttl   time.Duration
	log   *applogger.Logger
}

// NewCachedFlowRepository wraps repo with latest-result caching.
func NewCachedFlowRepository(repo drepo.FlowRepository, c cache.Service, ttl time.Duration, log *applogger.Logger) drepo.FlowRepository {
	return &CachedFlowRepository{
		FlowRepository: repo,
		cache:          c,
		ttl:            ttl,
		log:            log,
	}
}

func (r *CachedFlowRepository) FindLatestResult(ctx context.Context) (*models.FlowResult, error) {
	var cached models.FlowResult
	err := r.cache.Get(ctx, latestResultKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.log.Warn("latest result cache read failed", applogger.Error(err))
	}

	result, err := r.FlowRepository.FindLatestResult(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, latestResultKey, result, r.ttl); err != nil {
		r.log.Warn("latest result cache write failed", applogger.Error(err))
	}
	return result, nil
}

func (r *CachedFlowRepository) SaveResult(ctx context.Context, result *models.FlowResult) error {
	if err := r.FlowRepository.SaveResult(ctx, result); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, latestResultKey); err != nil {
		r.log.Warn("latest result cache invalidation failed", applogger.Error(err))
	}
	return nil
}
