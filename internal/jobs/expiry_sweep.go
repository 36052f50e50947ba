package jobs

import (
	"context"
	"time"

	"flixstream/internal/caching"
	"flixstream/internal/repositories"

	"go.uber.org/zap"
)

// ExpirySweepService transitions active subscriptions past their expiry date
// to expired.
type ExpirySweepService struct {
	subscriptionRepo repositories.SubscriptionRepository
	cacheSvc         caching.CacheService
	logger           *zap.Logger
	now              func() time.Time
}

func NewExpirySweepService(
	subscriptionRepo repositories.SubscriptionRepository,
	cacheSvc caching.CacheService,
	logger *zap.Logger,
) *ExpirySweepService {
	return &ExpirySweepService{
		subscriptionRepo: subscriptionRepo,
		cacheSvc:         cacheSvc,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *ExpirySweepService) Run(ctx context.Context) error {
	expired, err := s.subscriptionRepo.MarkExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return err
	}

	if expired > 0 {
		s.logger.Info("subscriptions expired", zap.Int64("count", expired))
		if err := s.cacheSvc.InvalidateStats(ctx); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.Error(err))
		}
	}

	return nil
}
