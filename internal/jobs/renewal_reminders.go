package jobs

import (
	"context"
	"time"

	"flixstream/internal/caching"
	"flixstream/internal/repositories"
	"flixstream/internal/services"

	"go.uber.org/zap"
)

// ReminderService emails customers whose active subscriptions expire within
// the reminder window. A redis dedupe key keeps the daily run from re-sending
// the same reminder.
type ReminderService struct {
	subscriptionRepo repositories.SubscriptionRepository
	mailerSvc        services.MailerService
	cacheSvc         caching.CacheService
	logger           *zap.Logger
	window           time.Duration
	dedupeTTL        time.Duration
	now              func() time.Time
}

const (
	reminderWindow    = 30 * 24 * time.Hour
	reminderDedupeTTL = 7 * 24 * time.Hour
)

func NewReminderService(
	subscriptionRepo repositories.SubscriptionRepository,
	mailerSvc services.MailerService,
	cacheSvc caching.CacheService,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		subscriptionRepo: subscriptionRepo,
		mailerSvc:        mailerSvc,
		cacheSvc:         cacheSvc,
		logger:           logger,
		window:           reminderWindow,
		dedupeTTL:        reminderDedupeTTL,
		now:              time.Now,
	}
}

// Run sends one reminder per expiring subscription. Individual failures are
// logged and skipped; the run itself only fails when the store is unreachable.
func (s *ReminderService) Run(ctx context.Context) error {
	cutoff := s.now().Add(s.window)

	expiring, err := s.subscriptionRepo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to list expiring subscriptions", zap.Error(err))
		return err
	}

	sent := 0
	for _, sub := range expiring {
		if sub.ExpiresAt == nil {
			continue
		}

		reminded, err := s.cacheSvc.WasReminded(ctx, sub.ID)
		if err != nil {
			s.logger.Warn("reminder dedupe check failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
		if reminded {
			continue
		}

		if err := s.mailerSvc.SendRenewalReminder(ctx, sub.Email, sub.FullName, sub.PlanName, *sub.ExpiresAt); err != nil {
			s.logger.Warn("renewal reminder failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			continue
		}

		if err := s.cacheSvc.MarkReminded(ctx, sub.ID, s.dedupeTTL); err != nil {
			s.logger.Warn("reminder dedupe mark failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
		sent++
	}

	s.logger.Info("renewal reminder run finished",
		zap.Int("expiring", len(expiring)),
		zap.Int("sent", sent))
	return nil
}
