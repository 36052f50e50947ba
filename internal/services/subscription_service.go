package services

import (
	"context"
	"errors"
	"time"

	"flixstream/internal/caching"
	"flixstream/internal/models"
	"flixstream/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SubscriptionService orchestrates the subscription lifecycle: provisioning,
// persistence and customer notification.
type SubscriptionService interface {
	Subscribe(ctx context.Context, input *SubscribeInput) (*models.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context) ([]*models.Subscription, error)
	ListExpiring(ctx context.Context, windowDays int) ([]*models.Subscription, error)
	Stats(ctx context.Context) (*models.SubscriptionStats, error)
}

type SubscribeInput struct {
	FullName      string    `json:"fullName" validate:"required"`
	Email         string    `json:"email" validate:"required,email"`
	Phone         string    `json:"phone" validate:"required"`
	ContactMethod string    `json:"contactMethod" validate:"required,oneof=whatsapp telegram"`
	Plan          PlanInput `json:"plan" validate:"required"`
}

type PlanInput struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Price    string `json:"price"`
	Duration string `json:"duration"`
}

const (
	defaultExpiryWindowDays = 30
	statsCacheTTL           = time.Minute
)

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	provisioningSvc  ProvisioningService
	mailerSvc        MailerService
	cacheSvc         caching.CacheService
	validate         *validator.Validate
	logger           *zap.Logger
	now              func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService instance
func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	provisioningSvc ProvisioningService,
	mailerSvc MailerService,
	cacheSvc caching.CacheService,
	logger *zap.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		provisioningSvc:  provisioningSvc,
		mailerSvc:        mailerSvc,
		cacheSvc:         cacheSvc,
		validate:         validator.New(),
		logger:           logger,
		now:              time.Now,
	}
}

// Subscribe provisions a panel account for the requested plan and persists the
// subscription as active with the returned credentials. Provisioning failure
// aborts before any store write. A store failure after provisioning leaves an
// orphaned panel account; the request id is logged for reconciliation.
func (s *subscriptionService) Subscribe(ctx context.Context, input *SubscribeInput) (*models.Subscription, error) {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field()}
		}
		return nil, &ValidationError{Field: "input"}
	}

	requestID := uuid.New()
	result, err := s.provisioningSvc.Provision(ctx, ProvisionRequest{
		PlanID:    input.Plan.ID,
		FullName:  input.FullName,
		Email:     input.Email,
		RequestID: requestID,
	})
	if err != nil {
		return nil, &ProvisioningError{Err: err}
	}

	subscription := &models.Subscription{
		ID:            uuid.New(),
		FullName:      input.FullName,
		Email:         input.Email,
		Phone:         input.Phone,
		ContactMethod: input.ContactMethod,
		PlanID:        input.Plan.ID,
		PlanName:      input.Plan.Name,
		PlanPrice:     input.Plan.Price,
		PlanDuration:  input.Plan.Duration,
		Status:        models.StatusActive,
		CreatedAt:     s.now(),
		ExpiresAt:     &result.ExpiresAt,
		IPTVUsername:  &result.Username,
		IPTVPassword:  &result.Password,
		IPTVURL:       &result.URL,
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		s.logger.Error("subscription persist failed after provisioning, panel account orphaned",
			zap.String("request_id", requestID.String()),
			zap.String("panel_username", result.Username),
			zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}

	s.invalidateStats(ctx)

	if err := s.mailerSvc.SendActivation(ctx, subscription.Email, subscription.FullName, subscription.PlanName, models.Credentials{
		Username: result.Username,
		Password: result.Password,
		URL:      result.URL,
	}); err != nil {
		// Best effort: the subscription is live even when the email is not.
		s.logger.Warn("activation email failed",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Error(err))
	}

	return subscription, nil
}

// Renew provisions a fresh panel account for the subscription's existing plan
// and replaces credentials, expiry and status in one atomic update. Any
// failure leaves the prior state untouched.
func (s *subscriptionService) Renew(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Err: err}
	}

	requestID := uuid.New()
	result, err := s.provisioningSvc.Provision(ctx, ProvisionRequest{
		PlanID:    subscription.PlanID,
		FullName:  subscription.FullName,
		Email:     subscription.Email,
		RequestID: requestID,
	})
	if err != nil {
		return nil, &ProvisioningError{Err: err}
	}

	renewed := *subscription
	renewed.Status = models.StatusActive
	renewed.ExpiresAt = &result.ExpiresAt
	renewed.IPTVUsername = &result.Username
	renewed.IPTVPassword = &result.Password
	renewed.IPTVURL = &result.URL

	if err := s.subscriptionRepo.Update(ctx, &renewed); err != nil {
		s.logger.Error("renewal persist failed, panel account orphaned",
			zap.String("subscription_id", id.String()),
			zap.String("request_id", requestID.String()),
			zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}

	s.invalidateStats(ctx)

	return &renewed, nil
}

func (s *subscriptionService) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Err: err}
	}
	return subscription, nil
}

func (s *subscriptionService) List(ctx context.Context) ([]*models.Subscription, error) {
	subscriptions, err := s.subscriptionRepo.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return subscriptions, nil
}

func (s *subscriptionService) ListExpiring(ctx context.Context, windowDays int) ([]*models.Subscription, error) {
	if windowDays <= 0 {
		windowDays = defaultExpiryWindowDays
	}
	cutoff := s.now().Add(time.Duration(windowDays) * 24 * time.Hour)

	subscriptions, err := s.subscriptionRepo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return subscriptions, nil
}

func (s *subscriptionService) Stats(ctx context.Context) (*models.SubscriptionStats, error) {
	if cached, err := s.cacheSvc.GetStats(ctx); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}

	byStatus, err := s.subscriptionRepo.CountByStatus(ctx)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	byPlan, err := s.subscriptionRepo.CountByPlan(ctx)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	stats := &models.SubscriptionStats{
		Active:  byStatus[models.StatusActive],
		Pending: byStatus[models.StatusPending],
		Expired: byStatus[models.StatusExpired],
		ByPlan:  byPlan,
	}
	stats.Total = stats.Active + stats.Pending + stats.Expired

	if err := s.cacheSvc.SetStats(ctx, stats, statsCacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}

	return stats, nil
}

func (s *subscriptionService) invalidateStats(ctx context.Context) {
	if err := s.cacheSvc.InvalidateStats(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
