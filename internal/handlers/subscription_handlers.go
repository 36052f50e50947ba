package handlers

import (
	"errors"
	"net/http"

	"flixstream/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SubscriptionHandlers handles HTTP requests for subscriptions
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
	logger              *zap.Logger
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService, logger *zap.Logger) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// Subscribe handles POST /subscribe
func (h *SubscriptionHandlers) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	var input services.SubscribeInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid request format",
		})
	}

	subscription, err := h.subscriptionService.Subscribe(ctx, &input)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":         true,
		"message":         "Subscription created successfully",
		"subscription_id": subscription.ID,
		"credentials":     subscription.Credentials(),
	})
}

// ListSubscriptions handles GET /subscriptions
func (h *SubscriptionHandlers) ListSubscriptions(c echo.Context) error {
	subscriptions, err := h.subscriptionService.List(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"subscriptions": subscriptions,
	})
}

// GetSubscription handles GET /subscriptions/:id
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.errorResponse(c, services.ErrNotFound)
	}

	subscription, err := h.subscriptionService.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"subscription": subscription,
	})
}

// ListExpiringSubscriptions handles GET /subscriptions/expiring
func (h *SubscriptionHandlers) ListExpiringSubscriptions(c echo.Context) error {
	subscriptions, err := h.subscriptionService.ListExpiring(c.Request().Context(), 0)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"count":         len(subscriptions),
		"subscriptions": subscriptions,
	})
}

// RenewSubscription handles POST /subscriptions/:id/renew
func (h *SubscriptionHandlers) RenewSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.errorResponse(c, services.ErrNotFound)
	}

	subscription, err := h.subscriptionService.Renew(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Subscription renewed successfully",
		"subscription": subscription,
	})
}

// GetStats handles GET /stats
func (h *SubscriptionHandlers) GetStats(c echo.Context) error {
	stats, err := h.subscriptionService.Stats(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// errorResponse maps service failures to wire responses. Clients get a
// generic message; the detailed cause is only logged.
func (h *SubscriptionHandlers) errorResponse(c echo.Context, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": verr.Error(),
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "Subscription not found",
		})
	}

	h.logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err))

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": "An unexpected error occurred",
	})
}
