package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
)

// ProvisioningService creates accounts on the external IPTV panel
type ProvisioningService interface {
	Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error)
}

// ProvisionRequest carries what the panel needs to open an account.
// RequestID is an idempotency key: the panel can collapse retries of the same
// request, and it seeds the generated credentials in placeholder mode.
type ProvisionRequest struct {
	PlanID    string
	FullName  string
	Email     string
	RequestID uuid.UUID
}

type ProvisionResult struct {
	Username  string
	Password  string
	URL       string
	ExpiresAt time.Time
}

// Plan durations in days. Unknown plan ids fall back to 90 days.
var planDurationDays = map[string]int{
	"3months":  90,
	"6months":  180,
	"12months": 365,
}

const defaultDurationDays = 90

const placeholderServerURL = "http://your-server.com:8080"

type provisioningService struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

type createUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Duration       int    `json:"duration"`
	MaxConnections int    `json:"max_connections"`
	IsTrial        bool   `json:"is_trial"`
}

type createUserResponse struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ServerURL string `json:"server_url"`
}

// NewProvisioningService creates a panel API client. With an empty apiKey the
// client runs in placeholder mode and generates credentials locally.
func NewProvisioningService(baseURL, apiKey string, logger *zap.Logger) ProvisioningService {
	return &provisioningService{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

// PlanDurationDays resolves a plan id to its provisioned duration.
func PlanDurationDays(planID string) int {
	if days, ok := planDurationDays[planID]; ok {
		return days
	}
	return defaultDurationDays
}

func (s *provisioningService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	days := PlanDurationDays(req.PlanID)
	expiresAt := s.now().Add(time.Duration(days) * 24 * time.Hour)

	if s.apiKey == "" {
		return s.provisionPlaceholder(req, expiresAt), nil
	}

	payload := createUserRequest{
		Username:       fmt.Sprintf("user_%s", req.RequestID.String()[:8]),
		Password:       random.String(16),
		Email:          req.Email,
		FullName:       req.FullName,
		Duration:       days,
		MaxConnections: 1,
		IsTrial:        false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/create_user", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.RequestID.String())

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("panel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Error("panel returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", req.RequestID.String()),
			zap.ByteString("body", respBody))
		return nil, fmt.Errorf("panel returned status %d", resp.StatusCode)
	}

	var created createUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode panel response: %w", err)
	}

	return &ProvisionResult{
		Username:  created.Username,
		Password:  created.Password,
		URL:       created.ServerURL,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *provisioningService) provisionPlaceholder(req ProvisionRequest, expiresAt time.Time) *ProvisionResult {
	s.logger.Info("provisioning in placeholder mode, no panel API key configured",
		zap.String("plan_id", req.PlanID),
		zap.String("request_id", req.RequestID.String()))

	return &ProvisionResult{
		Username:  fmt.Sprintf("user_%s", req.RequestID.String()[:8]),
		Password:  random.String(16),
		URL:       placeholderServerURL,
		ExpiresAt: expiresAt,
	}
}
