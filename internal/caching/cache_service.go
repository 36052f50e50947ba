package caching

import (
	"context"
	"encoding/json"
	"time"

	"flixstream/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Stats caching
	GetStats(ctx context.Context) (*models.SubscriptionStats, error)
	SetStats(ctx context.Context, stats *models.SubscriptionStats, ttl time.Duration) error
	InvalidateStats(ctx context.Context) error

	// Renewal reminder dedupe
	WasReminded(ctx context.Context, subscriptionID uuid.UUID) (bool, error)
	MarkReminded(ctx context.Context, subscriptionID uuid.UUID, ttl time.Duration) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

const (
	statsKey       = "flixstream:stats"
	reminderPrefix = "flixstream:reminded:"
)

func NewRedisCacheService(addr, password string, db int) CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetStats(ctx context.Context) (*models.SubscriptionStats, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var stats models.SubscriptionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetStats(ctx context.Context, stats *models.SubscriptionStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statsKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateStats(ctx context.Context) error {
	return r.client.Del(ctx, statsKey).Err()
}

func (r *redisCacheService) WasReminded(ctx context.Context, subscriptionID uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, reminderPrefix+subscriptionID.String()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisCacheService) MarkReminded(ctx context.Context, subscriptionID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, reminderPrefix+subscriptionID.String(), "1", ttl).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
