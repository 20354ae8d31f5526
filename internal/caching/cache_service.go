package caching

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bms/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix    = "bms:"
	dashboardKey = keyPrefix + "dashboard"
)

type CacheService interface {
	// GetDashboard returns nil on a cache miss.
	GetDashboard(ctx context.Context) (*models.Dashboard, error)
	SetDashboard(ctx context.Context, dashboard *models.Dashboard, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context) error
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewRedisCacheService(addr, password string, db int, log logrus.FieldLogger) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.WithError(pingErr).WithField("addr", parsedAddr).Warn("redis ping failed on initialization")
	} else {
		log.WithField("addr", parsedAddr).Debug("redis connection established")
	}

	return &redisCacheService{client: client, log: log}
}

func (r *redisCacheService) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	data, err := r.client.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var dashboard models.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, dashboard *models.Dashboard, ttl time.Duration) error {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dashboardKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateDashboard(ctx context.Context) error {
	return r.client.Del(ctx, dashboardKey).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NopCache is used when redis is disabled; every read misses.
type NopCache struct{}

func (NopCache) GetDashboard(context.Context) (*models.Dashboard, error)               { return nil, nil }
func (NopCache) SetDashboard(context.Context, *models.Dashboard, time.Duration) error { return nil }
func (NopCache) InvalidateDashboard(context.Context) error                            { return nil }
func (NopCache) Ping(context.Context) error                                           { return nil }
