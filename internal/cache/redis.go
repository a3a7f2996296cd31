package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/metrics"
	"github.com/vendora/backend/internal/models"
	"go.uber.org/zap"
)

// ProfileTTL bounds staleness of cached profiles between reconciliations.
const ProfileTTL = 5 * time.Minute

// RedisClient wraps the redis.Client with centralized connection pooling.
// A nil *RedisClient is safe to use; every operation becomes a no-op, so
// the service degrades to uncached reads when Redis is not configured.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection
// pooling. Requires REDIS_HOST and optionally REDIS_PORT, REDIS_PASSWORD.
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("✅ Redis client connected successfully",
		zap.String("address", addr),
	)

	return &RedisClient{client: client}, nil
}

func profileKey(id string) string {
	return "profile:" + id
}

// handleKey points a lowercased username at the profile id that owns it, so
// username-shaped lookups can resolve without a database round trip.
func handleKey(username string) string {
	return "profile:handle:" + strings.ToLower(username)
}

// GetProfile returns a cached profile, or nil on miss.
func (rc *RedisClient) GetProfile(ctx context.Context, id string) *models.User {
	if rc == nil {
		return nil
	}

	data, err := rc.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues("profile").Inc()
		return nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		// Corrupt entry; drop it so the next read repopulates
		rc.client.Del(ctx, profileKey(id))
		metrics.CacheMissesTotal.WithLabelValues("profile").Inc()
		return nil
	}

	metrics.CacheHitsTotal.WithLabelValues("profile").Inc()
	return &user
}

// GetProfileByHandle returns the cached profile a username points at, or nil
// when either the pointer or the profile body is missing. A pointer left
// dangling by invalidation reads as a miss and heals on the next SetProfile.
func (rc *RedisClient) GetProfileByHandle(ctx context.Context, username string) *models.User {
	if rc == nil || username == "" {
		return nil
	}

	id, err := rc.client.Get(ctx, handleKey(username)).Result()
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues("profile_handle").Inc()
		return nil
	}

	return rc.GetProfile(ctx, id)
}

// SetProfile caches a profile under its id, and keeps the handle pointer for
// its username current when one exists.
func (rc *RedisClient) SetProfile(ctx context.Context, user *models.User) {
	if rc == nil || user == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		return
	}

	if err := rc.client.Set(ctx, profileKey(user.ID), data, ProfileTTL).Err(); err != nil {
		logger.Warn("profile cache set failed",
			zap.String("profile_id", user.ID),
			zap.Error(err),
		)
		return
	}

	if user.Username != "" {
		if err := rc.client.Set(ctx, handleKey(user.Username), user.ID, ProfileTTL).Err(); err != nil {
			logger.Warn("profile handle pointer set failed",
				zap.String("profile_id", user.ID),
				zap.Error(err),
			)
		}
	}
}

// InvalidateProfile drops cached entries for the given profile ids. Called
// after every counter mutation so stale counts never outlive a write.
func (rc *RedisClient) InvalidateProfile(ctx context.Context, ids ...string) {
	if rc == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, profileKey(id))
	}

	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("profile cache invalidation failed", zap.Error(err))
	}
}

// Close shuts down the underlying connection pool.
func (rc *RedisClient) Close() error {
	if rc == nil {
		return nil
	}
	return rc.client.Close()
}
