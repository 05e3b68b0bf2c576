package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jaryo/models"

	"github.com/redis/go-redis/v9"
)

type RedisSessionRepository struct {
	redis  *redis.Client
	prefix string
}

func NewRedisSessionRepository(redisClient *redis.Client, prefix string) *RedisSessionRepository {
	return &RedisSessionRepository{redis: redisClient, prefix: prefix}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sessionID)
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, r.sessionKey(session.ID), payload, ttl).Err()
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (models.UserSession, error) {
	payload, err := r.redis.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.UserSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.UserSession{}, err
	}
	var session models.UserSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return models.UserSession{}, err
	}
	return session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.redis.Del(ctx, r.sessionKey(sessionID)).Err()
}

// DeleteExpired is a no-op; keys carry their own TTL.
func (r *RedisSessionRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
