// Package session provides the server-side session stores.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

const scanBatch = 100

// RedisStore keeps sessions as JSON values whose TTL matches the session expiry
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
}

var _ service.SessionStore = (*RedisStore)(nil)

// NewRedisStore connects to redis and pings it
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address(),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	return NewRedisStoreWithClient(ctx, redis.NewClient(opts))
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	log := logger.Get().WithFields(logger.Component("session-redis"))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Connected to redis session store", logger.String("addr", client.Options().Addr))
	return &RedisStore{client: client, log: log}, nil
}

// Save implements service.SessionStore
func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperror.BadRequest("session already expired", apperror.ErrSessionExpired)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return apperror.InternalError("failed to encode session", err)
	}

	if err := s.client.Set(ctx, session.ID, data, ttl).Err(); err != nil {
		return apperror.InternalError("failed to store session", err)
	}
	return nil
}

// Get implements service.SessionStore
func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NotFound("session", apperror.ErrSessionExpired)
		}
		return nil, apperror.InternalError("failed to load session", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.InternalError("failed to decode session", err)
	}
	return &session, nil
}

// Delete implements service.SessionStore
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, id).Err(); err != nil {
		return apperror.InternalError("failed to delete session", err)
	}
	return nil
}

// DeleteByUser scans sid:<userId>:* and removes everything but keepID
func (s *RedisStore) DeleteByUser(ctx context.Context, userID uint, keepID string) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, models.SessionPrefix(userID)+"*", scanBatch).Result()
		if err != nil {
			return removed, apperror.InternalError("failed to scan sessions", err)
		}

		doomed := make([]string, 0, len(keys))
		for _, key := range keys {
			if key != keepID {
				doomed = append(doomed, key)
			}
		}

		if len(doomed) > 0 {
			n, err := s.client.Del(ctx, doomed...).Result()
			if err != nil {
				return removed, apperror.InternalError("failed to revoke sessions", err)
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.log.Debug("Revoked sessions", logger.UserID(userID), logger.Int("count", removed))
	return removed, nil
}

// Ping implements service.SessionStore
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements service.SessionStore
func (s *RedisStore) Close() error {
	return s.client.Close()
}
