package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/config"
	"github.com/syncroom/syncroom/internal/session"
)

// RedisStore implements Store using one Redis hash per session room. Entries
// carry a TTL so a crashed hub instance cannot leave a roster behind forever.
type RedisStore struct {
	logger *zap.Logger
	client *redis.Client
	prefix string
	cfg    config.RedisConfig
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed roster store.
func NewRedisStore(ctx context.Context, logger *zap.Logger, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "syncroom"
	}

	return &RedisStore{
		logger: logger.Named("hub.store.redis"),
		client: client,
		prefix: prefix,
		cfg:    cfg,
	}, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:roster:%s", s.prefix, sessionID)
}

// Upsert implements Store.Upsert
func (s *RedisStore) Upsert(ctx context.Context, sessionID string, p session.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}

	key := s.key(sessionID)
	if err := s.client.HSet(ctx, key, p.ID, data).Err(); err != nil {
		return fmt.Errorf("hset roster: %w", err)
	}
	if s.cfg.TTL > 0 {
		if err := s.client.Expire(ctx, key, s.cfg.TTL).Err(); err != nil {
			s.logger.Warn("failed to refresh roster ttl",
				zap.String("session", sessionID),
				zap.Error(err))
		}
	}
	return nil
}

// Remove implements Store.Remove
func (s *RedisStore) Remove(ctx context.Context, sessionID, participantID string) error {
	return s.client.HDel(ctx, s.key(sessionID), participantID).Err()
}

// List implements Store.List
func (s *RedisStore) List(ctx context.Context, sessionID string) ([]session.Participant, error) {
	entries, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall roster: %w", err)
	}

	out := make([]session.Participant, 0, len(entries))
	for id, raw := range entries {
		var p session.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.logger.Warn("skipping corrupt roster entry",
				zap.String("session", sessionID),
				zap.String("participant", id),
				zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Clear implements Store.Clear
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
