package preview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Handles are plain keys namespaced by
// session id, so session teardown is a prefix scan-and-delete.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed preview store
func NewRedisStore(address, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying connection for co-located consumers such as
// the pub/sub notifier.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Put registers a preview payload
func (s *RedisStore) Put(ctx context.Context, sessionID, assetID string, contentType string, data []byte) (string, error) {
	handle := handleKey(sessionID, assetID)

	if err := s.client.HSet(ctx, handle, "content_type", contentType, "data", data).Err(); err != nil {
		return "", fmt.Errorf("failed to store preview: %w", err)
	}

	return handle, nil
}

// Get fetches a preview payload
func (s *RedisStore) Get(ctx context.Context, handle string) (string, []byte, error) {
	fields, err := s.client.HGetAll(ctx, handle).Result()
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch preview: %w", err)
	}
	if len(fields) == 0 {
		return "", nil, ErrHandleNotFound
	}

	return fields["content_type"], []byte(fields["data"]), nil
}

// Release revokes a single handle
func (s *RedisStore) Release(ctx context.Context, handle string) error {
	deleted, err := s.client.Del(ctx, handle).Result()
	if err != nil {
		return fmt.Errorf("failed to release preview: %w", err)
	}
	if deleted == 0 {
		return ErrHandleNotFound
	}
	return nil
}

// ReleaseSession revokes every handle minted for a session
func (s *RedisStore) ReleaseSession(ctx context.Context, sessionID string) error {
	pattern := sessionPrefix(sessionID) + "*"
	var cursor uint64
	var released int

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan preview handles: %w", err)
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("failed to delete some preview handles", "error", err)
			}
			released += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	slog.Info("session previews released",
		"session_id", sessionID,
		"handles_released", released,
	)

	return nil
}

// Ping verifies Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
