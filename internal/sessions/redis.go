package sessions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"personal-tracker/internal/models"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions as Redis hashes that expire with the session.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// OpenRedis parses url, tunes the connection pool and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an open client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Create stores the session as a hash that expires with it.
func (s *RedisStore) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	key := sessionKey(token)
	now := time.Now()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":       userID,
			"expires_at":    expiresAt.UnixMilli(),
			"last_activity": now.UnixMilli(),
		})
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Lookup returns the session for token if it exists and has not expired.
func (s *RedisStore) Lookup(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoSession
	}

	sess, err := decodeSession(token, data)
	if err != nil {
		return nil, err
	}
	if !time.Now().Before(sess.ExpiresAt) {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Renew extends the session and its key TTL.
func (s *RedisStore) Renew(ctx context.Context, token string, expiresAt time.Time) error {
	key := sessionKey(token)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"expires_at", expiresAt.UnixMilli(),
			"last_activity", time.Now().UnixMilli(),
		)
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	return err
}

// Delete removes a single session. Unknown tokens are ignored.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpired is a no-op: Redis expires session keys on its own.
func (s *RedisStore) CleanExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// decodeSession rebuilds a session from its hash fields.
func decodeSession(token string, data map[string]string) (*models.Session, error) {
	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session user_id: %w", err)
	}
	expiresAt, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session expires_at: %w", err)
	}
	lastActivity, err := strconv.ParseInt(data["last_activity"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session last_activity: %w", err)
	}
	return &models.Session{
		Token:        token,
		UserID:       userID,
		ExpiresAt:    time.UnixMilli(expiresAt),
		LastActivity: time.UnixMilli(lastActivity),
	}, nil
}
