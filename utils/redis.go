package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmanager/models"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const redisTimeout = 5 * time.Second

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing redis dsn: %w", err)
	}

	// Configure connection pooling
	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

// StoreSession saves a session in Redis
func StoreSession(ctx context.Context, client *redis.Client, session models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionMap := map[string]any{
		"user_id":       session.UserID,
		"email":         session.Email,
		"created_at":    session.CreatedAt,
		"expires_at":    session.ExpiresAt,
		"last_activity": session.LastActivity,
		"csrf_token":    session.CSRFToken,
		"user_agent":    session.UserAgent,
		"ip_address":    session.IPAddress,
	}

	key := sessionKey(session.SessionID)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, sessionMap)
		pipe.Expire(ctx, key, ttl)
		// Add to the user's session index
		pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
		return nil
	})
	return err
}

// GetSession retrieves session details from Redis
func GetSession(ctx context.Context, client *redis.Client, sessionID string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	return &models.Session{
		SessionID:    sessionID,
		UserID:       data["user_id"],
		Email:        data["email"],
		CreatedAt:    data["created_at"],
		ExpiresAt:    data["expires_at"],
		LastActivity: data["last_activity"],
		CSRFToken:    data["csrf_token"],
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
	}, nil
}

// ValidateSession checks if a session exists and is not expired
func ValidateSession(ctx context.Context, client *redis.Client, sessionID string) (*models.Session, error) {
	session, err := GetSession(ctx, client, sessionID)
	if err != nil {
		return nil, err
	}

	expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parsing session expiry: %w", err)
	}
	if !time.Now().Before(expiresAt) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession removes a single session and its reference in the user index
func DeleteSession(ctx context.Context, client *redis.Client, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(sessionID)

	userID, err := client.HGet(ctx, key, "user_id").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, userSessionsKey(userID), key)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// UpdateLastActivity updates the last activity timestamp of a session
func UpdateLastActivity(ctx context.Context, client *redis.Client, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return client.HSet(ctx, sessionKey(sessionID), "last_activity", time.Now().Format(time.RFC3339)).Err()
}

// CountUserSessions returns the number of live sessions indexed for a user.
// Expired entries still in the index are pruned as a side effect.
func CountUserSessions(ctx context.Context, client *redis.Client, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	keys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	var count int64
	for _, key := range keys {
		n, err := client.Exists(ctx, key).Result()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			client.SRem(ctx, userSessionsKey(userID), key)
			continue
		}
		count++
	}
	return count, nil
}

// DeleteAllUserSessions removes all sessions associated with a specific user
func DeleteAllUserSessions(ctx context.Context, client *redis.Client, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionKeys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}

	if len(sessionKeys) > 0 {
		if err := client.Del(ctx, sessionKeys...).Err(); err != nil {
			return err
		}
	}

	return client.Del(ctx, userSessionsKey(userID)).Err()
}
