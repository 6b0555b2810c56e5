package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache stores rendered view data per scope and user. Writes to the
// underlying records call Invalidate so the next read goes to the database.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

func viewKey(scope, owner string) string {
	return "view:" + scope + ":" + owner
}

// Get decodes the cached value into dest and reports whether it was found.
func (c *ViewCache) Get(ctx context.Context, scope, owner string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, viewKey(scope, owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("reading view cache: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decoding view cache: %w", err)
	}
	return true, nil
}

func (c *ViewCache) Set(ctx context.Context, scope, owner string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding view cache: %w", err)
	}
	if err := c.client.Set(ctx, viewKey(scope, owner), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing view cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached view for scope and owner.
func (c *ViewCache) Invalidate(ctx context.Context, scope, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := c.client.Del(ctx, viewKey(scope, owner)).Err(); err != nil {
		return fmt.Errorf("invalidating view cache: %w", err)
	}
	return nil
}
